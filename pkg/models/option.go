package models

// OptionKind names a list of reference options used to fill dropdowns.
type OptionKind string

const (
	OptionKindDealerships   OptionKind = "dealerships"
	OptionKindRoles         OptionKind = "roles"
	OptionKindPlans         OptionKind = "plans"
	OptionKindBusinessTypes OptionKind = "business-types"
)

// Option is one selectable entry.
type Option struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}
