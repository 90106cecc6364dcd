package onboarding

import (
	"context"

	"github.com/carsna/carsna/pkg/models"
	"github.com/carsna/carsna/pkg/services"
	"github.com/carsna/carsna/pkg/wizard"
)

// DealershipDraft is the in-progress dealership application.
type DealershipDraft struct {
	Name               string          `json:"name"`
	RegistrationNumber string          `json:"registration_number"`
	TaxNumber          string          `json:"tax_number"`
	BusinessType       string          `json:"business_type"`
	ContactName        string          `json:"contact_name"`
	Email              string          `json:"email"`
	Phone              string          `json:"phone"`
	Address            string          `json:"address"`
	City               string          `json:"city"`
	Region             string          `json:"region"`
	Website            string          `json:"website"`
	BusinessLicense    *wizard.FileRef `json:"business_license"`
	TaxCertificate     *wizard.FileRef `json:"tax_certificate"`
	ProofOfAddress     *wizard.FileRef `json:"proof_of_address"`
	Plan               string          `json:"plan"`
	CommissionRate     float64         `json:"commission_rate"`
	AcceptTerms        bool            `json:"accept_terms"`
}

// DefaultCommissionRate is the rate offered until sales negotiates another.
const DefaultCommissionRate = 5

func newDealershipDraft() DealershipDraft {
	return DealershipDraft{
		Plan:           string(models.PlanBasic),
		CommissionRate: DefaultCommissionRate,
	}
}

// DealershipDefinition is the four-step onboarding wizard. Commit creates a PENDING dealership.
func DealershipDefinition(creator DealershipCreator) *wizard.Definition[DealershipDraft, *models.Dealership] {
	businessTypes := enumValues(models.BusinessTypes)
	plans := enumValues(models.Plans)

	return wizard.MustDefinition[DealershipDraft, *models.Dealership](
		KindDealership,
		[]wizard.Step{
			{Name: "business", Title: "Business details"},
			{Name: "contact", Title: "Contact information"},
			{Name: "documents", Title: "Documents"},
			{Name: "plan", Title: "Plan and terms"},
		},
		[]wizard.Field[DealershipDraft]{
			wizard.StringField("name", 1, func(d *DealershipDraft) *string { return &d.Name }),
			wizard.StringField("registration_number", 1, func(d *DealershipDraft) *string { return &d.RegistrationNumber }),
			wizard.StringField("tax_number", 1, func(d *DealershipDraft) *string { return &d.TaxNumber }),
			wizard.EnumField("business_type", 1, businessTypes, func(d *DealershipDraft) *string { return &d.BusinessType }),

			wizard.StringField("contact_name", 2, func(d *DealershipDraft) *string { return &d.ContactName }),
			wizard.StringField("email", 2, func(d *DealershipDraft) *string { return &d.Email }),
			wizard.StringField("phone", 2, func(d *DealershipDraft) *string { return &d.Phone }),
			wizard.StringField("address", 2, func(d *DealershipDraft) *string { return &d.Address }),
			wizard.StringField("city", 2, func(d *DealershipDraft) *string { return &d.City }),
			wizard.StringField("region", 2, func(d *DealershipDraft) *string { return &d.Region }),
			wizard.StringField("website", 2, func(d *DealershipDraft) *string { return &d.Website }),

			wizard.FileField("business_license", 3, func(d *DealershipDraft) **wizard.FileRef { return &d.BusinessLicense }),
			wizard.FileField("tax_certificate", 3, func(d *DealershipDraft) **wizard.FileRef { return &d.TaxCertificate }),
			wizard.FileField("proof_of_address", 3, func(d *DealershipDraft) **wizard.FileRef { return &d.ProofOfAddress }),

			wizard.EnumField("plan", 4, plans, func(d *DealershipDraft) *string { return &d.Plan }),
			wizard.NumberField("commission_rate", 4, func(d *DealershipDraft) *float64 { return &d.CommissionRate }),
			wizard.BoolField("accept_terms", 4, func(d *DealershipDraft) *bool { return &d.AcceptTerms }),
		},
		[]wizard.Rule[DealershipDraft]{
			wizard.Required("name", func(d DealershipDraft) string { return d.Name }, "Business name is required"),
			wizard.Required("registration_number", func(d DealershipDraft) string { return d.RegistrationNumber },
				"Registration number is required"),
			wizard.Required("business_type", func(d DealershipDraft) string { return d.BusinessType }, "Business type is required"),
			wizard.OneOf("business_type", func(d DealershipDraft) string { return d.BusinessType }, businessTypes,
				"Business type is invalid"),

			wizard.Required("contact_name", func(d DealershipDraft) string { return d.ContactName }, "Contact name is required"),
			wizard.Required("email", func(d DealershipDraft) string { return d.Email }, "Email is required"),
			wizard.Email("email", func(d DealershipDraft) string { return d.Email }, "Email is invalid"),
			wizard.Required("phone", func(d DealershipDraft) string { return d.Phone }, "Phone is required"),
			wizard.Required("address", func(d DealershipDraft) string { return d.Address }, "Address is required"),
			wizard.Required("city", func(d DealershipDraft) string { return d.City }, "City is required"),
			wizard.Required("region", func(d DealershipDraft) string { return d.Region }, "Region is required"),

			wizard.FileRequired("business_license", func(d DealershipDraft) *wizard.FileRef { return d.BusinessLicense },
				"Business license is required"),
			wizard.FileRequired("tax_certificate", func(d DealershipDraft) *wizard.FileRef { return d.TaxCertificate },
				"Tax certificate is required"),

			wizard.Required("plan", func(d DealershipDraft) string { return d.Plan }, "Plan is required"),
			wizard.Range("commission_rate", func(d DealershipDraft) float64 { return d.CommissionRate }, 0, 20,
				"Commission rate must be between 0 and 20"),
			wizard.Checked("accept_terms", func(d DealershipDraft) bool { return d.AcceptTerms },
				"You must accept the terms"),
		},
		newDealershipDraft,
		func(ctx context.Context, d DealershipDraft) (*models.Dealership, error) {
			return creator.Create(ctx, d.request())
		},
	)
}

// request narrows the draft to what the dealership service stores.
func (d DealershipDraft) request() services.CreateDealershipRequest {
	return services.CreateDealershipRequest{
		Name:               d.Name,
		RegistrationNumber: d.RegistrationNumber,
		TaxNumber:          d.TaxNumber,
		BusinessType:       models.BusinessType(d.BusinessType),
		ContactName:        d.ContactName,
		Email:              d.Email,
		Phone:              d.Phone,
		Address:            d.Address,
		City:               d.City,
		Region:             d.Region,
		Website:            d.Website,
		Documents: models.DealershipDocuments{
			BusinessLicense: document(d.BusinessLicense),
			TaxCertificate:  document(d.TaxCertificate),
			ProofOfAddress:  document(d.ProofOfAddress),
		},
		Plan:           models.Plan(d.Plan),
		CommissionRate: d.CommissionRate,
	}
}
