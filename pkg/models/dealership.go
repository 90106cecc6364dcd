// Package models defines the records managed by the Cars.na admin backend.
package models

import "time"

// DealershipStatus represents the review state of a dealership.
type DealershipStatus string

const (
	DealershipStatusPending   DealershipStatus = "PENDING"   // Awaiting admin review
	DealershipStatusActive    DealershipStatus = "ACTIVE"    // Approved, may list vehicles
	DealershipStatusSuspended DealershipStatus = "SUSPENDED" // Temporarily blocked
	DealershipStatusRejected  DealershipStatus = "REJECTED"  // Application declined
)

// DealershipStatuses lists every status in review order.
var DealershipStatuses = []DealershipStatus{
	DealershipStatusPending,
	DealershipStatusActive,
	DealershipStatusSuspended,
	DealershipStatusRejected,
}

// CanTransitionTo reports whether an admin may move a dealership from s to next.
func (s DealershipStatus) CanTransitionTo(next DealershipStatus) bool {
	switch s {
	case DealershipStatusPending:
		return next == DealershipStatusActive || next == DealershipStatusRejected
	case DealershipStatusActive:
		return next == DealershipStatusSuspended
	case DealershipStatusSuspended:
		return next == DealershipStatusActive
	default:
		return false
	}
}

type BusinessType string

const (
	BusinessTypeIndependent BusinessType = "independent"
	BusinessTypeFranchise   BusinessType = "franchise"
	BusinessTypeFleet       BusinessType = "fleet"
)

var BusinessTypes = []BusinessType{BusinessTypeIndependent, BusinessTypeFranchise, BusinessTypeFleet}

// Plan is the subscription tier a dealership signs up for.
type Plan string

const (
	PlanBasic      Plan = "basic"
	PlanPremium    Plan = "premium"
	PlanEnterprise Plan = "enterprise"
)

var Plans = []Plan{PlanBasic, PlanPremium, PlanEnterprise}

// Document references an uploaded file.
type Document struct {
	Name        string `json:"name" validate:"required"`
	URL         string `json:"url,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	Size        int64  `json:"size,omitempty"`
}

// DealershipDocuments is the document set collected during onboarding.
type DealershipDocuments struct {
	BusinessLicense *Document `json:"business_license,omitempty" validate:"required"`
	TaxCertificate  *Document `json:"tax_certificate,omitempty"  validate:"required"`
	ProofOfAddress  *Document `json:"proof_of_address,omitempty"`
}

// Dealership is a vehicle seller registered on the marketplace.
type Dealership struct {
	ID                 string              `json:"id"`
	Name               string              `json:"name"                validate:"required"`
	RegistrationNumber string              `json:"registration_number" validate:"required"`
	TaxNumber          string              `json:"tax_number,omitempty"`
	BusinessType       BusinessType        `json:"business_type"       validate:"required,oneof=independent franchise fleet"`
	ContactName        string              `json:"contact_name"        validate:"required"`
	Email              string              `json:"email"               validate:"required,email"`
	Phone              string              `json:"phone"               validate:"required"`
	Address            string              `json:"address"             validate:"required"`
	City               string              `json:"city"                validate:"required"`
	Region             string              `json:"region"              validate:"required"`
	Website            string              `json:"website,omitempty"`
	Documents          DealershipDocuments `json:"documents"`
	Plan               Plan                `json:"plan"                validate:"required,oneof=basic premium enterprise"`
	CommissionRate     float64             `json:"commission_rate"     validate:"gte=0,lte=20"`
	Status             DealershipStatus    `json:"status"`
	CreatedAt          time.Time           `json:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at"`
}
