// Package web provides HTTP request and response types for the admin API.
package web

import (
	"github.com/carsna/carsna/pkg/models"
	"github.com/carsna/carsna/pkg/services"
)

// CreateDealershipRequest represents the request body for registering a dealership
// without going through the onboarding wizard.
type CreateDealershipRequest struct {
	Name               string                     `json:"name"                validate:"required"`
	RegistrationNumber string                     `json:"registration_number" validate:"required"`
	TaxNumber          string                     `json:"tax_number"`
	BusinessType       string                     `json:"business_type"       validate:"required,oneof=independent franchise fleet"`
	ContactName        string                     `json:"contact_name"        validate:"required"`
	Email              string                     `json:"email"               validate:"required,email"`
	Phone              string                     `json:"phone"               validate:"required"`
	Address            string                     `json:"address"             validate:"required"`
	City               string                     `json:"city"                validate:"required"`
	Region             string                     `json:"region"              validate:"required"`
	Website            string                     `json:"website"             validate:"omitempty,url"`
	Documents          models.DealershipDocuments `json:"documents"`
	Plan               string                     `json:"plan"                validate:"required,oneof=basic premium enterprise"`
	CommissionRate     *float64                   `json:"commission_rate"     validate:"omitempty,gte=0,lte=20"`
}

// ToService narrows the request to the service input, applying the default rate.
func (r CreateDealershipRequest) ToService(defaultRate float64) services.CreateDealershipRequest {
	rate := defaultRate
	if r.CommissionRate != nil {
		rate = *r.CommissionRate
	}

	return services.CreateDealershipRequest{
		Name:               r.Name,
		RegistrationNumber: r.RegistrationNumber,
		TaxNumber:          r.TaxNumber,
		BusinessType:       models.BusinessType(r.BusinessType),
		ContactName:        r.ContactName,
		Email:              r.Email,
		Phone:              r.Phone,
		Address:            r.Address,
		City:               r.City,
		Region:             r.Region,
		Website:            r.Website,
		Documents:          r.Documents,
		Plan:               models.Plan(r.Plan),
		CommissionRate:     rate,
	}
}

// UpdateDealershipStatusRequest represents an admin review decision.
type UpdateDealershipStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=PENDING ACTIVE SUSPENDED REJECTED"`
	Reason string `json:"reason" validate:"max=500"`
}

// CreateUserRequest represents the request body for creating a user directly.
type CreateUserRequest struct {
	FirstName        string `json:"first_name"         validate:"required"`
	LastName         string `json:"last_name"          validate:"required"`
	Email            string `json:"email"              validate:"required,email"`
	Phone            string `json:"phone"`
	Role             string `json:"role"               validate:"required,oneof=admin dealer_admin sales_agent viewer"`
	DealershipID     string `json:"dealership_id"`
	Password         string `json:"password"           validate:"required,min=8"`
	ConfirmPassword  string `json:"confirm_password"   validate:"required,eqfield=Password"`
	SendWelcomeEmail bool   `json:"send_welcome_email"`
}

func (r CreateUserRequest) ToService() services.CreateUserRequest {
	return services.CreateUserRequest{
		FirstName:        r.FirstName,
		LastName:         r.LastName,
		Email:            r.Email,
		Phone:            r.Phone,
		Role:             models.Role(r.Role),
		DealershipID:     r.DealershipID,
		Password:         r.Password,
		SendWelcomeEmail: r.SendWelcomeEmail,
	}
}
