package onboarding

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/carsna/carsna/pkg/models"
	"github.com/carsna/carsna/pkg/persistence"
	"github.com/carsna/carsna/pkg/services"
	"github.com/carsna/carsna/pkg/wizard"
)

// UserDraft is the in-progress user creation form.
type UserDraft struct {
	FirstName        string `json:"first_name"`
	LastName         string `json:"last_name"`
	Email            string `json:"email"`
	Phone            string `json:"phone"`
	Role             string `json:"role"`
	DealershipID     string `json:"dealership_id"`
	Password         string `json:"password"`
	ConfirmPassword  string `json:"confirm_password"`
	SendWelcomeEmail bool   `json:"send_welcome_email"`
}

// MarshalJSON keeps passwords out of snapshots.
func (d UserDraft) MarshalJSON() ([]byte, error) {
	type draft UserDraft

	masked := draft(d)
	masked.Password = mask(d.Password)
	masked.ConfirmPassword = mask(d.ConfirmPassword)

	return json.Marshal(masked)
}

func mask(secret string) string {
	if secret == "" {
		return ""
	}

	return "********"
}

func newUserDraft() UserDraft {
	return UserDraft{SendWelcomeEmail: true}
}

func requiresDealership(d UserDraft) bool {
	return models.Role(d.Role).RequiresDealership()
}

// UserDefinition is the three-step user creation wizard.
func UserDefinition(creator UserCreator) *wizard.Definition[UserDraft, *models.User] {
	roles := enumValues(models.Roles)

	return wizard.MustDefinition[UserDraft, *models.User](
		KindUser,
		[]wizard.Step{
			{Name: "profile", Title: "Profile"},
			{Name: "access", Title: "Role and dealership"},
			{Name: "credentials", Title: "Password"},
		},
		[]wizard.Field[UserDraft]{
			wizard.StringField("first_name", 1, func(d *UserDraft) *string { return &d.FirstName }),
			wizard.StringField("last_name", 1, func(d *UserDraft) *string { return &d.LastName }),
			wizard.StringField("email", 1, func(d *UserDraft) *string { return &d.Email }),
			wizard.StringField("phone", 1, func(d *UserDraft) *string { return &d.Phone }),

			wizard.EnumField("role", 2, roles, func(d *UserDraft) *string { return &d.Role }),
			wizard.StringField("dealership_id", 2, func(d *UserDraft) *string { return &d.DealershipID }),

			wizard.StringField("password", 3, func(d *UserDraft) *string { return &d.Password }),
			wizard.StringField("confirm_password", 3, func(d *UserDraft) *string { return &d.ConfirmPassword }),
			wizard.BoolField("send_welcome_email", 3, func(d *UserDraft) *bool { return &d.SendWelcomeEmail }),
		},
		[]wizard.Rule[UserDraft]{
			wizard.Required("first_name", func(d UserDraft) string { return d.FirstName }, "First name is required"),
			wizard.Required("last_name", func(d UserDraft) string { return d.LastName }, "Last name is required"),
			wizard.Required("email", func(d UserDraft) string { return d.Email }, "Email is required"),
			wizard.Email("email", func(d UserDraft) string { return d.Email }, "Email is invalid"),

			wizard.Required("role", func(d UserDraft) string { return d.Role }, "Role is required"),
			wizard.RequiredWhen("dealership_id", func(d UserDraft) string { return d.DealershipID }, requiresDealership,
				"Dealership is required for this role"),

			wizard.MinLength("password", func(d UserDraft) string { return d.Password }, services.MinPasswordLength,
				"Password must be at least 8 characters"),
			wizard.Matches("confirm_password", func(d UserDraft) string { return d.ConfirmPassword },
				func(d UserDraft) string { return d.Password }, "Passwords do not match"),
		},
		newUserDraft,
		func(ctx context.Context, d UserDraft) (*models.User, error) {
			user, err := creator.Create(ctx, d.request())
			if err != nil {
				return nil, userFieldError(err)
			}

			return user, nil
		},
	)
}

// request narrows the draft; the confirmation never leaves the wizard.
func (d UserDraft) request() services.CreateUserRequest {
	return services.CreateUserRequest{
		FirstName:        d.FirstName,
		LastName:         d.LastName,
		Email:            d.Email,
		Phone:            d.Phone,
		Role:             models.Role(d.Role),
		DealershipID:     d.DealershipID,
		Password:         d.Password,
		SendWelcomeEmail: d.SendWelcomeEmail,
	}
}

// userFieldError turns store conflicts into errors on the field the user must change.
func userFieldError(err error) error {
	switch {
	case persistence.IsEmailTaken(err):
		return wizard.NewFieldError("email", "Email already in use", err)
	case errors.Is(err, services.ErrDealershipRequired):
		return wizard.NewFieldError("dealership_id", "Dealership is required for this role", err)
	case persistence.IsDealershipNotFound(err):
		return wizard.NewFieldError("dealership_id", "Dealership does not exist", err)
	case errors.Is(err, services.ErrDealershipUnavailable):
		return wizard.NewFieldError("dealership_id", "Dealership cannot accept users", err)
	default:
		return err
	}
}
