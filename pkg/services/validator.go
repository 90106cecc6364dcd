package services

import (
	"github.com/carsna/carsna/pkg/wizard"
	"github.com/go-playground/validator/v10"
)

// NewValidator returns a struct validator whose email tag accepts exactly the
// addresses the wizards accept.
func NewValidator() *validator.Validate {
	validate := validator.New(validator.WithRequiredStructEnabled())

	err := validate.RegisterValidation("email", func(fl validator.FieldLevel) bool {
		return wizard.IsEmail(fl.Field().String())
	})
	if err != nil {
		panic(err)
	}

	return validate
}
