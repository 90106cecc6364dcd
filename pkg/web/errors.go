package web

import (
	"errors"
	"strings"

	"github.com/carsna/carsna/pkg/services"
	"github.com/carsna/carsna/pkg/wizard"
	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"
)

func problem(c fiber.Ctx, status int, problemType, detail string) error {
	p := problems.NewStatusProblem(status).
		WithInstance(c.Path()).
		WithType(problemType).
		WithDetail(detail)

	return c.Status(status).JSON(p)
}

func badRequest(c fiber.Ctx, detail string) error {
	return problem(c, fiber.StatusBadRequest, "validation_error", detail)
}

func internalError(c fiber.Ctx, err error) error {
	p := problems.NewStatusProblem(fiber.StatusInternalServerError).
		WithInstance(c.Path()).
		WithType("internal_error").
		WithError(err)

	return c.Status(fiber.StatusInternalServerError).JSON(p)
}

// handleServiceError provides typed error handling for service layer errors.
func handleServiceError(c fiber.Ctx, err error) error {
	switch {
	case services.IsValidationError(err):
		return badRequest(c, err.Error())

	case errors.Is(err, services.ErrDealershipNotFound):
		return problem(c, fiber.StatusNotFound, "dealership_not_found", "dealership not found")

	case errors.Is(err, services.ErrUserNotFound):
		return problem(c, fiber.StatusNotFound, "user_not_found", "user not found")

	case errors.Is(err, services.ErrUnknownOptionKind):
		return problem(c, fiber.StatusNotFound, "unknown_option_kind", err.Error())

	case errors.Is(err, services.ErrEmailTaken):
		return problem(c, fiber.StatusConflict, "email_taken", "email already in use")

	case services.IsConflictError(err):
		return problem(c, fiber.StatusConflict, "conflict", err.Error())

	default:
		return internalError(c, err)
	}
}

// handleWizardError maps wizard contract and lookup errors. Validation rejections are
// not errors and never reach this function.
func handleWizardError(c fiber.Ctx, err error) error {
	var patchErr *wizard.PatchError

	switch {
	case errors.Is(err, wizard.ErrSessionNotFound):
		return problem(c, fiber.StatusNotFound, "wizard_not_found", "wizard not found")

	case errors.Is(err, wizard.ErrUnknownKind):
		return problem(c, fiber.StatusNotFound, "unknown_wizard_kind", err.Error())

	case errors.Is(err, wizard.ErrSubmitting):
		return problem(c, fiber.StatusConflict, "wizard_submitting", err.Error())

	case errors.Is(err, wizard.ErrClosed):
		return problem(c, fiber.StatusConflict, "wizard_closed", err.Error())

	case wizard.IsContractError(err):
		return problem(c, fiber.StatusConflict, "wizard_conflict", err.Error())

	case errors.As(err, &patchErr):
		return badRequest(c, "Invalid field patch: "+strings.Join(patchErr.Problems, "; "))

	case errors.Is(err, wizard.ErrUnknownField), errors.Is(err, wizard.ErrInvalidValue):
		return badRequest(c, err.Error())

	default:
		return internalError(c, err)
	}
}
