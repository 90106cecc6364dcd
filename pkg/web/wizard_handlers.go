package web

import (
	"encoding/json"
	"strconv"

	"github.com/carsna/carsna/pkg/wizard"
	"github.com/gofiber/fiber/v3"
)

// WizardHandlers exposes open wizards over HTTP. Every successful call answers with
// the wizard snapshot so the client can redraw without a second request.
type WizardHandlers struct {
	sessions *wizard.Sessions
}

func NewWizardHandlers(sessions *wizard.Sessions) *WizardHandlers {
	return &WizardHandlers{sessions: sessions}
}

// Routes mounts the wizard endpoints under /wizards.
func (h *WizardHandlers) Routes(router fiber.Router) {
	w := router.Group("/wizards")
	w.Get("/", h.ListKinds)
	w.Post("/:kind", h.OpenWizard)
	w.Get("/:id", h.GetWizard)
	w.Get("/:id/schema", h.GetSchema)
	w.Patch("/:id/fields", h.SetFields)
	w.Post("/:id/reset", h.Reset)
	w.Post("/:id/next", h.Next)
	w.Post("/:id/previous", h.Previous)
	w.Post("/:id/steps/:step", h.GoTo)
	w.Post("/:id/submit", h.Submit)
	w.Delete("/:id", h.Cancel)
}

func (h *WizardHandlers) ListKinds(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"kinds": h.sessions.Kinds()})
}

func (h *WizardHandlers) OpenWizard(c fiber.Ctx) error {
	session, err := h.sessions.Open(c.Params("kind"))
	if err != nil {
		return handleWizardError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(session.Snapshot())
}

func (h *WizardHandlers) session(c fiber.Ctx) (wizard.Session, error) {
	return h.sessions.Get(c.Params("id"))
}

func (h *WizardHandlers) GetWizard(c fiber.Ctx) error {
	session, err := h.session(c)
	if err != nil {
		return handleWizardError(c, err)
	}

	return c.JSON(session.Snapshot())
}

func (h *WizardHandlers) GetSchema(c fiber.Ctx) error {
	session, err := h.session(c)
	if err != nil {
		return handleWizardError(c, err)
	}

	return c.JSON(session.PatchSchema())
}

func (h *WizardHandlers) SetFields(c fiber.Ctx) error {
	session, err := h.session(c)
	if err != nil {
		return handleWizardError(c, err)
	}

	body := c.Body()
	if err := wizard.ValidatePatch(session.PatchSchema(), body); err != nil {
		return handleWizardError(c, err)
	}

	var patch map[string]json.RawMessage
	if err := json.Unmarshal(body, &patch); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := session.SetFields(patch); err != nil {
		return handleWizardError(c, err)
	}

	return c.JSON(session.Snapshot())
}

func (h *WizardHandlers) Reset(c fiber.Ctx) error {
	session, err := h.session(c)
	if err != nil {
		return handleWizardError(c, err)
	}

	if err := session.Reset(); err != nil {
		return handleWizardError(c, err)
	}

	return c.JSON(session.Snapshot())
}

// Next answers 422 with the snapshot when the current step does not validate.
func (h *WizardHandlers) Next(c fiber.Ctx) error {
	session, err := h.session(c)
	if err != nil {
		return handleWizardError(c, err)
	}

	errs, err := session.Next()
	if err != nil {
		return handleWizardError(c, err)
	}

	if !errs.Empty() {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(session.Snapshot())
	}

	return c.JSON(session.Snapshot())
}

func (h *WizardHandlers) Previous(c fiber.Ctx) error {
	session, err := h.session(c)
	if err != nil {
		return handleWizardError(c, err)
	}

	if err := session.Previous(); err != nil {
		return handleWizardError(c, err)
	}

	return c.JSON(session.Snapshot())
}

func (h *WizardHandlers) GoTo(c fiber.Ctx) error {
	session, err := h.session(c)
	if err != nil {
		return handleWizardError(c, err)
	}

	step, err := strconv.Atoi(c.Params("step"))
	if err != nil {
		return badRequest(c, "Step must be a number")
	}

	if err := session.GoTo(step); err != nil {
		return handleWizardError(c, err)
	}

	return c.JSON(session.Snapshot())
}

// Submit answers 201 with the committed snapshot, or 422 with the snapshot carrying
// the field errors or the submit message.
func (h *WizardHandlers) Submit(c fiber.Ctx) error {
	session, err := h.session(c)
	if err != nil {
		return handleWizardError(c, err)
	}

	outcome, err := session.Submit(c.Context())
	if err != nil {
		return handleWizardError(c, err)
	}

	if !outcome.Committed {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(session.Snapshot())
	}

	return c.Status(fiber.StatusCreated).JSON(session.Snapshot())
}

func (h *WizardHandlers) Cancel(c fiber.Ctx) error {
	session, err := h.session(c)
	if err != nil {
		return handleWizardError(c, err)
	}

	if err := session.Cancel(); err != nil {
		return handleWizardError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}
