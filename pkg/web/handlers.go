// Package web provides HTTP handlers and REST API endpoints for the admin backend.
package web

import (
	"net/http"
	"strconv"
	"time"

	"github.com/carsna/carsna/pkg/models"
	"github.com/carsna/carsna/pkg/onboarding"
	"github.com/carsna/carsna/pkg/services"
	"github.com/carsna/carsna/pkg/wizard"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

type APIHandlers struct {
	dealershipService *services.Dealership
	userService       *services.User
	optionsService    *services.Options
	sessions          *wizard.Sessions
	validator         *validator.Validate
}

func NewAPIHandlers(
	dealershipService *services.Dealership,
	userService *services.User,
	optionsService *services.Options,
	sessions *wizard.Sessions,
	validator *validator.Validate,
) *APIHandlers {
	return &APIHandlers{
		dealershipService: dealershipService,
		userService:       userService,
		optionsService:    optionsService,
		sessions:          sessions,
		validator:         validator,
	}
}

// Routes mounts the record, option and dashboard endpoints.
func (h *APIHandlers) Routes(router fiber.Router) {
	d := router.Group("/dealerships")
	d.Get("/", h.GetDealerships)
	d.Post("/", h.CreateDealership)
	d.Get("/:id", h.GetDealership)
	d.Patch("/:id/status", h.UpdateDealershipStatus)

	u := router.Group("/users")
	u.Get("/", h.GetUsers)
	u.Post("/", h.CreateUser)
	u.Get("/:id", h.GetUser)

	router.Get("/options/:kind", h.GetOptions)
	router.Get("/dashboard/stats", h.GetDashboardStats)
	router.Get("/health", h.HealthCheck)
}

func (h *APIHandlers) GetDealerships(c fiber.Ctx) error {
	req := services.ListDealershipsRequest{}

	limit, offset, err := parsePage(c)
	if err != nil {
		return badRequest(c, "Invalid query parameters: "+err.Error())
	}

	req.Limit, req.Offset = limit, offset

	if statusStr := c.Query("status"); statusStr != "" {
		status := models.DealershipStatus(statusStr)
		req.Status = &status
	}

	req.SortBy = c.Query("sort_by")
	req.SortOrder = c.Query("sort_order")

	result, err := h.dealershipService.List(c.Context(), req)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"dealerships":   result.Dealerships,
		"total_count":   result.TotalCount,
		"has_next_page": result.HasNextPage,
		"pagination": fiber.Map{
			"limit":  req.Limit,
			"offset": req.Offset,
		},
	})
}

// parsePage reads the limit and offset query parameters.
func parsePage(c fiber.Ctx) (int, int, error) {
	var limit, offset int

	if limitStr := c.Query("limit"); limitStr != "" {
		value, err := strconv.Atoi(limitStr)
		if err != nil {
			return 0, 0, err
		}

		limit = value
	}

	if offsetStr := c.Query("offset"); offsetStr != "" {
		value, err := strconv.Atoi(offsetStr)
		if err != nil {
			return 0, 0, err
		}

		offset = value
	}

	return limit, offset, nil
}

func (h *APIHandlers) GetDealership(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Dealership ID is required")
	}

	dealership, err := h.dealershipService.FetchByID(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(dealership)
}

func (h *APIHandlers) CreateDealership(c fiber.Ctx) error {
	var req CreateDealershipRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	created, err := h.dealershipService.Create(c.Context(), req.ToService(onboarding.DefaultCommissionRate))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) UpdateDealershipStatus(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Dealership ID is required")
	}

	var req UpdateDealershipStatusRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	updated, err := h.dealershipService.UpdateStatus(c.Context(), id, models.DealershipStatus(req.Status), req.Reason)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(updated)
}

func (h *APIHandlers) GetDashboardStats(c fiber.Ctx) error {
	stats, err := h.dealershipService.Stats(c.Context())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(stats)
}

func (h *APIHandlers) GetUsers(c fiber.Ctx) error {
	req := services.ListUsersRequest{}

	limit, offset, err := parsePage(c)
	if err != nil {
		return badRequest(c, "Invalid query parameters: "+err.Error())
	}

	req.Limit, req.Offset = limit, offset

	if roleStr := c.Query("role"); roleStr != "" {
		role := models.Role(roleStr)
		req.Role = &role
	}

	req.DealershipID = c.Query("dealership_id")
	req.SortBy = c.Query("sort_by")
	req.SortOrder = c.Query("sort_order")

	result, err := h.userService.List(c.Context(), req)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"users":         result.Users,
		"total_count":   result.TotalCount,
		"has_next_page": result.HasNextPage,
		"pagination": fiber.Map{
			"limit":  req.Limit,
			"offset": req.Offset,
		},
	})
}

func (h *APIHandlers) GetUser(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "User ID is required")
	}

	user, err := h.userService.FetchByID(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(user)
}

func (h *APIHandlers) CreateUser(c fiber.Ctx) error {
	var req CreateUserRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	created, err := h.userService.Create(c.Context(), req.ToService())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) GetOptions(c fiber.Ctx) error {
	kind := c.Params("kind")

	options, err := h.optionsService.ListReferenceOptions(c.Context(), kind)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"kind":    kind,
		"options": options,
	})
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	repositoryCheck, repOk := h.dealershipService.HealthCheck(c.Context())

	status := "unhealthy"
	message := "Cars.na API is unhealthy"
	httpStatus := http.StatusInternalServerError

	if repOk {
		status = "healthy"
		message = "Cars.na API is healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"repository": repositoryCheck,
		},
		"open_wizards": h.sessions.Len(),
		"timestamp":    time.Now().UTC(),
	})
}
