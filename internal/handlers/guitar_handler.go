package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"stringtracker/internal/middleware"
	"stringtracker/internal/models"
	"stringtracker/internal/repositories"
	"stringtracker/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const (
	defaultPage  = 1
	defaultLimit = 10

	msgGuitarNotFound  = "Guitar not found"
	msgInvalidGuitarID = "Invalid guitar ID"
	msgInvalidBody     = "Invalid request body"
	msgCreateConflict  = "A guitar with this name and manufacturer already exists"
	msgUpdateConflict  = "A guitar with this model and manufacturer already exists"
)

// GuitarService is the inventory behaviour GuitarHandler depends on.
type GuitarService interface {
	ListPage(ctx context.Context, filter models.GuitarFilter, sort models.GuitarSort, page, limit int) (*services.GuitarPage, error)
	GetGuitar(ctx context.Context, userID string, id uint) (*models.Guitar, error)
	CreateGuitar(ctx context.Context, in services.CreateGuitarInput) (*models.Guitar, error)
	UpdateGuitar(ctx context.Context, userID string, id uint, in services.UpdateGuitarInput) (*models.Guitar, error)
	DeleteGuitar(ctx context.Context, userID string, id uint) (bool, error)
}

// GuitarHandler handles HTTP requests for the guitar inventory.
type GuitarHandler struct {
	service  GuitarService
	validate *validator.Validate
}

// NewGuitarHandler creates a new GuitarHandler.
func NewGuitarHandler(service GuitarService) *GuitarHandler {
	return &GuitarHandler{
		service:  service,
		validate: newValidator(),
	}
}

// RegisterRoutes registers the guitar routes. The router must authenticate callers.
func (h *GuitarHandler) RegisterRoutes(router fiber.Router) {
	guitarRoutes := router.Group("/guitars")
	guitarRoutes.Get("/", h.HandleListGuitars)
	guitarRoutes.Post("/", h.HandleCreateGuitar)
	guitarRoutes.Get("/:id", h.HandleGetGuitar)
	guitarRoutes.Patch("/:id", h.HandleUpdateGuitar)
	guitarRoutes.Delete("/:id", h.HandleDeleteGuitar)
}

// CreateGuitarRequest is the body of POST /guitars.
type CreateGuitarRequest struct {
	Model     string   `json:"model" validate:"required"`
	BrandName string   `json:"brandName" validate:"required"`
	Type      string   `json:"type" validate:"required"`
	Strings   *int     `json:"strings" validate:"required"`
	Condition string   `json:"condition" validate:"required"`
	Price     *float64 `json:"price" validate:"required"`
	ImageURL  *string  `json:"imageUrl"`
}

// UpdateGuitarRequest is the body of PATCH /guitars/:id. Absent fields are left unchanged.
type UpdateGuitarRequest struct {
	Model     *string  `json:"model"`
	BrandName *string  `json:"brandName"`
	Type      *string  `json:"type"`
	Strings   *int     `json:"strings"`
	Condition *string  `json:"condition"`
	Price     *float64 `json:"price"`
	ImageURL  *string  `json:"imageUrl"`
}

func (r UpdateGuitarRequest) input() services.UpdateGuitarInput {
	return services.UpdateGuitarInput{
		Model:     r.Model,
		BrandName: r.BrandName,
		Type:      r.Type,
		Strings:   r.Strings,
		Condition: r.Condition,
		Price:     r.Price,
		ImageURL:  r.ImageURL,
	}
}

// respondError maps service errors onto HTTP statuses.
func respondError(c *fiber.Ctx, err error, conflictMsg, fallbackMsg string) error {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		return errorJSON(c, fiber.StatusBadRequest, verr.Error())
	case errors.Is(err, repositories.ErrNotFound):
		return errorJSON(c, fiber.StatusNotFound, msgGuitarNotFound)
	case errors.Is(err, repositories.ErrDuplicate) && conflictMsg != "":
		return errorJSON(c, fiber.StatusConflict, conflictMsg)
	}
	zap.S().Named("guitar_handler").Errorw(fallbackMsg,
		"method", c.Method(), "path", c.Path(), "user_id", middleware.UserID(c), "error", err)
	return errorJSON(c, fiber.StatusInternalServerError, fallbackMsg)
}

// queryValues returns every non-empty value of a repeated query parameter.
func queryValues(c *fiber.Ctx, key string) []string {
	var out []string
	for _, raw := range c.Context().QueryArgs().PeekMulti(key) {
		if v := strings.TrimSpace(string(raw)); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func queryInt(c *fiber.Ctx, key string, def int) (int, bool) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return n, true
}

func queryPrice(c *fiber.Ctx, key string) (*float64, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// parseFilter reads the listing filter from the query string. The returned
// message is non-empty when a parameter is malformed.
func parseFilter(c *fiber.Ctx) (models.GuitarFilter, string) {
	filter := models.GuitarFilter{
		UserID:     middleware.UserID(c),
		Model:      strings.TrimSpace(c.Query("model")),
		BrandLike:  strings.TrimSpace(c.Query("brand")),
		BrandNames: queryValues(c, "manufacturer"),
		Types:      queryValues(c, "type"),
		Conditions: queryValues(c, "condition"),
		Search:     strings.TrimSpace(c.Query("search")),
	}

	for _, raw := range queryValues(c, "strings") {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return filter, services.ErrInvalidStrings.Error()
		}
		filter.Strings = append(filter.Strings, n)
	}

	var err error
	if filter.MinPrice, err = queryPrice(c, "minPrice"); err != nil {
		return filter, "minPrice must be a number"
	}
	if filter.MaxPrice, err = queryPrice(c, "maxPrice"); err != nil {
		return filter, "maxPrice must be a number"
	}
	return filter, ""
}

// HandleListGuitars returns one page of the caller's guitars.
func (h *GuitarHandler) HandleListGuitars(c *fiber.Ctx) error {
	page, ok := queryInt(c, "page", defaultPage)
	if !ok {
		return errorJSON(c, fiber.StatusBadRequest, services.ErrInvalidPage.Error())
	}
	limit, ok := queryInt(c, "limit", defaultLimit)
	if !ok {
		return errorJSON(c, fiber.StatusBadRequest, services.ErrInvalidLimit.Error())
	}
	if err := services.ValidatePagination(page, limit); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	}

	filter, msg := parseFilter(c)
	if msg != "" {
		return errorJSON(c, fiber.StatusBadRequest, msg)
	}
	sort := models.GuitarSort{
		Field:     models.ParseSortField(c.Query("sortField")),
		Direction: models.ParseSortDirection(c.Query("sortDirection")),
	}

	result, err := h.service.ListPage(c.UserContext(), filter, sort, page, limit)
	if err != nil {
		return respondError(c, err, "", "Failed to retrieve guitars")
	}
	return c.JSON(result)
}

// HandleCreateGuitar adds a guitar to the caller's inventory.
func (h *GuitarHandler) HandleCreateGuitar(c *fiber.Ctx) error {
	var req CreateGuitarRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, msgInvalidBody)
	}

	if err := h.validate.Struct(req); err != nil {
		var validationErrors validator.ValidationErrors
		if !errors.As(err, &validationErrors) {
			return errorJSON(c, fiber.StatusBadRequest, msgInvalidBody)
		}
		missing := make([]string, 0, len(validationErrors))
		for _, e := range validationErrors {
			missing = append(missing, e.Field())
		}
		return errorJSON(c, fiber.StatusBadRequest, "Missing required fields: "+strings.Join(missing, ", "))
	}

	if *req.Price <= 0 {
		return errorJSON(c, fiber.StatusBadRequest, services.ErrInvalidPrice.Error())
	}
	if *req.Strings <= 0 {
		return errorJSON(c, fiber.StatusBadRequest, services.ErrInvalidStrings.Error())
	}
	if !models.ValidCondition(req.Condition) {
		return errorJSON(c, fiber.StatusBadRequest, services.ErrInvalidCondition.Error())
	}

	guitar, err := h.service.CreateGuitar(c.UserContext(), services.CreateGuitarInput{
		UserID:    middleware.UserID(c),
		Model:     req.Model,
		BrandName: req.BrandName,
		Type:      req.Type,
		Strings:   *req.Strings,
		Condition: req.Condition,
		Price:     *req.Price,
		ImageURL:  req.ImageURL,
	})
	if err != nil {
		return respondError(c, err, msgCreateConflict, "Failed to create guitar")
	}
	return c.Status(fiber.StatusCreated).JSON(guitar)
}

// HandleGetGuitar returns a single guitar.
func (h *GuitarHandler) HandleGetGuitar(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return errorJSON(c, fiber.StatusBadRequest, msgInvalidGuitarID)
	}
	guitar, err := h.service.GetGuitar(c.UserContext(), middleware.UserID(c), id)
	if err != nil {
		return respondError(c, err, "", "Failed to retrieve guitar")
	}
	return c.JSON(guitar)
}

// HandleUpdateGuitar applies a partial update.
func (h *GuitarHandler) HandleUpdateGuitar(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return errorJSON(c, fiber.StatusBadRequest, msgInvalidGuitarID)
	}
	userID := middleware.UserID(c)

	if _, err := h.service.GetGuitar(c.UserContext(), userID, id); err != nil {
		return respondError(c, err, "", "Failed to update guitar")
	}

	var fields map[string]json.RawMessage
	if body := c.Body(); len(body) > 0 {
		if err := json.Unmarshal(body, &fields); err != nil {
			return errorJSON(c, fiber.StatusBadRequest, msgInvalidBody)
		}
	}
	if len(fields) == 0 {
		return errorJSON(c, fiber.StatusBadRequest, services.ErrEmptyUpdate.Error())
	}

	var req UpdateGuitarRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, msgInvalidBody)
	}
	in := req.input()
	switch {
	case in.IsEmpty():
		return errorJSON(c, fiber.StatusBadRequest, services.ErrEmptyUpdate.Error())
	case in.Price != nil && *in.Price <= 0:
		return errorJSON(c, fiber.StatusBadRequest, services.ErrInvalidPrice.Error())
	case in.Strings != nil && *in.Strings <= 0:
		return errorJSON(c, fiber.StatusBadRequest, services.ErrInvalidStrings.Error())
	case in.Condition != nil && !models.ValidCondition(*in.Condition):
		return errorJSON(c, fiber.StatusBadRequest, services.ErrInvalidCondition.Error())
	}

	guitar, err := h.service.UpdateGuitar(c.UserContext(), userID, id, in)
	if err != nil {
		return respondError(c, err, msgUpdateConflict, "Failed to update guitar")
	}
	return c.JSON(guitar)
}

// HandleDeleteGuitar removes a guitar.
func (h *GuitarHandler) HandleDeleteGuitar(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return errorJSON(c, fiber.StatusBadRequest, msgInvalidGuitarID)
	}
	userID := middleware.UserID(c)

	if _, err := h.service.GetGuitar(c.UserContext(), userID, id); err != nil {
		return respondError(c, err, "", "Failed to delete guitar")
	}

	deleted, err := h.service.DeleteGuitar(c.UserContext(), userID, id)
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return respondError(c, err, "", "Failed to delete guitar")
	}
	if !deleted {
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to delete guitar")
	}
	return c.SendStatus(fiber.StatusNoContent)
}
