package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"stringtracker/internal/handlers"
	"stringtracker/internal/middleware"
	"stringtracker/internal/models"
	"stringtracker/internal/repositories"
	"stringtracker/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockGuitarService is a mock implementation of handlers.GuitarService
type MockGuitarService struct {
	mock.Mock
}

func (m *MockGuitarService) ListPage(ctx context.Context, filter models.GuitarFilter, sort models.GuitarSort, page, limit int) (*services.GuitarPage, error) {
	args := m.Called(ctx, filter, sort, page, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.GuitarPage), args.Error(1)
}

func (m *MockGuitarService) GetGuitar(ctx context.Context, userID string, id uint) (*models.Guitar, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Guitar), args.Error(1)
}

func (m *MockGuitarService) CreateGuitar(ctx context.Context, in services.CreateGuitarInput) (*models.Guitar, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Guitar), args.Error(1)
}

func (m *MockGuitarService) UpdateGuitar(ctx context.Context, userID string, id uint, in services.UpdateGuitarInput) (*models.Guitar, error) {
	args := m.Called(ctx, userID, id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Guitar), args.Error(1)
}

func (m *MockGuitarService) DeleteGuitar(ctx context.Context, userID string, id uint) (bool, error) {
	args := m.Called(ctx, userID, id)
	return args.Bool(0), args.Error(1)
}

const testUser = "user-1"

// newGuitarApp mounts the guitar routes behind a stub authenticator.
func newGuitarApp(svc handlers.GuitarService) *fiber.App {
	app := fiber.New()
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		middleware.SetUserID(c, testUser)
		return c.Next()
	})
	handlers.NewGuitarHandler(svc).RegisterRoutes(api)
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			reader = bytes.NewBufferString(b)
		default:
			raw, err := json.Marshal(b)
			require.NoError(t, err)
			reader = bytes.NewReader(raw)
		}
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var decoded map[string]any
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &decoded)
	}
	return resp, decoded
}

func stratRecord() *models.Guitar {
	return &models.Guitar{
		ID: 1, Model: "Stratocaster", Type: "Electric", Strings: 6, Condition: models.ConditionNew,
		Price: 733, BrandID: 1, Brand: models.Brand{ID: 1, Name: "Fender"}, UserID: testUser,
	}
}

func validCreateBody() map[string]any {
	return map[string]any{
		"model": "Stratocaster", "brandName": "Fender", "type": "Electric",
		"strings": 6, "condition": "New", "price": 733,
	}
}

func TestListGuitars_InvalidPagination(t *testing.T) {
	svc := new(MockGuitarService)
	app := newGuitarApp(svc)

	for _, path := range []string{
		"/api/v1/guitars?page=0",
		"/api/v1/guitars?page=abc",
		"/api/v1/guitars?page=-3",
	} {
		resp, body := doJSON(t, app, "GET", path, nil)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode, path)
		assert.Equal(t, "Page must be a positive number", body["error"], path)
	}
	for _, path := range []string{
		"/api/v1/guitars?limit=200",
		"/api/v1/guitars?limit=0",
		"/api/v1/guitars?limit=ten",
	} {
		resp, body := doJSON(t, app, "GET", path, nil)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode, path)
		assert.Equal(t, "Limit must be between 1 and 100", body["error"], path)
	}

	svc.AssertNotCalled(t, "ListPage", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestListGuitars_ParsesFilterAndSort(t *testing.T) {
	svc := new(MockGuitarService)
	app := newGuitarApp(svc)

	minPrice := 500.0
	wantFilter := models.GuitarFilter{
		UserID:     testUser,
		BrandNames: []string{"Fender", "Gibson"},
		Types:      []string{"Electric"},
		Strings:    []int{6, 7},
		Conditions: []string{"New"},
		MinPrice:   &minPrice,
		Search:     "strat",
	}
	wantSort := models.GuitarSort{Field: models.SortByPrice, Direction: models.SortDesc}
	page := &services.GuitarPage{Data: []models.Guitar{*stratRecord()}, Meta: services.PageMeta{Page: 2, Limit: 5, TotalGuitars: 6, TotalPages: 2, HasPrevPage: true}}
	svc.On("ListPage", mock.Anything, wantFilter, wantSort, 2, 5).Return(page, nil).Once()

	resp, body := doJSON(t, app, "GET",
		"/api/v1/guitars?page=2&limit=5&manufacturer=Fender&manufacturer=Gibson&type=Electric&strings=6&strings=7&condition=New&minPrice=500&search=strat&sortField=price&sortDirection=DESC", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	meta := body["meta"].(map[string]any)
	assert.Equal(t, float64(6), meta["totalGuitars"])
	assert.Equal(t, true, meta["hasPrevPage"])
	assert.Len(t, body["data"], 1)
	svc.AssertExpectations(t)
}

func TestListGuitars_MalformedFilters(t *testing.T) {
	svc := new(MockGuitarService)
	app := newGuitarApp(svc)

	resp, body := doJSON(t, app, "GET", "/api/v1/guitars?strings=six", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Strings must be a positive number", body["error"])

	resp, body = doJSON(t, app, "GET", "/api/v1/guitars?maxPrice=cheap", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "maxPrice must be a number", body["error"])

	svc.AssertNotCalled(t, "ListPage", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestListGuitars_StoreFailure(t *testing.T) {
	svc := new(MockGuitarService)
	app := newGuitarApp(svc)
	svc.On("ListPage", mock.Anything, mock.Anything, models.DefaultSort(), 1, 10).Return(nil, errors.New("connection refused")).Once()

	resp, body := doJSON(t, app, "GET", "/api/v1/guitars", nil)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "Failed to retrieve guitars", body["error"])
	svc.AssertExpectations(t)
}

func TestCreateGuitar_NegativePriceNeverCreates(t *testing.T) {
	svc := new(MockGuitarService)
	app := newGuitarApp(svc)

	body := validCreateBody()
	body["price"] = -100
	resp, decoded := doJSON(t, app, "POST", "/api/v1/guitars", body)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Price must be a positive number", decoded["error"])
	svc.AssertNotCalled(t, "CreateGuitar", mock.Anything, mock.Anything)
}

func TestCreateGuitar_Validation(t *testing.T) {
	svc := new(MockGuitarService)
	app := newGuitarApp(svc)

	resp, decoded := doJSON(t, app, "POST", "/api/v1/guitars", map[string]any{"model": "SG", "type": "Electric", "condition": "New"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Missing required fields: brandName, strings, price", decoded["error"])

	body := validCreateBody()
	body["strings"] = 0
	resp, decoded = doJSON(t, app, "POST", "/api/v1/guitars", body)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Strings must be a positive number", decoded["error"])

	body = validCreateBody()
	body["condition"] = "Mint"
	resp, decoded = doJSON(t, app, "POST", "/api/v1/guitars", body)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Condition must be one of: New, Used, Vintage", decoded["error"])

	resp, decoded = doJSON(t, app, "POST", "/api/v1/guitars", `{"model":`)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Invalid request body", decoded["error"])

	svc.AssertNotCalled(t, "CreateGuitar", mock.Anything, mock.Anything)
}

func TestCreateGuitar_Success(t *testing.T) {
	svc := new(MockGuitarService)
	app := newGuitarApp(svc)

	want := services.CreateGuitarInput{
		UserID: testUser, Model: "Stratocaster", BrandName: "Fender", Type: "Electric",
		Strings: 6, Condition: "New", Price: 733,
	}
	svc.On("CreateGuitar", mock.Anything, want).Return(stratRecord(), nil).Once()

	resp, decoded := doJSON(t, app, "POST", "/api/v1/guitars", validCreateBody())
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	assert.Equal(t, float64(1), decoded["id"])
	assert.Equal(t, "Fender", decoded["brand"].(map[string]any)["name"])
	assert.Equal(t, float64(733), decoded["price"])
	svc.AssertExpectations(t)
}

func TestCreateGuitar_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{"duplicate", repositories.ErrDuplicate, fiber.StatusConflict, "A guitar with this name and manufacturer already exists"},
		{"validation", services.ErrBrandRequired, fiber.StatusBadRequest, "Brand name is required"},
		{"store failure", errors.New("boom"), fiber.StatusInternalServerError, "Failed to create guitar"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockGuitarService)
			app := newGuitarApp(svc)
			svc.On("CreateGuitar", mock.Anything, mock.Anything).Return(nil, tt.err).Once()

			resp, decoded := doJSON(t, app, "POST", "/api/v1/guitars", validCreateBody())
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, tt.msg, decoded["error"])
		})
	}
}

func TestGetGuitar(t *testing.T) {
	svc := new(MockGuitarService)
	app := newGuitarApp(svc)
	svc.On("GetGuitar", mock.Anything, testUser, uint(1)).Return(stratRecord(), nil).Once()
	svc.On("GetGuitar", mock.Anything, testUser, uint(2)).Return(nil, repositories.ErrNotFound).Once()

	resp, decoded := doJSON(t, app, "GET", "/api/v1/guitars/1", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "Stratocaster", decoded["model"])

	resp, decoded = doJSON(t, app, "GET", "/api/v1/guitars/2", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Guitar not found", decoded["error"])

	resp, decoded = doJSON(t, app, "GET", "/api/v1/guitars/abc", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Invalid guitar ID", decoded["error"])
	svc.AssertExpectations(t)
}

func TestUpdateGuitar_NotFoundNeverUpdates(t *testing.T) {
	svc := new(MockGuitarService)
	app := newGuitarApp(svc)
	svc.On("GetGuitar", mock.Anything, testUser, uint(42)).Return(nil, repositories.ErrNotFound).Once()

	resp, decoded := doJSON(t, app, "PATCH", "/api/v1/guitars/42", map[string]any{"price": 100})
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Guitar not found", decoded["error"])
	svc.AssertNotCalled(t, "UpdateGuitar", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateGuitar_Validation(t *testing.T) {
	svc := new(MockGuitarService)
	app := newGuitarApp(svc)
	svc.On("GetGuitar", mock.Anything, testUser, uint(1)).Return(stratRecord(), nil)

	tests := []struct {
		body any
		msg  string
	}{
		{`{}`, "No updates provided"},
		{nil, "No updates provided"},
		{`{"unknown": true}`, "No updates provided"},
		{map[string]any{"price": -5}, "Price must be a positive number"},
		{map[string]any{"strings": 0}, "Strings must be a positive number"},
		{map[string]any{"condition": "Broken"}, "Condition must be one of: New, Used, Vintage"},
		{`[1,2]`, "Invalid request body"},
	}
	for _, tt := range tests {
		resp, decoded := doJSON(t, app, "PATCH", "/api/v1/guitars/1", tt.body)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode, tt.msg)
		assert.Equal(t, tt.msg, decoded["error"])
	}
	svc.AssertNotCalled(t, "UpdateGuitar", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateGuitar_Success(t *testing.T) {
	svc := new(MockGuitarService)
	app := newGuitarApp(svc)

	price := 650.0
	brand := "Squier"
	updated := stratRecord()
	updated.Price = price
	updated.Brand = models.Brand{ID: 2, Name: brand}

	svc.On("GetGuitar", mock.Anything, testUser, uint(1)).Return(stratRecord(), nil).Once()
	svc.On("UpdateGuitar", mock.Anything, testUser, uint(1), services.UpdateGuitarInput{Price: &price, BrandName: &brand}).Return(updated, nil).Once()

	resp, decoded := doJSON(t, app, "PATCH", "/api/v1/guitars/1", map[string]any{"price": 650, "brandName": "Squier"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(650), decoded["price"])
	assert.Equal(t, "Squier", decoded["brand"].(map[string]any)["name"])
	svc.AssertExpectations(t)
}

func TestUpdateGuitar_Duplicate(t *testing.T) {
	svc := new(MockGuitarService)
	app := newGuitarApp(svc)
	svc.On("GetGuitar", mock.Anything, testUser, uint(1)).Return(stratRecord(), nil).Once()
	svc.On("UpdateGuitar", mock.Anything, testUser, uint(1), mock.Anything).Return(nil, repositories.ErrDuplicate).Once()

	resp, decoded := doJSON(t, app, "PATCH", "/api/v1/guitars/1", map[string]any{"model": "SG"})
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	assert.Equal(t, "A guitar with this model and manufacturer already exists", decoded["error"])
}

func TestDeleteGuitar(t *testing.T) {
	svc := new(MockGuitarService)
	app := newGuitarApp(svc)
	svc.On("GetGuitar", mock.Anything, testUser, uint(1)).Return(stratRecord(), nil).Once()
	svc.On("DeleteGuitar", mock.Anything, testUser, uint(1)).Return(true, nil).Once()

	req := httptest.NewRequest("DELETE", "/api/v1/guitars/1", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	raw, _ := io.ReadAll(resp.Body)
	assert.Empty(t, raw)

	svc.AssertNumberOfCalls(t, "DeleteGuitar", 1)
	svc.AssertExpectations(t)
}

func TestDeleteGuitar_Failures(t *testing.T) {
	svc := new(MockGuitarService)
	app := newGuitarApp(svc)
	svc.On("GetGuitar", mock.Anything, testUser, uint(9)).Return(nil, repositories.ErrNotFound).Once()
	svc.On("GetGuitar", mock.Anything, testUser, uint(1)).Return(stratRecord(), nil).Twice()
	svc.On("DeleteGuitar", mock.Anything, testUser, uint(1)).Return(false, nil).Once()
	svc.On("DeleteGuitar", mock.Anything, testUser, uint(1)).Return(false, errors.New("boom")).Once()

	resp, decoded := doJSON(t, app, "DELETE", "/api/v1/guitars/9", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Guitar not found", decoded["error"])

	resp, decoded = doJSON(t, app, "DELETE", "/api/v1/guitars/1", nil)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "Failed to delete guitar", decoded["error"])

	resp, decoded = doJSON(t, app, "DELETE", "/api/v1/guitars/1", nil)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "Failed to delete guitar", decoded["error"])

	svc.AssertNotCalled(t, "DeleteGuitar", mock.Anything, testUser, uint(9))
	svc.AssertExpectations(t)
}
