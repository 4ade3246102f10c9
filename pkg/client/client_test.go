package client

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"stringtracker/internal/repositories"
	"stringtracker/internal/server"
	"stringtracker/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

// startServer runs the real API over in-memory repositories.
func startServer(t *testing.T) string {
	t.Helper()
	guitars, brands := repositories.NewMemoryRepositories()
	app := server.New(server.Options{
		Auth:    services.NewAuthService(repositories.NewMemoryUserRepository(), "client-test-secret", time.Hour),
		Guitars: services.NewGuitarService(guitars),
		Brands:  services.NewBrandService(brands),
	})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = app.Listener(ln) }()
	t.Cleanup(func() { _ = app.Shutdown() })
	return "http://" + ln.Addr().String()
}

func signedIn(t *testing.T, baseURL string) *Client {
	t.Helper()
	ctx := context.Background()
	c := New(baseURL)
	user, err := c.Register(ctx, "client@example.com", "password123", ptr("Client"))
	require.NoError(t, err)
	assert.Equal(t, "client@example.com", user.Email)

	token, err := c.Login(ctx, "client@example.com", "password123")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.Equal(t, token, c.Token())
	return c
}

func TestClient_EndToEnd(t *testing.T) {
	ctx := context.Background()
	c := signedIn(t, startServer(t))

	created, err := c.Create(ctx, NewGuitar{Model: "Stratocaster", BrandName: "Fender", Type: "Electric", Strings: 6, Condition: "New", Price: 733})
	require.NoError(t, err)
	assert.Equal(t, "Fender", created.Brand.Name)

	got, err := c.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Model, got.Model)

	page, err := c.List(ctx, ListOptions{Manufacturers: []string{"Fender"}, MinPrice: ptr(500.0)})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, created.ID, page.Data[0].ID)

	updated, err := c.Update(ctx, created.ID, GuitarPatch{Price: ptr(699.0)})
	require.NoError(t, err)
	assert.Equal(t, 699.0, updated.Price)

	_, err = c.Create(ctx, NewGuitar{Model: "stratocaster", BrandName: "FENDER", Type: "Electric", Strings: 6, Condition: "Used", Price: 500})
	assert.True(t, IsStatus(err, http.StatusConflict))

	_, err = c.UploadImage(ctx, created.ID, "strat.png", "image/png", strings.NewReader("png"))
	assert.True(t, IsStatus(err, http.StatusServiceUnavailable))

	require.NoError(t, c.Delete(ctx, created.ID))
	_, err = c.Get(ctx, created.ID)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "Guitar not found", apiErr.Message)
}

func TestClient_Unauthenticated(t *testing.T) {
	c := New(startServer(t))
	_, err := c.List(context.Background(), ListOptions{})
	assert.True(t, IsStatus(err, http.StatusUnauthorized))

	_, err = c.Login(context.Background(), "missing@example.com", "password123")
	assert.True(t, IsStatus(err, http.StatusUnauthorized))
	assert.Empty(t, c.Token())
}

func TestListOptions_Query(t *testing.T) {
	var got string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.RawQuery
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, `{"data":null,"meta":{"page":2,"limit":5}}`)
	}))
	defer ts.Close()

	page, err := New(ts.URL, WithToken("tok")).List(context.Background(), ListOptions{
		Page:          2,
		Limit:         5,
		Manufacturers: []string{"Fender", "Gibson"},
		Strings:       []int{6, 7},
		MaxPrice:      ptr(999.5),
		Search:        "strat",
		SortField:     "price",
		SortDirection: "desc",
	})
	require.NoError(t, err)
	assert.NotNil(t, page.Data)
	assert.Equal(t, 2, page.Meta.Page)
	assert.Equal(t, "limit=5&manufacturer=Fender&manufacturer=Gibson&maxPrice=999.5&page=2&search=strat&sortDirection=desc&sortField=price&strings=6&strings=7", got)
}

func TestDecodeError(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{"error field", http.StatusBadRequest, `{"error":"Price must be a positive number"}`, "Price must be a positive number"},
		{"message field", http.StatusConflict, `{"message":"User with this email already exists."}`, "User with this email already exists."},
		{"not json", http.StatusBadGateway, `<html>`, "Bad Gateway"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer ts.Close()

			err := New(ts.URL).Delete(context.Background(), 1)
			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.message, apiErr.Message)
		})
	}
}

func TestClient_CreateSendsJSON(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/guitars", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Gibson", body["brandName"])
		assert.NotContains(t, body, "imageUrl")
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"id":3,"model":"SG","brand":{"id":1,"name":"Gibson"},"price":1526}`)
	}))
	defer ts.Close()

	g, err := New(ts.URL).Create(context.Background(), NewGuitar{Model: "SG", BrandName: "Gibson", Type: "Electric", Strings: 6, Condition: "New", Price: 1526})
	require.NoError(t, err)
	assert.Equal(t, uint(3), g.ID)
}
