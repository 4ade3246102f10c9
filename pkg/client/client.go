// Package client talks to the stringtracker REST API and keeps a local,
// session-scoped view of the caller's inventory.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"stringtracker/internal/models"
	"stringtracker/internal/services"
)

const defaultTimeout = 15 * time.Second

// APIError is a non-2xx response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("stringtracker: %d %s", e.StatusCode, e.Message)
}

// IsStatus reports whether err is an APIError with the given status code.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == status
}

// Client is an HTTP client for the guitar API. It is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client

	mu    sync.RWMutex
	token string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithToken starts the client with an existing session token.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// New creates a client for the API rooted at baseURL, e.g. "http://localhost:8080".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Token returns the current session token.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// SetToken replaces the session token.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

// NewGuitar is the body of a create request.
type NewGuitar struct {
	Model     string  `json:"model"`
	BrandName string  `json:"brandName"`
	Type      string  `json:"type"`
	Strings   int     `json:"strings"`
	Condition string  `json:"condition"`
	Price     float64 `json:"price"`
	ImageURL  *string `json:"imageUrl,omitempty"`
}

// GuitarPatch is the body of a partial update. Nil fields are not sent.
type GuitarPatch struct {
	Model     *string  `json:"model,omitempty"`
	BrandName *string  `json:"brandName,omitempty"`
	Type      *string  `json:"type,omitempty"`
	Strings   *int     `json:"strings,omitempty"`
	Condition *string  `json:"condition,omitempty"`
	Price     *float64 `json:"price,omitempty"`
	ImageURL  *string  `json:"imageUrl,omitempty"`
}

// ListOptions selects a page of guitars. Zero values are omitted.
type ListOptions struct {
	Page          int
	Limit         int
	Model         string
	Brand         string
	Manufacturers []string
	Types         []string
	Conditions    []string
	Strings       []int
	MinPrice      *float64
	MaxPrice      *float64
	Search        string
	SortField     string
	SortDirection string
}

func (o ListOptions) query() url.Values {
	q := url.Values{}
	setInt := func(key string, v int) {
		if v != 0 {
			q.Set(key, strconv.Itoa(v))
		}
	}
	setStr := func(key, v string) {
		if v != "" {
			q.Set(key, v)
		}
	}
	setPrice := func(key string, v *float64) {
		if v != nil {
			q.Set(key, strconv.FormatFloat(*v, 'f', -1, 64))
		}
	}

	setInt("page", o.Page)
	setInt("limit", o.Limit)
	setStr("model", o.Model)
	setStr("brand", o.Brand)
	for _, v := range o.Manufacturers {
		q.Add("manufacturer", v)
	}
	for _, v := range o.Types {
		q.Add("type", v)
	}
	for _, v := range o.Conditions {
		q.Add("condition", v)
	}
	for _, n := range o.Strings {
		q.Add("strings", strconv.Itoa(n))
	}
	setPrice("minPrice", o.MinPrice)
	setPrice("maxPrice", o.MaxPrice)
	setStr("search", o.Search)
	setStr("sortField", o.SortField)
	setStr("sortDirection", o.SortDirection)
	return q
}

// Register creates an account.
func (c *Client) Register(ctx context.Context, email, password string, name *string) (*models.User, error) {
	body := map[string]any{"email": email, "password": password}
	if name != nil {
		body["name"] = *name
	}
	var resp struct {
		User models.User `json:"user"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/v1/auth/register", nil, body, &resp); err != nil {
		return nil, err
	}
	return &resp.User, nil
}

// Login signs in and keeps the issued token for later requests.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	var resp struct {
		Token string `json:"token"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/v1/auth/login", nil, map[string]string{"email": email, "password": password}, &resp); err != nil {
		return "", err
	}
	c.SetToken(resp.Token)
	return resp.Token, nil
}

// List returns one page of the caller's guitars.
func (c *Client) List(ctx context.Context, opts ListOptions) (*services.GuitarPage, error) {
	var page services.GuitarPage
	if err := c.do(ctx, http.MethodGet, "/api/v1/guitars", opts.query(), nil, &page); err != nil {
		return nil, err
	}
	if page.Data == nil {
		page.Data = []models.Guitar{}
	}
	return &page, nil
}

// Get returns one guitar.
func (c *Client) Get(ctx context.Context, id uint) (*models.Guitar, error) {
	var g models.Guitar
	if err := c.do(ctx, http.MethodGet, guitarPath(id), nil, nil, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

// Create adds a guitar.
func (c *Client) Create(ctx context.Context, in NewGuitar) (*models.Guitar, error) {
	var g models.Guitar
	if err := c.do(ctx, http.MethodPost, "/api/v1/guitars", nil, in, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

// Update applies a partial update.
func (c *Client) Update(ctx context.Context, id uint, patch GuitarPatch) (*models.Guitar, error) {
	var g models.Guitar
	if err := c.do(ctx, http.MethodPatch, guitarPath(id), nil, patch, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

// Delete removes a guitar.
func (c *Client) Delete(ctx context.Context, id uint) error {
	return c.do(ctx, http.MethodDelete, guitarPath(id), nil, nil, nil)
}

// UploadImage attaches a photo to a guitar.
func (c *Client) UploadImage(ctx context.Context, id uint, filename, contentType string, r io.Reader) (*models.Guitar, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename=%q`, filename))
	header.Set("Content-Type", contentType)
	part, err := w.CreatePart(header)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	req, err := c.newRequest(ctx, http.MethodPost, guitarPath(id)+"/image", nil, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	var g models.Guitar
	if err := c.send(req, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

func guitarPath(id uint) string {
	return "/api/v1/guitars/" + strconv.FormatUint(uint64(id), 10)
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body io.Reader) (*http.Request, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}
	req, err := c.newRequest(ctx, method, path, query, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, out)
}

func (c *Client) send(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", req.Method, req.URL.Path, err)
	}
	return nil
}

// decodeError reads {"error"} or {"message"} bodies, falling back to the status text.
func decodeError(resp *http.Response) error {
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	msg := http.StatusText(resp.StatusCode)
	if json.Unmarshal(raw, &body) == nil {
		switch {
		case body.Error != "":
			msg = body.Error
		case body.Message != "":
			msg = body.Message
		}
	}
	return &APIError{StatusCode: resp.StatusCode, Message: msg}
}
