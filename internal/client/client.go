// Package client talks to the reservation API over HTTP on behalf of the
// public form and the admin console.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/noah-isme/reservation-api/internal/dto"
	"github.com/noah-isme/reservation-api/internal/models"
	appErrors "github.com/noah-isme/reservation-api/pkg/errors"
)

const (
	defaultAPIPrefix = "/api/v1"
	defaultTimeout   = 15 * time.Second
)

// Client is a thin JSON client for the reservation API. Login and Logout
// replace the stored token and must not race with other calls.
type Client struct {
	baseURL   string
	apiPrefix string
	http      *http.Client
	timeout   time.Duration
	token     string
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout bounds each request, including reading the response body.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithAPIPrefix sets the prefix of the admin routes.
func WithAPIPrefix(prefix string) Option {
	return func(c *Client) {
		c.apiPrefix = "/" + strings.Trim(prefix, "/")
	}
}

// WithToken authenticates admin calls with a previously issued token.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// New constructs a Client for the API rooted at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		apiPrefix: defaultAPIPrefix,
		http:      &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout > 0 {
		hc := *c.http
		hc.Timeout = c.timeout
		c.http = &hc
	}
	return c
}

// Token returns the bearer token currently in use.
func (c *Client) Token() string {
	return c.token
}

// SetToken replaces the bearer token.
func (c *Client) SetToken(token string) {
	c.token = token
}

type envelope struct {
	Data  json.RawMessage  `json:"data"`
	Error *appErrors.Error `json:"error"`
}

type intakeResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// Reserve posts a reservation to the public intake endpoint.
func (c *Client) Reserve(ctx context.Context, req dto.CreateReservationRequest) error {
	res, err := c.do(ctx, http.MethodPost, c.baseURL+"/api/reserve", req, false)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	var result intakeResult
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil && res.StatusCode < 300 {
		return fmt.Errorf("decode intake response: %w", err)
	}
	if res.StatusCode >= 300 || !result.Success {
		message := result.Error
		if message == "" {
			message = http.StatusText(res.StatusCode)
		}
		return appErrors.New(codeForStatus(res.StatusCode), res.StatusCode, message)
	}
	return nil
}

// Login exchanges the admin password for a token and keeps it for later calls.
func (c *Client) Login(ctx context.Context, password string) (*models.LoginResponse, error) {
	var out models.LoginResponse
	if err := c.call(ctx, http.MethodPost, "/admin/login", models.AdminLoginRequest{Password: password}, &out); err != nil {
		return nil, err
	}
	c.token = out.AccessToken
	return &out, nil
}

// Logout revokes the current session.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.call(ctx, http.MethodPost, "/admin/logout", nil, nil); err != nil {
		return err
	}
	c.token = ""
	return nil
}

// List fetches reservations matching filter, newest first.
func (c *Client) List(ctx context.Context, filter models.ReservationFilter) ([]models.Reservation, error) {
	var rows []models.Reservation
	if err := c.call(ctx, http.MethodGet, "/admin/reservations"+filterQuery(filter, ""), nil, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// Get fetches a single reservation.
func (c *Client) Get(ctx context.Context, id string) (*models.Reservation, error) {
	var record models.Reservation
	if err := c.call(ctx, http.MethodGet, "/admin/reservations/"+url.PathEscape(id), nil, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// UpdateStatus sets the reservation status.
func (c *Client) UpdateStatus(ctx context.Context, id string, status models.ReservationStatus) (*dto.ReservationMutation, error) {
	var out dto.ReservationMutation
	path := "/admin/reservations/" + url.PathEscape(id) + "/status"
	if err := c.call(ctx, http.MethodPatch, path, dto.UpdateStatusRequest{Status: status}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateMemo replaces the admin memo.
func (c *Client) UpdateMemo(ctx context.Context, id, memo string) (*dto.ReservationMutation, error) {
	var out dto.ReservationMutation
	path := "/admin/reservations/" + url.PathEscape(id) + "/memo"
	if err := c.call(ctx, http.MethodPatch, path, dto.UpdateMemoRequest{AdminMemo: memo}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Export downloads the filtered list rendered as format.
func (c *Client) Export(ctx context.Context, filter models.ReservationFilter, format dto.ExportFormat) (*dto.ExportFile, error) {
	res, err := c.do(ctx, http.MethodGet, c.adminURL("/admin/reservations/export"+filterQuery(filter, format)), nil, true)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode >= 300 {
		return nil, decodeError(res)
	}
	payload, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read export: %w", err)
	}
	filename := "reservations." + string(format)
	if _, params, err := mime.ParseMediaType(res.Header.Get("Content-Disposition")); err == nil && params["filename"] != "" {
		filename = params["filename"]
	}
	return &dto.ExportFile{Filename: filename, ContentType: res.Header.Get("Content-Type"), Payload: payload}, nil
}

func (c *Client) adminURL(path string) string {
	return c.baseURL + c.apiPrefix + path
}

// call performs an admin request and decodes the envelope data into out.
func (c *Client) call(ctx context.Context, method, path string, body, out interface{}) error {
	res, err := c.do(ctx, method, c.adminURL(path), body, true)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode >= 300 {
		return decodeError(res)
	}
	if res.StatusCode == http.StatusNoContent {
		return nil
	}

	var env envelope
	if err := json.NewDecoder(res.Body).Decode(&env); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decode %s %s data: %w", method, path, err)
		}
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, target string, body interface{}, auth bool) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if auth && c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, target, err)
	}
	return res, nil
}

func decodeError(res *http.Response) error {
	var env envelope
	if err := json.NewDecoder(res.Body).Decode(&env); err == nil && env.Error != nil {
		if env.Error.Status == 0 {
			env.Error.Status = res.StatusCode
		}
		return env.Error
	}
	return appErrors.New(codeForStatus(res.StatusCode), res.StatusCode, http.StatusText(res.StatusCode))
}

func codeForStatus(status int) string {
	switch {
	case status == http.StatusBadRequest:
		return appErrors.ErrValidation.Code
	case status == http.StatusUnauthorized:
		return appErrors.ErrUnauthorized.Code
	case status == http.StatusForbidden:
		return appErrors.ErrForbidden.Code
	case status == http.StatusNotFound:
		return appErrors.ErrNotFound.Code
	default:
		return appErrors.ErrInternal.Code
	}
}

func filterQuery(filter models.ReservationFilter, format dto.ExportFormat) string {
	values := url.Values{}
	if filter.Grade != "" {
		values.Set("grade", filter.Grade)
	}
	if filter.Status != "" {
		values.Set("status", string(filter.Status))
	}
	if filter.DesiredDate != "" {
		values.Set("desiredDate", filter.DesiredDate)
	}
	if format != "" {
		values.Set("format", string(format))
	}
	if len(values) == 0 {
		return ""
	}
	return "?" + values.Encode()
}
