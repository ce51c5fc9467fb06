package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/hackgods/hospital-records/internal/metrics"
	"github.com/hackgods/hospital-records/internal/records"
)

const maxBodyBytes = 10 << 20

// TokenSource supplies the bearer token attached to each request. An empty
// token means no Authorization header is sent.
type TokenSource interface {
	Token() string
}

type TokenFunc func() string

func (f TokenFunc) Token() string { return f() }

// Client issues list and create calls against the records API collections.
// It keeps no state between calls.
type Client struct {
	httpClient *http.Client
	baseURL    string
	tokens     TokenSource
}

type Option func(*Client)

func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a client for the API rooted at baseURL, e.g. http://localhost:8080.
func NewClient(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) ListPatients(ctx context.Context) ([]records.Patient, error) {
	return list[records.Patient](ctx, c, records.Patients)
}

func (c *Client) ListDoctors(ctx context.Context) ([]records.Doctor, error) {
	return list[records.Doctor](ctx, c, records.Doctors)
}

func (c *Client) ListAppointments(ctx context.Context) ([]records.Appointment, error) {
	return list[records.Appointment](ctx, c, records.Appointments)
}

func (c *Client) CreatePatient(ctx context.Context, p records.NewPatient) (records.Patient, error) {
	return create[records.NewPatient, records.Patient](ctx, c, records.Patients, p)
}

func (c *Client) CreateAppointment(ctx context.Context, a records.NewAppointment) (records.Appointment, error) {
	return create[records.NewAppointment, records.Appointment](ctx, c, records.Appointments, a)
}

func list[T any](ctx context.Context, c *Client, coll records.Collection) ([]T, error) {
	start := time.Now()
	var items []T
	err := c.do(ctx, http.MethodGet, coll.Path(), nil, &items, http.StatusOK)
	metrics.RecordClientRequest(coll.String(), "list", start, err)
	if err != nil {
		return nil, &FetchError{Collection: coll, Err: err}
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

func create[P, T any](ctx context.Context, c *Client, coll records.Collection, payload P) (T, error) {
	start := time.Now()
	var created T
	err := c.do(ctx, http.MethodPost, coll.Path(), payload, &created, http.StatusCreated, http.StatusOK)
	metrics.RecordClientRequest(coll.String(), "create", start, err)
	if err != nil {
		var zero T
		return zero, &WriteError{Collection: coll, Err: err}
	}
	return created, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any, accept ...int) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		if tok := c.tokens.Token(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			log.Debug().Err(closeErr).Msg("Failed to close response body")
		}
	}()

	log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Str("request_id", requestID).
		Msg("records api call")

	if !statusIn(resp.StatusCode, accept) {
		return newStatusError(resp)
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func statusIn(code int, accept []int) bool {
	for _, a := range accept {
		if code == a {
			return true
		}
	}
	return false
}
