// Package supportapi talks to the customer-support backend over HTTP.
package supportapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"SupportChat/internal/backend"
	"SupportChat/internal/telemetry"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

const (
	pathStartSession = "/api/session/start"
	pathChat         = "/api/chat"
	pathEndSession   = "/api/session/end"
	pathHealth       = "/health"
)

var validate = validator.New()

// APIError is returned when the backend answers with a non-2xx status
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("API error: status %d", e.StatusCode)
	}
	return fmt.Sprintf("API error: status %d - %s", e.StatusCode, e.Message)
}

// Client is the HTTP client for the support backend
type Client struct {
	baseURL     string
	httpClient  *http.Client
	logger      *slog.Logger
	tracer      trace.Tracer
	instruments *telemetry.Instruments
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTracer sets the tracer used for API call spans
func WithTracer(tracer trace.Tracer) Option {
	return func(c *Client) { c.tracer = tracer }
}

// WithInstruments sets the metric instruments
func WithInstruments(inst *telemetry.Instruments) Option {
	return func(c *Client) { c.instruments = inst }
}

// NewClient creates a client for the backend at baseURL. A zero timeout
// leaves requests bounded only by the caller's context.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		httpClient:  &http.Client{Timeout: timeout},
		logger:      logger,
		tracer:      tracenoop.NewTracerProvider().Tracer("supportapi"),
		instruments: telemetry.NoopInstruments(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// StartSession calls POST /api/session/start. Any non-2xx status is an error.
func (c *Client) StartSession(ctx context.Context, userID string) error {
	ctx, span := c.tracer.Start(ctx, "support_session_start_api_call")
	defer span.End()

	reqBody := backend.StartSessionRequest{UserID: userID}
	if err := validate.Struct(reqBody); err != nil {
		return fmt.Errorf("invalid session start request: %w", err)
	}

	// Only the status matters; the body is read for the log line.
	body, err := c.do(ctx, span, http.MethodPost, pathStartSession, reqBody, nil)
	if err != nil {
		return err
	}

	var resp backend.StartSessionResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		c.logger.Debug("session start response is not json", "user_id", userID, "error", err)
	}
	c.logger.Info("session started on backend", "user_id", userID, "message", resp.Message)
	return nil
}

// Chat calls POST /api/chat and returns the decoded reply
func (c *Client) Chat(ctx context.Context, userID, message string) (backend.ChatResponse, error) {
	ctx, span := c.tracer.Start(ctx, "support_chat_api_call")
	defer span.End()

	reqBody := backend.ChatRequest{UserID: userID, Message: message}
	if err := validate.Struct(reqBody); err != nil {
		return backend.ChatResponse{}, fmt.Errorf("invalid chat request: %w", err)
	}

	var resp backend.ChatResponse
	if _, err := c.do(ctx, span, http.MethodPost, pathChat, reqBody, &resp); err != nil {
		return backend.ChatResponse{}, err
	}

	if resp.UsedLLM != nil {
		span.SetAttributes(attribute.Bool("support.used_llm", *resp.UsedLLM))
	}
	return resp, nil
}

// EndSession calls POST /api/session/end so the backend can release the session
func (c *Client) EndSession(ctx context.Context, userID string) error {
	ctx, span := c.tracer.Start(ctx, "support_session_end_api_call")
	defer span.End()

	reqBody := backend.EndSessionRequest{UserID: userID}
	if err := validate.Struct(reqBody); err != nil {
		return fmt.Errorf("invalid session end request: %w", err)
	}

	_, err := c.do(ctx, span, http.MethodPost, pathEndSession, reqBody, nil)
	return err
}

// Health calls GET /health
func (c *Client) Health(ctx context.Context) (backend.HealthResponse, error) {
	ctx, span := c.tracer.Start(ctx, "support_health_api_call")
	defer span.End()

	var resp backend.HealthResponse
	if _, err := c.do(ctx, span, http.MethodGet, pathHealth, nil, &resp); err != nil {
		return backend.HealthResponse{}, err
	}
	return resp, nil
}

// do sends one request and decodes a 2xx body into out (when out is non-nil).
// The raw 2xx body is returned as well.
func (c *Client) do(ctx context.Context, span trace.Span, method, path string, body, out any) ([]byte, error) {
	start := time.Now()
	requestID := uuid.NewString()
	span.SetAttributes(
		attribute.String("http.request.method", method),
		attribute.String("url.path", path),
		attribute.String("support.request_id", requestID),
	)

	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport failure")
		c.logger.Warn("support request failed", "path", path, "request_id", requestID, "error", err)
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	c.instruments.RequestDuration.Record(ctx, float64(time.Since(start).Milliseconds()),
		metric.WithAttributes(
			attribute.String("url.path", path),
			attribute.Int("http.response.status_code", resp.StatusCode),
		),
	)
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: errorMessage(respBody)}
		span.RecordError(apiErr)
		span.SetStatus(codes.Error, apiErr.Error())
		c.logger.Warn("support backend returned error status",
			"path", path, "request_id", requestID, "status", resp.StatusCode, "error", apiErr.Message)
		return nil, apiErr
	}

	if out == nil {
		return respBody, nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "undecodable response")
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	c.logger.Debug("support request completed", "path", path, "request_id", requestID,
		"duration_ms", time.Since(start).Milliseconds())
	return respBody, nil
}

func errorMessage(body []byte) string {
	var errResp backend.ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
		return errResp.Error
	}
	return strings.TrimSpace(string(body))
}
