package backend

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// StartSessionRequest represents the request body for /api/session/start
type StartSessionRequest struct {
	UserID string `json:"user_id" validate:"required"`
}

// StartSessionResponse represents the response from /api/session/start.
// Only the status code matters to the client; the fields are logged.
type StartSessionResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	UserID  json.RawMessage `json:"user_id"`
}

// ChatRequest represents the request body for /api/chat
type ChatRequest struct {
	UserID  string `json:"user_id" validate:"required"`
	Message string `json:"message" validate:"required"`
}

// ChatResponse represents the response from /api/chat
type ChatResponse struct {
	Reply      string     `json:"reply"`
	Confidence Confidence `json:"confidence"`
	UsedLLM    *bool      `json:"used_llm"`
}

// EndSessionRequest represents the request body for /api/session/end
type EndSessionRequest struct {
	UserID string `json:"user_id" validate:"required"`
}

// HealthResponse represents the response from /health
type HealthResponse struct {
	Status      string            `json:"status"`
	Sessions    int               `json:"sessions"`
	ActiveUsers []json.RawMessage `json:"active_users"`
}

// ActiveUserIDs renders the active user ids as strings; the backend emits numbers.
func (h HealthResponse) ActiveUserIDs() []string {
	ids := make([]string, 0, len(h.ActiveUsers))
	for _, raw := range h.ActiveUsers {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			ids = append(ids, s)
			continue
		}
		ids = append(ids, string(bytes.TrimSpace(raw)))
	}
	return ids
}

// ErrorResponse is the body the backend sends with non-2xx statuses
type ErrorResponse struct {
	Error string `json:"error"`
}

// Confidence is a reply confidence score. The backend sends either a number
// or a boolean; booleans map to 1 and 0. Any other shape decodes as unset.
type Confidence struct {
	Value *float64
}

// UnmarshalJSON implements json.Unmarshaler
func (c *Confidence) UnmarshalJSON(data []byte) error {
	c.Value = nil
	trimmed := bytes.TrimSpace(data)
	switch string(trimmed) {
	case "", "null":
		return nil
	case "true":
		v := 1.0
		c.Value = &v
		return nil
	case "false":
		v := 0.0
		c.Value = &v
		return nil
	}
	if v, err := strconv.ParseFloat(string(trimmed), 64); err == nil {
		c.Value = &v
	}
	return nil
}

// MarshalJSON implements json.Marshaler
func (c Confidence) MarshalJSON() ([]byte, error) {
	if c.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*c.Value)
}
