package session

import (
	"fmt"
	"strings"
	"time"
)

// Role identifies who authored a message
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message represents a single chat message
type Message struct {
	Role       Role      `json:"role"`
	Content    string    `json:"content"`
	Timestamp  time.Time `json:"timestamp"`
	Confidence *float64  `json:"confidence,omitempty"`
	UsedLLM    *bool     `json:"used_llm,omitempty"`
}

// Session represents a support chat session
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Active    bool      `json:"active"`
	StartedAt time.Time `json:"started_at"`
}

// UIState holds transient interaction state
type UIState struct {
	InputDraft string `json:"input_draft"`
	IsLoading  bool   `json:"is_loading"`
	ErrorText  string `json:"error_text,omitempty"`
}

// Meta describes how an assistant reply was produced, e.g. "LLM · 82%".
// It is empty when the backend sent neither field.
func (m Message) Meta() string {
	var parts []string
	if m.UsedLLM != nil {
		if *m.UsedLLM {
			parts = append(parts, "LLM")
		} else {
			parts = append(parts, "SLM")
		}
	}
	if m.Confidence != nil {
		parts = append(parts, fmt.Sprintf("%.0f%%", *m.Confidence*100))
	}
	return strings.Join(parts, " · ")
}
