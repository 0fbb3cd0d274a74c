package chatbot

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"SupportChat/internal/backend"
	"SupportChat/internal/session"
	"SupportChat/internal/telemetry"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

//go:generate mockgen -source=chatbot.go -destination=mocks/mock_support_api.go -package=mocks

// SupportAPI is the support backend as seen by the controller
type SupportAPI interface {
	StartSession(ctx context.Context, userID string) error
	Chat(ctx context.Context, userID, message string) (backend.ChatResponse, error)
	EndSession(ctx context.Context, userID string) error
}

// Snapshot is a copy of the controller state, safe to read from any goroutine
type Snapshot struct {
	Session  session.Session
	Messages []session.Message
	UI       session.UIState
}

// Key identifies the keys the controller reacts to
type Key int

const (
	KeyOther Key = iota
	KeyEnter
)

// KeyPress is a key event from a front end. Modifier is whatever the
// front end uses to mean "line break instead of submit".
type KeyPress struct {
	Key      Key
	Modifier bool
}

// Controller owns the session, the message log and the UI flags. All
// mutation goes through its methods.
type Controller struct {
	api         SupportAPI
	logger      *slog.Logger
	tracer      trace.Tracer
	instruments *telemetry.Instruments
	now         func() time.Time
	newID       func() string

	mu       sync.Mutex
	session  session.Session
	messages []session.Message
	ui       session.UIState
	listener func(Snapshot)
}

// Option configures a Controller
type Option func(*Controller)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) { c.logger = logger }
}

func WithTracer(tracer trace.Tracer) Option {
	return func(c *Controller) { c.tracer = tracer }
}

func WithInstruments(inst *telemetry.Instruments) Option {
	return func(c *Controller) { c.instruments = inst }
}

// WithClock overrides time.Now for message timestamps
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithIDGenerator overrides the local session id generator
func WithIDGenerator(newID func() string) Option {
	return func(c *Controller) { c.newID = newID }
}

// NewController creates a controller in the inactive state
func NewController(api SupportAPI, opts ...Option) *Controller {
	c := &Controller{
		api:         api,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		tracer:      tracenoop.NewTracerProvider().Tracer("chatbot"),
		instruments: telemetry.NoopInstruments(),
		now:         time.Now,
		newID:       uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// OnChange registers fn to be called with a fresh snapshot after every
// state transition. It replaces any previous listener.
func (c *Controller) OnChange(fn func(Snapshot)) {
	c.mu.Lock()
	c.listener = fn
	c.mu.Unlock()
}

// Snapshot returns a copy of the current state
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	return Snapshot{
		Session:  c.session,
		Messages: slices.Clone(c.messages),
		UI:       c.ui,
	}
}

// update applies fn under the lock and notifies the listener outside it
func (c *Controller) update(fn func()) {
	c.mu.Lock()
	fn()
	snap := c.snapshotLocked()
	listener := c.listener
	c.mu.Unlock()

	if listener != nil {
		listener(snap)
	}
}

// StartSession validates userID and opens a backend session for it
func (c *Controller) StartSession(ctx context.Context, userID string) error {
	ctx, span := c.tracer.Start(ctx, "start_session")
	defer span.End()

	trimmed := strings.TrimSpace(userID)

	var err error
	c.update(func() {
		switch {
		case c.ui.IsLoading:
			err = ErrBusy
		case c.session.Active:
			err = ErrSessionActive
		case trimmed == "":
			c.ui.ErrorText = invalidUserIDText
			err = ErrInvalidUserID
		default:
			c.ui.ErrorText = ""
			c.ui.IsLoading = true
		}
	})
	if err != nil {
		return err
	}

	callErr := c.api.StartSession(ctx, trimmed)

	var sessionID string
	c.update(func() {
		c.ui.IsLoading = false
		if callErr != nil {
			c.ui.ErrorText = startFailedText
			return
		}
		now := c.now()
		sessionID = c.newID()
		c.session = session.Session{
			ID:        sessionID,
			UserID:    trimmed,
			Active:    true,
			StartedAt: now,
		}
		c.messages = []session.Message{{
			Role:      session.RoleAssistant,
			Content:   WelcomeText,
			Timestamp: now,
		}}
		c.ui.ErrorText = ""
	})

	if callErr != nil {
		span.RecordError(callErr)
		c.logger.Error("failed to start session", "user_id", trimmed, "error", callErr)
		return fmt.Errorf("%w: %w", ErrSessionStartFailed, callErr)
	}

	span.SetAttributes(attribute.String("session.id", sessionID))
	c.instruments.SessionsStarted.Add(ctx, 1)
	c.logger.Info("session started", "user_id", trimmed, "session_id", sessionID)
	return nil
}

// SendMessage appends text as a user message and asks the backend for a
// reply. It reports whether a send happened. A failed request still
// produces an assistant message; only precondition failures return errors.
func (c *Controller) SendMessage(ctx context.Context, text string) (bool, error) {
	if strings.TrimSpace(text) == "" {
		return false, nil
	}

	ctx, span := c.tracer.Start(ctx, "send_message")
	defer span.End()

	var (
		err       error
		userID    string
		sessionID string
	)
	c.update(func() {
		switch {
		case !c.session.Active:
			err = ErrNoSession
		case c.ui.IsLoading:
			err = ErrBusy
		default:
			c.messages = append(c.messages, session.Message{
				Role:      session.RoleUser,
				Content:   text,
				Timestamp: c.now(),
			})
			c.ui.InputDraft = ""
			c.ui.IsLoading = true
			userID = c.session.UserID
			sessionID = c.session.ID
		}
	})
	if err != nil {
		return false, err
	}

	c.instruments.MessagesSent.Add(ctx, 1)

	resp, callErr := c.api.Chat(ctx, userID, text)
	reply := c.replyFor(ctx, resp, callErr)
	if callErr != nil {
		span.RecordError(callErr)
		c.logger.Error("failed to send message", "user_id", userID, "session_id", sessionID, "error", callErr)
	}

	c.update(func() {
		c.ui.IsLoading = false
		// The session may have been reset while the request was in flight.
		if !c.session.Active || c.session.ID != sessionID {
			return
		}
		c.messages = append(c.messages, reply)
	})

	return true, nil
}

func (c *Controller) replyFor(ctx context.Context, resp backend.ChatResponse, err error) session.Message {
	if err != nil {
		c.instruments.FallbackReplies.Add(ctx, 1)
		return session.Message{
			Role:      session.RoleAssistant,
			Content:   SendFailureText,
			Timestamp: c.now(),
		}
	}

	content := resp.Reply
	if strings.TrimSpace(content) == "" {
		c.instruments.FallbackReplies.Add(ctx, 1)
		content = MissingReplyText
	}
	if resp.UsedLLM != nil && *resp.UsedLLM {
		c.instruments.LLMReplies.Add(ctx, 1)
	}

	msg := session.Message{
		Role:      session.RoleAssistant,
		Content:   content,
		Timestamp: c.now(),
		UsedLLM:   resp.UsedLLM,
	}
	if resp.Confidence.Value != nil {
		v := *resp.Confidence.Value
		msg.Confidence = &v
	}
	return msg
}

// SetDraft replaces the input draft
func (c *Controller) SetDraft(text string) {
	c.update(func() {
		c.ui.InputDraft = text
	})
}

// HandleKey applies a key press to the draft. Enter submits the draft,
// Enter with the modifier adds a line break. It reports whether a send
// happened.
func (c *Controller) HandleKey(ctx context.Context, key KeyPress) (bool, error) {
	if key.Key != KeyEnter {
		return false, nil
	}
	if key.Modifier {
		c.update(func() {
			c.ui.InputDraft += "\n"
		})
		return false, nil
	}
	return c.SendMessage(ctx, c.Snapshot().UI.InputDraft)
}

// ResetSession drops the session and the message log. It is local only.
func (c *Controller) ResetSession() {
	var sessionID string
	c.update(func() {
		sessionID = c.session.ID
		c.session = session.Session{}
		c.messages = nil
		c.ui.InputDraft = ""
		c.ui.ErrorText = ""
	})
	if sessionID != "" {
		c.logger.Info("session reset", "session_id", sessionID)
	}
}

// EndSession tells the backend the session is over and then resets. The
// reset happens even when the backend call fails.
func (c *Controller) EndSession(ctx context.Context) error {
	ctx, span := c.tracer.Start(ctx, "end_session")
	defer span.End()

	snap := c.Snapshot()
	if !snap.Session.Active {
		return ErrNoSession
	}

	err := c.api.EndSession(ctx, snap.Session.UserID)
	c.ResetSession()
	if err != nil {
		span.RecordError(err)
		c.logger.Warn("failed to end session on backend", "user_id", snap.Session.UserID, "error", err)
		return fmt.Errorf("failed to end session: %w", err)
	}
	return nil
}
