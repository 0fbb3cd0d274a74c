package tui

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"SupportChat/internal/backend"
	"SupportChat/internal/chatbot"
	"SupportChat/internal/chatbot/mocks"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newTestModel(t *testing.T) (*Model, *chatbot.Controller, *mocks.MockSupportAPI) {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	api := mocks.NewMockSupportAPI(gomock.NewController(t))
	ctrl := chatbot.NewController(api)
	m := New(ctx, ctrl, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	m.markdown = func(s string) (string, error) { return s + "\n", nil }
	return m, ctrl, api
}

// exec runs cmd and feeds its message back into the model
func exec(m *Model, cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	if msg := cmd(); msg != nil {
		m.Update(msg)
	}
}

func startSession(t *testing.T, m *Model, api *mocks.MockSupportAPI) {
	api.EXPECT().StartSession(gomock.Any(), "42").Return(nil)
	m.userInput.SetValue("42")
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	exec(m, cmd)
	require.True(t, m.snap.Session.Active)
}

func TestModel_Gate(t *testing.T) {
	t.Run("blank user id shows the validation error", func(t *testing.T) {
		req := require.New(t)
		m, _, api := newTestModel(t)
		api.EXPECT().StartSession(gomock.Any(), gomock.Any()).Times(0)

		_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		exec(m, cmd)

		req.False(m.snap.Session.Active)
		req.Contains(m.View(), "Please enter a valid user ID")
	})

	t.Run("failed start keeps the gate with the failure text", func(t *testing.T) {
		req := require.New(t)
		m, _, api := newTestModel(t)
		api.EXPECT().StartSession(gomock.Any(), "42").Return(errors.New("status 503"))

		m.userInput.SetValue("42")
		_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		exec(m, cmd)

		req.False(m.snap.Session.Active)
		req.Contains(m.View(), "Failed to start session. Please try again.")
	})

	t.Run("successful start shows the welcome message", func(t *testing.T) {
		req := require.New(t)
		m, _, api := newTestModel(t)
		startSession(t, m, api)

		view := m.View()
		req.Contains(view, "user 42")
		req.Contains(view, chatbot.WelcomeText)
	})
}

func TestModel_Conversation(t *testing.T) {
	t.Run("alt+enter inserts a line break without sending", func(t *testing.T) {
		req := require.New(t)
		m, ctrl, api := newTestModel(t)
		startSession(t, m, api)
		api.EXPECT().Chat(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

		m.draft.SetValue("first line")
		_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter, Alt: true})

		req.Nil(cmd)
		req.Equal("first line\n", m.draft.Value())
		req.Len(ctrl.Snapshot().Messages, 1)
	})

	t.Run("enter sends the draft once and renders the reply", func(t *testing.T) {
		req := require.New(t)
		m, ctrl, api := newTestModel(t)
		startSession(t, m, api)
		api.EXPECT().
			Chat(gomock.Any(), "42", "where is my order?").
			Return(backend.ChatResponse{Reply: "It shipped.", UsedLLM: lo.ToPtr(false)}, nil).
			Times(1)

		m.draft.SetValue("where is my order?")
		_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		req.NotNil(cmd)
		req.Empty(m.draft.Value())
		exec(m, cmd)

		req.Len(ctrl.Snapshot().Messages, 3)
		view := m.View()
		req.Contains(view, "where is my order?")
		req.Contains(view, "It shipped.")
		req.Contains(view, "SLM")
	})

	t.Run("enter on a blank draft does nothing", func(t *testing.T) {
		req := require.New(t)
		m, _, api := newTestModel(t)
		startSession(t, m, api)
		api.EXPECT().Chat(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

		m.draft.SetValue("   ")
		_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		req.Nil(cmd)
	})

	t.Run("ctrl+r returns to the gate", func(t *testing.T) {
		req := require.New(t)
		m, ctrl, api := newTestModel(t)
		startSession(t, m, api)

		m.Update(tea.KeyMsg{Type: tea.KeyCtrlR})

		req.Equal(chatbot.Snapshot{}, ctrl.Snapshot())
		req.Empty(m.userInput.Value())
		req.Contains(m.View(), "Enter your user ID")
	})

	t.Run("ctrl+e ends the session on the backend", func(t *testing.T) {
		req := require.New(t)
		m, ctrl, api := newTestModel(t)
		startSession(t, m, api)
		api.EXPECT().EndSession(gomock.Any(), "42").Return(nil).Times(1)

		_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlE})
		exec(m, cmd)

		req.False(ctrl.Snapshot().Session.Active)
		req.False(m.snap.Session.Active)
	})
}

func TestModel_StateChangeSignal(t *testing.T) {
	req := require.New(t)
	m, ctrl, _ := newTestModel(t)

	ctrl.SetDraft("x")
	msg := m.waitForChange()()
	req.IsType(stateChangedMsg{}, msg)
}
