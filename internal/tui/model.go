// Package tui is the bubbletea front end for the support chat.
package tui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"SupportChat/internal/chatbot"
	"SupportChat/internal/session"
	"SupportChat/internal/transcript"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

const (
	defaultWidth  = 80
	defaultHeight = 24
	draftHeight   = 3
)

// stateChangedMsg tells the model the controller state moved
type stateChangedMsg struct{}

// opDoneMsg reports the result of an async controller call
type opDoneMsg struct {
	op  string
	err error
}

// Model is the bubbletea model
type Model struct {
	ctx      context.Context
	ctrl     *chatbot.Controller
	archiver transcript.Archiver
	logger   *slog.Logger
	changed  chan struct{}

	snap      chatbot.Snapshot
	userInput textinput.Model
	draft     textarea.Model
	thread    viewport.Model
	spinner   spinner.Model
	notice    string

	width, height int
	rendered      map[string]string
	markdown      func(string) (string, error)
}

// New creates the model and subscribes it to ctrl. archiver may be nil.
func New(ctx context.Context, ctrl *chatbot.Controller, archiver transcript.Archiver, logger *slog.Logger) *Model {
	ui := textinput.New()
	ui.Placeholder = "Enter your user ID"
	ui.CharLimit = 64
	ui.Width = 30
	ui.Focus()

	ta := textarea.New()
	ta.Placeholder = "Type your message… (Enter to send, Alt+Enter for a new line)"
	ta.ShowLineNumbers = false
	ta.KeyMap.InsertNewline.SetEnabled(false)
	ta.SetHeight(draftHeight)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = noticeStyle

	m := &Model{
		ctx:       ctx,
		ctrl:      ctrl,
		archiver:  archiver,
		logger:    logger,
		changed:   make(chan struct{}, 1),
		snap:      ctrl.Snapshot(),
		userInput: ui,
		draft:     ta,
		thread:    viewport.New(defaultWidth, defaultHeight),
		spinner:   sp,
		rendered:  map[string]string{},
		markdown: func(s string) (string, error) {
			return glamour.Render(s, "dark")
		},
	}
	m.resize(defaultWidth, defaultHeight)

	// Every change only marks the model dirty; the model re-reads the
	// latest snapshot when it handles the signal.
	ctrl.OnChange(func(chatbot.Snapshot) {
		select {
		case m.changed <- struct{}{}:
		default:
		}
	})
	return m
}

// Run starts the program on the alternate screen
func Run(ctx context.Context, m *Model) error {
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running program: %w", err)
	}
	return nil
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.waitForChange(), m.spinner.Tick)
}

func (m *Model) waitForChange() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-m.changed:
			return stateChangedMsg{}
		case <-m.ctx.Done():
			return nil
		}
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case stateChangedMsg:
		m.applySnapshot(m.ctrl.Snapshot())
		return m, m.waitForChange()

	case opDoneMsg:
		if msg.err != nil {
			m.logger.Warn("controller operation failed", "op", msg.op, "error", msg.err)
			if msg.op == "end" {
				m.notice = "Session closed locally; the server did not confirm."
			}
		}
		m.applySnapshot(m.ctrl.Snapshot())
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		m.archive()
		return m, tea.Quit
	}

	if !m.snap.Session.Active {
		return m.handleGateKey(msg)
	}

	switch msg.String() {
	case "enter":
		if m.snap.UI.IsLoading {
			m.notice = "Waiting for the previous reply…"
			return m, nil
		}
		text := m.draft.Value()
		if strings.TrimSpace(text) == "" {
			return m, nil
		}
		m.notice = ""
		m.ctrl.SetDraft(text)
		m.draft.Reset()
		return m, m.run("send", func(ctx context.Context) error {
			_, err := m.ctrl.HandleKey(ctx, chatbot.KeyPress{Key: chatbot.KeyEnter})
			return err
		})

	case "alt+enter", "ctrl+j":
		m.ctrl.SetDraft(m.draft.Value())
		if _, err := m.ctrl.HandleKey(m.ctx, chatbot.KeyPress{Key: chatbot.KeyEnter, Modifier: true}); err != nil {
			m.logger.Warn("failed to insert line break", "error", err)
		}
		m.draft.SetValue(m.ctrl.Snapshot().UI.InputDraft)
		return m, nil

	case "ctrl+r":
		m.archive()
		m.ctrl.ResetSession()
		m.notice = ""
		m.applySnapshot(m.ctrl.Snapshot())
		return m, nil

	case "ctrl+e":
		m.archive()
		return m, m.run("end", m.ctrl.EndSession)
	}

	var cmd tea.Cmd
	m.draft, cmd = m.draft.Update(msg)
	return m, cmd
}

func (m *Model) handleGateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "enter" {
		if m.snap.UI.IsLoading {
			return m, nil
		}
		userID := m.userInput.Value()
		return m, m.run("start", func(ctx context.Context) error {
			return m.ctrl.StartSession(ctx, userID)
		})
	}

	var cmd tea.Cmd
	m.userInput, cmd = m.userInput.Update(msg)
	return m, cmd
}

// run wraps a blocking controller call in a command
func (m *Model) run(op string, fn func(ctx context.Context) error) tea.Cmd {
	return func() tea.Msg {
		return opDoneMsg{op: op, err: fn(m.ctx)}
	}
}

func (m *Model) applySnapshot(snap chatbot.Snapshot) {
	wasActive := m.snap.Session.Active
	m.snap = snap

	switch {
	case snap.Session.Active && !wasActive:
		m.userInput.Blur()
		m.draft.Reset()
		m.draft.Focus()
	case !snap.Session.Active && wasActive:
		m.draft.Blur()
		m.userInput.Reset()
		m.userInput.Focus()
		m.rendered = map[string]string{}
	}
	m.refreshThread()
}

func (m *Model) archive() {
	if err := transcript.ArchiveSnapshot(m.ctx, m.archiver, m.ctrl.Snapshot()); err != nil {
		m.logger.Error("failed to archive transcript", "error", err)
	}
}

func (m *Model) resize(width, height int) {
	m.width, m.height = width, height
	m.draft.SetWidth(max(width-2, 10))
	// title + spinner line + draft + help + thread border
	m.thread.Width = max(width-2, 10)
	m.thread.Height = max(height-draftHeight-6, 3)
	m.rendered = map[string]string{}
	m.refreshThread()
}

func (m *Model) refreshThread() {
	var sb strings.Builder
	for i, msg := range m.snap.Messages {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(m.renderMessage(i, msg))
	}
	m.thread.SetContent(sb.String())
	m.thread.GotoBottom()
}

func (m *Model) renderMessage(i int, msg session.Message) string {
	key := fmt.Sprintf("%s/%d", m.snap.Session.ID, i)
	if cached, ok := m.rendered[key]; ok {
		return cached
	}

	var sb strings.Builder
	stamp := timeStyle.Render(msg.Timestamp.Format("15:04"))
	if msg.Role == session.RoleUser {
		sb.WriteString(userLabelStyle.Render("You") + " " + stamp + "\n")
		sb.WriteString(userContentStyle.Render(msg.Content))
		sb.WriteString("\n")
	} else {
		sb.WriteString(assistantLabelStyle.Render("Support") + " " + stamp)
		if meta := msg.Meta(); meta != "" {
			sb.WriteString(" " + metaStyle.Render(meta))
		}
		sb.WriteString("\n")
		body, err := m.markdown(msg.Content)
		if err != nil {
			body = userContentStyle.Render(msg.Content) + "\n"
		}
		sb.WriteString(body)
	}

	out := sb.String()
	m.rendered[key] = out
	return out
}

func (m *Model) View() string {
	if !m.snap.Session.Active {
		return m.gateView()
	}
	return m.conversationView()
}

func (m *Model) gateView() string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render("Customer Support"))
	sb.WriteString("\n\n")
	sb.WriteString("Enter your user ID to start a conversation.\n\n")
	sb.WriteString(m.userInput.View())
	sb.WriteString("\n\n")
	if m.snap.UI.IsLoading {
		sb.WriteString(m.spinner.View() + " Starting session…\n")
	}
	if m.snap.UI.ErrorText != "" {
		sb.WriteString(errorStyle.Render(m.snap.UI.ErrorText) + "\n")
	}
	sb.WriteString(helpStyle.Render("enter: start • esc: quit"))
	return gatePane.Render(sb.String())
}

func (m *Model) conversationView() string {
	header := titleStyle.Render(fmt.Sprintf("Customer Support • user %s", m.snap.Session.UserID))

	status := ""
	if m.snap.UI.IsLoading {
		status = m.spinner.View() + " Support is typing…"
	} else if m.notice != "" {
		status = noticeStyle.Render(m.notice)
	}

	help := helpStyle.Render("enter: send • alt+enter: new line • ctrl+r: reset • ctrl+e: end session • esc: quit")

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		threadPane.Render(m.thread.View()),
		status,
		m.draft.View(),
		help,
	)
}
