// Package repl is the line-oriented front end, used when stdout is not a
// terminal or when --ui=line is set.
package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"SupportChat/internal/chatbot"
	"SupportChat/internal/session"
	"SupportChat/internal/transcript"

	"github.com/gookit/color"
)

// continuation marks a line that should be joined with the next one
const continuation = `\`

var (
	botStyle   = color.New(color.FgGreen, color.OpBold)
	youStyle   = color.New(color.FgCyan, color.OpBold)
	metaStyle  = color.New(color.FgGray)
	errorStyle = color.New(color.FgRed)
)

// REPL drives a Controller from line input
type REPL struct {
	ctrl     *chatbot.Controller
	archiver transcript.Archiver
	logger   *slog.Logger
	in       *bufio.Scanner
	out      io.Writer
	shown    int
}

// New creates a REPL. archiver may be nil.
func New(ctrl *chatbot.Controller, archiver transcript.Archiver, in io.Reader, out io.Writer, logger *slog.Logger) *REPL {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &REPL{
		ctrl:     ctrl,
		archiver: archiver,
		logger:   logger,
		in:       scanner,
		out:      out,
	}
}

// Run reads input until EOF, /quit or ctx is done
func (r *REPL) Run(ctx context.Context) error {
	fmt.Fprintln(r.out, "=== Customer Support ===")
	fmt.Fprintln(r.out, "Type /help for commands, /quit to exit")
	fmt.Fprintln(r.out)

	for ctx.Err() == nil {
		if !r.ctrl.Snapshot().Session.Active {
			quit, err := r.gate(ctx)
			if err != nil || quit {
				return err
			}
			continue
		}

		quit, err := r.converse(ctx)
		if err != nil || quit {
			return err
		}
	}
	r.archive(ctx)
	return nil
}

// gate asks for a user id and starts the session
func (r *REPL) gate(ctx context.Context) (bool, error) {
	fmt.Fprint(r.out, "User ID: ")
	line, ok := r.readLine()
	if !ok {
		return true, r.in.Err()
	}
	if isQuit(line) {
		return true, nil
	}

	fmt.Fprintln(r.out, metaStyle.Render("Starting session..."))
	if err := r.ctrl.StartSession(ctx, line); err != nil {
		r.logger.Warn("session start rejected", "error", err)
		fmt.Fprintln(r.out, errorStyle.Render(r.ctrl.Snapshot().UI.ErrorText))
		return false, nil
	}

	r.shown = 0
	r.printNew()
	return false, nil
}

// converse handles one line of the conversation
func (r *REPL) converse(ctx context.Context) (bool, error) {
	draft := r.ctrl.Snapshot().UI.InputDraft
	if draft == "" {
		fmt.Fprint(r.out, youStyle.Render("You: "))
	} else {
		fmt.Fprint(r.out, "...  ")
	}

	line, ok := r.readLine()
	if !ok {
		r.archive(ctx)
		return true, r.in.Err()
	}

	if draft == "" && strings.HasPrefix(strings.TrimSpace(line), "/") {
		return r.handleCommand(ctx, strings.TrimSpace(line))
	}

	if strings.HasSuffix(line, continuation) {
		r.ctrl.SetDraft(draft + strings.TrimSuffix(line, continuation))
		_, err := r.ctrl.HandleKey(ctx, chatbot.KeyPress{Key: chatbot.KeyEnter, Modifier: true})
		return false, err
	}

	r.ctrl.SetDraft(draft + line)
	fmt.Fprintln(r.out, metaStyle.Render("..."))
	sent, err := r.ctrl.HandleKey(ctx, chatbot.KeyPress{Key: chatbot.KeyEnter})
	if err != nil {
		if errors.Is(err, chatbot.ErrBusy) {
			fmt.Fprintln(r.out, errorStyle.Render("Still waiting for the previous reply."))
			return false, nil
		}
		return false, err
	}
	if !sent {
		// A blank draft is never sent; drop it so commands work again.
		r.ctrl.SetDraft("")
		return false, nil
	}
	r.printNew()
	return false, nil
}

// handleCommand handles slash commands
func (r *REPL) handleCommand(ctx context.Context, cmd string) (bool, error) {
	parts := strings.Fields(cmd)
	switch parts[0] {
	case "/quit", "/exit":
		r.archive(ctx)
		fmt.Fprintln(r.out, "Goodbye!")
		return true, nil

	case "/reset":
		r.archive(ctx)
		r.ctrl.ResetSession()
		fmt.Fprintln(r.out, "Session reset.")
		return false, nil

	case "/end":
		r.archive(ctx)
		if err := r.ctrl.EndSession(ctx); err != nil {
			fmt.Fprintln(r.out, errorStyle.Render(fmt.Sprintf("Session closed locally; backend said: %v", err)))
			return false, nil
		}
		fmt.Fprintln(r.out, "Session ended.")
		return false, nil

	case "/help":
		fmt.Fprintln(r.out, "Available commands:")
		fmt.Fprintln(r.out, "  /reset       - Forget this conversation and start over")
		fmt.Fprintln(r.out, "  /end         - End the session on the server and start over")
		fmt.Fprintln(r.out, "  /quit, /exit - Exit")
		fmt.Fprintln(r.out, "  /help        - Show this help message")
		fmt.Fprintln(r.out, "End a line with \\ to continue the message on the next line.")
		return false, nil

	default:
		fmt.Fprintf(r.out, "Unknown command %s, try /help\n", parts[0])
		return false, nil
	}
}

// printNew prints the assistant messages not shown yet
func (r *REPL) printNew() {
	messages := r.ctrl.Snapshot().Messages
	for _, msg := range messages[min(r.shown, len(messages)):] {
		if msg.Role == session.RoleAssistant {
			r.printAssistant(msg)
		}
	}
	r.shown = len(messages)
}

func (r *REPL) printAssistant(msg session.Message) {
	line := botStyle.Render("Bot: ") + msg.Content
	if meta := msg.Meta(); meta != "" {
		line += " " + metaStyle.Render("["+meta+"]")
	}
	fmt.Fprintln(r.out, line)
	fmt.Fprintln(r.out)
}

func (r *REPL) archive(ctx context.Context) {
	if err := transcript.ArchiveSnapshot(ctx, r.archiver, r.ctrl.Snapshot()); err != nil {
		r.logger.Error("failed to archive transcript", "error", err)
	}
}

func (r *REPL) readLine() (string, bool) {
	if !r.in.Scan() {
		return "", false
	}
	return strings.TrimRight(r.in.Text(), "\r"), true
}

func isQuit(line string) bool {
	switch strings.TrimSpace(line) {
	case "/quit", "/exit":
		return true
	}
	return false
}
