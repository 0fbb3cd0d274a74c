package repl

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"SupportChat/internal/backend"
	"SupportChat/internal/chatbot"
	"SupportChat/internal/chatbot/mocks"
	"SupportChat/internal/session"

	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type recordingArchiver struct {
	saved []session.Session
	sizes []int
}

func (a *recordingArchiver) Save(ctx context.Context, sess session.Session, messages []session.Message) error {
	a.saved = append(a.saved, sess)
	a.sizes = append(a.sizes, len(messages))
	return nil
}

func runREPL(t *testing.T, input string, expect func(api *mocks.MockSupportAPI)) (string, *recordingArchiver) {
	t.Helper()
	ctrl := gomock.NewController(t)
	api := mocks.NewMockSupportAPI(ctrl)
	expect(api)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	archiver := &recordingArchiver{}
	var out bytes.Buffer

	r := New(chatbot.NewController(api), archiver, strings.NewReader(input), &out, logger)
	require.NoError(t, r.Run(context.Background()))
	return out.String(), archiver
}

func TestREPL_Conversation(t *testing.T) {
	req := require.New(t)
	input := strings.Join([]string{
		"   ",
		"42",
		`hello\`,
		"world",
		"/reset",
		"/quit",
	}, "\n") + "\n"

	out, archiver := runREPL(t, input, func(api *mocks.MockSupportAPI) {
		api.EXPECT().StartSession(gomock.Any(), "42").Return(nil).Times(1)
		api.EXPECT().
			Chat(gomock.Any(), "42", "hello\nworld").
			Return(backend.ChatResponse{
				Reply:      "Your order shipped.",
				Confidence: backend.Confidence{Value: lo.ToPtr(0.9)},
				UsedLLM:    lo.ToPtr(true),
			}, nil).
			Times(1)
	})

	req.Contains(out, "Please enter a valid user ID")
	req.Contains(out, chatbot.WelcomeText)
	req.Contains(out, "Your order shipped.")
	req.Contains(out, "LLM · 90%")
	req.Contains(out, "Session reset.")
	req.Len(archiver.saved, 1)
	req.Equal("42", archiver.saved[0].UserID)
	req.Equal(3, archiver.sizes[0])
}

func TestREPL_StartFailureStaysOnGate(t *testing.T) {
	req := require.New(t)

	out, archiver := runREPL(t, "42\n/quit\n", func(api *mocks.MockSupportAPI) {
		api.EXPECT().StartSession(gomock.Any(), "42").Return(errors.New("status 500")).Times(1)
	})

	req.Contains(out, "Failed to start session. Please try again.")
	req.NotContains(out, chatbot.WelcomeText)
	req.Empty(archiver.saved)
}

func TestREPL_SendFailureKeepsConversationGoing(t *testing.T) {
	req := require.New(t)

	out, archiver := runREPL(t, "7\nfirst\nsecond\n", func(api *mocks.MockSupportAPI) {
		api.EXPECT().StartSession(gomock.Any(), "7").Return(nil)
		gomock.InOrder(
			api.EXPECT().Chat(gomock.Any(), "7", "first").Return(backend.ChatResponse{}, errors.New("connection refused")),
			api.EXPECT().Chat(gomock.Any(), "7", "second").Return(backend.ChatResponse{Reply: "Back online."}, nil),
		)
	})

	req.Contains(out, chatbot.SendFailureText)
	req.Contains(out, "Back online.")
	// EOF archives the open conversation.
	req.Len(archiver.saved, 1)
	req.Equal(5, archiver.sizes[0])
}

func TestREPL_EndSession(t *testing.T) {
	req := require.New(t)

	out, _ := runREPL(t, "7\n/end\n/quit\n", func(api *mocks.MockSupportAPI) {
		api.EXPECT().StartSession(gomock.Any(), "7").Return(nil)
		api.EXPECT().EndSession(gomock.Any(), "7").Return(nil).Times(1)
	})

	req.Contains(out, "Session ended.")
}

func TestREPL_BlankContinuedDraftIsDropped(t *testing.T) {
	req := require.New(t)
	input := strings.Join([]string{"42", `\`, "", "/quit"}, "\n") + "\n"

	out, archiver := runREPL(t, input, func(api *mocks.MockSupportAPI) {
		api.EXPECT().StartSession(gomock.Any(), "42").Return(nil)
		api.EXPECT().Chat(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
	})

	req.Contains(out, "Goodbye!")
	req.Len(archiver.saved, 1)
	req.Equal(1, archiver.sizes[0])
}

func TestREPL_Help(t *testing.T) {
	req := require.New(t)

	out, _ := runREPL(t, "7\n/help\n/bogus\n", func(api *mocks.MockSupportAPI) {
		api.EXPECT().StartSession(gomock.Any(), "7").Return(nil)
	})

	req.Contains(out, "Available commands:")
	req.Contains(out, "Unknown command /bogus")
}
