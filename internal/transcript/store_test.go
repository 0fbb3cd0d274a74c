package transcript

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"SupportChat/internal/chatbot"
	"SupportChat/internal/session"

	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	s, err := Open(filepath.Join(t.TempDir(), "transcripts.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_SaveAndLoad(t *testing.T) {
	req := require.New(t)
	s := openTestStore(t)
	ctx := context.Background()
	started := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return started.Add(10 * time.Minute) }

	sess := session.Session{ID: "s-1", UserID: "42", Active: true, StartedAt: started}
	messages := []session.Message{
		{Role: session.RoleAssistant, Content: "Welcome!", Timestamp: started},
		{Role: session.RoleUser, Content: "where is my order?\nit's late", Timestamp: started.Add(time.Minute)},
		{Role: session.RoleAssistant, Content: "It shipped.", Timestamp: started.Add(2 * time.Minute), Confidence: lo.ToPtr(0.8), UsedLLM: lo.ToPtr(false)},
	}

	req.NoError(s.Save(ctx, sess, messages))

	got, err := s.Load(ctx, "s-1")
	req.NoError(err)
	req.Equal("s-1", got.Session.ID)
	req.Equal("42", got.Session.UserID)
	req.True(got.Session.StartedAt.Equal(started))
	req.True(got.ArchivedAt.Equal(started.Add(10 * time.Minute)))
	req.Len(got.Messages, 3)
	req.Equal(session.RoleUser, got.Messages[1].Role)
	req.Equal("where is my order?\nit's late", got.Messages[1].Content)
	req.Nil(got.Messages[0].Confidence)
	req.Nil(got.Messages[0].UsedLLM)
	req.Equal(lo.ToPtr(0.8), got.Messages[2].Confidence)
	req.Equal(lo.ToPtr(false), got.Messages[2].UsedLLM)
}

func TestStore_SaveReplacesEarlierCopy(t *testing.T) {
	req := require.New(t)
	s := openTestStore(t)
	ctx := context.Background()
	sess := session.Session{ID: "s-1", UserID: "42", StartedAt: time.Now()}

	req.NoError(s.Save(ctx, sess, []session.Message{{Role: session.RoleAssistant, Content: "Welcome!"}}))
	req.NoError(s.Save(ctx, sess, []session.Message{
		{Role: session.RoleAssistant, Content: "Welcome!"},
		{Role: session.RoleUser, Content: "hi"},
	}))

	got, err := s.Load(ctx, "s-1")
	req.NoError(err)
	req.Len(got.Messages, 2)
}

func TestStore_List(t *testing.T) {
	req := require.New(t)
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

	for i, id := range []string{"older", "newer"} {
		s.now = func() time.Time { return base.Add(time.Duration(i) * time.Hour) }
		msgs := make([]session.Message, i+1)
		for j := range msgs {
			msgs[j] = session.Message{Role: session.RoleUser, Content: "m"}
		}
		req.NoError(s.Save(ctx, session.Session{ID: id, UserID: "7", StartedAt: base}, msgs))
	}

	list, err := s.List(ctx, 10)
	req.NoError(err)
	req.Len(list, 2)
	req.Equal("newer", list[0].ID)
	req.Equal(2, list[0].MessageCount)
	req.Equal("older", list[1].ID)
	req.Equal(1, list[1].MessageCount)

	limited, err := s.List(ctx, 1)
	req.NoError(err)
	req.Len(limited, 1)
}

func TestStore_Errors(t *testing.T) {
	req := require.New(t)
	s := openTestStore(t)

	_, err := s.Load(context.Background(), "missing")
	req.ErrorIs(err, ErrNotFound)

	req.Error(s.Save(context.Background(), session.Session{}, nil))

	_, err = Open("")
	req.Error(err)
}

func TestArchiveSnapshot(t *testing.T) {
	req := require.New(t)
	s := openTestStore(t)
	ctx := context.Background()

	req.NoError(ArchiveSnapshot(ctx, nil, chatbot.Snapshot{Session: session.Session{ID: "x", Active: true}}))
	req.NoError(ArchiveSnapshot(ctx, s, chatbot.Snapshot{}))

	snap := chatbot.Snapshot{
		Session:  session.Session{ID: "s-9", UserID: "9", Active: true},
		Messages: []session.Message{{Role: session.RoleAssistant, Content: chatbot.WelcomeText}},
	}
	req.NoError(ArchiveSnapshot(ctx, s, snap))

	list, err := s.List(ctx, 0)
	req.NoError(err)
	req.Len(list, 1)
	req.Equal("s-9", list[0].ID)
}
