package session

import (
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

func TestMessage_Meta(t *testing.T) {
	req := require.New(t)

	req.Empty(Message{Role: RoleAssistant, Content: "hi"}.Meta())
	req.Equal("LLM", Message{UsedLLM: lo.ToPtr(true)}.Meta())
	req.Equal("SLM · 100%", Message{UsedLLM: lo.ToPtr(false), Confidence: lo.ToPtr(1.0)}.Meta())
	req.Equal("82%", Message{Confidence: lo.ToPtr(0.82)}.Meta())
}
