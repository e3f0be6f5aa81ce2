package completion

import (
	"context"
	"fmt"
	"strings"
)

// MockClient provides deterministic local replies when no completion
// provider is configured. It recognizes the engine's classification
// instructions so the analysis pipeline stays exercisable offline.
type MockClient struct{}

func NewMockClient() *MockClient { return &MockClient{} }

func (c *MockClient) Complete(ctx context.Context, req Request) (Completion, error) {
	select {
	case <-ctx.Done():
		return Completion{Kind: ErrorTimeout}, ctx.Err()
	default:
	}

	return finish(buildMockReply(req)), nil
}

func buildMockReply(req Request) string {
	system := strings.ToLower(req.SystemContent())
	if strings.Contains(system, "emotion and sentiment detector") {
		return `{"emotion": "neutral", "sentiment": "neutral"}`
	}
	if strings.Contains(system, "intent classifier") {
		return "conversation"
	}

	input := strings.TrimSpace(req.LastUserContent())
	if input == "" {
		return "I am listening."
	}
	return fmt.Sprintf("I hear you when you say: %s. Tell me more.", input)
}
