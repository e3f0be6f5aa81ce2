package voice

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// MockProvider implements both speech contracts with deterministic local
// results, for development and tests.
type MockProvider struct{}

func NewMockProvider() *MockProvider { return &MockProvider{} }

func (p *MockProvider) Transcribe(_ context.Context, audio []byte) (string, error) {
	if len(audio) == 0 {
		return "", errors.New("no audio provided")
	}
	return fmt.Sprintf("mock transcript of %d audio bytes", len(audio)), nil
}

func (p *MockProvider) Synthesize(_ context.Context, text string) (string, error) {
	if text == "" {
		return "", errors.New("no text provided")
	}
	return "mock://audio/" + uuid.NewString() + ".wav", nil
}
