package completion

import (
	"fmt"
	"strings"
	"time"
)

// Config controls client construction.
type Config struct {
	Mode    string
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// New builds a completion client for the configured mode.
//
// In auto mode a remote client is used when an API key is present, with the
// mock as a local fallback so the companion keeps answering during provider
// outages.
func New(cfg Config) (Client, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.Mode))
	if mode == "" {
		mode = "auto"
	}

	switch mode {
	case "auto":
		if strings.TrimSpace(cfg.APIKey) == "" {
			return NewMockClient(), nil
		}
		remote := NewOpenAIClient(cfg.BaseURL, cfg.APIKey, cfg.Model, cfg.Timeout)
		return NewFallbackClient(remote, NewMockClient()), nil
	case "http":
		if strings.TrimSpace(cfg.APIKey) == "" {
			return nil, fmt.Errorf("completion API key is required for http mode")
		}
		return NewOpenAIClient(cfg.BaseURL, cfg.APIKey, cfg.Model, cfg.Timeout), nil
	case "mock":
		return NewMockClient(), nil
	default:
		return nil, fmt.Errorf("unsupported completion client mode %q", cfg.Mode)
	}
}
