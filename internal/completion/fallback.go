package completion

import (
	"context"
	"errors"
	"fmt"
)

// FallbackClient attempts a primary client first and falls back on failure.
type FallbackClient struct {
	primary  Client
	fallback Client
}

func NewFallbackClient(primary, fallback Client) *FallbackClient {
	return &FallbackClient{primary: primary, fallback: fallback}
}

func (c *FallbackClient) Complete(ctx context.Context, req Request) (Completion, error) {
	if c == nil || c.primary == nil {
		if c != nil && c.fallback != nil {
			return c.fallback.Complete(ctx, req)
		}
		return Completion{Kind: ErrorTransport}, errors.New("fallback client misconfigured")
	}

	comp, err := c.primary.Complete(ctx, req)
	if err == nil && comp.OK() {
		return comp, nil
	}
	// Caller cancellation is not a provider failure; do not mask it.
	if errors.Is(err, context.Canceled) || ctx.Err() != nil {
		return comp, err
	}
	if c.fallback == nil {
		return comp, err
	}

	fallbackComp, fallbackErr := c.fallback.Complete(ctx, req)
	if fallbackErr != nil {
		if err != nil {
			return Completion{Kind: fallbackComp.Kind}, fmt.Errorf("primary client error: %w; fallback client error: %v", err, fallbackErr)
		}
		return Completion{Kind: fallbackComp.Kind}, fallbackErr
	}
	return fallbackComp, nil
}
