package observability

import (
	"context"
	"time"

	"github.com/zenlabs/echobrain/internal/completion"
)

// InstrumentedClient decorates a completion client with latency and error
// metrics.
type InstrumentedClient struct {
	inner   completion.Client
	metrics *Metrics
}

func InstrumentClient(inner completion.Client, metrics *Metrics) *InstrumentedClient {
	return &InstrumentedClient{inner: inner, metrics: metrics}
}

func (c *InstrumentedClient) Complete(ctx context.Context, req completion.Request) (completion.Completion, error) {
	start := time.Now()
	comp, err := c.inner.Complete(ctx, req)
	c.metrics.ObserveCompletionLatency(time.Since(start))
	if err != nil || !comp.OK() {
		kind := comp.Kind
		if kind == completion.ErrorNone {
			kind = completion.ErrorTransport
		}
		c.metrics.CompletionErrors.WithLabelValues(string(kind)).Inc()
	}
	return comp, err
}
