package completion

import (
	"context"
	"strings"
)

// Role tags for prompt messages.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single role-tagged prompt message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is the normalized request sent to the completion service.
type Request struct {
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`
}

// ErrorKind classifies completion failures structurally, replacing the
// legacy "[Error] ..." string sentinels of the previous service generation.
type ErrorKind string

const (
	ErrorNone        ErrorKind = ""
	ErrorTimeout     ErrorKind = "timeout"
	ErrorTransport   ErrorKind = "transport"
	ErrorRateLimited ErrorKind = "rate_limited"
	ErrorEmpty       ErrorKind = "empty"
	ErrorSentinel    ErrorKind = "sentinel"
)

// Completion is the typed result of a completion call.
type Completion struct {
	Text string    `json:"text"`
	Kind ErrorKind `json:"error_kind,omitempty"`
}

// OK reports whether the completion carries usable reply text.
func (c Completion) OK() bool {
	return c.Kind == ErrorNone && strings.TrimSpace(c.Text) != ""
}

// Client is the narrow contract to the remote completion service. Every
// implementation bounds the call with a timeout; a stalled upstream must not
// block the caller indefinitely.
type Client interface {
	Complete(ctx context.Context, req Request) (Completion, error)
}

// sentinelPrefixes maps legacy error-tagged text prefixes to error kinds.
// Older engine builds signaled failures inline in the reply text; the mapping
// lives only at this boundary so no caller ever substring-matches again.
var sentinelPrefixes = []struct {
	prefix string
	kind   ErrorKind
}{
	{"[Groq Error]", ErrorTransport},
	{"[Timeout]", ErrorTimeout},
	{"[Rate Limit]", ErrorRateLimited},
	{"[TTS Error]", ErrorSentinel},
	{"[STT Error]", ErrorSentinel},
	{"[Error]", ErrorSentinel},
}

// ClassifySentinel reports whether text is a legacy error sentinel and, if
// so, the error kind it maps to.
func ClassifySentinel(text string) (ErrorKind, bool) {
	trimmed := strings.TrimSpace(text)
	for _, s := range sentinelPrefixes {
		if strings.HasPrefix(trimmed, s.prefix) {
			return s.kind, true
		}
	}
	return ErrorNone, false
}

// finish normalizes raw reply text into a typed Completion, detecting empty
// replies and legacy sentinels.
func finish(text string) Completion {
	if kind, ok := ClassifySentinel(text); ok {
		return Completion{Kind: kind}
	}
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Completion{Kind: ErrorEmpty}
	}
	return Completion{Text: trimmed}
}

// LastUserContent returns the content of the last user message, or "".
func (r Request) LastUserContent() string {
	for i := len(r.Messages) - 1; i >= 0; i-- {
		if r.Messages[i].Role == RoleUser {
			return r.Messages[i].Content
		}
	}
	return ""
}

// SystemContent returns the concatenated system instructions of the request.
func (r Request) SystemContent() string {
	var b strings.Builder
	for _, m := range r.Messages {
		if m.Role == RoleSystem {
			b.WriteString(m.Content)
		}
	}
	return b.String()
}
