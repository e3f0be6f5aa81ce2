package completion

import (
	"context"
	"testing"
)

func TestClassifySentinel(t *testing.T) {
	cases := []struct {
		text string
		kind ErrorKind
		ok   bool
	}{
		{"[Groq Error] connection refused", ErrorTransport, true},
		{"  [Error] something broke", ErrorSentinel, true},
		{"[Timeout] upstream stalled", ErrorTimeout, true},
		{"[Rate Limit] slow down", ErrorRateLimited, true},
		{"[TTS Error] no voice", ErrorSentinel, true},
		{"a normal reply", ErrorNone, false},
		{"", ErrorNone, false},
	}
	for _, c := range cases {
		kind, ok := ClassifySentinel(c.text)
		if kind != c.kind || ok != c.ok {
			t.Fatalf("ClassifySentinel(%q) = (%q, %v), want (%q, %v)", c.text, kind, ok, c.kind, c.ok)
		}
	}
}

func TestCompletionOK(t *testing.T) {
	if !(Completion{Text: "hi"}).OK() {
		t.Fatalf("non-empty completion should be OK")
	}
	if (Completion{Text: "   "}).OK() {
		t.Fatalf("whitespace-only completion should not be OK")
	}
	if (Completion{Text: "hi", Kind: ErrorTimeout}).OK() {
		t.Fatalf("error-kind completion should not be OK")
	}
}

func TestFinishDetectsSentinelAndEmpty(t *testing.T) {
	if c := finish("[Groq Error] boom"); c.Kind != ErrorTransport || c.Text != "" {
		t.Fatalf("finish(sentinel) = %+v, want transport kind and empty text", c)
	}
	if c := finish("  "); c.Kind != ErrorEmpty {
		t.Fatalf("finish(blank) kind = %q, want %q", c.Kind, ErrorEmpty)
	}
	if c := finish(" hello "); c.Kind != ErrorNone || c.Text != "hello" {
		t.Fatalf("finish(text) = %+v, want trimmed OK completion", c)
	}
}

func TestMockClientRecognizesInstructions(t *testing.T) {
	client := NewMockClient()
	ctx := context.Background()

	comp, err := client.Complete(ctx, Request{Messages: []Message{
		{Role: RoleSystem, Content: "You are an emotion and sentiment detector. Reply ONLY with JSON."},
		{Role: RoleUser, Content: "I feel great"},
	}})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if comp.Text != `{"emotion": "neutral", "sentiment": "neutral"}` {
		t.Fatalf("emotion reply = %q", comp.Text)
	}

	comp, err = client.Complete(ctx, Request{Messages: []Message{
		{Role: RoleSystem, Content: "You are an intent classifier."},
		{Role: RoleUser, Content: "hello"},
	}})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if comp.Text != "conversation" {
		t.Fatalf("intent reply = %q", comp.Text)
	}

	comp, err = client.Complete(ctx, Request{Messages: []Message{
		{Role: RoleUser, Content: "hello"},
	}})
	if err != nil || !comp.OK() {
		t.Fatalf("chat reply = %+v, err = %v", comp, err)
	}
}

func TestMockClientHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	comp, err := NewMockClient().Complete(ctx, Request{})
	if err == nil {
		t.Fatalf("expected context error")
	}
	if comp.OK() {
		t.Fatalf("canceled completion should not be OK")
	}
}
