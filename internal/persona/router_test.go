package persona

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/zenlabs/echobrain/internal/analysis"
	"github.com/zenlabs/echobrain/internal/completion"
	"github.com/zenlabs/echobrain/internal/memory"
)

type routerClient struct {
	chatReply string
	chatErr   error
	chatCalls int
}

func (c *routerClient) Complete(_ context.Context, req completion.Request) (completion.Completion, error) {
	system := req.SystemContent()
	switch {
	case strings.Contains(system, "intent classifier"):
		return completion.Completion{Text: "venting"}, nil
	case strings.Contains(system, "emotion and sentiment detector"):
		return completion.Completion{Text: `{"emotion":"sad","sentiment":"negative"}`}, nil
	default:
		c.chatCalls++
		if c.chatErr != nil {
			return completion.Completion{Kind: completion.ErrorTransport}, c.chatErr
		}
		return completion.Completion{Text: c.chatReply}, nil
	}
}

func newTestRouter(client completion.Client, store *memory.SessionStore) *Router {
	engine := analysis.NewEngine(client, store)
	return NewRouter(NewRegistry(), engine, client, store)
}

func TestRespondReturnsReplyAndRecordsOnce(t *testing.T) {
	store := memory.NewSessionStore(10, time.Hour, nil)
	client := &routerClient{chatReply: "I'm sorry it was such a hard day."}
	router := newTestRouter(client, store)

	reply := router.Respond(context.Background(), "rough day", "u1", "echo")
	if reply != client.chatReply {
		t.Fatalf("reply = %q, want %q", reply, client.chatReply)
	}
	if client.chatCalls != 1 {
		t.Fatalf("reply completion called %d times, want exactly 1", client.chatCalls)
	}

	records := store.Recent("u1", 10)
	if len(records) != 1 {
		t.Fatalf("memory holds %d records, want 1", len(records))
	}
	if records[0].UserInput != "rough day" || records[0].AIResponse != reply {
		t.Fatalf("recorded exchange = %+v", records[0])
	}
}

func TestRespondFallbackOnCompletionError(t *testing.T) {
	store := memory.NewSessionStore(10, time.Hour, nil)
	client := &routerClient{chatErr: errors.New("upstream down")}
	router := newTestRouter(client, store)

	reply := router.Respond(context.Background(), "rough day", "u1", "echo")
	if reply != FallbackReply {
		t.Fatalf("reply = %q, want fallback %q", reply, FallbackReply)
	}

	// The interaction is still recorded exactly once, with the fallback text.
	records := store.Recent("u1", 10)
	if len(records) != 1 {
		t.Fatalf("memory holds %d records, want 1", len(records))
	}
	if records[0].AIResponse != FallbackReply {
		t.Fatalf("recorded response = %q, want fallback", records[0].AIResponse)
	}
}

func TestRespondFallbackOnEmptyReply(t *testing.T) {
	store := memory.NewSessionStore(10, time.Hour, nil)
	client := &routerClient{chatReply: "   "}
	router := newTestRouter(client, store)

	reply := router.Respond(context.Background(), "rough day", "u1", "echo")
	if reply != FallbackReply {
		t.Fatalf("reply = %q, want fallback on empty completion", reply)
	}
}

func TestRespondUnknownPersonaUsesDefault(t *testing.T) {
	store := memory.NewSessionStore(10, time.Hour, nil)
	client := &routerClient{chatReply: "hello there"}
	router := newTestRouter(client, store)

	if reply := router.Respond(context.Background(), "Tell me a joke", "u1", "Suzi"); reply == "" {
		t.Fatalf("reply should be non-empty for unknown persona")
	}
}
