package orchestrator

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/zenlabs/echobrain/internal/analysis"
	"github.com/zenlabs/echobrain/internal/completion"
	"github.com/zenlabs/echobrain/internal/memory"
	"github.com/zenlabs/echobrain/internal/persona"
	"github.com/zenlabs/echobrain/internal/voice"
)

func newTestOrchestrator(t *testing.T, client completion.Client) (*Orchestrator, *memory.SessionStore) {
	t.Helper()
	store := memory.NewSessionStore(10, time.Hour, nil)
	engine := analysis.NewEngine(client, store)
	router := persona.NewRouter(persona.NewRegistry(), engine, client, store)
	orch := New(Config{
		Router:     router,
		Engine:     engine,
		Store:      store,
		Completion: true,
	})
	return orch, store
}

func TestAvailabilityReflectsCollaborators(t *testing.T) {
	orch, _ := newTestOrchestrator(t, completion.NewMockClient())
	avail := orch.Availability()

	for _, name := range []string{"analysis", "persona", "completion", "memory"} {
		if !avail[name] {
			t.Fatalf("availability[%q] = false, want true", name)
		}
	}
	for _, name := range []string{"stt", "tts"} {
		if avail[name] {
			t.Fatalf("availability[%q] = true, want false without providers", name)
		}
	}

	// The map is a copy; mutating it must not affect the orchestrator.
	avail["memory"] = false
	if !orch.Availability()["memory"] {
		t.Fatalf("Availability() exposed internal state")
	}
}

func TestGetResponseRejectsEmptyInput(t *testing.T) {
	orch, store := newTestOrchestrator(t, completion.NewMockClient())

	env := orch.GetResponse(context.Background(), "   ", "u1", "echo")
	if env.Success {
		t.Fatalf("empty input should fail, got %+v", env)
	}
	if env.Error == "" {
		t.Fatalf("empty input envelope missing error text")
	}
	if store.Len() != 0 {
		t.Fatalf("empty input should not touch memory")
	}
}

func TestGetResponseWithoutRouterApologizes(t *testing.T) {
	orch := New(Config{})
	env := orch.GetResponse(context.Background(), "hello", "u1", "echo")
	if env.Success {
		t.Fatalf("expected failure envelope, got %+v", env)
	}
	if env.Response != Apology {
		t.Fatalf("response = %q, want apology", env.Response)
	}
}

func TestGetResponseEndToEnd(t *testing.T) {
	orch, store := newTestOrchestrator(t, completion.NewMockClient())

	env := orch.GetResponse(context.Background(), "Tell me a joke", "u1", "Suzi")
	if !env.Success {
		t.Fatalf("GetResponse failed: %+v", env)
	}
	if strings.TrimSpace(env.Response) == "" {
		t.Fatalf("reply text is empty")
	}

	records := store.Recent("u1", 10)
	if len(records) != 1 {
		t.Fatalf("memory for u1 holds %d records, want exactly 1", len(records))
	}
	if records[0].UserInput != "Tell me a joke" {
		t.Fatalf("recorded input = %q, want the literal utterance", records[0].UserInput)
	}
}

func TestAnalyzeMessageWithoutEngineReturnsDefaults(t *testing.T) {
	orch := New(Config{})
	env := orch.AnalyzeMessage(context.Background(), "hello", "u1")
	if env.Success {
		t.Fatalf("expected failure envelope, got %+v", env)
	}
	if env.Analysis == nil {
		t.Fatalf("envelope missing default analysis")
	}
	if env.Analysis.Intent != analysis.DefaultIntent ||
		env.Analysis.Emotion != analysis.DefaultEmotion ||
		env.Analysis.Sentiment != analysis.DefaultSentiment {
		t.Fatalf("default analysis = %+v", env.Analysis)
	}
}

func TestAnalyzeMessageEndToEnd(t *testing.T) {
	orch, store := newTestOrchestrator(t, completion.NewMockClient())

	env := orch.AnalyzeMessage(context.Background(), "I had a rough day", "u1")
	if !env.Success {
		t.Fatalf("AnalyzeMessage failed: %+v", env)
	}
	if env.Analysis == nil || env.Analysis.Intent == "" {
		t.Fatalf("envelope missing analysis: %+v", env)
	}
	if strings.TrimSpace(env.Response) == "" {
		t.Fatalf("analyze reply is empty")
	}
	if got := store.Recent("u1", 10); len(got) != 1 {
		t.Fatalf("memory holds %d records after analyze, want 1", len(got))
	}
}

func TestProcessSpeechUnavailable(t *testing.T) {
	orch, _ := newTestOrchestrator(t, completion.NewMockClient())
	env := orch.ProcessSpeech(context.Background(), []byte("audio"))
	if env.Success {
		t.Fatalf("expected unavailable envelope, got %+v", env)
	}
	if !strings.Contains(env.Error, "not available") {
		t.Fatalf("error = %q, want unavailability notice", env.Error)
	}
}

func TestSpeechWithMockProvider(t *testing.T) {
	store := memory.NewSessionStore(10, time.Hour, nil)
	p := voice.NewMockProvider()
	orch := New(Config{Store: store, Transcriber: p, Synthesizer: p})

	env := orch.ProcessSpeech(context.Background(), []byte("some audio bytes"))
	if !env.Success || env.Transcript == "" {
		t.Fatalf("ProcessSpeech = %+v", env)
	}

	env = orch.GenerateSpeech(context.Background(), "hello there")
	if !env.Success || env.AudioPath == "" {
		t.Fatalf("GenerateSpeech = %+v", env)
	}

	env = orch.ProcessSpeech(context.Background(), nil)
	if env.Success {
		t.Fatalf("empty audio should fail, got %+v", env)
	}
}

func TestGetResponseTimeoutStillAnswers(t *testing.T) {
	orch, _ := newTestOrchestrator(t, &timeoutClient{})

	start := time.Now()
	env := orch.GetResponse(context.Background(), "hello", "u1", "echo")
	if time.Since(start) > time.Second {
		t.Fatalf("GetResponse blocked too long on a timed-out completion")
	}
	if strings.TrimSpace(env.Response) == "" {
		t.Fatalf("timed-out completion must still yield non-empty text, got %+v", env)
	}
	if env.Response != persona.FallbackReply {
		t.Fatalf("response = %q, want fallback reply", env.Response)
	}
}

// timeoutClient simulates a completion provider whose every call times out.
type timeoutClient struct{}

func (c *timeoutClient) Complete(_ context.Context, _ completion.Request) (completion.Completion, error) {
	return completion.Completion{Kind: completion.ErrorTimeout}, context.DeadlineExceeded
}
