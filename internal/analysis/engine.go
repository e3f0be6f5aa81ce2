package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/zenlabs/echobrain/internal/completion"
	"github.com/zenlabs/echobrain/internal/memory"
)

// Defaults applied when a delegated classification fails. The transport
// error itself is never surfaced as a label.
const (
	DefaultIntent    = "unknown"
	DefaultEmotion   = "neutral"
	DefaultSentiment = "neutral"
)

const (
	intentInstruction = "You are an intent classifier. Reply ONLY with a single lowercase label " +
		"describing the user's intent, such as: greeting, question, request, smalltalk, venting, farewell."
	emotionInstruction = "You are an emotion and sentiment detector. Reply ONLY with JSON like: " +
		`{"emotion": "sad", "sentiment": "negative"}`
)

// Result is the per-request analysis of one utterance.
type Result struct {
	Intent    string `json:"intent"`
	Emotion   string `json:"emotion"`
	Sentiment string `json:"sentiment"`
}

// DefaultResult is what callers get when the analysis collaborator is
// unavailable or every delegated call failed.
func DefaultResult() Result {
	return Result{Intent: DefaultIntent, Emotion: DefaultEmotion, Sentiment: DefaultSentiment}
}

// Engine classifies utterances and generates empathetic replies through the
// completion service.
type Engine struct {
	client completion.Client
	store  *memory.SessionStore
}

func NewEngine(client completion.Client, store *memory.SessionStore) *Engine {
	return &Engine{client: client, store: store}
}

// DetectIntent classifies the utterance's intent with one delegated call.
// Any failure yields DefaultIntent.
func (e *Engine) DetectIntent(ctx context.Context, text string) string {
	comp, err := e.client.Complete(ctx, completion.Request{
		Messages: []completion.Message{
			{Role: completion.RoleSystem, Content: intentInstruction},
			{Role: completion.RoleUser, Content: text},
		},
		MaxTokens: 20,
	})
	if err != nil || !comp.OK() {
		log.Printf("intent detection degraded (kind=%s): %v", comp.Kind, err)
		return DefaultIntent
	}
	label := strings.ToLower(strings.TrimSpace(comp.Text))
	if i := strings.IndexAny(label, "\n."); i >= 0 {
		label = label[:i]
	}
	if label == "" {
		return DefaultIntent
	}
	return label
}

// DetectEmotionSentiment asks for a strict two-field JSON object and parses
// it defensively. Any failure yields the neutral/neutral pair; that fallback
// is a hard invariant, not a best-effort guess.
func (e *Engine) DetectEmotionSentiment(ctx context.Context, text string) (string, string) {
	comp, err := e.client.Complete(ctx, completion.Request{
		Messages: []completion.Message{
			{Role: completion.RoleSystem, Content: emotionInstruction},
			{Role: completion.RoleUser, Content: text},
		},
		MaxTokens: 50,
	})
	if err != nil || !comp.OK() {
		log.Printf("emotion detection degraded (kind=%s): %v", comp.Kind, err)
		return DefaultEmotion, DefaultSentiment
	}
	return ParseEmotionSentiment(comp.Text)
}

// ParseEmotionSentiment extracts the {...} span from the first '{' to the
// last '}' of the reply, tolerating surrounding prose, and parses it. Missing
// braces, malformed JSON, or absent fields all resolve to neutral/neutral.
func ParseEmotionSentiment(raw string) (string, string) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end < start {
		return DefaultEmotion, DefaultSentiment
	}

	var parsed struct {
		Emotion   string `json:"emotion"`
		Sentiment string `json:"sentiment"`
	}
	if err := json.Unmarshal([]byte(raw[start:end+1]), &parsed); err != nil {
		return DefaultEmotion, DefaultSentiment
	}
	if parsed.Emotion == "" || parsed.Sentiment == "" {
		return DefaultEmotion, DefaultSentiment
	}
	return parsed.Emotion, parsed.Sentiment
}

// Classify produces a coherent Result without side effects. Used by the
// persona router so the memory write stays with the reply producer.
func (e *Engine) Classify(ctx context.Context, text string) Result {
	intent := e.DetectIntent(ctx, text)
	emotion, sentiment := e.DetectEmotionSentiment(ctx, text)
	return Result{Intent: intent, Emotion: emotion, Sentiment: sentiment}
}

// Analyze classifies the utterance, generates one empathetic reply with the
// recent conversation injected, and records the exchange for the identity.
// The memory write happens exactly once per successful call; a failed reply
// call records nothing.
func (e *Engine) Analyze(ctx context.Context, text, identity string) (Result, string, error) {
	res := e.Classify(ctx, text)

	var contextText string
	if e.store != nil && identity != "" {
		contextText = e.store.RenderContext(identity)
	}

	system := fmt.Sprintf(
		"You are Echo, a helpful AI assistant.\n"+
			"User's emotion: %s\n"+
			"User's intent: %s\n"+
			"Sentiment: %s\n"+
			"User said: %s\n"+
			"Reply as Echo with empathy and understanding (2-3 sentences):",
		res.Emotion, res.Intent, res.Sentiment, text,
	)
	if contextText != "" {
		system += fmt.Sprintf("\nHere is the recent conversation:\n%s\nRespond appropriately.", contextText)
	}

	comp, err := e.client.Complete(ctx, completion.Request{
		Messages: []completion.Message{
			{Role: completion.RoleSystem, Content: system},
			{Role: completion.RoleUser, Content: text},
		},
		MaxTokens:   150,
		Temperature: 0.8,
	})
	if err != nil {
		return res, "", fmt.Errorf("analysis reply: %w", err)
	}
	if !comp.OK() {
		return res, "", fmt.Errorf("analysis reply degraded: kind=%s", comp.Kind)
	}

	if e.store != nil && identity != "" {
		e.store.Record(ctx, identity, text, comp.Text)
	}
	return res, comp.Text, nil
}
