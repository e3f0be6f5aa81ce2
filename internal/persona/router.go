package persona

import (
	"context"
	"log"

	"github.com/zenlabs/echobrain/internal/analysis"
	"github.com/zenlabs/echobrain/internal/completion"
	"github.com/zenlabs/echobrain/internal/memory"
)

// FallbackReply is the fixed non-empty reply returned when delegated
// generation fails. Guarantees the user always hears something.
const FallbackReply = "I hear you. I'm here for you, always."

// Router produces the final persona-conditioned reply for an utterance.
type Router struct {
	registry *Registry
	engine   *analysis.Engine
	client   completion.Client
	store    *memory.SessionStore
}

func NewRouter(registry *Registry, engine *analysis.Engine, client completion.Client, store *memory.SessionStore) *Router {
	return &Router{registry: registry, engine: engine, client: client, store: store}
}

// Resolve exposes persona resolution to callers.
func (r *Router) Resolve(name string) Descriptor { return r.registry.Resolve(name) }

// Respond resolves the persona, classifies the utterance, issues exactly one
// completion call for the reply, and records the exchange exactly once. It
// never fails: every degraded path resolves to FallbackReply with the cause
// logged.
func (r *Router) Respond(ctx context.Context, userInput, identity, personaName string) string {
	desc := r.registry.Resolve(personaName)

	// Classify is side-effect free; the single memory write below is the
	// only one for this exchange.
	res := analysis.DefaultResult()
	if r.engine != nil {
		res = r.engine.Classify(ctx, userInput)
	}

	var contextText string
	if r.store != nil && identity != "" {
		contextText = r.store.RenderContext(identity)
	}

	prompt := BuildPrompt(desc, res, contextText, userInput)

	reply := FallbackReply
	comp, err := r.client.Complete(ctx, completion.Request{
		Messages: []completion.Message{
			{Role: completion.RoleSystem, Content: prompt},
			{Role: completion.RoleUser, Content: userInput},
		},
		MaxTokens:   150,
		Temperature: 0.7,
	})
	switch {
	case err != nil:
		log.Printf("persona %s reply failed (kind=%s): %v", desc.Name, comp.Kind, err)
	case !comp.OK():
		log.Printf("persona %s reply degraded: kind=%s", desc.Name, comp.Kind)
	default:
		reply = comp.Text
	}

	if r.store != nil && identity != "" {
		r.store.Record(ctx, identity, userInput, reply)
	}
	return reply
}
