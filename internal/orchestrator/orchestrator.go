package orchestrator

import (
	"context"
	"log"
	"strings"

	"github.com/zenlabs/echobrain/internal/analysis"
	"github.com/zenlabs/echobrain/internal/memory"
	"github.com/zenlabs/echobrain/internal/observability"
	"github.com/zenlabs/echobrain/internal/persona"
	"github.com/zenlabs/echobrain/internal/voice"
)

// Apology is the user-safe text returned when an operation cannot produce a
// real reply.
const Apology = "I'm sorry, I couldn't process your request at the moment."

// Envelope is the uniform result shape of every orchestrated operation.
type Envelope struct {
	Success    bool             `json:"success"`
	Response   string           `json:"response,omitempty"`
	Analysis   *analysis.Result `json:"analysis,omitempty"`
	Transcript string           `json:"transcript,omitempty"`
	AudioPath  string           `json:"audio_path,omitempty"`
	Error      string           `json:"error,omitempty"`
}

// Orchestrator is the single façade the transport layer talks to. It routes
// a request through analysis, persona routing, and memory, isolating
// failures per stage: no error originating below ever crosses this boundary
// as a raised fault.
type Orchestrator struct {
	router  *persona.Router
	engine  *analysis.Engine
	store   *memory.SessionStore
	stt     voice.Transcriber
	tts     voice.Synthesizer
	metrics *observability.Metrics
	avail   map[string]bool
}

// Config wires the orchestrator's collaborators. Nil collaborators degrade
// the matching operations instead of failing construction.
type Config struct {
	Router      *persona.Router
	Engine      *analysis.Engine
	Store       *memory.SessionStore
	Transcriber voice.Transcriber
	Synthesizer voice.Synthesizer
	Completion  bool
	Metrics     *observability.Metrics
}

func New(cfg Config) *Orchestrator {
	o := &Orchestrator{
		router:  cfg.Router,
		engine:  cfg.Engine,
		store:   cfg.Store,
		stt:     cfg.Transcriber,
		tts:     cfg.Synthesizer,
		metrics: cfg.Metrics,
	}
	// Availability is computed once at startup and read-only thereafter.
	o.avail = map[string]bool{
		"analysis":   cfg.Engine != nil,
		"persona":    cfg.Router != nil,
		"completion": cfg.Completion,
		"memory":     cfg.Store != nil,
		"stt":        cfg.Transcriber != nil,
		"tts":        cfg.Synthesizer != nil,
	}
	return o
}

// Availability reports which collaborators initialized successfully.
func (o *Orchestrator) Availability() map[string]bool {
	out := make(map[string]bool, len(o.avail))
	for k, v := range o.avail {
		out[k] = v
	}
	return out
}

// GetResponse produces the persona-conditioned reply for one utterance.
func (o *Orchestrator) GetResponse(ctx context.Context, userInput, identity, personaName string) (env Envelope) {
	defer o.isolate("get_response", &env)

	if strings.TrimSpace(userInput) == "" {
		return o.outcome("get_response", Envelope{
			Success: false,
			Error:   "no input message provided",
		})
	}
	if o.router == nil {
		return o.outcome("get_response", Envelope{
			Success:  false,
			Response: Apology,
			Error:    "persona router not available",
		})
	}

	reply := o.router.Respond(ctx, userInput, identity, personaName)
	o.observeConversations()
	return o.outcome("get_response", Envelope{Success: true, Response: reply})
}

// AnalyzeMessage runs intent/emotion/sentiment analysis plus a generated
// reply for one utterance.
func (o *Orchestrator) AnalyzeMessage(ctx context.Context, userInput, identity string) (env Envelope) {
	defer o.isolate("analyze_message", &env)

	if strings.TrimSpace(userInput) == "" {
		return o.outcome("analyze_message", Envelope{
			Success: false,
			Error:   "no input message provided",
		})
	}
	if o.engine == nil {
		res := analysis.DefaultResult()
		return o.outcome("analyze_message", Envelope{
			Success:  false,
			Analysis: &res,
			Error:    "analysis component not available",
		})
	}

	res, reply, err := o.engine.Analyze(ctx, userInput, identity)
	if err != nil {
		log.Printf("analyze failed for identity %q: %v", identity, err)
		return o.outcome("analyze_message", Envelope{
			Success:  false,
			Analysis: &res,
			Error:    err.Error(),
		})
	}
	o.observeConversations()
	return o.outcome("analyze_message", Envelope{Success: true, Analysis: &res, Response: reply})
}

// ProcessSpeech transcribes captured audio through the speech collaborator.
func (o *Orchestrator) ProcessSpeech(ctx context.Context, audio []byte) (env Envelope) {
	defer o.isolate("process_speech", &env)

	if o.stt == nil {
		return o.outcome("process_speech", Envelope{
			Success: false,
			Error:   "Speech-to-Text component not available",
		})
	}
	if len(audio) == 0 {
		return o.outcome("process_speech", Envelope{
			Success: false,
			Error:   "no audio provided",
		})
	}

	transcript, err := o.stt.Transcribe(ctx, audio)
	if err != nil {
		log.Printf("speech transcription failed: %v", err)
		return o.outcome("process_speech", Envelope{Success: false, Error: err.Error()})
	}
	return o.outcome("process_speech", Envelope{Success: true, Transcript: transcript})
}

// GenerateSpeech synthesizes audio for a reply through the speech
// collaborator.
func (o *Orchestrator) GenerateSpeech(ctx context.Context, text string) (env Envelope) {
	defer o.isolate("generate_speech", &env)

	if o.tts == nil {
		return o.outcome("generate_speech", Envelope{
			Success: false,
			Error:   "Text-to-Speech component not available",
		})
	}
	if strings.TrimSpace(text) == "" {
		return o.outcome("generate_speech", Envelope{
			Success: false,
			Error:   "no text provided",
		})
	}

	audioPath, err := o.tts.Synthesize(ctx, text)
	if err != nil {
		log.Printf("speech synthesis failed: %v", err)
		return o.outcome("generate_speech", Envelope{Success: false, Error: err.Error()})
	}
	return o.outcome("generate_speech", Envelope{Success: true, AudioPath: audioPath})
}

// isolate converts a downstream panic into a well-formed failure envelope so
// nothing ever crosses the orchestrator boundary as a fault.
func (o *Orchestrator) isolate(operation string, env *Envelope) {
	r := recover()
	if r == nil {
		return
	}
	log.Printf("%s panicked: %v", operation, r)
	*env = Envelope{Success: false, Response: Apology, Error: "internal error"}
	if o.metrics != nil {
		o.metrics.Requests.WithLabelValues(operation, "panic").Inc()
	}
}

func (o *Orchestrator) outcome(operation string, env Envelope) Envelope {
	if o.metrics != nil {
		outcome := "ok"
		if !env.Success {
			outcome = "error"
		}
		o.metrics.Requests.WithLabelValues(operation, outcome).Inc()
	}
	return env
}

func (o *Orchestrator) observeConversations() {
	if o.metrics != nil && o.store != nil {
		o.metrics.ActiveConversations.Set(float64(o.store.Len()))
	}
}
