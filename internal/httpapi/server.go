package httpapi

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/zenlabs/echobrain/internal/config"
	"github.com/zenlabs/echobrain/internal/observability"
	"github.com/zenlabs/echobrain/internal/orchestrator"
)

// Orchestrator is the façade the HTTP layer drives. Identity resolution and
// routing live here; everything behind the interface is the core's concern.
type Orchestrator interface {
	Availability() map[string]bool
	GetResponse(ctx context.Context, userInput, identity, personaName string) orchestrator.Envelope
	AnalyzeMessage(ctx context.Context, userInput, identity string) orchestrator.Envelope
	ProcessSpeech(ctx context.Context, audio []byte) orchestrator.Envelope
	GenerateSpeech(ctx context.Context, text string) orchestrator.Envelope
}

type Server struct {
	cfg      config.Config
	orch     Orchestrator
	metrics  *observability.Metrics
	upgrader websocket.Upgrader
}

func New(cfg config.Config, orch Orchestrator, metrics *observability.Metrics) *Server {
	return &Server{
		cfg:     cfg,
		orch:    orch,
		metrics: metrics,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				// Only allow browser websocket connections from the same
				// origin unless explicitly opened up.
				if cfg.AllowAnyOrigin {
					return true
				}
				origin := strings.TrimSpace(r.Header.Get("Origin"))
				if origin == "" {
					// Non-browser clients often omit Origin. Allow them.
					return true
				}
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				if u.Scheme != "http" && u.Scheme != "https" {
					return false
				}
				return strings.EqualFold(u.Host, r.Host)
			},
		},
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})

	r.Group(func(r chi.Router) {
		r.Use(s.requireAPIKey)
		r.Get("/api/status", s.handleStatus)
		r.Post("/api/response", s.handleResponse)
		r.Post("/api/analyze", s.handleAnalyze)
		r.Post("/api/stt", s.handleSTT)
		r.Post("/api/tts", s.handleTTS)
		r.Get("/api/chat/ws", s.handleChatWS)
	})

	return r
}

// requireAPIKey rejects requests lacking the configured key. A blank
// configured key disables the check.
func (s *Server) requireAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.APIKey != "" && r.Header.Get("x-api-key") != s.cfg.APIKey {
			respondJSON(w, http.StatusUnauthorized, orchestrator.Envelope{
				Success: false,
				Error:   "Unauthorized",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":     "ready",
		"components": s.orch.Availability(),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, s.orch.Availability())
}

type responseRequest struct {
	Message     string `json:"message"`
	Personality string `json:"personality"`
	AnonymousID string `json:"anonymous_id"`
}

type responseReply struct {
	orchestrator.Envelope
	Identity string `json:"identity,omitempty"`
}

func (s *Server) handleResponse(w http.ResponseWriter, r *http.Request) {
	var req responseRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		respondError(w, http.StatusBadRequest, "missing_message", "no message provided")
		return
	}

	identity := s.resolveIdentity(r, req.AnonymousID)
	env := s.orch.GetResponse(r.Context(), req.Message, identity, req.Personality)

	status := http.StatusOK
	if !env.Success {
		status = http.StatusInternalServerError
	}
	respondJSON(w, status, responseReply{Envelope: env, Identity: identity})
}

type analyzeRequest struct {
	Message     string `json:"message"`
	AnonymousID string `json:"anonymous_id"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		respondError(w, http.StatusBadRequest, "missing_message", "no message provided")
		return
	}

	identity := s.resolveIdentity(r, req.AnonymousID)
	env := s.orch.AnalyzeMessage(r.Context(), req.Message, identity)

	status := http.StatusOK
	if !env.Success {
		status = http.StatusInternalServerError
	}
	respondJSON(w, status, responseReply{Envelope: env, Identity: identity})
}

type sttRequest struct {
	AudioBase64 string `json:"audio_base64"`
}

func (s *Server) handleSTT(w http.ResponseWriter, r *http.Request) {
	var req sttRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	audio, err := base64.StdEncoding.DecodeString(req.AudioBase64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_audio", "audio_base64 is not valid base64")
		return
	}

	env := s.orch.ProcessSpeech(r.Context(), audio)
	status := http.StatusOK
	if !env.Success {
		status = http.StatusInternalServerError
	}
	respondJSON(w, status, env)
}

type ttsRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleTTS(w http.ResponseWriter, r *http.Request) {
	var req ttsRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		respondError(w, http.StatusBadRequest, "missing_text", "no text provided")
		return
	}

	env := s.orch.GenerateSpeech(r.Context(), req.Text)
	status := http.StatusOK
	if !env.Success {
		status = http.StatusInternalServerError
	}
	respondJSON(w, status, env)
}

// resolveIdentity picks the conversation identity for a request:
// authenticated user header first, then a caller-supplied anonymous id, then
// a freshly generated one (echoed back so the client can reuse it).
func (s *Server) resolveIdentity(r *http.Request, anonymousID string) string {
	if id := strings.TrimSpace(r.Header.Get("X-User-ID")); id != "" {
		return id
	}
	if id := strings.TrimSpace(anonymousID); id != "" {
		return id
	}
	return uuid.NewString()
}

var errEmptyBody = errors.New("empty body")

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(out); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "eof") {
			return errEmptyBody
		}
		return err
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code"`
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Success: false, Error: message, Code: code})
}
