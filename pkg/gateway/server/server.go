// Package server wires the provider clients, the middleware chain, and
// the route table into one http.Handler.
package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/braindump-app/api/pkg/gateway/config"
	"github.com/braindump-app/api/pkg/gateway/handlers"
	"github.com/braindump-app/api/pkg/gateway/mw"
	"github.com/braindump-app/api/pkg/llm/gemini"
	"github.com/braindump-app/api/pkg/organize"
	"github.com/braindump-app/api/pkg/voice/stt"
	"github.com/braindump-app/api/pkg/voice/tts"
)

type Server struct {
	cfg    config.Config
	logger *slog.Logger
	mux    *http.ServeMux

	organizer handlers.DumpOrganizer
	stt       stt.Provider
	tts       tts.Provider
}

// New builds the server and its provider clients from the configuration.
// The ElevenLabs providers are left nil when no key is configured; the
// speech handlers report that per request.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}

	gen, err := gemini.New(ctx, cfg.GeminiAPIKey, gemini.WithModel(cfg.GeminiModel))
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:    cfg,
		logger: logger,
		mux:    http.NewServeMux(),
		organizer: organize.New(gen, logger,
			organize.WithMaxAttempts(cfg.LLMMaxAttempts),
			organize.WithRetryDelay(cfg.LLMRetryDelay),
		),
	}
	if cfg.SpeechConfigured() {
		s.stt = stt.NewElevenLabs(cfg.ElevenLabsAPIKey).
			WithBaseURL(cfg.ElevenLabsBaseURL).
			WithPolling(cfg.STTPollInterval, cfg.STTPollMaxAttempts)
		s.tts = tts.NewElevenLabs(cfg.ElevenLabsAPIKey).
			WithBaseURL(cfg.ElevenLabsBaseURL)
	}

	s.routes()
	return s, nil
}

func (s *Server) routes() {
	s.mux.Handle("GET /{$}", &handlers.RootHandler{})
	s.mux.Handle("GET /healthz", &handlers.HealthHandler{})
	s.mux.Handle("GET /readyz", &handlers.ReadyHandler{Cfg: s.cfg})

	s.mux.Handle("POST /v1/organize", &handlers.OrganizeHandler{
		Organizer:    s.organizer,
		MaxBodyBytes: s.cfg.MaxBodyBytes,
		Timeout:      s.cfg.HandlerTimeout,
	})
	s.mux.Handle("POST /v1/transcribe", &handlers.TranscribeHandler{
		Provider:      s.stt,
		Model:         s.cfg.STTModel,
		MaxAudioBytes: s.cfg.MaxAudioBytes,
	})
	s.mux.Handle("POST /v1/speak", &handlers.SpeakHandler{
		Provider:      s.tts,
		DefaultVoice:  s.cfg.TTSVoiceID,
		DefaultModel:  s.cfg.TTSModel,
		DefaultFormat: s.cfg.TTSOutputFormat,
		MaxBodyBytes:  s.cfg.MaxBodyBytes,
	})
}

// Handler returns the mux wrapped in the middleware chain. RequestID
// runs outermost so every log line and error envelope carries one.
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.mux
	h = mw.CORS(s.cfg.CORSAllowedOrigins, h)
	h = mw.Recover(s.logger, h)
	h = mw.AccessLog(s.logger, h)
	h = mw.RequestID(h)
	return h
}
