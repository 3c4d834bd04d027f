// Package config loads the service configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config carries everything the HTTP server and the provider clients
// need. Loaded once at startup; treated as immutable afterwards.
type Config struct {
	Addr string

	// Gemini (required).
	GeminiAPIKey string
	GeminiModel  string

	// ElevenLabs (optional; transcribe/speak report unconfigured when empty).
	ElevenLabsAPIKey  string
	ElevenLabsBaseURL string
	STTModel          string
	TTSModel          string
	TTSVoiceID        string
	TTSOutputFormat   string

	// CORS
	CORSAllowedOrigins map[string]struct{} // empty => disabled

	// Body caps.
	MaxBodyBytes  int64 // JSON bodies (organize, speak)
	MaxAudioBytes int64 // transcribe uploads

	// Model-call retry budget.
	LLMMaxAttempts int
	LLMRetryDelay  time.Duration

	// Async transcription poll loop.
	STTPollInterval    time.Duration
	STTPollMaxAttempts int

	// Operational defaults.
	ReadHeaderTimeout   time.Duration
	ReadTimeout         time.Duration
	HandlerTimeout      time.Duration
	ShutdownGracePeriod time.Duration
}

// defaultCORSOrigins covers the local dev frontends the service is
// typically paired with.
var defaultCORSOrigins = []string{
	"http://localhost:8080",
	"http://localhost:5173",
	"http://127.0.0.1:8080",
}

func LoadFromEnv() (Config, error) {
	cfg := Config{
		Addr:                envOr("ORGANIZER_ADDR", ":8000"),
		GeminiAPIKey:        strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		GeminiModel:         envOr("ORGANIZER_GEMINI_MODEL", "gemini-2.5-flash"),
		ElevenLabsAPIKey:    strings.TrimSpace(os.Getenv("ELEVENLABS_API_KEY")),
		ElevenLabsBaseURL:   envOr("ORGANIZER_ELEVENLABS_BASE_URL", "https://api.elevenlabs.io"),
		STTModel:            envOr("ORGANIZER_STT_MODEL", "scribe_v1"),
		TTSModel:            envOr("ORGANIZER_TTS_MODEL", "eleven_multilingual_v2"),
		TTSVoiceID:          envOr("ORGANIZER_TTS_VOICE_ID", "21m00Tcm4TlvDq8ikWAM"),
		TTSOutputFormat:     envOr("ORGANIZER_TTS_OUTPUT_FORMAT", "mp3_44100_128"),
		CORSAllowedOrigins:  make(map[string]struct{}),
		MaxBodyBytes:        envInt64Or("ORGANIZER_MAX_BODY_BYTES", 1<<20),   // 1 MiB
		MaxAudioBytes:       envInt64Or("ORGANIZER_MAX_AUDIO_BYTES", 25<<20), // 25 MiB
		LLMMaxAttempts:      envIntOr("ORGANIZER_LLM_MAX_ATTEMPTS", 2),
		LLMRetryDelay:       envDurationOr("ORGANIZER_LLM_RETRY_DELAY", 500*time.Millisecond),
		STTPollInterval:     envDurationOr("ORGANIZER_STT_POLL_INTERVAL", time.Second),
		STTPollMaxAttempts:  envIntOr("ORGANIZER_STT_POLL_MAX_ATTEMPTS", 30),
		ReadHeaderTimeout:   envDurationOr("ORGANIZER_READ_HEADER_TIMEOUT", 10*time.Second),
		ReadTimeout:         envDurationOr("ORGANIZER_READ_TIMEOUT", 60*time.Second),
		HandlerTimeout:      envDurationOr("ORGANIZER_REQUEST_TIMEOUT", 2*time.Minute),
		ShutdownGracePeriod: envDurationOr("ORGANIZER_SHUTDOWN_GRACE_PERIOD", 30*time.Second),
	}

	origins := splitCSV(os.Getenv("ORGANIZER_CORS_ORIGINS"))
	if len(origins) == 0 {
		origins = defaultCORSOrigins
	}
	for _, origin := range origins {
		cfg.CORSAllowedOrigins[origin] = struct{}{}
	}

	if cfg.GeminiAPIKey == "" {
		return Config{}, fmt.Errorf("GEMINI_API_KEY environment variable is required")
	}
	if cfg.MaxBodyBytes <= 0 {
		return Config{}, fmt.Errorf("ORGANIZER_MAX_BODY_BYTES must be > 0")
	}
	if cfg.MaxAudioBytes <= 0 {
		return Config{}, fmt.Errorf("ORGANIZER_MAX_AUDIO_BYTES must be > 0")
	}
	if cfg.LLMMaxAttempts <= 0 {
		return Config{}, fmt.Errorf("ORGANIZER_LLM_MAX_ATTEMPTS must be > 0")
	}
	if cfg.LLMRetryDelay <= 0 {
		return Config{}, fmt.Errorf("ORGANIZER_LLM_RETRY_DELAY must be > 0")
	}
	if cfg.STTPollInterval <= 0 {
		return Config{}, fmt.Errorf("ORGANIZER_STT_POLL_INTERVAL must be > 0")
	}
	if cfg.STTPollMaxAttempts <= 0 {
		return Config{}, fmt.Errorf("ORGANIZER_STT_POLL_MAX_ATTEMPTS must be > 0")
	}
	if cfg.ReadHeaderTimeout <= 0 {
		return Config{}, fmt.Errorf("ORGANIZER_READ_HEADER_TIMEOUT must be > 0")
	}
	if cfg.ReadTimeout <= 0 {
		return Config{}, fmt.Errorf("ORGANIZER_READ_TIMEOUT must be > 0")
	}
	if cfg.HandlerTimeout <= 0 {
		return Config{}, fmt.Errorf("ORGANIZER_REQUEST_TIMEOUT must be > 0")
	}
	if cfg.ShutdownGracePeriod <= 0 {
		return Config{}, fmt.Errorf("ORGANIZER_SHUTDOWN_GRACE_PERIOD must be > 0")
	}

	return cfg, nil
}

// SpeechConfigured reports whether the ElevenLabs-backed endpoints can
// serve requests.
func (c Config) SpeechConfigured() bool {
	return c.ElevenLabsAPIKey != ""
}

func envOr(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func envInt64Or(key string, def int64) int64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return def
	}
	return n
}

func envIntOr(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

func envDurationOr(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return def
	}
	return d
}

func splitCSV(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}
