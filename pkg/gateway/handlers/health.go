package handlers

import (
	"net/http"

	"github.com/braindump-app/api/pkg/gateway/config"
)

// HealthHandler answers liveness probes.
type HealthHandler struct{}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}

// ReadyHandler reports whether the service has everything it needs to
// serve real traffic.
type ReadyHandler struct {
	Cfg config.Config
}

type readyReport struct {
	Ready  bool     `json:"ready"`
	Speech bool     `json:"speech"`
	Issues []string `json:"issues,omitempty"`
}

func (h *ReadyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	report := readyReport{Ready: true, Speech: h.Cfg.SpeechConfigured()}
	if h.Cfg.GeminiAPIKey == "" {
		report.Ready = false
		report.Issues = append(report.Issues, "GEMINI_API_KEY not set")
	}
	status := http.StatusOK
	if !report.Ready {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, report)
}
