package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/braindump-app/api/pkg/core"
	"github.com/braindump-app/api/pkg/voice/tts"
)

// SpeakHandler turns text into audio. With "stream": true the audio is
// flushed chunk by chunk as the provider generates it.
type SpeakHandler struct {
	Provider      tts.Provider
	DefaultVoice  string
	DefaultModel  string
	DefaultFormat string
	MaxBodyBytes  int64
}

type speakRequest struct {
	Text    string `json:"text"`
	VoiceID string `json:"voice_id"`
	Format  string `json:"format"`
	Stream  bool   `json:"stream"`
}

func (h *SpeakHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.Provider == nil {
		writeSpeechUnconfigured(w, r)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.MaxBodyBytes)

	var req speakRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, r, core.NewInvalidRequestError("invalid JSON body"))
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeErr(w, r, core.NewInvalidRequestErrorWithParam("text must not be empty", "text"))
		return
	}

	opts := tts.SynthesizeOptions{
		Voice:  req.VoiceID,
		Model:  h.DefaultModel,
		Format: req.Format,
	}
	if opts.Voice == "" {
		opts.Voice = h.DefaultVoice
	}
	if opts.Format == "" {
		opts.Format = h.DefaultFormat
	}

	if req.Stream {
		h.serveStream(w, r, req.Text, opts)
		return
	}

	synthesis, err := h.Provider.Synthesize(r.Context(), req.Text, opts)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	w.Header().Set("Content-Type", contentTypeForFormat(synthesis.Format))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(synthesis.Audio)
}

func (h *SpeakHandler) serveStream(w http.ResponseWriter, r *http.Request, text string, opts tts.SynthesizeOptions) {
	stream, err := h.Provider.SynthesizeStream(r.Context(), text, opts)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	defer stream.Close()

	flusher, _ := w.(http.Flusher)
	w.Header().Set("Content-Type", contentTypeForFormat(stream.Format()))
	w.WriteHeader(http.StatusOK)

	for chunk := range stream.Chunks() {
		if _, err := w.Write(chunk); err != nil {
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
	}
	// Headers are already out; a late provider failure can only be logged
	// upstream by cutting the body short.
	_ = stream.Err()
}

func contentTypeForFormat(format string) string {
	switch {
	case strings.HasPrefix(format, "mp3_"):
		return "audio/mpeg"
	case strings.HasPrefix(format, "pcm_"):
		return "audio/pcm"
	case strings.HasPrefix(format, "ulaw_"):
		return "audio/basic"
	case strings.HasPrefix(format, "opus_"):
		return "audio/opus"
	default:
		return "application/octet-stream"
	}
}
