package handlers

import (
	"io"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/braindump-app/api/pkg/core"
	"github.com/braindump-app/api/pkg/voice/stt"
)

// TranscribeHandler converts an uploaded audio clip to text. Audio
// arrives either as a multipart "file" part or as the raw request body.
type TranscribeHandler struct {
	Provider      stt.Provider
	Model         string
	MaxAudioBytes int64
}

type transcribeResponse struct {
	Text     string  `json:"text"`
	Language string  `json:"language,omitempty"`
	Duration float64 `json:"duration,omitempty"`
}

func (h *TranscribeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.Provider == nil {
		writeSpeechUnconfigured(w, r)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.MaxAudioBytes)

	audio, format, err := h.audioFromRequest(r)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	defer audio.Close()

	opts := stt.TranscribeOptions{
		Model:    h.Model,
		Language: strings.TrimSpace(r.URL.Query().Get("language")),
		Format:   format,
	}
	transcript, err := h.Provider.Transcribe(r.Context(), audio, opts)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, transcribeResponse{
		Text:     transcript.Text,
		Language: transcript.Language,
		Duration: transcript.Duration,
	})
}

func (h *TranscribeHandler) audioFromRequest(r *http.Request) (io.ReadCloser, string, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if strings.HasPrefix(mediaType, "multipart/") {
		if err := r.ParseMultipartForm(h.MaxAudioBytes); err != nil {
			return nil, "", core.NewInvalidRequestError("invalid multipart body")
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			return nil, "", core.NewInvalidRequestErrorWithParam("missing audio file", "file")
		}
		format := strings.TrimPrefix(path.Ext(header.Filename), ".")
		return file, format, nil
	}
	return r.Body, formatFromMediaType(mediaType), nil
}

func formatFromMediaType(mediaType string) string {
	switch mediaType {
	case "audio/mpeg", "audio/mp3":
		return "mp3"
	case "audio/wav", "audio/x-wav", "audio/wave":
		return "wav"
	case "audio/webm", "video/webm":
		return "webm"
	case "audio/ogg":
		return "ogg"
	case "audio/mp4", "audio/x-m4a":
		return "m4a"
	default:
		return ""
	}
}
