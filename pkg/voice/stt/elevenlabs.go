package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/braindump-app/api/pkg/core"
)

const (
	elevenLabsBaseURL      = "https://api.elevenlabs.io"
	defaultSTTModel        = "scribe_v1"
	defaultPollInterval    = time.Second
	defaultMaxPollAttempts = 30
)

// ElevenLabsProvider implements the STT Provider interface using the
// ElevenLabs speech-to-text API.
type ElevenLabsProvider struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string

	pollInterval    time.Duration
	maxPollAttempts int
}

// NewElevenLabs creates a new ElevenLabs STT provider.
func NewElevenLabs(apiKey string) *ElevenLabsProvider {
	return NewElevenLabsWithClient(apiKey, nil)
}

// NewElevenLabsWithClient creates a new ElevenLabs STT provider with a
// custom HTTP client.
func NewElevenLabsWithClient(apiKey string, client *http.Client) *ElevenLabsProvider {
	if client == nil {
		client = &http.Client{}
	}
	return &ElevenLabsProvider{
		apiKey:          strings.TrimSpace(apiKey),
		httpClient:      client,
		baseURL:         elevenLabsBaseURL,
		pollInterval:    defaultPollInterval,
		maxPollAttempts: defaultMaxPollAttempts,
	}
}

// WithBaseURL overrides the API base URL.
func (e *ElevenLabsProvider) WithBaseURL(base string) *ElevenLabsProvider {
	if base = strings.TrimSpace(base); base != "" {
		e.baseURL = strings.TrimSuffix(base, "/")
	}
	return e
}

// WithPolling bounds the async-job poll loop.
func (e *ElevenLabsProvider) WithPolling(interval time.Duration, maxAttempts int) *ElevenLabsProvider {
	if interval > 0 {
		e.pollInterval = interval
	}
	if maxAttempts > 0 {
		e.maxPollAttempts = maxAttempts
	}
	return e
}

// Name returns the provider identifier.
func (e *ElevenLabsProvider) Name() string {
	return "elevenlabs"
}

// elevenLabsSTTResponse covers both shapes the endpoint answers with: a
// finished transcript, or an async job handle to poll.
type elevenLabsSTTResponse struct {
	Text            string   `json:"text"`
	LanguageCode    string   `json:"language_code"`
	Duration        *float64 `json:"duration,omitempty"`
	TranscriptionID string   `json:"transcription_id,omitempty"`
	Status          string   `json:"status,omitempty"` // "processing", "completed", "failed"
	Error           string   `json:"error,omitempty"`
}

// Transcribe converts audio to text. When the API hands back an async
// job instead of a transcript, the job endpoint is polled in a bounded
// loop.
func (e *ElevenLabsProvider) Transcribe(ctx context.Context, audio io.Reader, opts TranscribeOptions) (*Transcript, error) {
	if e.apiKey == "" {
		return nil, core.NewAuthenticationError("elevenlabs api key is required")
	}

	audioData, err := io.ReadAll(audio)
	if err != nil {
		return nil, fmt.Errorf("read audio: %w", err)
	}
	if len(audioData) == 0 {
		return nil, core.NewInvalidRequestErrorWithParam("audio is empty", "file")
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fw, err := mw.CreateFormFile("file", "audio."+getExtension(opts.Format))
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := fw.Write(audioData); err != nil {
		return nil, fmt.Errorf("write audio data: %w", err)
	}

	model := opts.Model
	if model == "" {
		model = defaultSTTModel
	}
	if err := mw.WriteField("model_id", model); err != nil {
		return nil, fmt.Errorf("write model field: %w", err)
	}
	if opts.Language != "" {
		if err := mw.WriteField("language_code", opts.Language); err != nil {
			return nil, fmt.Errorf("write language field: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/v1/speech-to-text", &buf)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("xi-api-key", e.apiKey)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, core.NewProviderError("elevenlabs", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, e.parseError(resp)
	}

	var sttResp elevenLabsSTTResponse
	if err := json.NewDecoder(resp.Body).Decode(&sttResp); err != nil {
		return nil, core.NewProviderError("elevenlabs", fmt.Errorf("parse response: %w", err))
	}

	if sttResp.TranscriptionID != "" && strings.TrimSpace(sttResp.Text) == "" {
		return e.pollTranscript(ctx, sttResp.TranscriptionID)
	}
	return toTranscript(sttResp)
}

// pollTranscript polls the transcript job endpoint until the job settles
// or the attempt budget runs out.
func (e *ElevenLabsProvider) pollTranscript(ctx context.Context, id string) (*Transcript, error) {
	endpoint := e.baseURL + "/v1/speech-to-text/transcripts/" + url.PathEscape(id)

	for attempt := 1; attempt <= e.maxPollAttempts; attempt++ {
		timer := time.NewTimer(e.pollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, fmt.Errorf("create poll request: %w", err)
		}
		req.Header.Set("xi-api-key", e.apiKey)

		resp, err := e.httpClient.Do(req)
		if err != nil {
			return nil, core.NewProviderError("elevenlabs", err)
		}

		if resp.StatusCode != http.StatusOK {
			pollErr := e.parseError(resp)
			resp.Body.Close()
			return nil, pollErr
		}

		var sttResp elevenLabsSTTResponse
		err = json.NewDecoder(resp.Body).Decode(&sttResp)
		resp.Body.Close()
		if err != nil {
			return nil, core.NewProviderError("elevenlabs", fmt.Errorf("parse poll response: %w", err))
		}

		switch sttResp.Status {
		case "completed", "":
			return toTranscript(sttResp)
		case "failed":
			msg := sttResp.Error
			if msg == "" {
				msg = "transcription job failed"
			}
			return nil, core.NewProviderError("elevenlabs", fmt.Errorf("%s", msg))
		default:
			// Still processing; keep polling.
		}
	}
	return nil, &core.Error{
		Type:    core.ErrProvider,
		Message: fmt.Sprintf("elevenlabs: transcription %s did not complete after %d polls", id, e.maxPollAttempts),
	}
}

func toTranscript(resp elevenLabsSTTResponse) (*Transcript, error) {
	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return nil, core.NewProviderError("elevenlabs", fmt.Errorf("empty transcription returned"))
	}
	t := &Transcript{
		Text:     text,
		Language: resp.LanguageCode,
	}
	if resp.Duration != nil {
		t.Duration = *resp.Duration
	}
	return t, nil
}

// parseError maps an HTTP error response to the canonical taxonomy.
func (e *ElevenLabsProvider) parseError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var errType core.ErrorType
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		errType = core.ErrAuthentication
	case resp.StatusCode == http.StatusNotFound:
		errType = core.ErrNotFound
	case resp.StatusCode == http.StatusUnprocessableEntity || resp.StatusCode == http.StatusBadRequest:
		errType = core.ErrInvalidRequest
	case resp.StatusCode == http.StatusTooManyRequests:
		errType = core.ErrRateLimit
	case resp.StatusCode == http.StatusServiceUnavailable:
		errType = core.ErrOverloaded
	case resp.StatusCode >= 500:
		errType = core.ErrAPI
	default:
		errType = core.ErrProvider
	}

	return &core.Error{
		Type:          errType,
		Message:       fmt.Sprintf("elevenlabs: status %d", resp.StatusCode),
		ProviderError: string(body),
	}
}

// getExtension returns the file extension for the given audio format.
func getExtension(format string) string {
	switch format {
	case "wav", "mp3", "webm", "ogg", "flac", "m4a", "mp4", "mpeg", "mpga", "oga":
		return format
	default:
		return "wav"
	}
}
