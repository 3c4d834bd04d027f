package tts

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/braindump-app/api/pkg/core"
)

const (
	elevenLabsBaseURL   = "https://api.elevenlabs.io"
	elevenLabsWSBase    = "wss://api.elevenlabs.io/v1/text-to-speech/{voice_id}/stream-input"
	defaultTTSModel     = "eleven_multilingual_v2"
	defaultOutputFormat = "mp3_44100_128"
)

// ElevenLabsProvider implements the TTS Provider interface using the
// ElevenLabs API. One-shot synthesis goes over REST; streaming synthesis
// uses the stream-input WebSocket.
type ElevenLabsProvider struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	wsBaseURL  string
}

// NewElevenLabs creates a new ElevenLabs TTS provider.
func NewElevenLabs(apiKey string) *ElevenLabsProvider {
	return NewElevenLabsWithClient(apiKey, nil)
}

// NewElevenLabsWithClient creates a new ElevenLabs TTS provider with a
// custom HTTP client.
func NewElevenLabsWithClient(apiKey string, client *http.Client) *ElevenLabsProvider {
	if client == nil {
		client = &http.Client{}
	}
	return &ElevenLabsProvider{
		apiKey:     strings.TrimSpace(apiKey),
		httpClient: client,
		baseURL:    elevenLabsBaseURL,
		wsBaseURL:  elevenLabsWSBase,
	}
}

// WithBaseURL overrides the REST API base URL.
func (e *ElevenLabsProvider) WithBaseURL(base string) *ElevenLabsProvider {
	if base = strings.TrimSpace(base); base != "" {
		e.baseURL = strings.TrimSuffix(base, "/")
	}
	return e
}

// WithWSBaseURL overrides the stream-input WebSocket URL template.
func (e *ElevenLabsProvider) WithWSBaseURL(base string) *ElevenLabsProvider {
	if base = strings.TrimSpace(base); base != "" {
		e.wsBaseURL = base
	}
	return e
}

// Name returns the provider identifier.
func (e *ElevenLabsProvider) Name() string {
	return "elevenlabs"
}

// Synthesize converts text to audio with a single REST call.
func (e *ElevenLabsProvider) Synthesize(ctx context.Context, text string, opts SynthesizeOptions) (*Synthesis, error) {
	if e.apiKey == "" {
		return nil, core.NewAuthenticationError("elevenlabs api key is required")
	}
	voice := strings.TrimSpace(opts.Voice)
	if voice == "" {
		return nil, core.NewInvalidRequestErrorWithParam("voice id is required", "voice_id")
	}

	format := opts.Format
	if format == "" {
		format = defaultOutputFormat
	}
	model := opts.Model
	if model == "" {
		model = defaultTTSModel
	}

	payload, err := json.Marshal(map[string]any{
		"text":     text,
		"model_id": model,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1/text-to-speech/%s?output_format=%s",
		e.baseURL, url.PathEscape(voice), url.QueryEscape(format))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("xi-api-key", e.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, core.NewProviderError("elevenlabs", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, parseError(resp)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, core.NewProviderError("elevenlabs", fmt.Errorf("read audio: %w", err))
	}
	if len(audio) == 0 {
		return nil, core.NewProviderError("elevenlabs", fmt.Errorf("empty audio returned"))
	}
	return &Synthesis{Audio: audio, Format: format}, nil
}

// SynthesizeStream converts text to audio over the stream-input
// WebSocket, emitting chunks as the provider generates them.
func (e *ElevenLabsProvider) SynthesizeStream(ctx context.Context, text string, opts SynthesizeOptions) (*SynthesisStream, error) {
	if e.apiKey == "" {
		return nil, core.NewAuthenticationError("elevenlabs api key is required")
	}
	voice := strings.TrimSpace(opts.Voice)
	if voice == "" {
		return nil, core.NewInvalidRequestErrorWithParam("voice id is required", "voice_id")
	}

	format := opts.Format
	if format == "" {
		format = defaultOutputFormat
	}
	wsURL, err := buildWSURL(e.wsBaseURL, voice, opts.Model, format)
	if err != nil {
		return nil, err
	}

	header := http.Header{}
	header.Set("xi-api-key", e.apiKey)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, header)
	if err != nil {
		return nil, core.NewProviderError("elevenlabs", fmt.Errorf("websocket connect: %w", err))
	}

	// Handshake, text, then flush. The initial space primes the session.
	init := map[string]any{"text": " ", "voice_id": voice}
	body := map[string]any{"text": ensureTrailingSpace(text)}
	flush := map[string]any{"text": ""}
	for _, msg := range []map[string]any{init, body, flush} {
		_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := conn.WriteJSON(msg); err != nil {
			_ = conn.Close()
			return nil, core.NewProviderError("elevenlabs", fmt.Errorf("websocket send: %w", err))
		}
	}

	stream := NewSynthesisStream(format)
	go func() {
		defer conn.Close()
		for {
			select {
			case <-ctx.Done():
				stream.Finish(ctx.Err())
				return
			default:
			}

			var msg struct {
				Audio   string `json:"audio"`
				IsFinal bool   `json:"isFinal"`
				Error   string `json:"error"`
			}
			if err := conn.ReadJSON(&msg); err != nil {
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					stream.Finish(nil)
				} else {
					stream.Finish(core.NewProviderError("elevenlabs", err))
				}
				return
			}
			if msg.Error != "" {
				stream.Finish(core.NewProviderError("elevenlabs", fmt.Errorf("%s", msg.Error)))
				return
			}
			if msg.Audio != "" {
				audio, err := base64.StdEncoding.DecodeString(msg.Audio)
				if err == nil && len(audio) > 0 {
					if !stream.Send(audio) {
						stream.Finish(nil)
						return
					}
				}
			}
			if msg.IsFinal {
				stream.Finish(nil)
				return
			}
		}
	}()

	return stream, nil
}

func buildWSURL(base, voiceID, model, format string) (string, error) {
	base = strings.ReplaceAll(base, "{voice_id}", url.PathEscape(voiceID))
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid elevenlabs ws url: %w", err)
	}
	if u.Scheme == "" {
		u.Scheme = "wss"
	}
	if model == "" {
		model = defaultTTSModel
	}
	q := u.Query()
	if q.Get("model_id") == "" {
		q.Set("model_id", model)
	}
	if q.Get("output_format") == "" {
		q.Set("output_format", format)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// ensureTrailingSpace keeps the stream-input buffer flushing promptly;
// the API treats a trailing space as a word boundary.
func ensureTrailingSpace(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return text
	}
	return text + " "
}

// parseError maps an HTTP error response to the canonical taxonomy.
func parseError(resp *http.Response) error {
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
