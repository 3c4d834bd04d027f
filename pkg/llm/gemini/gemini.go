// Package gemini implements the organize.TextGenerator interface on top
// of the Google Gemini API via the official genai SDK.
package gemini

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/genai"

	"github.com/braindump-app/api/pkg/core"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-2.5-flash"

// Client is a thin wrapper over the genai SDK exposing the single text
// generation operation the organizer needs.
type Client struct {
	client      *genai.Client
	model       string
	temperature float32
}

// Option configures a Client.
type Option func(*Client)

// WithModel overrides the default model.
func WithModel(model string) Option {
	return func(c *Client) {
		if m := strings.TrimSpace(model); m != "" {
			c.model = m
		}
	}
}

// WithTemperature overrides the default sampling temperature.
func WithTemperature(t float32) Option {
	return func(c *Client) {
		c.temperature = t
	}
}

// New creates a Gemini client. The API key is required.
func New(ctx context.Context, apiKey string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, core.NewAuthenticationError("gemini api key is required")
	}
	inner, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, core.NewProviderError("gemini", err)
	}
	c := &Client{
		client:      inner,
		model:       DefaultModel,
		temperature: 0.2,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Name returns the provider identifier.
func (c *Client) Name() string {
	return "gemini"
}

// GenerateText sends one prompt to the model and returns the raw text of
// its reply.
func (c *Client) GenerateText(ctx context.Context, system, user string) (string, error) {
	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(c.temperature),
	}
	if system != "" {
		cfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(user), cfg)
	if err != nil {
		return "", mapError(err)
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", core.NewAPIError("gemini: empty response")
	}
	return text, nil
}

// mapError translates genai SDK errors into the canonical taxonomy so
// callers can decide on retries and HTTP status codes.
func mapError(err error) error {
	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		return core.NewProviderError("gemini", err)
	}

	errType := typeFromStatus(apiErr.Status)

	// The HTTP code is more reliable than the status string for throttling
	// and availability.
	switch apiErr.Code {
	case 401, 403:
		errType = core.ErrAuthentication
	case 429:
		errType = core.ErrRateLimit
	case 503:
		errType = core.ErrOverloaded
	}

	return &core.Error{
		Type:          errType,
		Message:       apiErr.Message,
		Code:          apiErr.Status,
		ProviderError: apiErr.Message,
	}
}

func typeFromStatus(status string) core.ErrorType {
	switch status {
	case "INVALID_ARGUMENT", "FAILED_PRECONDITION":
		return core.ErrInvalidRequest
	case "UNAUTHENTICATED":
		return core.ErrAuthentication
	case "PERMISSION_DENIED":
		return core.ErrPermission
	case "NOT_FOUND":
		return core.ErrNotFound
	case "RESOURCE_EXHAUSTED":
		return core.ErrRateLimit
	case "INTERNAL":
		return core.ErrAPI
	case "UNAVAILABLE":
		return core.ErrOverloaded
	default:
		return core.ErrProvider
	}
}
