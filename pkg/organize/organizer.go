package organize

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/braindump-app/api/pkg/core"
)

// TextGenerator is the single operation the organizer needs from an LLM
// provider.
type TextGenerator interface {
	Name() string
	GenerateText(ctx context.Context, system, user string) (string, error)
}

// Organizer orchestrates one organize round trip: prompt construction,
// the model call (with a bounded retry for transient provider errors),
// and response scraping.
type Organizer struct {
	gen         TextGenerator
	logger      *slog.Logger
	maxAttempts int
	retryDelay  time.Duration
}

// Option configures an Organizer.
type Option func(*Organizer)

// WithMaxAttempts bounds the number of model calls per request.
func WithMaxAttempts(n int) Option {
	return func(o *Organizer) {
		if n > 0 {
			o.maxAttempts = n
		}
	}
}

// WithRetryDelay sets the pause between attempts.
func WithRetryDelay(d time.Duration) Option {
	return func(o *Organizer) {
		if d > 0 {
			o.retryDelay = d
		}
	}
}

func New(gen TextGenerator, logger *slog.Logger, opts ...Option) *Organizer {
	if logger == nil {
		logger = slog.Default()
	}
	o := &Organizer{
		gen:         gen,
		logger:      logger,
		maxAttempts: 2,
		retryDelay:  500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Organize runs the request through the model and returns the structured
// result. Transient provider errors and unparseable replies are retried
// up to the attempt budget; the last error wins.
func (o *Organizer) Organize(ctx context.Context, req Request) (*Response, error) {
	user := buildUserPrompt(req.Text, req.TodayISO, req.Timezone)

	var lastErr error
	for attempt := 1; attempt <= o.maxAttempts; attempt++ {
		if attempt > 1 {
			if err := sleepCtx(ctx, o.retryDelay); err != nil {
				return nil, err
			}
		}

		text, err := o.gen.GenerateText(ctx, systemPrompt, user)
		if err != nil {
			lastErr = err
			if !isRetryable(err) {
				return nil, err
			}
			o.logger.Warn("model call failed, retrying",
				"provider", o.gen.Name(),
				"attempt", attempt,
				"error", err,
			)
			continue
		}

		resp, err := ParseResponse(text)
		if err != nil {
			// The model ignored the JSON contract; re-asking usually fixes it.
			lastErr = &core.Error{
				Type:          core.ErrProvider,
				Message:       "model returned unparseable output",
				ProviderError: err.Error(),
			}
			o.logger.Warn("unparseable model output",
				"provider", o.gen.Name(),
				"attempt", attempt,
				"error", err,
			)
			continue
		}

		o.logger.Info("organized dump",
			"provider", o.gen.Name(),
			"attempt", attempt,
			"tasks", len(resp.Tasks),
			"notes", len(resp.Notes),
		)
		return resp, nil
	}
	return nil, lastErr
}

func isRetryable(err error) bool {
	var coreErr *core.Error
	if errors.As(err, &coreErr) {
		return coreErr.IsRetryable()
	}
	return false
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
