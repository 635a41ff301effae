// Package recognition selects and wraps the configured document recognizer.
package recognition

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"mediscript/internal/domain/models/record"
	"mediscript/internal/domain/services"
)

// Throttled limits how often the wrapped recognizer is called.
type Throttled struct {
	next    services.Recognizer
	limiter *rate.Limiter
}

// NewThrottled wraps next with a token bucket of rps requests per second.
func NewThrottled(next services.Recognizer, rps float64, burst int) *Throttled {
	if burst < 1 {
		burst = 1
	}
	return &Throttled{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

// Name returns the wrapped recognizer's name.
func (t *Throttled) Name() string {
	return t.next.Name()
}

// Recognize waits for a token and then delegates.
func (t *Throttled) Recognize(ctx context.Context, doc record.SourceDocument) ([]byte, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}
	return t.next.Recognize(ctx, doc)
}
