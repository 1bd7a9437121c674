// Package pipeline serializes every outbound call to the third-party geo
// services behind one rate limit with a bounded retry budget. Callers treat
// an exhausted budget as a soft failure and degrade instead of aborting the
// resolution pass.
package pipeline

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/tripfolio/tripfolio/internal/app/models"
	"github.com/tripfolio/tripfolio/internal/app/observability/metrics"
)

const (
	// DefaultBaseDelay is the minimum spacing between outbound calls and the
	// flat retry delay for plain transport failures.
	DefaultBaseDelay = 2000 * time.Millisecond
	// DefaultBackoffFactor multiplies the delay after each throttled attempt.
	DefaultBackoffFactor = 1.5
	// DefaultMaxRetries bounds the retry loop; after that the error
	// propagates to the caller.
	DefaultMaxRetries = 3
)

// Config tunes the pipeline. Zero values fall back to the defaults above.
type Config struct {
	BaseDelay     time.Duration
	BackoffFactor float64
	MaxRetries    int
	UserAgent     string
}

// Pipeline issues GET requests one at a time with a minimum delay between
// calls. Requests are never issued concurrently by the engine, which is what
// lets this single spacing policy satisfy the upstream rate limits.
type Pipeline struct {
	client  *resty.Client
	limiter *rate.Limiter
	cfg     Config
	logger  *zap.Logger
}

// New creates a pipeline. A nil client gets a default resty client.
func New(client *resty.Client, cfg Config, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = DefaultBaseDelay
	}
	if cfg.BackoffFactor <= 1 {
		cfg.BackoffFactor = DefaultBackoffFactor
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if client == nil {
		client = resty.New()
	}
	if cfg.UserAgent != "" {
		client.SetHeader("User-Agent", cfg.UserAgent)
	}
	return &Pipeline{
		client:  client,
		limiter: rate.NewLimiter(rate.Every(cfg.BaseDelay), 1),
		cfg:     cfg,
		logger:  logger,
	}
}

// Get fetches url with the retry policy and returns the response body.
//
// HTTP 429 retries with the delay multiplied by the backoff factor per
// attempt; transport errors and 5xx retry at the flat base delay; other
// statuses are permanent. Context liveness is checked immediately before
// each call and again after each response, so a cancelled pass never commits
// a response that arrived late.
func (p *Pipeline) Get(ctx context.Context, url string, query map[string]string) ([]byte, error) {
	m := metrics.Get()

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = time.Duration(float64(p.cfg.BaseDelay) * p.cfg.BackoffFactor)
	eb.Multiplier = p.cfg.BackoffFactor
	eb.RandomizationFactor = 0
	eb.MaxElapsedTime = 0

	var lastErr error
	for attempt := 0; attempt <= p.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			m.UpstreamRetriesTotal.Add(ctx, 1)
		}
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		m.UpstreamCallsTotal.Add(ctx, 1)
		resp, err := p.client.R().SetContext(ctx).SetQueryParams(query).Get(url)
		if cerr := ctx.Err(); cerr != nil {
			return nil, cerr
		}

		var delay time.Duration
		switch {
		case err != nil:
			lastErr = err
			delay = p.cfg.BaseDelay
			p.logger.Debug("Upstream call failed",
				zap.String("url", url),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
		case resp.StatusCode() == http.StatusTooManyRequests:
			m.UpstreamThrottleTotal.Add(ctx, 1)
			lastErr = models.ErrRateLimited
			delay = eb.NextBackOff()
			p.logger.Debug("Upstream throttled, backing off",
				zap.String("url", url),
				zap.Int("attempt", attempt),
				zap.Duration("delay", delay),
			)
		case resp.StatusCode() >= http.StatusInternalServerError:
			lastErr = errors.Errorf("upstream status %d", resp.StatusCode())
			delay = p.cfg.BaseDelay
		case resp.StatusCode() != http.StatusOK:
			return nil, errors.Errorf("upstream status %d", resp.StatusCode())
		default:
			return resp.Body(), nil
		}

		if attempt == p.cfg.MaxRetries {
			break
		}
		if !sleepContext(ctx, delay) {
			return nil, ctx.Err()
		}
	}

	return nil, fmt.Errorf("%w: %v", models.ErrRetryBudgetExhausted, lastErr)
}

// sleepContext waits for d unless the context ends first.
func sleepContext(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
