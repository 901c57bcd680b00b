package resolver

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/keshon/cord-titan/internal/music/track"
	"github.com/keshon/cord-titan/pkg/ratelimit"
)

// Chain tries each matching backend in order until one succeeds. Every call
// first waits on the shared limiter.
type Chain struct {
	backends []Backend
	lim      *ratelimit.AdaptiveLimiter
}

// NewChain returns a resolver over backends. lim may be nil.
func NewChain(lim *ratelimit.AdaptiveLimiter, backends ...Backend) *Chain {
	return &Chain{backends: backends, lim: lim}
}

func (c *Chain) Resolve(ctx context.Context, query string) (*track.Track, error) {
	return first(ctx, c, query, "resolve", func(ctx context.Context, b Backend) (*track.Track, error) {
		return b.Resolve(ctx, query)
	})
}

func (c *Chain) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	return first(ctx, c, query, "search", func(ctx context.Context, b Backend) ([]Result, error) {
		return b.Search(ctx, query, limit)
	})
}

func (c *Chain) Playlist(ctx context.Context, url string, limit int) ([]Result, error) {
	return first(ctx, c, url, "playlist", func(ctx context.Context, b Backend) ([]Result, error) {
		return b.Playlist(ctx, url, limit)
	})
}

func (c *Chain) Reresolve(ctx context.Context, webpageURL string) (string, error) {
	return first(ctx, c, webpageURL, "reresolve", func(ctx context.Context, b Backend) (string, error) {
		return b.Reresolve(ctx, webpageURL)
	})
}

func first[T any](ctx context.Context, c *Chain, input, op string, call func(context.Context, Backend) (T, error)) (T, error) {
	var (
		zero T
		errs []error
	)
	for _, b := range c.backends {
		if !b.Match(input) {
			continue
		}
		var out T
		err := ratelimit.Do(ctx, c.lim, func(ctx context.Context) error {
			var err error
			out, err = call(ctx, b)
			return err
		}, classify)
		if err == nil {
			return out, nil
		}
		if errors.Is(err, ErrUnsupported) {
			continue
		}
		log.Warn().Str("component", "resolver").Str("backend", b.Name()).Str("op", op).Err(err).Msg("backend failed")
		errs = append(errs, err)
		if ctx.Err() != nil {
			break
		}
	}
	if allNotFound(errs) {
		return zero, fmt.Errorf("%s %q: %w", op, input, ErrNotFound)
	}
	return zero, errors.Join(errs...)
}

// classify keeps empty results and unsupported calls from slowing the limiter.
func classify(err error) bool {
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrUnsupported) {
		return false
	}
	return ratelimit.DefaultClassifier(err)
}

func allNotFound(errs []error) bool {
	for _, err := range errs {
		if !errors.Is(err, ErrNotFound) {
			return false
		}
	}
	return true
}
