// Package resolver turns user queries and canonical URLs into playable tracks.
package resolver

import (
	"context"
	"errors"

	"github.com/keshon/cord-titan/internal/music/track"
)

var (
	// ErrNotFound is returned when a query produced no results.
	ErrNotFound = errors.New("no results found")
	// ErrUnsupported is returned by a backend that cannot serve the request.
	ErrUnsupported = errors.New("operation not supported by backend")
)

// Result is a lightweight search or playlist entry. It has to be resolved
// before it can be played.
type Result struct {
	Title    string
	URL      string
	Uploader string
	Duration float64
}

// Resolver is the capability the rest of the bot depends on.
type Resolver interface {
	// Resolve returns a track for a URL or a free-text search.
	Resolve(ctx context.Context, query string) (*track.Track, error)
	// Search returns up to limit results for a free-text query.
	Search(ctx context.Context, query string, limit int) ([]Result, error)
	// Playlist lists up to limit entries of a playlist URL.
	Playlist(ctx context.Context, url string, limit int) ([]Result, error)
	// Reresolve fetches a fresh streaming URL for a canonical page URL.
	Reresolve(ctx context.Context, webpageURL string) (string, error)
}

// Backend is a Resolver that declares which inputs it can handle.
type Backend interface {
	Resolver
	Name() string
	Match(input string) bool
}
