// Package track holds the metadata of a single resolved audio item.
package track

import (
	"fmt"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/keshon/cord-titan/internal/music/filter"
)

const descriptionLimit = 200

// Requester identifies who asked for a track.
type Requester struct {
	ID   string
	Name string
}

// Mention renders the requester as a chat mention.
func (r Requester) Mention() string {
	if r.ID == "" {
		return r.Name
	}
	return "<@" + r.ID + ">"
}

// Track is a resolved track. Metadata is fixed after resolution; the
// streaming URL, requester and filter may change and are guarded.
type Track struct {
	Title       string
	WebpageURL  string
	Thumbnail   string
	Uploader    string
	Views       int64
	Likes       int64
	UploadDate  string
	Description string
	Duration    time.Duration

	mu        sync.RWMutex
	streamURL string
	requester Requester
	filter    filter.Name
}

// New builds a track and trims the description.
func New(title, webpageURL, streamURL string, duration time.Duration, requester Requester, f filter.Name) *Track {
	return &Track{
		Title:      title,
		WebpageURL: webpageURL,
		Duration:   duration,
		streamURL:  streamURL,
		requester:  requester,
		filter:     f,
	}
}

// SetDescription stores at most 200 runes of the description.
func (t *Track) SetDescription(s string) {
	if utf8.RuneCountInString(s) > descriptionLimit {
		r := []rune(s)
		s = string(r[:descriptionLimit]) + "..."
	}
	t.Description = s
}

func (t *Track) StreamURL() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.streamURL
}

// SetStreamURL replaces the short-lived streaming locator.
func (t *Track) SetStreamURL(u string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.streamURL = u
}

// TakeStreamURL returns the streaming locator and forgets it, so every
// physical playback after the first has to re-resolve.
func (t *Track) TakeStreamURL() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	u := t.streamURL
	t.streamURL = ""
	return u
}

func (t *Track) Requester() Requester {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.requester
}

func (t *Track) SetRequester(r Requester) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.requester = r
}

func (t *Track) Filter() filter.Name {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.filter == "" {
		return filter.Normal
	}
	return t.filter
}

func (t *Track) SetFilter(f filter.Name) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.filter = f
}

// IsLive reports a track with no known duration.
func (t *Track) IsLive() bool {
	return t.Duration <= 0
}

// FormatDuration renders the track length, LIVE when unknown.
func (t *Track) FormatDuration() string {
	if t.IsLive() {
		return "LIVE"
	}
	return FormatDuration(t.Duration)
}

// FormatDuration renders d as MM:SS, or HH:MM:SS past the hour.
func FormatDuration(d time.Duration) string {
	total := int(d.Seconds())
	h, m, s := total/3600, (total%3600)/60, total%60
	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

func (t *Track) String() string {
	return fmt.Sprintf("%s (%s)", t.Title, t.FormatDuration())
}
