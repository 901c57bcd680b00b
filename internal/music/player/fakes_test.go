package player_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/keshon/cord-titan/internal/music/filter"
	"github.com/keshon/cord-titan/internal/music/player"
	"github.com/keshon/cord-titan/internal/music/queue"
	"github.com/keshon/cord-titan/internal/music/track"
)

type startCall struct {
	url    string
	filter filter.Name
}

type fakeTransport struct {
	mu        sync.Mutex
	starts    []startCall
	active    func(error)
	paused    bool
	volume    float64
	failStart error
}

func (f *fakeTransport) Start(url string, fl filter.Name, cb func(error)) error {
	f.mu.Lock()
	if f.failStart != nil {
		f.mu.Unlock()
		return f.failStart
	}
	prev := f.active
	f.active = cb
	f.paused = false
	f.starts = append(f.starts, startCall{url, fl})
	f.mu.Unlock()
	if prev != nil {
		prev(nil)
	}
	return nil
}

func (f *fakeTransport) Stop() { f.finish(nil) }

// finish ends the active session the way a decoder reaching EOF would.
func (f *fakeTransport) finish(err error) {
	f.mu.Lock()
	cb := f.active
	f.active = nil
	f.mu.Unlock()
	if cb != nil {
		cb(err)
	}
}

func (f *fakeTransport) Pause() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.active == nil || f.paused {
		return false
	}
	f.paused = true
	return true
}

func (f *fakeTransport) Resume() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.paused {
		return false
	}
	f.paused = false
	return true
}

func (f *fakeTransport) IsPlaying() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.active != nil && !f.paused
}

func (f *fakeTransport) IsPaused() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.active != nil && f.paused
}

func (f *fakeTransport) SetVolume(v float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.volume = v
}

func (f *fakeTransport) startCalls() []startCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]startCall(nil), f.starts...)
}

type fakeTransports struct {
	byGuild map[string]*fakeTransport
}

func (f *fakeTransports) Transport(guildID string) (player.Transport, bool) {
	t, ok := f.byGuild[guildID]
	if !ok {
		return nil, false
	}
	return t, true
}

type fakeResolver struct {
	mu    sync.Mutex
	fail  map[string]error
	calls []string
	gate  chan struct{}
}

func (r *fakeResolver) Reresolve(ctx context.Context, webpageURL string) (string, error) {
	r.mu.Lock()
	r.calls = append(r.calls, webpageURL)
	err := r.fail[webpageURL]
	gate := r.gate
	r.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if err != nil {
		return "", err
	}
	return "fresh:" + webpageURL, nil
}

func (r *fakeResolver) callList() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

type fakeNotifier struct {
	mu         sync.Mutex
	nowPlaying []string
	failures   []string
}

func (n *fakeNotifier) NowPlaying(_ string, t *track.Track) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.nowPlaying = append(n.nowPlaying, t.Title)
}

func (n *fakeNotifier) Failure(_ string, t *track.Track, _ error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.failures = append(n.failures, t.Title)
}

func (n *fakeNotifier) snapshot() (now, failed []string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.nowPlaying...), append([]string(nil), n.failures...)
}

const guildID = "guild-1"

type harness struct {
	p         *player.Player
	q         *queue.Queue
	transport *fakeTransport
	resolver  *fakeResolver
	notifier  *fakeNotifier
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		transport: &fakeTransport{},
		resolver:  &fakeResolver{fail: map[string]error{}},
		notifier:  &fakeNotifier{},
	}
	reg := queue.NewRegistry()
	h.p = player.New(reg,
		&fakeTransports{byGuild: map[string]*fakeTransport{guildID: h.transport}},
		h.resolver, h.notifier,
		player.WithReresolveTimeout(time.Second),
	)
	h.q = reg.Get(guildID)
	t.Cleanup(h.p.Close)
	return h
}

// fresh returns a track that still carries the URL from its initial resolution.
func fresh(title string) *track.Track {
	return track.New(title, "https://example.com/"+title, "cdn:"+title, time.Minute, track.Requester{ID: "u"}, "")
}

// stale returns a track whose stream URL has to be refreshed before playing.
func stale(title string) *track.Track {
	return track.New(title, "https://example.com/"+title, "", time.Minute, track.Requester{ID: "u"}, "")
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

// settle gives asynchronous completions a chance to be processed.
func settle() { time.Sleep(50 * time.Millisecond) }

var errBoom = errors.New("boom")
