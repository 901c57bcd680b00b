package player_test

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"testing"
	"time"

	"github.com/keshon/cord-titan/internal/music/filter"
	"github.com/keshon/cord-titan/internal/music/player"
	"github.com/keshon/cord-titan/internal/music/queue"
	"github.com/keshon/cord-titan/internal/music/track"
)

func TestPlayStartsWhenIdleAndQueuesOtherwise(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	res, err := h.p.Play(ctx, guildID, fresh("A"), false)
	if err != nil || res.Status != player.StatusPlaying {
		t.Fatalf("Play A = %+v, %v", res, err)
	}
	if starts := h.transport.startCalls(); len(starts) != 1 || starts[0].url != "cdn:A" {
		t.Fatalf("starts = %+v", starts)
	}
	if len(h.resolver.callList()) != 0 {
		t.Fatalf("a freshly resolved track must not be refreshed")
	}

	res, err = h.p.Play(ctx, guildID, fresh("B"), false)
	if err != nil || res.Status != player.StatusAdded || res.Position != 1 {
		t.Fatalf("Play B = %+v, %v", res, err)
	}
	res, _ = h.p.Play(ctx, guildID, fresh("N"), true)
	if res.Position != 1 || h.q.Pending()[0].Title != "N" {
		t.Fatalf("play next should jump the queue, got %+v", res)
	}
	if h.q.Current().Title != "A" {
		t.Fatalf("current = %s", h.q.Current().Title)
	}
}

func TestCompletionAdvancesWithRefresh(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.p.Play(ctx, guildID, fresh("A"), false)
	h.p.Play(ctx, guildID, stale("B"), false)

	h.transport.finish(nil)

	waitFor(t, "B to start", func() bool { return len(h.transport.startCalls()) == 2 })
	starts := h.transport.startCalls()
	if starts[1].url != "fresh:https://example.com/B" {
		t.Fatalf("B should start with a refreshed url, got %q", starts[1].url)
	}
	if h.q.Current().Title != "B" {
		t.Fatalf("current = %s", h.q.Current().Title)
	}
	waitFor(t, "now playing notice", func() bool {
		now, _ := h.notifier.snapshot()
		return slices.Equal(now, []string{"B"})
	})
}

func TestTransportErrorStillAdvances(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.p.Play(ctx, guildID, fresh("A"), false)
	h.p.Play(ctx, guildID, fresh("B"), false)

	h.transport.finish(errBoom)

	waitFor(t, "B to start", func() bool { return len(h.transport.startCalls()) == 2 })
}

func TestQueueExhaustionGoesIdle(t *testing.T) {
	h := newHarness(t)
	h.p.Play(context.Background(), guildID, fresh("A"), false)

	h.transport.finish(nil)

	waitFor(t, "idle", func() bool { return h.q.Current() == nil })
	if got := len(h.transport.startCalls()); got != 1 {
		t.Fatalf("starts = %d", got)
	}
	if hist := h.q.History(); len(hist) != 1 || hist[0].Title != "A" {
		t.Fatalf("history = %v", hist)
	}
}

func TestLoopSongReplaysSameTrack(t *testing.T) {
	h := newHarness(t)
	a := fresh("A")
	h.p.Play(context.Background(), guildID, a, false)
	h.q.Add(fresh("B"))
	h.q.SetLoop(queue.LoopSong)

	h.transport.finish(nil)
	waitFor(t, "replay", func() bool { return len(h.transport.startCalls()) == 2 })
	h.transport.finish(nil)
	waitFor(t, "second replay", func() bool { return len(h.transport.startCalls()) == 3 })

	if h.q.Current() != a {
		t.Fatalf("current = %s", h.q.Current().Title)
	}
	if calls := h.resolver.callList(); len(calls) != 2 || calls[0] != a.WebpageURL {
		t.Fatalf("each replay must refresh the stream, calls = %v", calls)
	}
	settle()
	if now, _ := h.notifier.snapshot(); len(now) != 0 {
		t.Fatalf("song loop should not repost now playing, got %v", now)
	}
}

func TestRefreshFailureHaltsChain(t *testing.T) {
	h := newHarness(t)
	h.p.Play(context.Background(), guildID, fresh("A"), false)
	h.q.Add(stale("B"))
	h.q.Add(stale("C"))
	h.resolver.fail["https://example.com/B"] = errBoom

	h.transport.finish(nil)

	waitFor(t, "failure report", func() bool {
		_, failed := h.notifier.snapshot()
		return slices.Equal(failed, []string{"B"})
	})
	settle()
	if h.q.Current() != nil {
		t.Fatalf("current must not point at a track without a session, got %s", h.q.Current().Title)
	}
	if got := len(h.transport.startCalls()); got != 1 {
		t.Fatalf("chain should halt, starts = %d", got)
	}
	if p := h.q.Pending(); len(p) != 1 || p[0].Title != "C" {
		t.Fatalf("pending = %v", p)
	}
	if calls := h.resolver.callList(); len(calls) != 1 {
		t.Fatalf("single attempt expected, calls = %v", calls)
	}
}

func TestRefreshLoopSongFailureStops(t *testing.T) {
	h := newHarness(t)
	a := fresh("A")
	h.p.Play(context.Background(), guildID, a, false)
	h.q.SetLoop(queue.LoopSong)
	h.resolver.fail[a.WebpageURL] = errBoom

	h.transport.finish(nil)

	waitFor(t, "failure", func() bool {
		_, failed := h.notifier.snapshot()
		return len(failed) == 1
	})
	if h.q.Current() != nil {
		t.Fatalf("current should be dropped after a failed replay")
	}
}

func TestFilterReplacementDoesNotAdvance(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	a := fresh("A")
	h.p.Play(ctx, guildID, a, false)
	h.q.Add(fresh("B"))

	cur, err := h.p.ApplyFilter(ctx, guildID, filter.Nightcore)
	if err != nil || cur != a {
		t.Fatalf("ApplyFilter = %v, %v", cur, err)
	}
	settle()

	starts := h.transport.startCalls()
	if len(starts) != 2 || starts[1].filter != filter.Nightcore {
		t.Fatalf("starts = %+v", starts)
	}
	if h.q.Current() != a || h.q.Len() != 1 {
		t.Fatalf("the replaced session must not advance the queue")
	}
	if h.q.Filter() != filter.Nightcore {
		t.Fatalf("guild filter preference not stored")
	}
}

func TestFilterWhileIdleOnlyStoresPreference(t *testing.T) {
	h := newHarness(t)
	cur, err := h.p.ApplyFilter(context.Background(), guildID, filter.Soft)
	if err != nil || cur != nil {
		t.Fatalf("ApplyFilter = %v, %v", cur, err)
	}
	if h.q.Filter() != filter.Soft || len(h.transport.startCalls()) != 0 {
		t.Fatalf("unexpected playback")
	}
}

func TestStopClearsQueue(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.p.Play(ctx, guildID, fresh("A"), false)
	h.q.Add(fresh("B"))
	h.q.SetVolume(80)

	if err := h.p.Stop(ctx, guildID); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	settle()

	if h.q.Current() != nil || h.q.Len() != 0 {
		t.Fatalf("stop should clear the queue")
	}
	if h.transport.IsPlaying() || len(h.transport.startCalls()) != 1 {
		t.Fatalf("nothing should play after stop")
	}
	if h.q.Volume() != 80 {
		t.Fatalf("stop must keep the volume preference")
	}
}

func TestStopDuringRefreshAborts(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.p.Play(ctx, guildID, fresh("A"), false)
	h.q.Add(stale("B"))
	h.resolver.gate = make(chan struct{})

	h.transport.finish(nil)
	waitFor(t, "refresh to begin", func() bool { return len(h.resolver.callList()) == 1 })

	stopped := make(chan error, 1)
	go func() { stopped <- h.p.Stop(ctx, guildID) }()
	waitFor(t, "queue cleared", func() bool { return h.q.Current() == nil })

	close(h.resolver.gate)
	if err := <-stopped; err != nil {
		t.Fatalf("Stop: %v", err)
	}
	settle()
	if got := len(h.transport.startCalls()); got != 1 {
		t.Fatalf("B must not start after stop, starts = %d", got)
	}
}

func TestPreviousRestoresTrack(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	a := fresh("A")
	h.p.Play(ctx, guildID, a, false)
	h.p.Play(ctx, guildID, fresh("B"), false)
	h.transport.finish(nil)
	waitFor(t, "B", func() bool { return len(h.transport.startCalls()) == 2 })

	prev, err := h.p.Previous(ctx, guildID)
	if err != nil || prev != a {
		t.Fatalf("Previous = %v, %v", prev, err)
	}
	settle()
	if h.q.Current() != a {
		t.Fatalf("current = %s", h.q.Current().Title)
	}
	if p := h.q.Pending(); len(p) != 1 || p[0].Title != "B" {
		t.Fatalf("B should be back at the head, pending = %v", p)
	}
	if got := len(h.transport.startCalls()); got != 3 {
		t.Fatalf("starts = %d", got)
	}
}

func TestPreviousWithoutHistory(t *testing.T) {
	h := newHarness(t)
	if _, err := h.p.Previous(context.Background(), guildID); !errors.Is(err, player.ErrNoHistory) {
		t.Fatalf("err = %v", err)
	}
}

func TestSkip(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	if _, err := h.p.Skip(ctx, guildID); !errors.Is(err, player.ErrNotPlaying) {
		t.Fatalf("skip while idle: %v", err)
	}

	h.p.Play(ctx, guildID, fresh("A"), false)
	h.p.Play(ctx, guildID, fresh("B"), false)
	h.q.Vote("u1")

	skipped, err := h.p.Skip(ctx, guildID)
	if err != nil || skipped.Title != "A" {
		t.Fatalf("Skip = %v, %v", skipped, err)
	}
	waitFor(t, "B", func() bool { return h.q.Current() != nil && h.q.Current().Title == "B" })
	if h.q.Votes() != 0 {
		t.Fatalf("votes should reset on advance")
	}
}

func TestSkipTo(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.p.Play(ctx, guildID, fresh("A"), false)
	h.q.AddPlaylist([]*track.Track{fresh("B"), fresh("C"), fresh("D")})

	if _, err := h.p.SkipTo(ctx, guildID, 5); !errors.Is(err, player.ErrOutOfRange) {
		t.Fatalf("out of range: %v", err)
	}
	target, err := h.p.SkipTo(ctx, guildID, 2)
	if err != nil || target.Title != "D" {
		t.Fatalf("SkipTo = %v, %v", target, err)
	}
	waitFor(t, "D", func() bool { return h.q.Current() != nil && h.q.Current().Title == "D" })

	var hist []string
	for _, tr := range h.q.History() {
		hist = append(hist, tr.Title)
	}
	if !slices.Equal(hist, []string{"B", "C", "A"}) {
		t.Fatalf("history = %v", hist)
	}
}

func TestPlayAll(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	res, err := h.p.PlayAll(ctx, guildID, []*track.Track{fresh("A"), fresh("B"), fresh("C")})
	if err != nil || res.Status != player.StatusPlaying || res.Track.Title != "A" {
		t.Fatalf("PlayAll = %+v, %v", res, err)
	}
	if h.q.Len() != 2 {
		t.Fatalf("pending = %d", h.q.Len())
	}
	res, _ = h.p.PlayAll(ctx, guildID, []*track.Track{fresh("D"), fresh("E")})
	if res.Status != player.StatusAdded || res.Position != 3 {
		t.Fatalf("second PlayAll = %+v", res)
	}
}

func TestNotConnected(t *testing.T) {
	reg := queue.NewRegistry()
	p := player.New(reg, &fakeTransports{byGuild: map[string]*fakeTransport{}}, &fakeResolver{}, &fakeNotifier{})
	defer p.Close()

	_, err := p.Play(context.Background(), guildID, fresh("A"), false)
	if !errors.Is(err, player.ErrNotConnected) {
		t.Fatalf("err = %v", err)
	}
	if reg.Get(guildID).Current() != nil {
		t.Fatalf("a track that never started must not stay current")
	}
}

func TestPauseResumeAndVolume(t *testing.T) {
	h := newHarness(t)
	if err := h.p.Pause(guildID); !errors.Is(err, player.ErrNotPlaying) {
		t.Fatalf("pause while idle: %v", err)
	}
	h.p.Play(context.Background(), guildID, fresh("A"), false)

	if err := h.p.Pause(guildID); err != nil || !h.p.IsPaused(guildID) {
		t.Fatalf("Pause: %v", err)
	}
	if err := h.p.Resume(guildID); err != nil || !h.p.IsPlaying(guildID) {
		t.Fatalf("Resume: %v", err)
	}
	if v := h.p.SetVolume(guildID, 150); v != 150 {
		t.Fatalf("SetVolume = %d", v)
	}
	h.transport.mu.Lock()
	vol := h.transport.volume
	h.transport.mu.Unlock()
	if vol != 1.5 {
		t.Fatalf("transport volume = %v", vol)
	}
}

func TestCanceledCallerDoesNotMutate(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := h.p.Play(ctx, guildID, fresh("A"), false); err == nil {
		t.Fatalf("expected context error")
	}
	settle()
	if h.q.Current() != nil || len(h.transport.startCalls()) != 0 {
		t.Fatalf("canceled request must leave the queue untouched")
	}
}

func TestStats(t *testing.T) {
	h := newHarness(t)
	h.p.Play(context.Background(), guildID, fresh("A"), false)
	time.Sleep(10 * time.Millisecond)
	h.transport.finish(nil)
	waitFor(t, "idle", func() bool { return h.q.Current() == nil })
	s := h.p.Stats()
	if s.SongsPlayed() != 1 || s.Playtime() <= 0 {
		t.Fatalf("stats = %d songs, %v", s.SongsPlayed(), s.Playtime())
	}
}

func TestQueuedTrackRefreshesBeforePlaying(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.p.Play(ctx, guildID, fresh("A"), false)
	h.p.Play(ctx, guildID, fresh("B"), false)

	h.transport.finish(nil)

	waitFor(t, "B to start", func() bool { return len(h.transport.startCalls()) == 2 })
	if calls := h.resolver.callList(); !slices.Equal(calls, []string{"https://example.com/B"}) {
		t.Fatalf("a queued track must be refreshed exactly once, calls = %v", calls)
	}
	if got := h.transport.startCalls()[1].url; got != "fresh:https://example.com/B" {
		t.Fatalf("B started with %q, want the refreshed url", got)
	}
}

func TestCommandsDoNotWaitForRefresh(t *testing.T) {
	tests := []struct {
		name string
		call func(h *harness) error
	}{
		{"skip", func(h *harness) error {
			_, err := h.p.Skip(context.Background(), guildID)
			return err
		}},
		{"stop", func(h *harness) error { return h.p.Stop(context.Background(), guildID) }},
		{"skipto", func(h *harness) error {
			_, err := h.p.SkipTo(context.Background(), guildID, 0)
			return err
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.p.Play(context.Background(), guildID, fresh("A"), false)
			h.q.Add(stale("B"))
			h.q.Add(fresh("C"))
			h.resolver.gate = make(chan struct{})
			defer close(h.resolver.gate)

			h.transport.finish(nil)
			waitFor(t, "refresh to begin", func() bool { return len(h.resolver.callList()) == 1 })

			done := make(chan error, 1)
			go func() { done <- tt.call(h) }()
			select {
			case err := <-done:
				if err != nil {
					t.Fatalf("%s: %v", tt.name, err)
				}
			case <-time.After(500 * time.Millisecond):
				t.Fatalf("%s blocked behind the stream refresh", tt.name)
			}
			settle()
			for _, s := range h.transport.startCalls() {
				if s.url == "fresh:https://example.com/B" {
					t.Fatalf("B must not start after %s", tt.name)
				}
			}
		})
	}
}

func TestSkipDuringRefreshMovesOn(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.p.Play(ctx, guildID, fresh("A"), false)
	h.q.Add(stale("B"))
	h.q.Add(stale("C"))
	h.resolver.gate = make(chan struct{})

	h.transport.finish(nil)
	waitFor(t, "refresh of B", func() bool { return len(h.resolver.callList()) == 1 })

	skipped, err := h.p.Skip(ctx, guildID)
	if err != nil || skipped.Title != "B" {
		t.Fatalf("Skip = %v, %v", skipped, err)
	}
	waitFor(t, "refresh of C", func() bool { return len(h.resolver.callList()) == 2 })
	close(h.resolver.gate)

	waitFor(t, "C to start", func() bool { return len(h.transport.startCalls()) == 2 })
	if got := h.transport.startCalls()[1].url; got != "fresh:https://example.com/C" {
		t.Fatalf("second start = %q", got)
	}
	waitFor(t, "now playing C", func() bool {
		now, _ := h.notifier.snapshot()
		return slices.Equal(now, []string{"C"})
	})
}

func TestStopDuringStartRefresh(t *testing.T) {
	tests := []struct {
		name  string
		setup func(h *harness)
		call  func(h *harness) error
		want  error
	}{
		{
			name: "play",
			call: func(h *harness) error {
				res, err := h.p.Play(context.Background(), guildID, stale("A"), false)
				if err == nil && res.Status != player.StatusStopped {
					return fmt.Errorf("status = %s", res.Status)
				}
				return err
			},
		},
		{
			name: "playall",
			call: func(h *harness) error {
				res, err := h.p.PlayAll(context.Background(), guildID, []*track.Track{stale("A"), fresh("B")})
				if err == nil && res.Status != player.StatusStopped {
					return fmt.Errorf("status = %s", res.Status)
				}
				return err
			},
		},
		{
			name:  "previous",
			setup: playThenAdvance,
			call: func(h *harness) error {
				_, err := h.p.Previous(context.Background(), guildID)
				return err
			},
			want: player.ErrNotPlaying,
		},
		{
			name:  "replay",
			setup: playThenAdvance,
			call: func(h *harness) error {
				_, err := h.p.Replay(context.Background(), guildID)
				return err
			},
			want: player.ErrNotPlaying,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			if tt.setup != nil {
				tt.setup(h)
			}
			before := len(h.resolver.callList())
			h.resolver.gate = make(chan struct{})
			defer close(h.resolver.gate)

			done := make(chan error, 1)
			go func() { done <- tt.call(h) }()
			waitFor(t, "refresh to begin", func() bool { return len(h.resolver.callList()) == before+1 })

			if err := h.p.Stop(context.Background(), guildID); err != nil {
				t.Fatalf("Stop: %v", err)
			}
			select {
			case err := <-done:
				if !errors.Is(err, tt.want) {
					t.Fatalf("err = %v, want %v", err, tt.want)
				}
			case <-time.After(time.Second):
				t.Fatalf("%s did not return after stop", tt.name)
			}
			if h.q.Current() != nil || h.transport.IsPlaying() {
				t.Fatalf("nothing should play after stop")
			}
		})
	}
}

// playThenAdvance leaves B playing with A in history.
func playThenAdvance(h *harness) {
	h.p.Play(context.Background(), guildID, fresh("A"), false)
	h.q.Add(fresh("B"))
	h.transport.finish(nil)
	for i := 0; i < 200 && len(h.transport.startCalls()) < 2; i++ {
		time.Sleep(5 * time.Millisecond)
	}
}
