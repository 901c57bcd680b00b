package queue_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/keshon/cord-titan/internal/music/queue"
	"github.com/keshon/cord-titan/internal/music/track"
)

func mk(title string) *track.Track {
	return track.New(title, "https://example.com/"+title, "", 3*time.Minute, track.Requester{ID: "u1"}, "")
}

func titles(ts []*track.Track) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.Title
	}
	return out
}

func title(t *track.Track) string {
	if t == nil {
		return "<nil>"
	}
	return t.Title
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestNextFIFOWithHeadInserts(t *testing.T) {
	tests := []struct {
		name string
		ops  func(q *queue.Queue)
		want []string
	}{
		{
			name: "plain adds",
			ops: func(q *queue.Queue) {
				q.Add(mk("A"))
				q.Add(mk("B"))
				q.Add(mk("C"))
			},
			want: []string{"A", "B", "C"},
		},
		{
			name: "add next jumps ahead",
			ops: func(q *queue.Queue) {
				q.Add(mk("A"))
				q.Add(mk("B"))
				q.AddNext(mk("N"))
			},
			want: []string{"N", "A", "B"},
		},
		{
			name: "latest add next wins the head",
			ops: func(q *queue.Queue) {
				q.Add(mk("A"))
				q.AddNext(mk("N1"))
				q.AddNext(mk("N2"))
			},
			want: []string{"N2", "N1", "A"},
		},
		{
			name: "playlist keeps order",
			ops: func(q *queue.Queue) {
				q.Add(mk("A"))
				q.AddPlaylist([]*track.Track{mk("P1"), mk("P2")})
			},
			want: []string{"A", "P1", "P2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := queue.New()
			tt.ops(q)
			var got []string
			for range tt.want {
				got = append(got, title(q.Next()))
			}
			if !equal(got, tt.want) {
				t.Fatalf("order = %v, want %v", got, tt.want)
			}
			if q.Next() != nil || q.Current() != nil {
				t.Fatalf("expected queue to be exhausted")
			}
		})
	}
}

func TestNextEmptyQueue(t *testing.T) {
	q := queue.New()
	if got := q.Next(); got != nil {
		t.Fatalf("Next on empty queue = %v", got)
	}
	if q.Current() != nil {
		t.Fatalf("current should be nil")
	}
}

func TestThreeTracksInOrder(t *testing.T) {
	q := queue.New()
	q.AddPlaylist([]*track.Track{mk("A"), mk("B"), mk("C")})
	for _, want := range []string{"A", "B", "C"} {
		if got := title(q.Next()); got != want {
			t.Fatalf("Next = %s, want %s", got, want)
		}
	}
	if q.Current() == nil {
		t.Fatalf("current should stay on C until the next advance")
	}
	if q.Next() != nil || q.Current() != nil {
		t.Fatalf("loop off: current must be nil once pending is exhausted")
	}
}

func TestNextPreviousRoundTrip(t *testing.T) {
	q := queue.New()
	a, b, c := mk("A"), mk("B"), mk("C")
	q.AddPlaylist([]*track.Track{a, b, c})
	q.Next()
	q.Vote("u1")

	before := titles(q.Pending())
	prior := q.Current()

	q.Next()
	got := q.Previous()

	if got != prior || q.Current() != prior {
		t.Fatalf("previous restored %s, want %s", title(got), title(prior))
	}
	if after := titles(q.Pending()); !equal(after, before) {
		t.Fatalf("pending = %v, want %v", after, before)
	}
	if q.Votes() != 0 {
		t.Fatalf("votes should be cleared by Next")
	}
}

func TestPreviousEmptyHistory(t *testing.T) {
	q := queue.New()
	q.Add(mk("A"))
	if q.Previous() != nil {
		t.Fatalf("expected nil with no history")
	}
	if len(q.Pending()) != 1 {
		t.Fatalf("pending must be untouched")
	}
}

func TestLoopQueueCycles(t *testing.T) {
	const n = 4
	q := queue.New()
	q.SetLoop(queue.LoopQueue)
	var first *track.Track
	for i := 0; i < n; i++ {
		tr := mk(fmt.Sprintf("T%d", i))
		if i == 0 {
			first = tr
		}
		q.Add(tr)
	}
	for i := 0; i < n; i++ {
		q.Next()
	}
	if got := len(q.Snapshot()); got != n {
		t.Fatalf("snapshot has %d entries, want %d", got, n)
	}
	if got := q.Next(); got != first {
		t.Fatalf("after a full cycle got %s, want %s", title(got), title(first))
	}
	if got := len(q.Snapshot()); got != n {
		t.Fatalf("snapshot grew to %d across cycles", got)
	}
}

func TestLoopQueueRecordsOutgoingCurrent(t *testing.T) {
	q := queue.New()
	x, a := mk("X"), mk("A")
	q.Start(x)
	q.Add(a)
	q.SetLoop(queue.LoopQueue)

	if got := q.Next(); got != a {
		t.Fatalf("Next = %s, want A", title(got))
	}
	if got := titles(q.Snapshot()); !equal(got, []string{"X", "A"}) {
		t.Fatalf("snapshot = %v, want [X A]", got)
	}
	if got := q.Next(); got != x {
		t.Fatalf("refill should start with X, got %s", title(got))
	}
	if got := titles(q.Pending()); !equal(got, []string{"A"}) {
		t.Fatalf("pending after refill = %v, want [A]", got)
	}
}

func TestLoopQueueWithoutSeedingSnapshot(t *testing.T) {
	// X was started before queue loop existed and never seeded.
	q := queue.New()
	q.SetLoop(queue.LoopQueue)
	x, a := mk("X"), mk("A")
	q.Start(x)
	q.Add(a)

	q.Next()
	if got := titles(q.Snapshot()); !equal(got, []string{"X", "A"}) {
		t.Fatalf("snapshot = %v, want [X A]", got)
	}
}

func TestLeavingQueueLoopDropsSnapshot(t *testing.T) {
	q := queue.New()
	q.Add(mk("A"))
	q.SetLoop(queue.LoopQueue)
	if len(q.Snapshot()) != 1 {
		t.Fatalf("entering queue loop should seed the snapshot")
	}
	q.SetLoop(queue.LoopOff)
	if len(q.Snapshot()) != 0 {
		t.Fatalf("snapshot should be empty after leaving queue loop")
	}
}

func TestLoopSongRepeats(t *testing.T) {
	q := queue.New()
	a := mk("A")
	q.Add(a)
	q.Add(mk("B"))
	q.Next()
	q.SetLoop(queue.LoopSong)
	for i := 0; i < 10; i++ {
		if got := q.Next(); got != a {
			t.Fatalf("iteration %d: got %s, want A", i, title(got))
		}
	}
	if len(q.History()) != 0 {
		t.Fatalf("song loop must not grow history")
	}
	q.SetLoop(queue.LoopOff)
	if got := title(q.Next()); got != "B" {
		t.Fatalf("after leaving song loop got %s, want B", got)
	}
}

func TestLoopSongWithoutCurrent(t *testing.T) {
	q := queue.New()
	q.SetLoop(queue.LoopSong)
	q.Add(mk("A"))
	if got := title(q.Next()); got != "A" {
		t.Fatalf("song loop with no current should take the head, got %s", got)
	}
}

func TestShuffleUsesRandomIndex(t *testing.T) {
	picks := []int{2, 0, 0}
	q := queue.New(queue.WithRand(func(n int) int {
		p := picks[0]
		picks = picks[1:]
		return p
	}))
	q.AddPlaylist([]*track.Track{mk("A"), mk("B"), mk("C")})
	if !q.ToggleShuffle() {
		t.Fatalf("shuffle should be on")
	}
	want := []string{"C", "A", "B"}
	for _, w := range want {
		if got := title(q.Next()); got != w {
			t.Fatalf("got %s, want %s", got, w)
		}
	}
}

func TestBoundsChecks(t *testing.T) {
	q := queue.New()
	q.AddPlaylist([]*track.Track{mk("A"), mk("B"), mk("C")})

	for _, i := range []int{-1, 3, 100} {
		if tr, ok := q.Remove(i); ok || tr != nil {
			t.Errorf("Remove(%d) should fail", i)
		}
		if _, ok := q.SkipTo(i); ok {
			t.Errorf("SkipTo(%d) should fail", i)
		}
		if _, ok := q.Move(i, 0); ok {
			t.Errorf("Move(%d, 0) should fail", i)
		}
		if _, ok := q.Move(0, i); ok {
			t.Errorf("Move(0, %d) should fail", i)
		}
	}
	if got := titles(q.Pending()); !equal(got, []string{"A", "B", "C"}) {
		t.Fatalf("pending changed after failed edits: %v", got)
	}
}

func TestEdits(t *testing.T) {
	q := queue.New()
	q.AddPlaylist([]*track.Track{mk("A"), mk("B"), mk("C"), mk("D")})

	if tr, ok := q.Remove(1); !ok || tr.Title != "B" {
		t.Fatalf("Remove(1) = %v, %v", title(tr), ok)
	}
	if tr, ok := q.Move(2, 0); !ok || tr.Title != "D" {
		t.Fatalf("Move(2,0) = %v, %v", title(tr), ok)
	}
	if got := titles(q.Pending()); !equal(got, []string{"D", "A", "C"}) {
		t.Fatalf("pending = %v", got)
	}
	head, ok := q.SkipTo(2)
	if !ok || head.Title != "C" {
		t.Fatalf("SkipTo(2) = %v, %v", title(head), ok)
	}
	if got := titles(q.History()); !equal(got, []string{"D", "A"}) {
		t.Fatalf("skipped entries should land in history, got %v", got)
	}
	if got := titles(q.Pending()); !equal(got, []string{"C"}) {
		t.Fatalf("pending = %v", got)
	}
}

func TestHistoryCap(t *testing.T) {
	q := queue.New()
	for i := 0; i < queue.HistoryLimit+2; i++ {
		q.Add(mk(fmt.Sprintf("T%03d", i)))
	}
	for i := 0; i < queue.HistoryLimit+2; i++ {
		q.Next()
	}
	h := q.History()
	if len(h) != queue.HistoryLimit {
		t.Fatalf("history len = %d, want %d", len(h), queue.HistoryLimit)
	}
	// 101 tracks went to history, T000 was evicted.
	if h[0].Title != "T001" || h[len(h)-1].Title != "T100" {
		t.Fatalf("history bounds = %s..%s", h[0].Title, h[len(h)-1].Title)
	}
}

func TestVotesClearedOnNext(t *testing.T) {
	q := queue.New()
	q.Add(mk("A"))
	q.Vote("u1")
	if n, fresh := q.Vote("u2"); n != 2 || !fresh {
		t.Fatalf("Vote = %d, %v", n, fresh)
	}
	if n, fresh := q.Vote("u2"); n != 2 || fresh {
		t.Fatalf("duplicate vote counted: %d, %v", n, fresh)
	}
	q.Next()
	if q.Votes() != 0 {
		t.Fatalf("votes = %d after Next", q.Votes())
	}
}

func TestClearKeepsPreferences(t *testing.T) {
	q := queue.New()
	q.AddPlaylist([]*track.Track{mk("A"), mk("B")})
	q.Next()
	q.SetLoop(queue.LoopQueue)
	q.ToggleShuffle()
	q.SetVolume(120)
	q.Vote("u1")

	q.Clear()

	if q.Current() != nil || q.Len() != 0 || len(q.Snapshot()) != 0 || q.Votes() != 0 {
		t.Fatalf("clear left state behind")
	}
	if q.Loop() != queue.LoopQueue || !q.Shuffle() || q.Volume() != 120 {
		t.Fatalf("clear reset preferences")
	}
}

func TestTotalDuration(t *testing.T) {
	q := queue.New()
	live := track.New("live", "u", "", 0, track.Requester{}, "")
	q.AddPlaylist([]*track.Track{mk("A"), live, mk("B")})
	q.Next()
	if got, want := q.TotalDuration(), 6*time.Minute; got != want {
		t.Fatalf("TotalDuration = %v, want %v", got, want)
	}
}

func TestVolumeClamp(t *testing.T) {
	q := queue.New()
	if got := q.SetVolume(500); got != queue.MaxVolume {
		t.Errorf("SetVolume(500) = %d", got)
	}
	if got := q.SetVolume(-3); got != 0 {
		t.Errorf("SetVolume(-3) = %d", got)
	}
}

func TestAbandon(t *testing.T) {
	q := queue.New()
	a := mk("A")
	q.Add(a)
	q.Next()
	if q.Abandon(mk("other")) {
		t.Fatalf("abandon must ignore a track that is not current")
	}
	if !q.Abandon(a) || q.Current() != nil {
		t.Fatalf("abandon should clear current")
	}
	if got := titles(q.History()); !equal(got, []string{"A"}) {
		t.Fatalf("history = %v", got)
	}
}

func TestLoopModeCycle(t *testing.T) {
	m := queue.LoopOff
	for _, want := range []queue.LoopMode{queue.LoopSong, queue.LoopQueue, queue.LoopOff} {
		m = m.Cycle()
		if m != want {
			t.Fatalf("Cycle = %v, want %v", m, want)
		}
	}
	if _, err := queue.ParseLoopMode("sideways"); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestActivityTracking(t *testing.T) {
	now := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	q := queue.New(queue.WithClock(func() time.Time { return now }))
	if !q.LastActivity().Equal(now) {
		t.Fatalf("LastActivity = %v, want creation time", q.LastActivity())
	}

	now = now.Add(time.Minute)
	q.Start(mk("a"))
	q.Add(mk("b"))
	q.Next()
	if q.PlayCount() != 2 {
		t.Errorf("PlayCount = %d, want 2", q.PlayCount())
	}
	if !q.LastActivity().Equal(now) {
		t.Errorf("LastActivity = %v, want %v", q.LastActivity(), now)
	}

	now = now.Add(time.Hour)
	q.Touch()
	if !q.LastActivity().Equal(now) {
		t.Errorf("Touch did not update activity")
	}
}
