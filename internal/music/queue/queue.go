// Package queue implements the per-guild play queue: pending tracks, history,
// the current track and the loop, shuffle and vote-skip state around them.
//
// Every method takes the queue lock for its whole duration and never blocks
// on I/O, so a transition is always observed either fully applied or not at all.
package queue

import (
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/keshon/cord-titan/internal/music/filter"
	"github.com/keshon/cord-titan/internal/music/track"
)

const (
	HistoryLimit         = 100
	DefaultVolume        = 50
	MaxVolume            = 200
	DefaultSkipThreshold = 0.5
)

// Queue is the playback state of one guild.
type Queue struct {
	mu sync.Mutex

	pending  []*track.Track
	history  []*track.Track
	current  *track.Track
	snapshot []*track.Track

	loop          LoopMode
	shuffle       bool
	volume        int
	filter        filter.Name
	votes         map[string]struct{}
	skipThreshold float64

	playCount    int
	lastActivity time.Time

	textChannelID string
	nowPlaying    messageRef

	intn func(int) int
	now  func() time.Time
}

// Option configures a Queue.
type Option func(*Queue)

// WithRand replaces the random index source used by shuffle.
func WithRand(intn func(n int) int) Option {
	return func(q *Queue) { q.intn = intn }
}

// WithClock replaces the time source used for activity tracking.
func WithClock(now func() time.Time) Option {
	return func(q *Queue) { q.now = now }
}

// WithVolume sets the starting volume.
func WithVolume(v int) Option {
	return func(q *Queue) { q.volume = clampVolume(v) }
}

// New returns an empty queue.
func New(opts ...Option) *Queue {
	q := &Queue{
		volume:        DefaultVolume,
		filter:        filter.Normal,
		votes:         make(map[string]struct{}),
		skipThreshold: DefaultSkipThreshold,
		intn:          rand.IntN,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(q)
	}
	q.lastActivity = q.now()
	return q
}

// Add appends t to the end of the pending list.
func (q *Queue) Add(t *track.Track) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending = append(q.pending, t)
	q.lastActivity = q.now()
}

// AddNext puts t at the head of the pending list.
func (q *Queue) AddNext(t *track.Track) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending = slices.Insert(q.pending, 0, t)
	q.lastActivity = q.now()
}

// AddPlaylist appends tracks keeping their order.
func (q *Queue) AddPlaylist(tracks []*track.Track) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending = append(q.pending, tracks...)
	q.lastActivity = q.now()
}

// Start installs t as the current track of an idle queue. A previous current
// track, if any, goes to history.
func (q *Queue) Start(t *track.Track) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.current != nil && q.current != t {
		q.pushHistory(q.current)
	}
	q.current = t
	if q.loop == LoopQueue {
		q.remember(t)
	}
	q.playCount++
	q.lastActivity = q.now()
}

// Next advances the queue and returns the new current track, or nil when
// nothing is left to play. With song loop the current track is returned
// unchanged.
func (q *Queue) Next() *track.Track {
	q.mu.Lock()
	defer q.mu.Unlock()

	clear(q.votes)
	q.lastActivity = q.now()

	if q.loop == LoopSong && q.current != nil {
		q.playCount++
		return q.current
	}

	if q.current != nil {
		if q.loop == LoopQueue {
			q.remember(q.current)
		}
		q.pushHistory(q.current)
	}

	if len(q.pending) == 0 && q.loop == LoopQueue && len(q.snapshot) > 0 {
		q.pending = slices.Clone(q.snapshot)
	}

	if len(q.pending) == 0 {
		q.current = nil
		return nil
	}

	idx := 0
	if q.shuffle && len(q.pending) > 1 {
		idx = q.intn(len(q.pending))
	}
	t := q.pending[idx]
	q.pending = slices.Delete(q.pending, idx, idx+1)
	q.current = t
	if q.loop == LoopQueue {
		q.remember(t)
	}
	q.playCount++
	return t
}

// Previous restores the most recent history entry as current. The track it
// replaces goes back to the head of the pending list.
func (q *Queue) Previous() *track.Track {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.history) == 0 {
		return nil
	}
	last := len(q.history) - 1
	prev := q.history[last]
	q.history = q.history[:last]

	if q.current != nil {
		q.pending = slices.Insert(q.pending, 0, q.current)
	}
	q.current = prev
	q.lastActivity = q.now()
	return prev
}

// Clear drops pending, snapshot, current and votes. History and the
// loop, shuffle, volume and filter preferences survive.
func (q *Queue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending = nil
	q.snapshot = nil
	q.current = nil
	clear(q.votes)
}

// ClearPending empties the pending list and snapshot but keeps the track
// that is playing.
func (q *Queue) ClearPending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := len(q.pending)
	q.pending = nil
	q.snapshot = nil
	return n
}

// Abandon moves current to history when t is still current. It is used when
// a track could not be started, so current never outlives its playback.
func (q *Queue) Abandon(t *track.Track) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if t == nil || q.current != t {
		return false
	}
	q.pushHistory(t)
	q.current = nil
	return true
}

// Remove deletes the pending entry at index.
func (q *Queue) Remove(index int) (*track.Track, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if index < 0 || index >= len(q.pending) {
		return nil, false
	}
	t := q.pending[index]
	q.pending = slices.Delete(q.pending, index, index+1)
	return t, true
}

// Move relocates the pending entry at from to position to.
func (q *Queue) Move(from, to int) (*track.Track, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := len(q.pending)
	if from < 0 || from >= n || to < 0 || to >= n {
		return nil, false
	}
	t := q.pending[from]
	q.pending = slices.Delete(q.pending, from, from+1)
	q.pending = slices.Insert(q.pending, to, t)
	return t, true
}

// SkipTo drops the pending entries ahead of index into history and returns
// the entry that is now at the head.
func (q *Queue) SkipTo(index int) (*track.Track, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if index < 0 || index >= len(q.pending) {
		return nil, false
	}
	for _, t := range q.pending[:index] {
		q.pushHistory(t)
	}
	q.pending = slices.Delete(q.pending, 0, index)
	return q.pending[0], true
}

// TotalDuration sums pending and current durations. Live tracks count as zero.
func (q *Queue) TotalDuration() time.Duration {
	q.mu.Lock()
	defer q.mu.Unlock()
	total := lo.SumBy(q.pending, func(t *track.Track) time.Duration {
		return max(t.Duration, 0)
	})
	if q.current != nil {
		total += max(q.current.Duration, 0)
	}
	return total
}

// SetLoop changes the loop mode. Entering queue loop seeds the snapshot with
// the current track followed by the pending list; leaving it drops the snapshot.
func (q *Queue) SetLoop(mode LoopMode) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if mode == q.loop {
		return
	}
	if mode == LoopQueue {
		q.snapshot = q.snapshot[:0]
		if q.current != nil {
			q.remember(q.current)
		}
		for _, t := range q.pending {
			q.remember(t)
		}
	} else {
		q.snapshot = nil
	}
	q.loop = mode
}

func (q *Queue) Loop() LoopMode {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.loop
}

// ToggleShuffle flips shuffle and returns the new value.
func (q *Queue) ToggleShuffle() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.shuffle = !q.shuffle
	return q.shuffle
}

func (q *Queue) Shuffle() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.shuffle
}

// SetVolume stores a volume clamped to 0..200 and returns it.
func (q *Queue) SetVolume(v int) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.volume = clampVolume(v)
	return q.volume
}

func (q *Queue) Volume() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.volume
}

// SetFilter sets the filter applied to newly resolved tracks.
func (q *Queue) SetFilter(f filter.Name) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.filter = f
}

func (q *Queue) Filter() filter.Name {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.filter
}

// Vote records a skip vote and returns the number of distinct voters.
func (q *Queue) Vote(userID string) (int, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	_, dup := q.votes[userID]
	q.votes[userID] = struct{}{}
	return len(q.votes), !dup
}

func (q *Queue) Votes() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.votes)
}

func (q *Queue) SkipThreshold() float64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.skipThreshold
}

func (q *Queue) Current() *track.Track {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.current
}

// Pending returns a copy of the pending list.
func (q *Queue) Pending() []*track.Track {
	q.mu.Lock()
	defer q.mu.Unlock()
	return slices.Clone(q.pending)
}

// History returns a copy of the history, oldest first.
func (q *Queue) History() []*track.Track {
	q.mu.Lock()
	defer q.mu.Unlock()
	return slices.Clone(q.history)
}

// Snapshot returns a copy of the queue-loop order.
func (q *Queue) Snapshot() []*track.Track {
	q.mu.Lock()
	defer q.mu.Unlock()
	return slices.Clone(q.snapshot)
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

func (q *Queue) PlayCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.playCount
}

func (q *Queue) LastActivity() time.Time {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.lastActivity
}

// Touch marks the queue as active.
func (q *Queue) Touch() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.lastActivity = q.now()
}

// SetTextChannel records where now-playing updates are posted.
func (q *Queue) SetTextChannel(id string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.textChannelID = id
}

func (q *Queue) TextChannel() string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.textChannelID
}

type messageRef struct{ channelID, messageID string }

// SetNowPlaying stores where the last now-playing message lives. It is only
// used for cosmetic edits and is independent of TextChannel.
func (q *Queue) SetNowPlaying(channelID, messageID string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.nowPlaying = messageRef{channelID, messageID}
}

func (q *Queue) NowPlaying() (channelID, messageID string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.nowPlaying.channelID, q.nowPlaying.messageID
}

func (q *Queue) pushHistory(t *track.Track) {
	q.history = append(q.history, t)
	if over := len(q.history) - HistoryLimit; over > 0 {
		q.history = slices.Delete(q.history, 0, over)
	}
}

// remember adds t to the snapshot once, compared by identity.
func (q *Queue) remember(t *track.Track) {
	if !lo.Contains(q.snapshot, t) {
		q.snapshot = append(q.snapshot, t)
	}
}

func clampVolume(v int) int {
	return min(max(v, 0), MaxVolume)
}
