// Package player drives playback for every guild. Each guild has one inbox
// goroutine; transport completions and playback commands are processed there
// one at a time, so a guild never has two playback sessions in flight.
package player

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/keshon/cord-titan/internal/music/filter"
	"github.com/keshon/cord-titan/internal/music/queue"
	"github.com/keshon/cord-titan/internal/music/track"
)

type Status string

const (
	StatusPlaying Status = "Now Playing"
	StatusAdded   Status = "Added to Queue"
	StatusStopped Status = "Playback Stopped"
	StatusPaused  Status = "Playback Paused"
	StatusResumed Status = "Playback Resumed"
	StatusError   Status = "Error"
)

func (status Status) StringEmoji() string {
	m := map[Status]string{
		StatusPlaying: "🎵",
		StatusAdded:   "✅",
		StatusStopped: "⏹️",
		StatusPaused:  "⏸️",
		StatusResumed: "▶️",
		StatusError:   "❌",
	}
	return m[status]
}

var (
	ErrNotPlaying   = errors.New("nothing is playing")
	ErrNoHistory    = errors.New("no previous track")
	ErrOutOfRange   = errors.New("position out of range")
	ErrNotConnected = errors.New("not connected to a voice channel")
	ErrReresolve    = errors.New("could not refresh the stream")

	// errSuperseded means the queue moved on while a stream was being refreshed.
	errSuperseded = errors.New("track is no longer current")
)

// Transport plays a single stream and reports its end exactly once.
type Transport interface {
	Start(streamURL string, f filter.Name, onComplete func(error)) error
	Stop()
	Pause() bool
	Resume() bool
	IsPlaying() bool
	IsPaused() bool
	SetVolume(fraction float64)
}

// Transports finds the transport of a guild's voice connection.
type Transports interface {
	Transport(guildID string) (Transport, bool)
}

// Reresolver refreshes the short-lived streaming URL of a track.
type Reresolver interface {
	Reresolve(ctx context.Context, webpageURL string) (string, error)
}

// Notifier reports automatic playback changes to the guild. Calls are best effort.
type Notifier interface {
	NowPlaying(guildID string, t *track.Track)
	Failure(guildID string, t *track.Track, err error)
}

// Result describes what Play did with a track.
type Result struct {
	Status   Status
	Track    *track.Track
	Position int // 1-based pending position when queued
}

// Player coordinates queues with their voice transports.
type Player struct {
	queues     *queue.Registry
	transports Transports
	resolver   Reresolver
	notifier   Notifier
	stats      *Stats
	timeout    time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	guilds map[string]*guild
}

// Option configures a Player.
type Option func(*Player)

// WithReresolveTimeout bounds every stream refresh.
func WithReresolveTimeout(d time.Duration) Option {
	return func(p *Player) { p.timeout = d }
}

// WithStats shares a stats collector.
func WithStats(s *Stats) Option {
	return func(p *Player) { p.stats = s }
}

// New returns a Player. Close stops all guild loops.
func New(queues *queue.Registry, transports Transports, resolver Reresolver, notifier Notifier, opts ...Option) *Player {
	ctx, cancel := context.WithCancel(context.Background())
	p := &Player{
		queues:     queues,
		transports: transports,
		resolver:   resolver,
		notifier:   notifier,
		timeout:    30 * time.Second,
		ctx:        ctx,
		cancel:     cancel,
		guilds:     make(map[string]*guild),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.stats == nil {
		p.stats = NewStats()
	}
	return p
}

// Close stops the guild loops. Transports are left to their owner.
func (p *Player) Close() {
	p.cancel()
}

func (p *Player) Stats() *Stats { return p.stats }

func (p *Player) Queues() *queue.Registry { return p.queues }

// Play starts t when the guild is idle, otherwise queues it. With next set
// the track jumps to the head of the queue. A start that loses to /stop while
// its stream is refreshed reports StatusStopped.
func (p *Player) Play(ctx context.Context, guildID string, t *track.Track, next bool) (Result, error) {
	var (
		res Result
		r   *refresh
	)
	err := p.exec(ctx, guildID, func(g *guild, q *queue.Queue) error {
		if q.Current() == nil {
			q.Start(t)
			res = Result{Status: StatusPlaying, Track: t}
			var err error
			r, err = p.launch(g, q, t)
			return err
		}
		if next {
			q.AddNext(t)
			res = Result{Status: StatusAdded, Track: t, Position: 1}
		} else {
			q.Add(t)
			res = Result{Status: StatusAdded, Track: t, Position: q.Len()}
		}
		return nil
	})
	if err != nil || r == nil {
		return res, err
	}
	return p.settlePlay(ctx, guildID, r, res)
}

// PlayAll queues tracks in order and starts the first one if the guild is idle.
func (p *Player) PlayAll(ctx context.Context, guildID string, tracks []*track.Track) (Result, error) {
	if len(tracks) == 0 {
		return Result{}, nil
	}
	var (
		res Result
		r   *refresh
	)
	err := p.exec(ctx, guildID, func(g *guild, q *queue.Queue) error {
		if q.Current() != nil {
			q.AddPlaylist(tracks)
			res = Result{Status: StatusAdded, Track: tracks[0], Position: q.Len() - len(tracks) + 1}
			return nil
		}
		first := tracks[0]
		q.AddPlaylist(tracks[1:])
		q.Start(first)
		res = Result{Status: StatusPlaying, Track: first}
		var err error
		r, err = p.launch(g, q, first)
		return err
	})
	if err != nil || r == nil {
		return res, err
	}
	return p.settlePlay(ctx, guildID, r, res)
}

func (p *Player) settlePlay(ctx context.Context, guildID string, r *refresh, res Result) (Result, error) {
	err := p.await(ctx, guildID, r)
	if errors.Is(err, errSuperseded) {
		return Result{Status: StatusStopped, Track: res.Track}, nil
	}
	if err != nil {
		return Result{}, err
	}
	return res, nil
}

// Skip ends the current track; the completion advances the queue. A track
// still waiting for its stream is dropped and the queue advances at once.
func (p *Player) Skip(ctx context.Context, guildID string) (*track.Track, error) {
	var skipped *track.Track
	err := p.exec(ctx, guildID, func(g *guild, q *queue.Queue) error {
		skipped = q.Current()
		if skipped == nil {
			return ErrNotPlaying
		}
		if g.session == uuid.Nil {
			if !g.cancelRefresh() {
				return ErrNotPlaying
			}
			p.advance(g, q)
			return nil
		}
		tr, ok := p.transports.Transport(guildID)
		if !ok {
			return ErrNotConnected
		}
		tr.Stop()
		return nil
	})
	return skipped, err
}

// SkipTo drops the queue entries ahead of index and plays the entry at index next.
func (p *Player) SkipTo(ctx context.Context, guildID string, index int) (*track.Track, error) {
	var target *track.Track
	err := p.exec(ctx, guildID, func(g *guild, q *queue.Queue) error {
		head, ok := q.SkipTo(index)
		if !ok {
			return ErrOutOfRange
		}
		target = head
		if g.session == uuid.Nil {
			g.cancelRefresh()
			p.advance(g, q)
			return nil
		}
		if tr, ok := p.transports.Transport(guildID); ok {
			tr.Stop()
		}
		return nil
	})
	return target, err
}

// Previous replays the last history entry, pushing the current track back
// to the head of the queue.
func (p *Player) Previous(ctx context.Context, guildID string) (*track.Track, error) {
	var (
		prev *track.Track
		r    *refresh
	)
	err := p.exec(ctx, guildID, func(g *guild, q *queue.Queue) error {
		prev = q.Previous()
		if prev == nil {
			return ErrNoHistory
		}
		var err error
		r, err = p.restart(g, q, prev)
		return err
	})
	if err != nil {
		return prev, err
	}
	return prev, p.awaitRestart(ctx, guildID, r)
}

// Replay starts the current track again from the beginning.
func (p *Player) Replay(ctx context.Context, guildID string) (*track.Track, error) {
	var (
		cur *track.Track
		r   *refresh
	)
	err := p.exec(ctx, guildID, func(g *guild, q *queue.Queue) error {
		cur = q.Current()
		if cur == nil {
			return ErrNotPlaying
		}
		var err error
		r, err = p.restart(g, q, cur)
		return err
	})
	if err != nil {
		return cur, err
	}
	return cur, p.awaitRestart(ctx, guildID, r)
}

// ApplyFilter stores f as the guild preference and restarts the current
// track through it. The replaced session does not advance the queue.
func (p *Player) ApplyFilter(ctx context.Context, guildID string, f filter.Name) (*track.Track, error) {
	var (
		cur *track.Track
		r   *refresh
	)
	err := p.exec(ctx, guildID, func(g *guild, q *queue.Queue) error {
		q.SetFilter(f)
		cur = q.Current()
		if cur == nil {
			return nil
		}
		cur.SetFilter(f)
		var err error
		r, err = p.restart(g, q, cur)
		return err
	})
	if err != nil || r == nil {
		return cur, err
	}
	return cur, p.awaitRestart(ctx, guildID, r)
}

func (p *Player) awaitRestart(ctx context.Context, guildID string, r *refresh) error {
	err := p.await(ctx, guildID, r)
	if errors.Is(err, errSuperseded) {
		return ErrNotPlaying
	}
	return err
}

// Stop clears the queue, cancels a pending stream refresh and ends playback.
// The voice connection stays.
func (p *Player) Stop(ctx context.Context, guildID string) error {
	p.queues.Get(guildID).Clear()
	p.guild(guildID).cancelRefresh()
	return p.exec(ctx, guildID, func(g *guild, _ *queue.Queue) error {
		p.endSession(g)
		if tr, ok := p.transports.Transport(guildID); ok {
			tr.Stop()
		}
		return nil
	})
}

func (p *Player) Pause(guildID string) error {
	tr, ok := p.transports.Transport(guildID)
	if !ok {
		return ErrNotConnected
	}
	if !tr.Pause() {
		return ErrNotPlaying
	}
	return nil
}

func (p *Player) Resume(guildID string) error {
	tr, ok := p.transports.Transport(guildID)
	if !ok {
		return ErrNotConnected
	}
	if !tr.Resume() {
		return ErrNotPlaying
	}
	return nil
}

// SetVolume stores the volume and applies it to the live stream.
func (p *Player) SetVolume(guildID string, percent int) int {
	v := p.queues.Get(guildID).SetVolume(percent)
	if tr, ok := p.transports.Transport(guildID); ok {
		tr.SetVolume(float64(v) / 100)
	}
	return v
}

func (p *Player) IsPlaying(guildID string) bool {
	tr, ok := p.transports.Transport(guildID)
	return ok && tr.IsPlaying()
}

func (p *Player) IsPaused(guildID string) bool {
	tr, ok := p.transports.Transport(guildID)
	return ok && tr.IsPaused()
}

// Completed is the transport completion entry point. Completions of sessions
// that were replaced or stopped are ignored.
func (p *Player) Completed(guildID string, session uuid.UUID, err error) {
	g := p.guild(guildID)
	// Posted asynchronously: the transport may report from inside a Stop
	// issued by the guild loop itself.
	go g.post(p.ctx, func() {
		if session != g.session {
			log.Debug().Str("component", "player").Str("guild", guildID).Str("session", session.String()).Msg("stale completion ignored")
			return
		}
		p.endSession(g)
		if err != nil {
			log.Warn().Str("component", "player").Str("guild", guildID).Err(err).Msg("playback failed, advancing")
		}
		p.advance(g, p.queues.Get(guildID))
	})
}

// advance moves to the next track and refreshes its stream off the loop.
// A failed start halts the chain until the next command.
func (p *Player) advance(g *guild, q *queue.Queue) {
	prev := q.Current()
	next := q.Next()
	if next == nil {
		log.Info().Str("component", "player").Str("guild", g.id).Msg("queue finished")
		return
	}

	r := p.beginRefresh(g, next)
	go func() {
		streamURL, ferr := p.fetch(r)
		g.post(p.ctx, func() {
			err := p.finishRefresh(g, p.queues.Get(g.id), r, streamURL, ferr)
			switch {
			case errors.Is(err, errSuperseded):
			case err != nil:
				log.Error().Str("component", "player").Str("guild", g.id).Str("track", next.Title).Err(err).Msg("failed to start next track")
				p.notifier.Failure(g.id, next, err)
			case next != prev:
				p.notifier.NowPlaying(g.id, next)
			}
		})
	}()
}

// restart ends the running session and begins refreshing t.
func (p *Player) restart(g *guild, q *queue.Queue, t *track.Track) (*refresh, error) {
	p.endSession(g)
	tr, ok := p.transports.Transport(g.id)
	if !ok {
		q.Abandon(t)
		return nil, ErrNotConnected
	}
	tr.Stop()
	return p.beginRefresh(g, t), nil
}

// launch starts t at once while it still carries the URL it was resolved
// with. Otherwise it begins a refresh the caller has to await.
func (p *Player) launch(g *guild, q *queue.Queue, t *track.Track) (*refresh, error) {
	if _, ok := p.transports.Transport(g.id); !ok {
		q.Abandon(t)
		return nil, ErrNotConnected
	}
	streamURL := t.TakeStreamURL()
	if streamURL == "" {
		return p.beginRefresh(g, t), nil
	}
	if err := p.start(g, q, t, streamURL); err != nil {
		q.Abandon(t)
		return nil, err
	}
	return nil, nil
}

// refresh is a stream refresh running outside the guild loop.
type refresh struct {
	track  *track.Track
	ctx    context.Context
	cancel context.CancelFunc
}

// beginRefresh registers a refresh of t, replacing any earlier one.
func (p *Player) beginRefresh(g *guild, t *track.Track) *refresh {
	ctx, cancel := context.WithTimeout(p.ctx, p.timeout)
	r := &refresh{track: t, ctx: ctx, cancel: cancel}
	g.mu.Lock()
	if g.pending != nil {
		g.pending.cancel()
	}
	g.pending = r
	g.mu.Unlock()
	return r
}

func (p *Player) fetch(r *refresh) (string, error) {
	return p.resolver.Reresolve(r.ctx, r.track.WebpageURL)
}

// await fetches r and starts its track on the guild loop. Canceling ctx
// cancels the refresh.
func (p *Player) await(ctx context.Context, guildID string, r *refresh) error {
	stop := context.AfterFunc(ctx, r.cancel)
	streamURL, ferr := p.fetch(r)
	stop()
	// p.ctx so a refresh that was fetched is always settled on the loop.
	return p.exec(p.ctx, guildID, func(g *guild, q *queue.Queue) error {
		return p.finishRefresh(g, q, r, streamURL, ferr)
	})
}

// finishRefresh runs on the guild loop once r's fetch returned. It starts
// the track only if r is still pending and its track is still current.
func (p *Player) finishRefresh(g *guild, q *queue.Queue, r *refresh, streamURL string, err error) error {
	if !g.take(r) || q.Current() != r.track {
		log.Info().Str("component", "player").Str("guild", g.id).Str("track", r.track.Title).Msg("queue changed during refresh, not starting")
		return errSuperseded
	}
	if err != nil {
		q.Abandon(r.track)
		return fmt.Errorf("%w: %w", ErrReresolve, err)
	}
	if err := p.start(g, q, r.track, streamURL); err != nil {
		q.Abandon(r.track)
		return err
	}
	return nil
}

// start opens a new session playing streamURL for t.
func (p *Player) start(g *guild, q *queue.Queue, t *track.Track, streamURL string) error {
	tr, ok := p.transports.Transport(g.id)
	if !ok {
		return ErrNotConnected
	}

	session := uuid.New()
	guildID := g.id
	tr.SetVolume(float64(q.Volume()) / 100)
	if err := tr.Start(streamURL, t.Filter(), func(err error) {
		p.Completed(guildID, session, err)
	}); err != nil {
		return fmt.Errorf("start playback: %w", err)
	}

	g.session = session
	g.startedAt = time.Now()
	p.stats.SongStarted()
	log.Info().Str("component", "player").Str("guild", g.id).Str("session", session.String()).Str("track", t.Title).Msg("now playing")
	return nil
}

func (p *Player) endSession(g *guild) {
	if g.session == uuid.Nil {
		return
	}
	p.stats.AddPlaytime(time.Since(g.startedAt))
	g.session = uuid.Nil
}

// exec runs fn on the guild loop and waits for it.
func (p *Player) exec(ctx context.Context, guildID string, fn func(*guild, *queue.Queue) error) error {
	g := p.guild(guildID)
	q := p.queues.Get(guildID)
	done := make(chan error, 1)

	ok := g.post(ctx, func() {
		if ctx.Err() != nil {
			done <- ctx.Err()
			return
		}
		q.Touch()
		done <- fn(g, q)
	})
	if !ok {
		if err := ctx.Err(); err != nil {
			return err
		}
		return p.ctx.Err()
	}

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-p.ctx.Done():
		return p.ctx.Err()
	}
}

func (p *Player) guild(id string) *guild {
	p.mu.Lock()
	defer p.mu.Unlock()
	if g, ok := p.guilds[id]; ok {
		return g
	}
	g := &guild{id: id, inbox: make(chan func(), 64), closed: p.ctx.Done()}
	p.guilds[id] = g
	go g.run()
	return g
}

// guild is the per-guild event loop. session and startedAt are only touched
// from inside run; pending is guarded by mu so Stop can cancel it from outside.
type guild struct {
	id        string
	inbox     chan func()
	closed    <-chan struct{}
	session   uuid.UUID
	startedAt time.Time

	mu      sync.Mutex
	pending *refresh
}

// cancelRefresh cancels the pending refresh and reports whether there was one.
func (g *guild) cancelRefresh() bool {
	g.mu.Lock()
	r := g.pending
	g.pending = nil
	g.mu.Unlock()
	if r == nil {
		return false
	}
	r.cancel()
	return true
}

// take claims r if it is still the pending refresh.
func (g *guild) take(r *refresh) bool {
	g.mu.Lock()
	ok := g.pending == r
	if ok {
		g.pending = nil
	}
	g.mu.Unlock()
	r.cancel()
	return ok
}

func (g *guild) run() {
	for {
		select {
		case <-g.closed:
			return
		case ev := <-g.inbox:
			ev()
		}
	}
}

func (g *guild) post(ctx context.Context, ev func()) bool {
	select {
	case g.inbox <- ev:
		return true
	case <-ctx.Done():
		return false
	case <-g.closed:
		return false
	}
}
