package player

import (
	"sync/atomic"
	"time"
)

// Stats are process-wide playback counters.
type Stats struct {
	startedAt    time.Time
	songsPlayed  atomic.Int64
	commandsUsed atomic.Int64
	playtime     atomic.Int64 // nanoseconds
}

func NewStats() *Stats {
	return &Stats{startedAt: time.Now()}
}

func (s *Stats) SongStarted() { s.songsPlayed.Add(1) }

func (s *Stats) CommandUsed() { s.commandsUsed.Add(1) }

func (s *Stats) AddPlaytime(d time.Duration) {
	if d > 0 {
		s.playtime.Add(int64(d))
	}
}

func (s *Stats) SongsPlayed() int64 { return s.songsPlayed.Load() }

func (s *Stats) CommandsUsed() int64 { return s.commandsUsed.Load() }

func (s *Stats) Playtime() time.Duration { return time.Duration(s.playtime.Load()) }

func (s *Stats) Uptime() time.Duration { return time.Since(s.startedAt) }
