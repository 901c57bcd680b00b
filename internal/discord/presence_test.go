package discord

import (
	"testing"

	"github.com/keshon/cord-titan/internal/music/player"
)

func TestPresenceFormatsCounters(t *testing.T) {
	stats := player.NewStats()
	stats.SongStarted()
	stats.SongStarted()

	pick := 0
	p := &Presence{dg: newStateSession(t), stats: stats, intn: func(int) int { return pick }}

	tests := []struct {
		index int
		want  string
	}{
		{0, "/help for commands"},
		{1, "in 1 servers"},
		{2, "2 songs played"},
	}
	for _, tt := range tests {
		pick = tt.index
		data := p.next()
		if got := data.Activities[0].Name; got != tt.want {
			t.Errorf("status %d = %q, want %q", tt.index, got, tt.want)
		}
		if data.Status == "" {
			t.Errorf("status %d has no online status", tt.index)
		}
	}
}
