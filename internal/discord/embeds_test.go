package discord

import (
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/cord-titan/internal/music/filter"
	"github.com/keshon/cord-titan/internal/music/queue"
	"github.com/keshon/cord-titan/internal/music/track"
)

func TestQueueDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "0m 0s"},
		{250 * time.Second, "4m 10s"},
		{65 * time.Minute, "1h 5m"},
	}
	for _, tt := range tests {
		if got := QueueDuration(tt.in); got != tt.want {
			t.Errorf("QueueDuration(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestThousands(t *testing.T) {
	tests := map[int64]string{
		0:        "0",
		999:      "999",
		1000:     "1,000",
		1234567:  "1,234,567",
		-1234567: "-1,234,567",
	}
	for in, want := range tests {
		if got := Thousands(in); got != want {
			t.Errorf("Thousands(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("héllo world", 5); got != "héllo..." {
		t.Errorf("Truncate = %q", got)
	}
	if got := Truncate("short", 10); got != "short" {
		t.Errorf("Truncate = %q", got)
	}
}

func TestTrackEmbed(t *testing.T) {
	tr := track.New("Song", "https://youtu.be/x", "", 3*time.Minute, track.Requester{ID: "42", Name: "ann"}, filter.Nightcore)
	tr.Views = 1500
	q := queue.New()
	q.SetLoop(queue.LoopSong)

	embed := TrackEmbed("Now Playing", tr, q)
	if !strings.Contains(embed.Description, "https://youtu.be/x") {
		t.Fatalf("description = %q", embed.Description)
	}
	values := map[string]string{}
	for _, f := range embed.Fields {
		values[f.Name] = f.Value
	}
	if values["Duration"] != "`03:00`" || values["Requested by"] != "<@42>" {
		t.Fatalf("fields = %v", values)
	}
	if values["Views"] != "`1,500`" || values["Filter"] != "`NIGHTCORE`" {
		t.Fatalf("fields = %v", values)
	}
	if !strings.Contains(values["Settings"], "song") || !strings.Contains(values["Settings"], "50%") {
		t.Fatalf("settings = %q", values["Settings"])
	}
}

func TestControlsLabelFollowsPause(t *testing.T) {
	label := func(paused bool) string {
		row := Controls(paused)[0].(discordgo.ActionsRow)
		for _, c := range row.Components {
			if b := c.(discordgo.Button); b.CustomID == ControlPauseResume {
				return b.Label
			}
		}
		return ""
	}
	if label(false) != "Pause" || label(true) != "Resume" {
		t.Fatalf("labels = %q / %q", label(false), label(true))
	}
}
