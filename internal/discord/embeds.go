package discord

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/cord-titan/internal/music/filter"
	"github.com/keshon/cord-titan/internal/music/queue"
	"github.com/keshon/cord-titan/internal/music/track"
	"github.com/keshon/cord-titan/internal/version"
)

const EmbedColor = 0xb01e66

const (
	ColorSuccess = 0x4caf50
	ColorWarning = 0xff9800
	ColorError   = 0xf44336
	ColorInfo    = 0x00bcd4
	ColorQueued  = 0x3f51b5
)

// Control button ids. The prefix routes them to the controls command.
const (
	ControlPauseResume = "controls:pause_resume"
	ControlSkip        = "controls:skip"
	ControlPrevious    = "controls:previous"
	ControlVolumeUp    = "controls:vol_up"
	ControlVolumeDown  = "controls:vol_down"
	ControlLoop        = "controls:loop"
	ControlShuffle     = "controls:shuffle"
	ControlStop        = "controls:stop"
)

// Embed builds a simple titled embed with the bot footer.
func Embed(title, description string, color int) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       title,
		Description: description,
		Color:       color,
		Timestamp:   time.Now().Format(time.RFC3339),
		Footer:      &discordgo.MessageEmbedFooter{Text: version.AppName},
	}
}

func ErrorEmbed(title, description string) *discordgo.MessageEmbed {
	return Embed("❌ "+title, description, ColorError)
}

// TrackEmbed describes t under the given action title. When q is set the
// guild's playback settings are appended.
func TrackEmbed(action string, t *track.Track, q *queue.Queue) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       action,
		Description: fmt.Sprintf("**[%s](%s)**", t.Title, t.WebpageURL),
		Color:       EmbedColor,
		Footer:      &discordgo.MessageEmbedFooter{Text: version.AppName},
	}
	if t.Thumbnail != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: t.Thumbnail}
	}

	fields := []*discordgo.MessageEmbedField{
		{Name: "Duration", Value: code(t.FormatDuration()), Inline: true},
		{Name: "Channel", Value: code(orUnknown(t.Uploader)), Inline: true},
		{Name: "Requested by", Value: orUnknown(t.Requester().Mention()), Inline: true},
	}
	if t.Views > 0 {
		fields = append(fields, &discordgo.MessageEmbedField{Name: "Views", Value: code(Thousands(t.Views)), Inline: true})
	}
	if f := t.Filter(); f != filter.Normal {
		fields = append(fields, &discordgo.MessageEmbedField{Name: "Filter", Value: code(strings.ToUpper(string(f))), Inline: true})
	}
	if q != nil {
		fields = append(fields, &discordgo.MessageEmbedField{Name: "Settings", Value: Settings(q), Inline: false})
	}
	embed.Fields = fields
	return embed
}

// Settings renders loop, shuffle and volume on one line.
func Settings(q *queue.Queue) string {
	shuffle := "OFF"
	if q.Shuffle() {
		shuffle = "ON"
	}
	return fmt.Sprintf("Loop: `%s %s` | Shuffle: `%s` | Vol: `%d%%`", q.Loop().Emoji(), q.Loop(), shuffle, q.Volume())
}

// Controls returns the button rows attached to a now playing message.
func Controls(paused bool) []discordgo.MessageComponent {
	pause := discordgo.Button{Label: "Pause", Emoji: &discordgo.ComponentEmoji{Name: "⏸️"}, Style: discordgo.PrimaryButton, CustomID: ControlPauseResume}
	if paused {
		pause = discordgo.Button{Label: "Resume", Emoji: &discordgo.ComponentEmoji{Name: "▶️"}, Style: discordgo.SuccessButton, CustomID: ControlPauseResume}
	}
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.Button{Label: "Previous", Emoji: &discordgo.ComponentEmoji{Name: "⏮️"}, Style: discordgo.SecondaryButton, CustomID: ControlPrevious},
			pause,
			discordgo.Button{Label: "Skip", Emoji: &discordgo.ComponentEmoji{Name: "⏭️"}, Style: discordgo.SecondaryButton, CustomID: ControlSkip},
			discordgo.Button{Label: "Stop", Emoji: &discordgo.ComponentEmoji{Name: "⏹️"}, Style: discordgo.DangerButton, CustomID: ControlStop},
		}},
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.Button{Label: "Vol-", Emoji: &discordgo.ComponentEmoji{Name: "🔉"}, Style: discordgo.SuccessButton, CustomID: ControlVolumeDown},
			discordgo.Button{Label: "Vol+", Emoji: &discordgo.ComponentEmoji{Name: "🔊"}, Style: discordgo.SuccessButton, CustomID: ControlVolumeUp},
			discordgo.Button{Label: "Loop", Emoji: &discordgo.ComponentEmoji{Name: "🔁"}, Style: discordgo.SecondaryButton, CustomID: ControlLoop},
			discordgo.Button{Label: "Shuffle", Emoji: &discordgo.ComponentEmoji{Name: "🔀"}, Style: discordgo.SecondaryButton, CustomID: ControlShuffle},
		}},
	}
}

// QueueDuration formats a queue length as "1h 5m" or "4m 10s".
func QueueDuration(d time.Duration) string {
	total := int(d.Seconds())
	h, m, s := total/3600, total%3600/60, total%60
	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	return fmt.Sprintf("%dm %ds", m, s)
}

// Thousands formats n with comma separators.
func Thousands(n int64) string {
	s := fmt.Sprint(n)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}

// Truncate shortens s to n runes, marking the cut with "...".
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

func code(s string) string { return "`" + s + "`" }

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}
