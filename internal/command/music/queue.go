package music

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/cord-titan/internal/discord"
	"github.com/keshon/cord-titan/internal/music/filter"
	"github.com/keshon/cord-titan/internal/music/player"
	"github.com/keshon/cord-titan/internal/music/queue"
	"github.com/keshon/cord-titan/internal/version"
)

const queuePageSize = 10

var minPosition = 1.0

func positionOption(name, desc string) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionInteger,
		Name:        name,
		Description: desc,
		Required:    true,
		MinValue:    &minPosition,
	}
}

// QueueCommand shows the pending tracks ten per page.
type QueueCommand struct{ *Music }

func (c *QueueCommand) Name() string        { return "queue" }
func (c *QueueCommand) Description() string { return "Show the music queue" }
func (c *QueueCommand) Category() string    { return categoryMusic }

func (c *QueueCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionInteger,
				Name:        "page",
				Description: "Page number",
				MinValue:    &minPosition,
			},
		},
	}
}

func (c *QueueCommand) Run(_ context.Context, data any) error {
	s, e, ok := slash(data)
	if !ok {
		return nil
	}
	q := c.queue(e.GuildID)
	if q.Current() == nil && q.Len() == 0 {
		return discord.RespondEmbed(s, e, discord.Embed("Empty Queue", "No songs! Use `/play` to add music.", discord.ColorWarning))
	}
	return discord.RespondEmbed(s, e, queueEmbed(q, optInt(e, "page", 1)))
}

// pageBounds clamps page into range and returns the slice bounds of that page.
func pageBounds(total, page, size int) (clamped, pages, start, end int) {
	pages = max(1, (total+size-1)/size)
	clamped = min(max(page, 1), pages)
	start = (clamped - 1) * size
	end = min(start+size, total)
	return clamped, pages, start, end
}

func queueEmbed(q *queue.Queue, page int) *discordgo.MessageEmbed {
	pending := q.Pending()
	page, pages, start, end := pageBounds(len(pending), page, queuePageSize)

	embed := &discordgo.MessageEmbed{
		Title:     "Music Queue",
		Color:     discord.EmbedColor,
		Timestamp: time.Now().Format(time.RFC3339),
		Footer:    &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("%s | Page %d/%d", version.AppName, page, pages)},
	}
	if cur := q.Current(); cur != nil {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "Now Playing",
			Value: fmt.Sprintf("**%s**\n`%s` - %s", cur.Title, cur.FormatDuration(), orUnknown(cur.Requester().Mention())),
		})
	}
	if len(pending) > 0 {
		var sb strings.Builder
		for i, t := range pending[start:end] {
			fmt.Fprintf(&sb, "`%d.` **%s**\n    `%s` - %s\n", start+i+1, discord.Truncate(t.Title, 45), t.FormatDuration(), orUnknown(t.Requester().Mention()))
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Up Next", Value: sb.String()})
	}

	settings := discord.Settings(q) + fmt.Sprintf("\nSongs: `%d` | Duration: `%s`", len(pending), discord.QueueDuration(q.TotalDuration()))
	if f := q.Filter(); f != filter.Normal && f != "" {
		settings += fmt.Sprintf(" | Filter: `%s`", strings.ToUpper(string(f)))
	}
	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Settings", Value: settings})
	return embed
}

// NowPlayingCommand posts the current track with controls and makes that
// post the guild's now playing message.
type NowPlayingCommand struct{ *Music }

func (c *NowPlayingCommand) Name() string        { return "nowplaying" }
func (c *NowPlayingCommand) Description() string { return "Show current song with controls" }
func (c *NowPlayingCommand) Category() string    { return categoryMusic }

func (c *NowPlayingCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{Name: c.Name(), Description: c.Description()}
}

func (c *NowPlayingCommand) Run(_ context.Context, data any) error {
	s, e, ok := slash(data)
	if !ok {
		return nil
	}
	q := c.queue(e.GuildID)
	cur := q.Current()
	if cur == nil {
		return respondFailure(s, e, player.ErrNotPlaying)
	}
	if err := discord.RespondDeferred(s, e); err != nil {
		return fmt.Errorf("defer nowplaying: %w", err)
	}
	msg, err := discord.EditEmbed(s, e, discord.TrackEmbed("🎵 Now Playing", cur, q), discord.Controls(c.Player.IsPaused(e.GuildID)))
	if err != nil {
		return err
	}
	c.Notifier.Adopt(e.GuildID, msg)
	return nil
}

// ClearCommand drops every pending track and keeps the current one.
type ClearCommand struct{ *Music }

func (c *ClearCommand) Name() string        { return "clear" }
func (c *ClearCommand) Description() string { return "Clear the entire queue" }
func (c *ClearCommand) Category() string    { return categoryMusic }
func (c *ClearCommand) RequiresDJ(any) bool { return true }

func (c *ClearCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{Name: c.Name(), Description: c.Description()}
}

func (c *ClearCommand) Run(_ context.Context, data any) error {
	s, e, ok := slash(data)
	if !ok {
		return nil
	}
	n := c.queue(e.GuildID).ClearPending()
	return discord.RespondEmbed(s, e, discord.Embed("Queue Cleared", fmt.Sprintf("Removed **%d** songs!", n), discord.ColorSuccess))
}

type RemoveCommand struct{ *Music }

func (c *RemoveCommand) Name() string        { return "remove" }
func (c *RemoveCommand) Description() string { return "Remove a song from queue" }
func (c *RemoveCommand) Category() string    { return categoryMusic }

func (c *RemoveCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Options:     []*discordgo.ApplicationCommandOption{positionOption("position", "Song position (1-based)")},
	}
}

func (c *RemoveCommand) Run(_ context.Context, data any) error {
	s, e, ok := slash(data)
	if !ok {
		return nil
	}
	pos := optInt(e, "position", 0)
	removed, ok := c.queue(e.GuildID).Remove(pos - 1)
	if !ok {
		return discord.RespondEmbedEphemeral(s, e, discord.ErrorEmbed("Invalid Position", fmt.Sprintf("Position #%d doesn't exist!", pos)))
	}
	return discord.RespondEmbed(s, e, discord.Embed("Removed", fmt.Sprintf("Removed **%s** from position #%d", removed.Title, pos), discord.ColorSuccess))
}

type MoveCommand struct{ *Music }

func (c *MoveCommand) Name() string        { return "move" }
func (c *MoveCommand) Description() string { return "Move a song in the queue" }
func (c *MoveCommand) Category() string    { return categoryMusic }

func (c *MoveCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Options: []*discordgo.ApplicationCommandOption{
			positionOption("from", "Current position"),
			positionOption("to", "New position"),
		},
	}
}

func (c *MoveCommand) Run(_ context.Context, data any) error {
	s, e, ok := slash(data)
	if !ok {
		return nil
	}
	from, to := optInt(e, "from", 0), optInt(e, "to", 0)
	moved, ok := c.queue(e.GuildID).Move(from-1, to-1)
	if !ok {
		return discord.RespondEmbedEphemeral(s, e, discord.ErrorEmbed("Invalid Position", "Invalid positions!"))
	}
	return discord.RespondEmbed(s, e, discord.Embed("Moved", fmt.Sprintf("Moved **%s** from #%d to #%d", moved.Title, from, to), discord.ColorSuccess))
}

// SkipToCommand discards the tracks ahead of a position and plays it next.
type SkipToCommand struct{ *Music }

func (c *SkipToCommand) Name() string        { return "skipto" }
func (c *SkipToCommand) Description() string { return "Skip to a specific song in queue" }
func (c *SkipToCommand) Category() string    { return categoryMusic }
func (c *SkipToCommand) RequiresDJ(any) bool { return true }

func (c *SkipToCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Options:     []*discordgo.ApplicationCommandOption{positionOption("position", "Song position to skip to")},
	}
}

func (c *SkipToCommand) Run(ctx context.Context, data any) error {
	s, e, ok := slash(data)
	if !ok {
		return nil
	}
	pos := optInt(e, "position", 0)
	if n := c.queue(e.GuildID).Len(); pos < 1 || pos > n {
		return discord.RespondEmbedEphemeral(s, e, discord.ErrorEmbed("Invalid Position", fmt.Sprintf("Position must be 1-%d!", n)))
	}
	if err := discord.RespondDeferred(s, e); err != nil {
		return fmt.Errorf("defer skipto: %w", err)
	}
	target, err := c.Player.SkipTo(ctx, e.GuildID, pos-1)
	if errors.Is(err, player.ErrOutOfRange) {
		_, err = discord.EditEmbed(s, e, discord.ErrorEmbed("Invalid Position", fmt.Sprintf("Position must be 1-%d!", c.queue(e.GuildID).Len())), nil)
		return err
	}
	if err != nil {
		return editFailure(s, e, err)
	}
	_, err = discord.EditEmbed(s, e, discord.Embed("Skipping To", fmt.Sprintf("Skipping to **%s**", target.Title), discord.ColorSuccess), nil)
	return err
}
