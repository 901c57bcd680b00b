package music

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"

	"github.com/keshon/cord-titan/internal/discord"
	"github.com/keshon/cord-titan/internal/music/player"
	"github.com/keshon/cord-titan/internal/music/policy"
)

type PauseCommand struct{ *Music }

func (c *PauseCommand) Name() string        { return "pause" }
func (c *PauseCommand) Description() string { return "Pause playback" }
func (c *PauseCommand) Category() string    { return categoryMusic }

func (c *PauseCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{Name: c.Name(), Description: c.Description()}
}

func (c *PauseCommand) Run(_ context.Context, data any) error {
	s, e, ok := slash(data)
	if !ok {
		return nil
	}
	if err := c.Player.Pause(e.GuildID); err != nil {
		return respondFailure(s, e, err)
	}
	c.Notifier.Refresh(e.GuildID, true)
	return discord.RespondEmbed(s, e, discord.Embed(player.StatusPaused.StringEmoji()+" "+string(player.StatusPaused), "Use `/resume` to continue.", discord.EmbedColor))
}

type ResumeCommand struct{ *Music }

func (c *ResumeCommand) Name() string        { return "resume" }
func (c *ResumeCommand) Description() string { return "Resume playback" }
func (c *ResumeCommand) Category() string    { return categoryMusic }

func (c *ResumeCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{Name: c.Name(), Description: c.Description()}
}

func (c *ResumeCommand) Run(_ context.Context, data any) error {
	s, e, ok := slash(data)
	if !ok {
		return nil
	}
	if err := c.Player.Resume(e.GuildID); err != nil {
		return respondFailure(s, e, err)
	}
	c.Notifier.Refresh(e.GuildID, false)
	return discord.RespondEmbed(s, e, discord.Embed(player.StatusResumed.StringEmoji()+" "+string(player.StatusResumed), "", discord.EmbedColor))
}

// SkipCommand ends the current track. With song loop on, the same track
// plays again.
type SkipCommand struct{ *Music }

func (c *SkipCommand) Name() string        { return "skip" }
func (c *SkipCommand) Description() string { return "Skip the current song" }
func (c *SkipCommand) Category() string    { return categoryMusic }
func (c *SkipCommand) RequiresDJ(any) bool { return true }

func (c *SkipCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{Name: c.Name(), Description: c.Description()}
}

func (c *SkipCommand) Run(ctx context.Context, data any) error {
	s, e, ok := slash(data)
	if !ok {
		return nil
	}
	if err := discord.RespondDeferred(s, e); err != nil {
		return fmt.Errorf("defer skip: %w", err)
	}
	skipped, err := c.Player.Skip(ctx, e.GuildID)
	if err != nil {
		return editFailure(s, e, err)
	}
	_, err = discord.EditEmbed(s, e, discord.Embed("⏭️ Skipped", fmt.Sprintf("Skipped **%s**", skipped.Title), discord.ColorSuccess), nil)
	return err
}

// VoteSkipCommand skips once enough listeners in the bot's channel voted.
type VoteSkipCommand struct{ *Music }

func (c *VoteSkipCommand) Name() string        { return "voteskip" }
func (c *VoteSkipCommand) Description() string { return "Vote to skip the current song" }
func (c *VoteSkipCommand) Category() string    { return categoryMusic }

func (c *VoteSkipCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{Name: c.Name(), Description: c.Description()}
}

func (c *VoteSkipCommand) Run(ctx context.Context, data any) error {
	s, e, ok := slash(data)
	if !ok {
		return nil
	}
	q := c.queue(e.GuildID)
	if q.Current() == nil {
		return respondFailure(s, e, player.ErrNotPlaying)
	}
	botChannel, ok := c.Voice.Connected(e.GuildID)
	if !ok {
		return respondFailure(s, e, player.ErrNotConnected)
	}
	userID := requester(e).ID
	if ch, err := c.Voice.UserChannel(e.GuildID, userID); err != nil || ch != botChannel {
		return discord.RespondEmbedEphemeral(s, e, discord.ErrorEmbed("Error", "You need to be in my voice channel to vote!"))
	}

	votes, fresh := q.Vote(userID)
	if !fresh {
		return discord.RespondEphemeral(s, e, "You already voted!")
	}
	needed, passed := policy.VoteSkip(votes, c.Voice.Listeners(e.GuildID, botChannel), q.SkipThreshold())
	if !passed {
		return discord.RespondEmbed(s, e, discord.Embed("🗳️ Vote Registered", fmt.Sprintf("Votes: **%d/%d**", votes, needed), discord.ColorInfo))
	}
	if err := discord.RespondDeferred(s, e); err != nil {
		return fmt.Errorf("defer voteskip: %w", err)
	}
	skipped, err := c.Player.Skip(ctx, e.GuildID)
	if err != nil {
		return editFailure(s, e, err)
	}
	log.Info().Str("component", "music").Str("guild", e.GuildID).Int("votes", votes).Msg("vote skip passed")
	_, err = discord.EditEmbed(s, e, discord.Embed("⏭️ Vote Passed", fmt.Sprintf("Skipped **%s** (%d/%d votes)", skipped.Title, votes, needed), discord.ColorSuccess), nil)
	return err
}

type PreviousCommand struct{ *Music }

func (c *PreviousCommand) Name() string        { return "previous" }
func (c *PreviousCommand) Description() string { return "Play the previous song" }
func (c *PreviousCommand) Category() string    { return categoryMusic }
func (c *PreviousCommand) RequiresDJ(any) bool { return true }

func (c *PreviousCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{Name: c.Name(), Description: c.Description()}
}

func (c *PreviousCommand) Run(ctx context.Context, data any) error {
	s, e, ok := slash(data)
	if !ok {
		return nil
	}
	if err := discord.RespondDeferred(s, e); err != nil {
		return fmt.Errorf("defer previous: %w", err)
	}
	prev, err := c.Player.Previous(ctx, e.GuildID)
	if err != nil {
		return editFailure(s, e, err)
	}
	return c.answerNowPlaying(s, e, "⏮️ Playing Previous", prev.Title)
}

type ReplayCommand struct{ *Music }

func (c *ReplayCommand) Name() string        { return "replay" }
func (c *ReplayCommand) Description() string { return "Restart the current song" }
func (c *ReplayCommand) Category() string    { return categoryMusic }

func (c *ReplayCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{Name: c.Name(), Description: c.Description()}
}

func (c *ReplayCommand) Run(ctx context.Context, data any) error {
	s, e, ok := slash(data)
	if !ok {
		return nil
	}
	if err := discord.RespondDeferred(s, e); err != nil {
		return fmt.Errorf("defer replay: %w", err)
	}
	cur, err := c.Player.Replay(ctx, e.GuildID)
	if err != nil {
		return editFailure(s, e, err)
	}
	return c.answerNowPlaying(s, e, "🔄 Replaying", cur.Title)
}

// answerNowPlaying confirms a restart and makes the answer the guild's now
// playing message.
func (m *Music) answerNowPlaying(s *discordgo.Session, e *discordgo.InteractionCreate, title, trackTitle string) error {
	q := m.queue(e.GuildID)
	cur := q.Current()
	if cur == nil {
		_, err := discord.EditEmbed(s, e, discord.Embed(title, fmt.Sprintf("**%s**", trackTitle), discord.ColorSuccess), nil)
		return err
	}
	msg, err := discord.EditEmbed(s, e, discord.TrackEmbed(title, cur, q), discord.Controls(false))
	if err != nil {
		return err
	}
	m.Notifier.Adopt(e.GuildID, msg)
	return nil
}

// StopCommand clears the queue and ends playback but stays connected.
type StopCommand struct{ *Music }

func (c *StopCommand) Name() string        { return "stop" }
func (c *StopCommand) Description() string { return "Stop playback and clear the queue" }
func (c *StopCommand) Category() string    { return categoryMusic }
func (c *StopCommand) RequiresDJ(any) bool { return true }

func (c *StopCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{Name: c.Name(), Description: c.Description()}
}

func (c *StopCommand) Run(ctx context.Context, data any) error {
	s, e, ok := slash(data)
	if !ok {
		return nil
	}
	if err := discord.RespondDeferred(s, e); err != nil {
		return fmt.Errorf("defer stop: %w", err)
	}
	if err := c.stop(ctx, e.GuildID); err != nil {
		return editFailure(s, e, err)
	}
	_, err := discord.EditEmbed(s, e, stoppedEmbed("Queue cleared."), nil)
	return err
}

func stoppedEmbed(desc string) *discordgo.MessageEmbed {
	return discord.Embed(player.StatusStopped.StringEmoji()+" "+string(player.StatusStopped), desc, discord.ColorSuccess)
}

func (m *Music) stop(ctx context.Context, guildID string) error {
	m.Notifier.Retire(guildID)
	return m.Player.Stop(ctx, guildID)
}
