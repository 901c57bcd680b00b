package music

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"

	"github.com/keshon/cord-titan/internal/command"
	"github.com/keshon/cord-titan/internal/discord"
	"github.com/keshon/cord-titan/internal/music/player"
)

type JoinCommand struct{ *Music }

func (c *JoinCommand) Name() string        { return "join" }
func (c *JoinCommand) Description() string { return "Join your voice channel" }
func (c *JoinCommand) Category() string    { return categoryVoice }

func (c *JoinCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{Name: c.Name(), Description: c.Description()}
}

func (c *JoinCommand) Run(_ context.Context, data any) error {
	s, e, ok := slash(data)
	if !ok {
		return nil
	}
	channelID, err := c.Voice.UserChannel(e.GuildID, requester(e).ID)
	if err != nil {
		return respondFailure(s, e, err)
	}
	if err := discord.RespondDeferred(s, e); err != nil {
		return fmt.Errorf("defer join: %w", err)
	}
	_, wasConnected := c.Voice.Connected(e.GuildID)
	if err := c.Voice.Join(e.GuildID, channelID); err != nil {
		return editFailure(s, e, err)
	}

	title, verb := "Connected", "Joined"
	if wasConnected {
		title, verb = "Moved", "Moved to"
	}
	_, err = discord.EditEmbed(s, e, discord.Embed(title, fmt.Sprintf("%s **%s**!", verb, channelName(s, channelID)), discord.ColorSuccess), nil)
	return err
}

// LeaveCommand clears the queue and disconnects. A guild in 24/7 mode is
// not rejoined after an intentional leave.
type LeaveCommand struct{ *Music }

func (c *LeaveCommand) Name() string        { return "leave" }
func (c *LeaveCommand) Description() string { return "Leave the voice channel" }
func (c *LeaveCommand) Category() string    { return categoryVoice }

func (c *LeaveCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{Name: c.Name(), Description: c.Description()}
}

func (c *LeaveCommand) Run(ctx context.Context, data any) error {
	s, e, ok := slash(data)
	if !ok {
		return nil
	}
	if _, ok := c.Voice.Connected(e.GuildID); !ok {
		return respondFailure(s, e, player.ErrNotConnected)
	}
	if err := discord.RespondDeferred(s, e); err != nil {
		return fmt.Errorf("defer leave: %w", err)
	}
	if err := c.stop(ctx, e.GuildID); err != nil {
		log.Warn().Str("component", "music").Str("guild", e.GuildID).Err(err).Msg("failed to stop before leaving")
	}
	if err := c.Voice.Disconnect(ctx, e.GuildID); err != nil && !errors.Is(err, player.ErrNotConnected) {
		return editFailure(s, e, err)
	}
	_, err := discord.EditEmbed(s, e, discord.Embed("Disconnected", "Left voice channel and cleared queue!", discord.ColorSuccess), nil)
	return err
}

// Always247Command keeps the bot in voice when it is alone and rejoins
// after unexpected disconnects.
type Always247Command struct{ *Music }

func (c *Always247Command) Name() string        { return "247" }
func (c *Always247Command) Description() string { return "Toggle 24/7 mode (never disconnect)" }
func (c *Always247Command) Category() string    { return categoryVoice }
func (c *Always247Command) UserPermissions() []int64 {
	return []int64{discordgo.PermissionAdministrator}
}

func (c *Always247Command) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{Name: c.Name(), Description: c.Description()}
}

func (c *Always247Command) Run(_ context.Context, data any) error {
	s, e, ok := slash(data)
	if !ok {
		return nil
	}
	on, err := c.Storage.Toggle247(e.GuildID)
	if err != nil {
		return fmt.Errorf("toggle 24/7: %w", err)
	}
	if on {
		return discord.RespondEmbed(s, e, discord.Embed("24/7 Mode Enabled", "Bot will stay in voice channel permanently!", discord.ColorSuccess))
	}
	return discord.RespondEmbed(s, e, discord.Embed("24/7 Mode Disabled", "Bot will disconnect when alone in voice channel.", discord.ColorWarning))
}

// SetDJCommand sets the role allowed to force playback changes; without a
// role everyone may.
type SetDJCommand struct{ *Music }

func (c *SetDJCommand) Name() string        { return "setdj" }
func (c *SetDJCommand) Description() string { return "Set DJ role (Admin only)" }
func (c *SetDJCommand) Category() string    { return categorySettings }
func (c *SetDJCommand) UserPermissions() []int64 {
	return []int64{discordgo.PermissionAdministrator}
}

func (c *SetDJCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionRole,
				Name:        "role",
				Description: "Role that can control music",
			},
		},
	}
}

func (c *SetDJCommand) Run(_ context.Context, data any) error {
	s, e, ok := slash(data)
	if !ok {
		return nil
	}
	opt, ok := optionRole(e)
	if !ok {
		if err := c.Storage.ClearDJRole(e.GuildID); err != nil {
			return fmt.Errorf("clear DJ role: %w", err)
		}
		return discord.RespondEmbed(s, e, discord.Embed("DJ Role Removed", "Anyone can now control music!", discord.ColorWarning))
	}
	if err := c.Storage.SetDJRole(e.GuildID, opt); err != nil {
		return fmt.Errorf("set DJ role: %w", err)
	}
	desc := fmt.Sprintf("DJ role set to <@&%s>\n\nOnly users with this role (or admins) can control music.", opt)
	return discord.RespondEmbed(s, e, discord.Embed("DJ Role Set", desc, discord.ColorSuccess))
}

func optionRole(e *discordgo.InteractionCreate) (string, bool) {
	o, ok := command.Options(e)["role"]
	if !ok {
		return "", false
	}
	id, _ := o.Value.(string)
	return id, id != ""
}

func channelName(s *discordgo.Session, channelID string) string {
	if s != nil && s.State != nil {
		if ch, err := s.State.Channel(channelID); err == nil {
			return ch.Name
		}
	}
	return "<#" + channelID + ">"
}
