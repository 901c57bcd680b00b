package music

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/cord-titan/internal/discord"
	"github.com/keshon/cord-titan/internal/music/queue"
)

const (
	maxVolume  = queue.MaxVolume
	volumeStep = 10
)

var loopDescriptions = map[queue.LoopMode]string{
	queue.LoopOff:   "Songs play normally without repeating",
	queue.LoopSong:  "Current song repeats indefinitely",
	queue.LoopQueue: "Queue restarts when finished",
}

type VolumeCommand struct{ *Music }

func (c *VolumeCommand) Name() string        { return "volume" }
func (c *VolumeCommand) Description() string { return "Change the volume (0-200%)" }
func (c *VolumeCommand) Category() string    { return categorySettings }

func (c *VolumeCommand) SlashDefinition() *discordgo.ApplicationCommand {
	minLevel := 0.0
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionInteger,
				Name:        "level",
				Description: "Volume level",
				Required:    true,
				MinValue:    &minLevel,
				MaxValue:    maxVolume,
			},
		},
	}
}

func (c *VolumeCommand) Run(_ context.Context, data any) error {
	s, e, ok := slash(data)
	if !ok {
		return nil
	}
	if _, ok := c.Voice.Connected(e.GuildID); !ok {
		return discord.RespondEmbedEphemeral(s, e, discord.ErrorEmbed("Not Connected", "Not in a voice channel!"))
	}
	level := optInt(e, "level", -1)
	if level < 0 || level > maxVolume {
		return discord.RespondEmbedEphemeral(s, e, discord.ErrorEmbed("Invalid", "Volume must be 0-200!"))
	}
	v := c.Player.SetVolume(e.GuildID, level)
	c.refresh(e.GuildID)
	return discord.RespondEmbed(s, e, discord.Embed("Volume Updated", fmt.Sprintf("Volume: **%d%%**\n`%s`", v, volumeBar(v)), discord.ColorSuccess))
}

// volumeBar draws v out of 200 as ten blocks.
func volumeBar(v int) string {
	filled := min(max(v*10/maxVolume, 0), 10)
	return strings.Repeat("█", filled) + strings.Repeat("░", 10-filled)
}

type LoopCommand struct{ *Music }

func (c *LoopCommand) Name() string        { return "loop" }
func (c *LoopCommand) Description() string { return "Set loop mode" }
func (c *LoopCommand) Category() string    { return categorySettings }

func (c *LoopCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "mode",
				Description: "Loop mode",
				Required:    true,
				Choices: []*discordgo.ApplicationCommandOptionChoice{
					{Name: "Off - Normal playback", Value: queue.LoopOff.String()},
					{Name: "Song - Repeat current song", Value: queue.LoopSong.String()},
					{Name: "Queue - Repeat entire queue", Value: queue.LoopQueue.String()},
				},
			},
		},
	}
}

func (c *LoopCommand) Run(_ context.Context, data any) error {
	s, e, ok := slash(data)
	if !ok {
		return nil
	}
	mode, err := queue.ParseLoopMode(optString(e, "mode"))
	if err != nil {
		return discord.RespondEmbedEphemeral(s, e, discord.ErrorEmbed("Invalid", err.Error()))
	}
	c.queue(e.GuildID).SetLoop(mode)
	c.refresh(e.GuildID)
	return discord.RespondEmbed(s, e, loopEmbed(mode))
}

func loopEmbed(mode queue.LoopMode) *discordgo.MessageEmbed {
	name := mode.String()
	return discord.Embed(fmt.Sprintf("%s Loop: %s", mode.Emoji(), strings.ToUpper(name[:1])+name[1:]), loopDescriptions[mode], discord.EmbedColor)
}

type ShuffleCommand struct{ *Music }

func (c *ShuffleCommand) Name() string        { return "shuffle" }
func (c *ShuffleCommand) Description() string { return "Toggle shuffle mode" }
func (c *ShuffleCommand) Category() string    { return categorySettings }

func (c *ShuffleCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{Name: c.Name(), Description: c.Description()}
}

func (c *ShuffleCommand) Run(_ context.Context, data any) error {
	s, e, ok := slash(data)
	if !ok {
		return nil
	}
	on := c.queue(e.GuildID).ToggleShuffle()
	c.refresh(e.GuildID)
	if on {
		return discord.RespondEmbed(s, e, discord.Embed("🔀 Shuffle Enabled", "Songs will play in random order", discord.EmbedColor))
	}
	return discord.RespondEmbed(s, e, discord.Embed("🔀 Shuffle Disabled", "Songs play in queue order", discord.EmbedColor))
}
