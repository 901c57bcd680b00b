package core

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/cord-titan/internal/command"
	"github.com/keshon/cord-titan/internal/discord"
)

type PingCommand struct{}

func (c *PingCommand) Name() string             { return "ping" }
func (c *PingCommand) Description() string      { return "Check bot latency" }
func (c *PingCommand) Group() string            { return "core" }
func (c *PingCommand) Category() string         { return "🕯️ Information" }
func (c *PingCommand) UserPermissions() []int64 { return []int64{} }

func (c *PingCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{Name: c.Name(), Description: c.Description()}
}

func (c *PingCommand) Run(_ context.Context, data any) error {
	context, ok := data.(*command.SlashInteractionContext)
	if !ok {
		return nil
	}
	latency := context.Session.HeartbeatLatency()
	status, color := latencyStatus(latency)
	return discord.RespondEmbed(context.Session, context.Event, discord.Embed(
		"Pong! 🏓",
		fmt.Sprintf("**Latency:** `%dms`\n**Status:** %s", latency.Milliseconds(), status),
		color,
	))
}

func latencyStatus(d time.Duration) (string, int) {
	switch {
	case d < 100*time.Millisecond:
		return "Excellent", discord.ColorSuccess
	case d < 200*time.Millisecond:
		return "Good", discord.ColorWarning
	default:
		return "High", discord.ColorError
	}
}
