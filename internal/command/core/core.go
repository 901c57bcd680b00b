// Package core holds the bot's informational commands.
package core

import (
	"github.com/keshon/cord-titan/internal/command"
	"github.com/keshon/cord-titan/internal/discord"
	"github.com/keshon/cord-titan/internal/music/player"
	"github.com/keshon/cord-titan/internal/music/queue"
	"github.com/keshon/cord-titan/pkg/cmd"
	"github.com/keshon/cord-titan/pkg/jobmgr"
)

// Core is what the informational commands read from.
type Core struct {
	Registry *cmd.Registry
	Stats    *player.Stats
	Voice    *discord.VoiceManager
	Queues   *queue.Registry
	Jobs     *jobmgr.Manager
}

// Register adds help, ping, stats and history to the core's registry.
func Register(c *Core, mws ...cmd.Middleware) {
	command.RegisterCommand(c.Registry, &HelpCommand{Core: c}, mws...)
	command.RegisterCommand(c.Registry, &PingCommand{}, mws...)
	command.RegisterCommand(c.Registry, &StatsCommand{Core: c}, mws...)
	command.RegisterCommand(c.Registry, &HistoryCommand{}, mws...)
}
