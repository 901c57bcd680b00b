package middleware

import (
	"context"

	"github.com/keshon/cord-titan/internal/command"
	"github.com/keshon/cord-titan/internal/discord"
	"github.com/keshon/cord-titan/pkg/cmd"
)

// WithGuildOnly wraps a command to enforce guild-only access
func WithGuildOnly() cmd.Middleware {
	return func(c cmd.Command) cmd.Command {
		return cmd.Wrap(c, func(ctx context.Context, inv *cmd.Invocation) error {
			s, e, ok := command.Event(inv.Data)
			if ok && e.GuildID == "" {
				return discord.RespondEphemeral(s, e, "You must be in a server to use this command.")
			}
			return c.Run(ctx, inv)
		})
	}
}
