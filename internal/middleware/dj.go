package middleware

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/keshon/cord-titan/internal/command"
	"github.com/keshon/cord-titan/internal/discord"
	"github.com/keshon/cord-titan/internal/music/policy"
	"github.com/keshon/cord-titan/pkg/cmd"
)

// DJRoles looks up a guild's DJ role; empty means everyone may control playback.
type DJRoles interface {
	DJRole(guildID string) (string, error)
}

// WithDJCheck gates playback controls behind the guild's DJ role.
func WithDJCheck(roles DJRoles, developerID string) cmd.Middleware {
	return func(c cmd.Command) cmd.Command {
		return cmd.Wrap(c, func(ctx context.Context, inv *cmd.Invocation) error {
			dj, ok := cmd.Root(c).(command.DJControlled)
			if !ok || !dj.RequiresDJ(inv.Data) {
				return c.Run(ctx, inv)
			}
			s, e, ok := command.Event(inv.Data)
			if !ok {
				return c.Run(ctx, inv)
			}

			role, err := roles.DJRole(e.GuildID)
			if err != nil {
				log.Warn().Str("component", "middleware").Str("guild", e.GuildID).Err(err).Msg("failed to read DJ role")
			}
			if policy.CanControl(discord.Actor(e, developerID), role) {
				return c.Run(ctx, inv)
			}
			return discord.RespondEmbedEphemeral(s, e, discord.ErrorEmbed("DJ Only", "This command requires DJ permissions!"))
		})
	}
}
