package middleware

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/cord-titan/internal/command"
	"github.com/keshon/cord-titan/internal/discord"
	"github.com/keshon/cord-titan/pkg/cmd"
)

var PermissionNames = map[int64]string{
	discordgo.PermissionAdministrator:  "Administrator",
	discordgo.PermissionManageGuild:    "Manage Server",
	discordgo.PermissionManageChannels: "Manage Channels",
	discordgo.PermissionManageRoles:    "Manage Roles",
	discordgo.PermissionVoiceConnect:   "Connect to Voice Channel",
	discordgo.PermissionVoiceSpeak:     "Speak",
}

// WithUserPermissionCheck rejects members lacking every permission the
// command lists. Administrators and the developer always pass.
func WithUserPermissionCheck(developerID string) cmd.Middleware {
	return func(c cmd.Command) cmd.Command {
		return cmd.Wrap(c, func(ctx context.Context, inv *cmd.Invocation) error {
			s, e, ok := command.Event(inv.Data)
			if !ok || e.Member == nil {
				return c.Run(ctx, inv)
			}
			meta, ok := command.Meta(c)
			if !ok || len(meta.UserPermissions()) == 0 {
				return c.Run(ctx, inv)
			}
			if discord.IsAdministrator(e, developerID) {
				return c.Run(ctx, inv)
			}

			required := meta.UserPermissions()
			for _, p := range required {
				if e.Member.Permissions&p != 0 {
					return c.Run(ctx, inv)
				}
			}

			allowed := make([]string, 0, len(required))
			for _, p := range required {
				name := PermissionNames[p]
				if name == "" {
					name = fmt.Sprintf("0x%x", p)
				}
				allowed = append(allowed, name)
			}
			msg := fmt.Sprintf(
				"You need at least one of the following permissions to run this command:\n`%s`",
				strings.Join(allowed, "`, `"),
			)
			return discord.RespondEmbedEphemeral(s, e, discord.ErrorEmbed("Missing Permissions", msg))
		})
	}
}
