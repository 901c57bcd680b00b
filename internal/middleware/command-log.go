package middleware

import (
	"context"
	"maps"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"

	"github.com/keshon/cord-titan/internal/command"
	"github.com/keshon/cord-titan/internal/storage"
	"github.com/keshon/cord-titan/pkg/cmd"
)

// CommandCounter receives one tick per executed command.
type CommandCounter interface {
	CommandUsed()
}

// WithCommandLogger logs every execution, counts it and appends it to the
// guild's command history.
func WithCommandLogger(counter CommandCounter) cmd.Middleware {
	return func(c cmd.Command) cmd.Command {
		return cmd.Wrap(c, func(ctx context.Context, inv *cmd.Invocation) error {
			started := time.Now()
			err := c.Run(ctx, inv)

			var (
				s     *discordgo.Session
				e     *discordgo.InteractionCreate
				store *storage.Storage
				param string
			)
			switch v := inv.Data.(type) {
			case *command.SlashInteractionContext:
				s, e, store = v.Session, v.Event, v.Storage
				param = optionSummary(e)
			case *command.ComponentInteractionContext:
				s, e, store = v.Session, v.Event, v.Storage
				param = e.MessageComponentData().CustomID
			default:
				return err
			}

			user := command.User(e)
			counter.CommandUsed()
			log.Info().
				Str("component", "command").
				Str("command", c.Name()).
				Str("param", param).
				Str("guild", e.GuildID).
				Str("user", user.Username).
				Dur("took", time.Since(started)).
				Bool("ok", err == nil).
				Msg("command executed")

			if store != nil && e.GuildID != "" {
				rec := storage.CommandHistoryRecord{
					ChannelID:   e.ChannelID,
					ChannelName: channelName(s, e.ChannelID),
					GuildName:   guildName(s, e.GuildID),
					UserID:      user.ID,
					Username:    user.Username,
					Command:     c.Name(),
					Param:       param,
					Datetime:    started,
				}
				if lerr := store.AppendCommandToHistory(e.GuildID, rec); lerr != nil {
					log.Warn().Str("component", "command").Str("command", c.Name()).Err(lerr).Msg("failed to record command")
				}
			}
			return err
		})
	}
}

func optionSummary(e *discordgo.InteractionCreate) string {
	opts := command.Options(e)
	parts := make([]string, 0, len(opts))
	for _, name := range slices.Sorted(maps.Keys(opts)) {
		parts = append(parts, name+"="+optionString(opts[name]))
	}
	return strings.Join(parts, " ")
}

func optionString(o *discordgo.ApplicationCommandInteractionDataOption) string {
	switch o.Type {
	case discordgo.ApplicationCommandOptionString:
		return o.StringValue()
	case discordgo.ApplicationCommandOptionInteger:
		return strconv.FormatInt(o.IntValue(), 10)
	case discordgo.ApplicationCommandOptionBoolean:
		if o.BoolValue() {
			return "true"
		}
		return "false"
	}
	if s, ok := o.Value.(string); ok {
		return s
	}
	return ""
}

func channelName(s *discordgo.Session, channelID string) string {
	if s == nil || s.State == nil {
		return ""
	}
	if ch, err := s.State.Channel(channelID); err == nil {
		return ch.Name
	}
	return ""
}

func guildName(s *discordgo.Session, guildID string) string {
	if s == nil || s.State == nil {
		return ""
	}
	if g, err := s.State.Guild(guildID); err == nil {
		return g.Name
	}
	return ""
}
