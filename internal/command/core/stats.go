package core

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/cord-titan/internal/command"
	"github.com/keshon/cord-titan/internal/discord"
	"github.com/keshon/cord-titan/internal/music/queue"
	"github.com/keshon/cord-titan/internal/version"
	"github.com/keshon/cord-titan/pkg/jobmgr"
)

type StatsCommand struct{ *Core }

func (c *StatsCommand) Name() string             { return "stats" }
func (c *StatsCommand) Description() string      { return "Show bot statistics" }
func (c *StatsCommand) Group() string            { return "core" }
func (c *StatsCommand) Category() string         { return "🕯️ Information" }
func (c *StatsCommand) UserPermissions() []int64 { return []int64{} }

func (c *StatsCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{Name: c.Name(), Description: c.Description()}
}

func (c *StatsCommand) Run(_ context.Context, data any) error {
	context, ok := data.(*command.SlashInteractionContext)
	if !ok {
		return nil
	}
	s := context.Session

	guilds, users := 0, 0
	if s.State != nil {
		s.State.RLock()
		guilds = len(s.State.Guilds)
		for _, g := range s.State.Guilds {
			users += g.MemberCount
		}
		s.State.RUnlock()
	}
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	field := func(name, value string) *discordgo.MessageEmbedField {
		return &discordgo.MessageEmbedField{Name: name, Value: "`" + value + "`", Inline: true}
	}
	embed := discord.Embed(version.AppName+" Statistics", fmt.Sprintf("Version `%s`", version.Version), discord.EmbedColor)
	embed.Fields = []*discordgo.MessageEmbedField{
		field("Uptime", formatUptime(c.Stats.Uptime())),
		field("Songs Played", discord.Thousands(c.Stats.SongsPlayed())),
		field("Commands Used", discord.Thousands(c.Stats.CommandsUsed())),
		field("Playtime", discord.QueueDuration(c.Stats.Playtime())),
		field("Servers", discord.Thousands(int64(guilds))),
		field("Users", discord.Thousands(int64(users))),
		field("Voice Connections", fmt.Sprint(len(c.Voice.Connections()))),
		field("Active Players", fmt.Sprint(activePlayers(c.Queues))),
		field("Background Jobs", jobList(c.Jobs)),
		field("Latency", fmt.Sprintf("%dms", s.HeartbeatLatency().Milliseconds())),
		field("Memory", fmt.Sprintf("%.1f MB", float64(mem.Alloc)/1024/1024)),
	}
	if q, ok := c.Queues.Lookup(context.Event.GuildID); ok {
		embed.Fields = append(embed.Fields,
			field("Played Here", discord.Thousands(int64(q.PlayCount()))),
			field("Last Activity", formatUptime(time.Since(q.LastActivity()))+" ago"),
		)
	}
	return discord.RespondEmbed(s, context.Event, embed)
}

func jobList(jobs *jobmgr.Manager) string {
	if jobs == nil {
		return "none"
	}
	names := jobs.List()
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ", ")
}

// activePlayers counts guilds with a current track.
func activePlayers(queues *queue.Registry) int {
	n := 0
	queues.Each(func(_ string, q *queue.Queue) {
		if q.Current() != nil {
			n++
		}
	})
	return n
}

// formatUptime renders d as "2d 3h 4m", or "3h 4m 5s" under a day.
func formatUptime(d time.Duration) string {
	total := int(d.Seconds())
	days, hours, minutes, seconds := total/86400, total%86400/3600, total%3600/60, total%60
	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm", days, hours, minutes)
	}
	return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
}
