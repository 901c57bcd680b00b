package discord

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/cord-titan/internal/music/player"
	"github.com/keshon/cord-titan/internal/version"
)

type status struct {
	text     string
	activity discordgo.ActivityType
	online   discordgo.Status
}

var statuses = []status{
	{"/help for commands", discordgo.ActivityTypeListening, discordgo.StatusOnline},
	{"in %d servers", discordgo.ActivityTypeGame, discordgo.StatusDoNotDisturb},
	{"%d songs played", discordgo.ActivityTypeListening, discordgo.StatusIdle},
	{version.AppName, discordgo.ActivityTypeCompeting, discordgo.StatusOnline},
	{"Ultimate Music Bot", discordgo.ActivityTypeWatching, discordgo.StatusOnline},
}

// Presence rotates the bot's status line.
type Presence struct {
	dg    *discordgo.Session
	stats *player.Stats
	intn  func(int) int
}

func NewPresence(dg *discordgo.Session, stats *player.Stats) *Presence {
	return &Presence{dg: dg, stats: stats, intn: rand.IntN}
}

// Rotate picks a random status and publishes it.
func (p *Presence) Rotate(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	data := p.next()
	if err := p.dg.UpdateStatusComplex(data); err != nil {
		return fmt.Errorf("update presence: %w", err)
	}
	return nil
}

func (p *Presence) next() discordgo.UpdateStatusData {
	s := statuses[p.intn(len(statuses))]
	text := s.text
	switch s.text {
	case "in %d servers":
		guilds := 0
		if p.dg != nil && p.dg.State != nil {
			guilds = len(p.dg.State.Guilds)
		}
		text = fmt.Sprintf(s.text, guilds)
	case "%d songs played":
		text = fmt.Sprintf(s.text, p.stats.SongsPlayed())
	}
	return discordgo.UpdateStatusData{
		Status:     string(s.online),
		Activities: []*discordgo.Activity{{Name: text, Type: s.activity}},
	}
}
