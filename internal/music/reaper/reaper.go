// Package reaper disconnects the bot from voice channels it has been left alone in.
package reaper

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Voice exposes the bot's voice connections.
type Voice interface {
	// Connections returns guild ID to connected channel ID.
	Connections() map[string]string
	// MemberCount counts everyone in the channel, the bot included.
	MemberCount(guildID, channelID string) int
	Disconnect(ctx context.Context, guildID string) error
}

// Settings tells whether a guild asked to keep the bot connected.
type Settings interface {
	Is247(guildID string) bool
}

// Stopper clears a guild's queue and ends its playback.
type Stopper interface {
	Stop(ctx context.Context, guildID string) error
}

type Reaper struct {
	voice    Voice
	settings Settings
	player   Stopper
}

func New(voice Voice, settings Settings, player Stopper) *Reaper {
	return &Reaper{voice: voice, settings: settings, player: player}
}

// Sweep checks every connection once and returns the guilds it left.
// 24/7 guilds are never touched.
func (r *Reaper) Sweep(ctx context.Context) []string {
	var left []string
	for guildID, channelID := range r.voice.Connections() {
		if ctx.Err() != nil {
			break
		}
		if r.settings.Is247(guildID) {
			continue
		}
		if r.voice.MemberCount(guildID, channelID) != 1 {
			continue
		}

		logger := log.With().Str("component", "reaper").Str("guild", guildID).Str("channel", channelID).Logger()
		if err := r.player.Stop(ctx, guildID); err != nil {
			logger.Warn().Err(err).Msg("failed to stop playback")
		}
		if err := r.voice.Disconnect(ctx, guildID); err != nil {
			logger.Error().Err(err).Msg("failed to disconnect")
			continue
		}
		logger.Info().Msg("left empty voice channel")
		left = append(left, guildID)
	}
	return left
}

// Run sweeps every interval until ctx is done.
func (r *Reaper) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			r.Sweep(ctx)
		}
	}
}
