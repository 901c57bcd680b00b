package discord

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"

	"github.com/keshon/cord-titan/internal/music/player"
	"github.com/keshon/cord-titan/internal/music/stream"
)

var ErrUserNotInVoice = errors.New("user not in any voice channel")

type voiceConn struct {
	channelID string
	vc        *discordgo.VoiceConnection
	transport *stream.VoiceTransport
	leaving   bool
}

// VoiceManager owns the bot's voice connections, one per guild, and the
// transport streaming into each.
type VoiceManager struct {
	dg     *discordgo.Session
	ffmpeg string

	joinMu sync.Mutex
	mu     sync.Mutex
	conns  map[string]*voiceConn
}

func NewVoiceManager(dg *discordgo.Session, ffmpegPath string) *VoiceManager {
	return &VoiceManager{
		dg:     dg,
		ffmpeg: ffmpegPath,
		conns:  make(map[string]*voiceConn),
	}
}

// Transport implements player.Transports.
func (m *VoiceManager) Transport(guildID string) (player.Transport, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.conns[guildID]
	if !ok {
		return nil, false
	}
	return c.transport, true
}

// Join connects to channelID, moving the existing connection if there is one.
func (m *VoiceManager) Join(guildID, channelID string) error {
	m.joinMu.Lock()
	defer m.joinMu.Unlock()

	m.mu.Lock()
	c, ok := m.conns[guildID]
	if ok && c.channelID == channelID {
		m.mu.Unlock()
		return nil
	}
	m.mu.Unlock()

	vc, err := m.dg.ChannelVoiceJoin(guildID, channelID, false, true)
	if err != nil {
		return fmt.Errorf("failed to join voice channel: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.conns[guildID]; ok {
		c.channelID = channelID
		c.vc = vc
		c.transport.Rebind(vc)
	} else {
		m.conns[guildID] = &voiceConn{
			channelID: channelID,
			vc:        vc,
			transport: stream.NewVoiceTransport(guildID, vc, m.ffmpeg),
		}
	}
	log.Info().Str("component", "voice").Str("guild", guildID).Str("channel", channelID).Msg("joined voice channel")
	return nil
}

// Disconnect leaves the guild's voice channel on purpose. It satisfies the
// idle reaper and is what /leave uses.
func (m *VoiceManager) Disconnect(_ context.Context, guildID string) error {
	m.mu.Lock()
	c, ok := m.conns[guildID]
	if ok {
		c.leaving = true
	}
	m.mu.Unlock()
	if !ok {
		return player.ErrNotConnected
	}

	c.transport.Stop()
	err := c.vc.Disconnect()

	m.mu.Lock()
	if m.conns[guildID] == c {
		delete(m.conns, guildID)
	}
	m.mu.Unlock()
	if err != nil {
		return fmt.Errorf("disconnect: %w", err)
	}
	log.Info().Str("component", "voice").Str("guild", guildID).Msg("left voice channel")
	return nil
}

// Forget drops a connection that Discord reports as gone. It returns the
// channel the bot was in and whether the bot left on purpose.
func (m *VoiceManager) Forget(guildID string) (channelID string, intentional bool) {
	m.mu.Lock()
	c, ok := m.conns[guildID]
	if ok {
		delete(m.conns, guildID)
	}
	m.mu.Unlock()
	if !ok {
		return "", true
	}
	c.transport.Stop()
	return c.channelID, c.leaving
}

// Moved records that the bot was dragged into another channel.
func (m *VoiceManager) Moved(guildID, channelID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.conns[guildID]; ok && c.channelID != channelID {
		c.channelID = channelID
	}
}

// Connected reports the channel the bot sits in for a guild.
func (m *VoiceManager) Connected(guildID string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.conns[guildID]
	if !ok {
		return "", false
	}
	return c.channelID, true
}

// Connections returns guild ID to channel ID for every live connection.
func (m *VoiceManager) Connections() map[string]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]string, len(m.conns))
	for g, c := range m.conns {
		out[g] = c.channelID
	}
	return out
}

// MemberCount counts everyone in a voice channel, bots included.
func (m *VoiceManager) MemberCount(guildID, channelID string) int {
	n := 0
	m.eachVoiceState(guildID, func(vs *discordgo.VoiceState) {
		if vs.ChannelID == channelID {
			n++
		}
	})
	return n
}

// Listeners counts the humans in a voice channel.
func (m *VoiceManager) Listeners(guildID, channelID string) int {
	n := 0
	m.eachVoiceState(guildID, func(vs *discordgo.VoiceState) {
		if vs.ChannelID != channelID {
			return
		}
		if vs.Member != nil && vs.Member.User != nil && vs.Member.User.Bot {
			return
		}
		if m.dg.State.User != nil && vs.UserID == m.dg.State.User.ID {
			return
		}
		n++
	})
	return n
}

// UserChannel finds the voice channel a user is in.
func (m *VoiceManager) UserChannel(guildID, userID string) (string, error) {
	var channelID string
	m.eachVoiceState(guildID, func(vs *discordgo.VoiceState) {
		if vs.UserID == userID && vs.ChannelID != "" {
			channelID = vs.ChannelID
		}
	})
	if channelID == "" {
		return "", ErrUserNotInVoice
	}
	return channelID, nil
}

// Close leaves every channel.
func (m *VoiceManager) Close(ctx context.Context) {
	for guildID := range m.Connections() {
		if err := m.Disconnect(ctx, guildID); err != nil {
			log.Warn().Str("component", "voice").Str("guild", guildID).Err(err).Msg("failed to leave on shutdown")
		}
	}
}

func (m *VoiceManager) eachVoiceState(guildID string, fn func(*discordgo.VoiceState)) {
	if m.dg.State == nil {
		return
	}
	guild, err := m.dg.State.Guild(guildID)
	if err != nil {
		return
	}
	for _, vs := range guild.VoiceStates {
		fn(vs)
	}
}
