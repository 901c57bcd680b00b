package discord

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"

	"github.com/keshon/cord-titan/internal/music/queue"
	"github.com/keshon/cord-titan/internal/music/track"
)

// Notifier posts playback changes to the text channel a guild's queue was
// last driven from. Every call is best effort.
type Notifier struct {
	dg     *discordgo.Session
	queues *queue.Registry
}

func NewNotifier(dg *discordgo.Session, queues *queue.Registry) *Notifier {
	return &Notifier{dg: dg, queues: queues}
}

// NowPlaying posts a fresh now playing message with controls and retires
// the buttons of the previous one.
func (n *Notifier) NowPlaying(guildID string, t *track.Track) {
	q := n.queues.Get(guildID)
	channelID := q.TextChannel()
	if channelID == "" {
		return
	}
	n.retire(q)

	msg, err := MessageEmbed(n.dg, channelID, TrackEmbed("🎵 Now Playing", t, q), Controls(false))
	if err != nil {
		log.Warn().Str("component", "notifier").Str("guild", guildID).Err(err).Msg("failed to post now playing")
		return
	}
	q.SetNowPlaying(msg.ChannelID, msg.ID)
}

// Failure reports a track that could not be started.
func (n *Notifier) Failure(guildID string, t *track.Track, err error) {
	channelID := n.queues.Get(guildID).TextChannel()
	if channelID == "" {
		return
	}
	desc := fmt.Sprintf("Could not play **%s**.\n`%s`\n\nPlayback stopped, use `/skip` or `/play` to continue.", t.Title, Truncate(err.Error(), 200))
	if _, err := MessageEmbed(n.dg, channelID, ErrorEmbed("Playback Error", desc), nil); err != nil {
		log.Warn().Str("component", "notifier").Str("guild", guildID).Err(err).Msg("failed to report playback failure")
	}
}

// Adopt makes a message posted elsewhere, such as a command reply, the
// guild's now playing message.
func (n *Notifier) Adopt(guildID string, msg *discordgo.Message) {
	if msg == nil {
		return
	}
	q := n.queues.Get(guildID)
	n.retire(q)
	q.SetTextChannel(msg.ChannelID)
	q.SetNowPlaying(msg.ChannelID, msg.ID)
}

// Refresh re-renders the now playing message after a settings change. A
// message that no longer exists is forgotten.
func (n *Notifier) Refresh(guildID string, paused bool) {
	q := n.queues.Get(guildID)
	channelID, id := q.NowPlaying()
	cur := q.Current()
	if id == "" || channelID == "" || cur == nil {
		return
	}
	embeds := []*discordgo.MessageEmbed{TrackEmbed("🎵 Now Playing", cur, q)}
	components := Controls(paused)
	_, err := n.dg.ChannelMessageEditComplex(&discordgo.MessageEdit{
		ID:         id,
		Channel:    channelID,
		Embeds:     &embeds,
		Components: &components,
	})
	n.handleEditError(q, guildID, err)
}

// Retire strips the controls from the guild's now playing message, e.g.
// after playback was stopped.
func (n *Notifier) Retire(guildID string) {
	n.retire(n.queues.Get(guildID))
}

func (n *Notifier) retire(q *queue.Queue) {
	channelID, id := q.NowPlaying()
	if id == "" || channelID == "" {
		return
	}
	q.SetNowPlaying("", "")
	components := []discordgo.MessageComponent{}
	_, err := n.dg.ChannelMessageEditComplex(&discordgo.MessageEdit{
		ID:         id,
		Channel:    channelID,
		Components: &components,
	})
	if err != nil && !IsNotFound(err) {
		log.Debug().Str("component", "notifier").Str("message", id).Err(err).Msg("failed to retire controls")
	}
}

func (n *Notifier) handleEditError(q *queue.Queue, guildID string, err error) {
	switch {
	case err == nil:
	case IsNotFound(err):
		q.SetNowPlaying("", "")
	default:
		log.Warn().Str("component", "notifier").Str("guild", guildID).Err(err).Msg("failed to refresh now playing")
	}
}
