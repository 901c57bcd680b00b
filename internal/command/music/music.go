// Package music holds the playback slash commands and the now playing
// control buttons.
package music

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/cord-titan/internal/command"
	"github.com/keshon/cord-titan/internal/config"
	"github.com/keshon/cord-titan/internal/discord"
	"github.com/keshon/cord-titan/internal/music/filter"
	"github.com/keshon/cord-titan/internal/music/player"
	"github.com/keshon/cord-titan/internal/music/queue"
	"github.com/keshon/cord-titan/internal/music/resolver"
	"github.com/keshon/cord-titan/internal/music/track"
	"github.com/keshon/cord-titan/internal/storage"
	"github.com/keshon/cord-titan/internal/version"
	"github.com/keshon/cord-titan/pkg/cmd"
)

const (
	categoryMusic    = "🎵 Music"
	categoryEffects  = "🎚️ Effects"
	categoryVoice    = "🔊 Voice"
	categorySettings = "⚙️ Settings"
)

// Music is what every music command needs.
type Music struct {
	Player   *player.Player
	Voice    *discord.VoiceManager
	Notifier *discord.Notifier
	Resolver resolver.Resolver
	Storage  *storage.Storage
	Config   *config.Config
}

// Register adds all music commands and the control buttons to reg.
func Register(reg *cmd.Registry, m *Music, mws ...cmd.Middleware) {
	for _, c := range Commands(m) {
		command.RegisterCommand(reg, c, mws...)
	}
}

// Commands lists the music commands in help order.
func Commands(m *Music) []command.DiscordCommand {
	return []command.DiscordCommand{
		&PlayCommand{Music: m},
		&PlayCommand{Music: m, next: true},
		&SearchCommand{Music: m},
		&PlaylistCommand{Music: m},
		&QueueCommand{Music: m},
		&NowPlayingCommand{Music: m},
		&PauseCommand{Music: m},
		&ResumeCommand{Music: m},
		&SkipCommand{Music: m},
		&VoteSkipCommand{Music: m},
		&PreviousCommand{Music: m},
		&ReplayCommand{Music: m},
		&StopCommand{Music: m},
		&ClearCommand{Music: m},
		&RemoveCommand{Music: m},
		&MoveCommand{Music: m},
		&SkipToCommand{Music: m},
		&VolumeCommand{Music: m},
		&LoopCommand{Music: m},
		&ShuffleCommand{Music: m},
		&FilterCommand{Music: m},
		&ToggleFilterCommand{Music: m, target: filter.BassBoost, label: "Bass Boost"},
		&ToggleFilterCommand{Music: m, target: filter.Nightcore, label: "Nightcore"},
		&JoinCommand{Music: m},
		&LeaveCommand{Music: m},
		&Always247Command{Music: m},
		&GrabCommand{Music: m},
		&SongInfoCommand{Music: m},
		&SetDJCommand{Music: m},
		&ControlsCommand{Music: m},
	}
}

func (m *Music) Group() string            { return "music" }
func (m *Music) UserPermissions() []int64 { return []int64{} }

func (m *Music) queue(guildID string) *queue.Queue {
	return m.Player.Queues().Get(guildID)
}

// refresh re-renders the guild's now playing message.
func (m *Music) refresh(guildID string) {
	m.Notifier.Refresh(guildID, m.Player.IsPaused(guildID))
}

// resolve looks query up within the resolve timeout and stamps the track
// with its requester and the guild's filter.
func (m *Music) resolve(ctx context.Context, e *discordgo.InteractionCreate, query string) (*track.Track, error) {
	ctx, cancel := context.WithTimeout(ctx, m.Config.ResolveTimeout)
	defer cancel()
	t, err := m.Resolver.Resolve(ctx, query)
	if err != nil {
		return nil, err
	}
	t.SetRequester(requester(e))
	t.SetFilter(m.queue(e.GuildID).Filter())
	return t, nil
}

// joinCaller connects to the caller's voice channel.
func (m *Music) joinCaller(e *discordgo.InteractionCreate) (string, error) {
	channelID, err := m.Voice.UserChannel(e.GuildID, command.User(e).ID)
	if err != nil {
		return "", err
	}
	return channelID, m.Voice.Join(e.GuildID, channelID)
}

func requester(e *discordgo.InteractionCreate) track.Requester {
	u := command.User(e)
	name := u.GlobalName
	if name == "" {
		name = u.Username
	}
	return track.Requester{ID: u.ID, Name: name}
}

func slash(data any) (*discordgo.Session, *discordgo.InteractionCreate, bool) {
	ctx, ok := data.(*command.SlashInteractionContext)
	if !ok {
		return nil, nil, false
	}
	return ctx.Session, ctx.Event, true
}

func optString(e *discordgo.InteractionCreate, name string) string {
	if o, ok := command.Options(e)[name]; ok {
		return o.StringValue()
	}
	return ""
}

func optInt(e *discordgo.InteractionCreate, name string, def int) int {
	if o, ok := command.Options(e)[name]; ok {
		return int(o.IntValue())
	}
	return def
}

// failure turns a playback error into the message users see.
func failure(err error) (title, desc string) {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "⏱️ Timeout", "Request took too long. Try again or use a different song."
	case errors.Is(err, discord.ErrUserNotInVoice):
		return "Error", "You need to be in a voice channel!"
	case errors.Is(err, resolver.ErrNotFound):
		return "No Results", "Nothing found. Try different keywords or check the URL."
	case errors.Is(err, player.ErrNotConnected):
		return "Not Connected", "Not in a voice channel!"
	case errors.Is(err, player.ErrNotPlaying):
		return "Nothing Playing", "No song playing!"
	case errors.Is(err, player.ErrNoHistory):
		return "No History", "No previous song!"
	case errors.Is(err, player.ErrReresolve):
		return "Playback Error", fmt.Sprintf("Could not refresh the stream: %s", discord.Truncate(err.Error(), 200))
	}
	return "Error", discord.Truncate(err.Error(), 200)
}

func respondFailure(s *discordgo.Session, e *discordgo.InteractionCreate, err error) error {
	title, desc := failure(err)
	return discord.RespondEmbedEphemeral(s, e, discord.ErrorEmbed(title, desc))
}

// editFailure reports err on a deferred response.
func editFailure(s *discordgo.Session, e *discordgo.InteractionCreate, err error) error {
	title, desc := failure(err)
	embed := discord.ErrorEmbed(title, desc)
	if errors.Is(err, context.DeadlineExceeded) {
		embed = discord.Embed(title, desc, discord.ColorWarning)
	}
	_, eerr := discord.EditEmbed(s, e, embed, nil)
	return eerr
}

func loadedIn(embed *discordgo.MessageEmbed, d time.Duration) {
	embed.Footer = &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("Loaded in %.1fs | %s", d.Seconds(), version.AppName)}
}
