package music

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/keshon/cord-titan/internal/discord"
	"github.com/keshon/cord-titan/internal/music/player"
	"github.com/keshon/cord-titan/internal/music/resolver"
	"github.com/keshon/cord-titan/internal/music/track"
	"github.com/keshon/cord-titan/pkg/util"
)

// PlayCommand serves /play and, with next set, /playnext.
type PlayCommand struct {
	*Music
	next bool
}

func (c *PlayCommand) Name() string {
	if c.next {
		return "playnext"
	}
	return "play"
}

func (c *PlayCommand) Description() string {
	if c.next {
		return "Add a song to play next"
	}
	return "Play a song from YouTube"
}

func (c *PlayCommand) Category() string { return categoryMusic }

func (c *PlayCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "query",
				Description: "Song name or YouTube URL",
				Required:    true,
			},
		},
	}
}

func (c *PlayCommand) Run(ctx context.Context, data any) error {
	s, e, ok := slash(data)
	if !ok {
		return nil
	}
	query := optString(e, "query")
	if resolver.IsPlaylistURL(query) && resolver.CleanVideoURL(query) == query {
		return discord.RespondEmbedEphemeral(s, e, discord.Embed("📋 Playlist Link", "That's a playlist, use `/playlist` to queue all of it.", discord.ColorInfo))
	}

	channelID, err := c.Voice.UserChannel(e.GuildID, requester(e).ID)
	if err != nil {
		return respondFailure(s, e, err)
	}
	if err := discord.RespondDeferred(s, e); err != nil {
		return fmt.Errorf("defer %s: %w", c.Name(), err)
	}
	if _, err := discord.EditEmbed(s, e, discord.Embed("🔍 Searching", fmt.Sprintf("Looking for: **%s**\n\nPlease wait...", discord.Truncate(query, 100)), discord.ColorInfo), nil); err != nil {
		log.Debug().Str("component", "music").Err(err).Msg("failed to show loading message")
	}
	if err := c.Voice.Join(e.GuildID, channelID); err != nil {
		_, eerr := discord.EditEmbed(s, e, discord.ErrorEmbed("Connection Failed", fmt.Sprintf("Couldn't join voice: %v", err)), nil)
		return eerr
	}
	return c.enqueue(ctx, s, e, query, c.next)
}

// enqueue resolves query, hands it to the player and answers the deferred
// interaction. A track that starts at once turns the answer into the
// guild's now playing message.
func (m *Music) enqueue(ctx context.Context, s *discordgo.Session, e *discordgo.InteractionCreate, query string, next bool) error {
	started := time.Now()
	t, err := m.resolve(ctx, e, query)
	if err != nil {
		log.Warn().Str("component", "music").Str("guild", e.GuildID).Str("query", query).Err(err).Msg("failed to resolve")
		return editFailure(s, e, err)
	}
	took := time.Since(started)
	log.Info().Str("component", "music").Str("guild", e.GuildID).Str("track", t.Title).Dur("took", took).Msg("resolved")

	q := m.queue(e.GuildID)
	q.SetTextChannel(e.ChannelID)
	res, err := m.Player.Play(ctx, e.GuildID, t, next)
	if err != nil {
		return editFailure(s, e, err)
	}

	switch {
	case res.Status == player.StatusStopped:
		_, err = discord.EditEmbed(s, e, stoppedEmbed(fmt.Sprintf("**%s** was not started.", t.Title)), nil)
		return err
	case res.Status == player.StatusPlaying:
		embed := discord.TrackEmbed(res.Status.StringEmoji()+" "+string(res.Status), t, q)
		loadedIn(embed, took)
		msg, err := discord.EditEmbed(s, e, embed, discord.Controls(false))
		if err != nil {
			return err
		}
		m.Notifier.Adopt(e.GuildID, msg)
		return nil
	case next:
		embed := discord.TrackEmbed("⏭️ Added Next", t, q)
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Position", Value: "`#1 (Next)`", Inline: true})
		loadedIn(embed, took)
		_, err = discord.EditEmbed(s, e, embed, nil)
		return err
	default:
		embed := discord.TrackEmbed(res.Status.StringEmoji()+" "+string(res.Status), t, q)
		embed.Fields = append(embed.Fields,
			&discordgo.MessageEmbedField{Name: "Position", Value: fmt.Sprintf("`#%d`", res.Position), Inline: true},
			&discordgo.MessageEmbedField{Name: "Queue Duration", Value: "`" + discord.QueueDuration(q.TotalDuration()) + "`", Inline: true},
		)
		loadedIn(embed, took)
		_, err = discord.EditEmbed(s, e, embed, nil)
		return err
	}
}

// PlaylistCommand resolves a playlist's entries concurrently and queues them in order.
type PlaylistCommand struct{ *Music }

func (c *PlaylistCommand) Name() string        { return "playlist" }
func (c *PlaylistCommand) Description() string { return "Play a YouTube playlist" }
func (c *PlaylistCommand) Category() string    { return categoryMusic }

func (c *PlaylistCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "url",
				Description: "YouTube playlist URL",
				Required:    true,
			},
		},
	}
}

func (c *PlaylistCommand) Run(ctx context.Context, data any) error {
	s, e, ok := slash(data)
	if !ok {
		return nil
	}
	url := optString(e, "url")
	if !resolver.IsURL(url) {
		return discord.RespondEmbedEphemeral(s, e, discord.ErrorEmbed("Error", "Invalid playlist URL!"))
	}
	if _, err := c.Voice.UserChannel(e.GuildID, requester(e).ID); err != nil {
		return discord.RespondEmbedEphemeral(s, e, discord.ErrorEmbed("Error", "Join a voice channel first!"))
	}
	if err := discord.RespondDeferred(s, e); err != nil {
		return fmt.Errorf("defer playlist: %w", err)
	}
	if _, err := c.joinCaller(e); err != nil {
		return editFailure(s, e, err)
	}

	progress(s, e, "Fetching playlist information...")
	listCtx, cancel := context.WithTimeout(ctx, c.Config.ResolveTimeout)
	entries, err := c.Resolver.Playlist(listCtx, url, c.Config.PlaylistLimit)
	cancel()
	if err != nil {
		return editFailure(s, e, err)
	}
	progress(s, e, fmt.Sprintf("Found %d songs. Loading...", len(entries)))

	tracks, failed := c.resolveEntries(ctx, e, entries)
	if len(tracks) == 0 {
		_, err := discord.EditEmbed(s, e, discord.ErrorEmbed("Error", fmt.Sprintf("None of the %d playlist entries could be loaded.", len(entries))), nil)
		return err
	}

	q := c.queue(e.GuildID)
	q.SetTextChannel(e.ChannelID)
	res, err := c.Player.PlayAll(ctx, e.GuildID, tracks)
	if err != nil {
		return editFailure(s, e, err)
	}
	if res.Status == player.StatusStopped {
		_, err = discord.EditEmbed(s, e, stoppedEmbed("The playlist was not started."), nil)
		return err
	}
	log.Info().Str("component", "music").Str("guild", e.GuildID).Int("added", len(tracks)).Int("failed", failed).Msg("playlist queued")

	desc := fmt.Sprintf("✅ Added: **%d** songs\n", len(tracks))
	if failed > 0 {
		desc += fmt.Sprintf("❌ Failed: **%d** songs\n", failed)
	}
	desc += fmt.Sprintf("⏱️ Total Duration: `%s`", discord.QueueDuration(q.TotalDuration()))
	embed := discord.Embed("✅ Playlist Added", desc, discord.ColorSuccess)
	if tracks[0].Thumbnail != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: tracks[0].Thumbnail}
	}
	if _, err := discord.EditEmbed(s, e, embed, nil); err != nil {
		return err
	}
	if res.Status == player.StatusPlaying {
		c.Notifier.NowPlaying(e.GuildID, res.Track)
	}
	return nil
}

// resolveEntries resolves entries on the playlist worker pool, keeping
// playlist order. Entries that fail or time out are counted and dropped.
func (m *Music) resolveEntries(ctx context.Context, e *discordgo.InteractionCreate, entries []resolver.Result) ([]*track.Track, int) {
	results, errs := util.Parallel(ctx, entries, m.Config.PlaylistWorkers, func(ctx context.Context, r resolver.Result) (*track.Track, error) {
		ctx, cancel := context.WithTimeout(ctx, m.Config.PlaylistEntryTimeout)
		defer cancel()
		return m.resolve(ctx, e, r.URL)
	})
	tracks := lo.Filter(results, func(t *track.Track, i int) bool {
		if errs[i] != nil {
			log.Warn().Str("component", "music").Str("guild", e.GuildID).Str("entry", entries[i].Title).Err(errs[i]).Msg("failed to load playlist entry")
			return false
		}
		return t != nil
	})
	return tracks, len(entries) - len(tracks)
}

func progress(s *discordgo.Session, e *discordgo.InteractionCreate, step string) {
	if _, err := discord.EditEmbed(s, e, discord.Embed("📥 Loading Playlist", step, discord.ColorInfo), nil); err != nil {
		log.Debug().Str("component", "music").Err(err).Msg("failed to update playlist progress")
	}
}
