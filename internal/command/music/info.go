package music

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/cord-titan/internal/discord"
	"github.com/keshon/cord-titan/internal/music/filter"
	"github.com/keshon/cord-titan/internal/music/player"
	"github.com/keshon/cord-titan/internal/version"
	"github.com/keshon/cord-titan/pkg/util"
)

// GrabCommand sends the current track to the caller's DMs.
type GrabCommand struct{ *Music }

func (c *GrabCommand) Name() string        { return "grab" }
func (c *GrabCommand) Description() string { return "DM yourself the current song" }
func (c *GrabCommand) Category() string    { return categoryMusic }

func (c *GrabCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{Name: c.Name(), Description: c.Description()}
}

func (c *GrabCommand) Run(_ context.Context, data any) error {
	s, e, ok := slash(data)
	if !ok {
		return nil
	}
	cur := c.queue(e.GuildID).Current()
	if cur == nil {
		return discord.RespondEmbedEphemeral(s, e, discord.ErrorEmbed("Nothing Playing", "No song to grab!"))
	}

	embed := &discordgo.MessageEmbed{
		Title:       "Saved Song",
		URL:         cur.WebpageURL,
		Description: fmt.Sprintf("**%s**", cur.Title),
		Color:       discord.EmbedColor,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Duration", Value: "`" + cur.FormatDuration() + "`", Inline: true},
			{Name: "Channel", Value: "`" + orUnknown(cur.Uploader) + "`", Inline: true},
			{Name: "Link", Value: fmt.Sprintf("[Click Here](%s)", cur.WebpageURL)},
		},
		Footer: &discordgo.MessageEmbedFooter{Text: "Saved from " + guildName(s, e.GuildID)},
	}
	if cur.Thumbnail != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: cur.Thumbnail}
	}

	dm, err := s.UserChannelCreate(requester(e).ID)
	if err == nil {
		_, err = s.ChannelMessageSendEmbed(dm.ID, embed)
	}
	if isForbidden(err) {
		return discord.RespondEmbedEphemeral(s, e, discord.ErrorEmbed("Error", "Couldn't DM you! Enable DMs from server members."))
	}
	if err != nil {
		return fmt.Errorf("send grab DM: %w", err)
	}
	return discord.RespondEmbedEphemeral(s, e, discord.Embed("Song Grabbed", "Check your DMs!", discord.ColorSuccess))
}

func isForbidden(err error) bool {
	var rest *discordgo.RESTError
	return errors.As(err, &rest) && rest.Response != nil && rest.Response.StatusCode == http.StatusForbidden
}

type SongInfoCommand struct{ *Music }

func (c *SongInfoCommand) Name() string        { return "songinfo" }
func (c *SongInfoCommand) Description() string { return "Get detailed info about current song" }
func (c *SongInfoCommand) Category() string    { return categoryMusic }

func (c *SongInfoCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{Name: c.Name(), Description: c.Description()}
}

func (c *SongInfoCommand) Run(_ context.Context, data any) error {
	s, e, ok := slash(data)
	if !ok {
		return nil
	}
	cur := c.queue(e.GuildID).Current()
	if cur == nil {
		return respondFailure(s, e, player.ErrNotPlaying)
	}

	embed := &discordgo.MessageEmbed{
		Title:       "Song Information",
		Description: fmt.Sprintf("**[%s](%s)**", cur.Title, cur.WebpageURL),
		Color:       discord.ColorInfo,
		Footer:      &discordgo.MessageEmbedFooter{Text: version.AppName},
	}
	if cur.Thumbnail != "" {
		embed.Image = &discordgo.MessageEmbedImage{URL: cur.Thumbnail}
	}
	add := func(name, value string, inline bool) {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: name, Value: value, Inline: inline})
	}
	add("Duration", "`"+cur.FormatDuration()+"`", true)
	add("Channel", "`"+orUnknown(cur.Uploader)+"`", true)
	add("Requested by", orUnknown(cur.Requester().Mention()), true)
	if cur.Views > 0 {
		add("Views", "`"+discord.Thousands(cur.Views)+"`", true)
	}
	if cur.Likes > 0 {
		add("Likes", "`"+discord.Thousands(cur.Likes)+"`", true)
	}
	if cur.UploadDate != "" {
		add("Upload Date", "`"+util.FormatCompactDate(cur.UploadDate, "YYYY-MM-DD")+"`", true)
	}
	if f := cur.Filter(); f != filter.Normal {
		add("Active Filter", "`"+strings.ToUpper(string(f))+"`", true)
	}
	if cur.Description != "" {
		add("Description", cur.Description, false)
	}
	return discord.RespondEmbed(s, e, embed)
}

func guildName(s *discordgo.Session, guildID string) string {
	if s != nil && s.State != nil {
		if g, err := s.State.Guild(guildID); err == nil {
			return g.Name
		}
	}
	return "a server"
}
