package music

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/cord-titan/internal/command"
	"github.com/keshon/cord-titan/internal/discord"
	"github.com/keshon/cord-titan/internal/music/resolver"
	"github.com/keshon/cord-titan/internal/music/track"
)

const searchTTL = 2 * time.Minute

var errBadSearchID = errors.New("malformed search id")

// SearchCommand lists search results in a select menu. The menu's custom id
// carries the requesting user and the time of the search, so picking a
// result needs no server-side state.
type SearchCommand struct {
	*Music
	now func() time.Time
}

func (c *SearchCommand) Name() string        { return "search" }
func (c *SearchCommand) Description() string { return "Search for songs on YouTube" }
func (c *SearchCommand) Category() string    { return categoryMusic }

func (c *SearchCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "query",
				Description: "Search query",
				Required:    true,
			},
		},
	}
}

func (c *SearchCommand) Run(ctx context.Context, data any) error {
	switch v := data.(type) {
	case *command.SlashInteractionContext:
		return c.search(ctx, v.Session, v.Event)
	case *command.ComponentInteractionContext:
		return c.pick(ctx, v.Session, v.Event)
	}
	return nil
}

func (c *SearchCommand) clock() time.Time {
	if c.now != nil {
		return c.now()
	}
	return time.Now()
}

func (c *SearchCommand) search(ctx context.Context, s *discordgo.Session, e *discordgo.InteractionCreate) error {
	query := optString(e, "query")
	if err := discord.RespondDeferred(s, e); err != nil {
		return fmt.Errorf("defer search: %w", err)
	}

	started := time.Now()
	searchCtx, cancel := context.WithTimeout(ctx, c.Config.SearchTimeout)
	results, err := c.Resolver.Search(searchCtx, query, c.Config.SearchResults)
	cancel()
	if err != nil {
		return editFailure(s, e, err)
	}

	embed := searchEmbed(query, results)
	embed.Footer = &discordgo.MessageEmbedFooter{
		Text: fmt.Sprintf("Found %d results in %.1fs | Expires in %d minutes", len(results), time.Since(started).Seconds(), int(searchTTL.Minutes())),
	}
	id := searchID(requester(e).ID, c.clock())
	_, err = discord.EditEmbed(s, e, embed, searchMenu(id, results))
	return err
}

func (c *SearchCommand) pick(ctx context.Context, s *discordgo.Session, e *discordgo.InteractionCreate) error {
	userID, at, err := parseSearchID(e.MessageComponentData().CustomID)
	if err != nil {
		return err
	}
	if userID != requester(e).ID {
		return discord.RespondEphemeral(s, e, "This search isn't yours!")
	}
	if c.clock().Sub(at) > searchTTL {
		return discord.RespondEphemeral(s, e, "This search has expired, run `/search` again.")
	}
	values := e.MessageComponentData().Values
	if len(values) == 0 {
		return nil
	}

	channelID, err := c.Voice.UserChannel(e.GuildID, userID)
	if err != nil {
		return discord.RespondEphemeral(s, e, "Join a voice channel first!")
	}
	if err := discord.RespondDeferred(s, e); err != nil {
		return fmt.Errorf("defer search pick: %w", err)
	}
	if err := c.Voice.Join(e.GuildID, channelID); err != nil {
		_, eerr := discord.EditEmbed(s, e, discord.ErrorEmbed("Connection Failed", fmt.Sprintf("Couldn't join voice: %v", err)), nil)
		return eerr
	}
	return c.enqueue(ctx, s, e, values[0], false)
}

func searchID(userID string, at time.Time) string {
	return "search:" + userID + ":" + strconv.FormatInt(at.Unix(), 10)
}

func parseSearchID(id string) (userID string, at time.Time, err error) {
	parts := strings.Split(id, ":")
	if len(parts) != 3 || parts[0] != "search" || parts[1] == "" {
		return "", time.Time{}, fmt.Errorf("%w: %q", errBadSearchID, id)
	}
	sec, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("%w: %q", errBadSearchID, id)
	}
	return parts[1], time.Unix(sec, 0), nil
}

func searchEmbed(query string, results []resolver.Result) *discordgo.MessageEmbed {
	embed := discord.Embed("🔍 Search Results", fmt.Sprintf("**Query:** `%s`\n\nSelect a song from the dropdown below:", query), discord.ColorInfo)
	for i, r := range results {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  fmt.Sprintf("`%d.` %s", i+1, discord.Truncate(r.Title, 55)),
			Value: fmt.Sprintf("⏱️ `%s` | 👤 `%s`", resultDuration(r), discord.Truncate(orUnknown(r.Uploader), 20)),
		})
	}
	return embed
}

// searchMenu builds the select menu; option values are the canonical URLs.
func searchMenu(customID string, results []resolver.Result) []discordgo.MessageComponent {
	options := make([]discordgo.SelectMenuOption, 0, len(results))
	for i, r := range results {
		options = append(options, discordgo.SelectMenuOption{
			Label:       discord.Truncate(fmt.Sprintf("%d. %s", i+1, r.Title), 90),
			Description: discord.Truncate(resultDuration(r)+" - "+orUnknown(r.Uploader), 90),
			Value:       r.URL,
		})
	}
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.SelectMenu{
				MenuType:    discordgo.StringSelectMenu,
				CustomID:    customID,
				Placeholder: "Select a song to play...",
				Options:     options,
			},
		}},
	}
}

func resultDuration(r resolver.Result) string {
	if r.Duration <= 0 {
		return "🔴 Live"
	}
	return track.FormatDuration(time.Duration(r.Duration * float64(time.Second)))
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}
