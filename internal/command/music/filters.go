package music

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/cord-titan/internal/discord"
	"github.com/keshon/cord-titan/internal/music/filter"
)

var filterHints = map[filter.Name]string{
	filter.Normal:    "Default audio",
	filter.BassBoost: "Enhanced bass",
	filter.SuperBass: "Maximum bass",
	filter.Nightcore: "Faster & higher pitch",
	filter.Vaporwave: "Slower & lower pitch",
	filter.Treble:    "Enhanced highs",
	filter.EightD:    "Surround effect",
	filter.Karaoke:   "Reduced vocals",
	filter.Soft:      "Quieter & mellow",
	filter.Loud:      "Boosted volume",
}

// FilterCommand applies an audio preset to the guild and restarts the
// current track through it.
type FilterCommand struct{ *Music }

func (c *FilterCommand) Name() string        { return "filter" }
func (c *FilterCommand) Description() string { return "Apply audio filter/effect" }
func (c *FilterCommand) Category() string    { return categoryEffects }

func (c *FilterCommand) SlashDefinition() *discordgo.ApplicationCommand {
	choices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(filter.All()))
	for _, f := range filter.All() {
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{
			Name:  fmt.Sprintf("%s - %s", f.Label(), filterHints[f]),
			Value: string(f),
		})
	}
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "effect",
				Description: "Choose an audio effect",
				Required:    true,
				Choices:     choices,
			},
		},
	}
}

func (c *FilterCommand) Run(ctx context.Context, data any) error {
	s, e, ok := slash(data)
	if !ok {
		return nil
	}
	f, err := filter.Parse(optString(e, "effect"))
	if err != nil {
		return discord.RespondEmbedEphemeral(s, e, discord.ErrorEmbed("Invalid", err.Error()))
	}
	return c.applyFilter(ctx, s, e, f, "Filter: "+f.Label())
}

// ToggleFilterCommand switches one preset on, or back to normal when it is
// already active.
type ToggleFilterCommand struct {
	*Music
	target filter.Name
	label  string
}

func (c *ToggleFilterCommand) Name() string        { return string(c.target) }
func (c *ToggleFilterCommand) Description() string { return fmt.Sprintf("Toggle %s on/off", strings.ToLower(c.label)) }
func (c *ToggleFilterCommand) Category() string    { return categoryEffects }

func (c *ToggleFilterCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{Name: c.Name(), Description: c.Description()}
}

func (c *ToggleFilterCommand) Run(ctx context.Context, data any) error {
	s, e, ok := slash(data)
	if !ok {
		return nil
	}
	f, status := toggled(c.queue(e.GuildID).Filter(), c.target)
	return c.applyFilter(ctx, s, e, f, c.label+" "+status)
}

// toggled returns the filter that results from toggling target.
func toggled(current, target filter.Name) (filter.Name, string) {
	if current == target {
		return filter.Normal, "Disabled"
	}
	return target, "Enabled"
}

func (m *Music) applyFilter(ctx context.Context, s *discordgo.Session, e *discordgo.InteractionCreate, f filter.Name, title string) error {
	if err := discord.RespondDeferred(s, e); err != nil {
		return fmt.Errorf("defer filter: %w", err)
	}
	cur, err := m.Player.ApplyFilter(ctx, e.GuildID, f)
	if err != nil {
		return editFailure(s, e, err)
	}
	desc := fmt.Sprintf("Next songs will play with **%s** effect!", strings.ToUpper(string(f)))
	if cur != nil {
		desc = fmt.Sprintf("Now playing with **%s** effect!", strings.ToUpper(string(f)))
		m.refresh(e.GuildID)
	}
	_, err = discord.EditEmbed(s, e, discord.Embed("🎚️ "+title, desc, discord.EmbedColor), nil)
	return err
}
