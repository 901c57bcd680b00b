package core

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/cord-titan/internal/command"
	"github.com/keshon/cord-titan/internal/discord"
	"github.com/keshon/cord-titan/internal/version"
	"github.com/keshon/cord-titan/pkg/cmd"
)

const tips = "- Use the buttons on Now Playing for quick controls\n" +
	"- Select from dropdown after `/search`\n" +
	"- Try `/filter 8d` for immersive audio\n" +
	"- Volume can go up to 200% for quiet songs\n" +
	"- Use `/247` to keep the bot always connected"

type HelpCommand struct{ *Core }

func (c *HelpCommand) Name() string             { return "help" }
func (c *HelpCommand) Description() string      { return "Get a list of available commands" }
func (c *HelpCommand) Group() string            { return "core" }
func (c *HelpCommand) Category() string         { return "🕯️ Information" }
func (c *HelpCommand) UserPermissions() []int64 { return []int64{} }

func (c *HelpCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "category",
				Description: "View commands grouped by category",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "flat",
				Description: "View all commands as a flat list",
			},
		},
	}
}

func (c *HelpCommand) Run(_ context.Context, data any) error {
	context, ok := data.(*command.SlashInteractionContext)
	if !ok {
		return nil
	}
	s, e := context.Session, context.Event

	var output string
	opts := e.ApplicationCommandData().Options
	if len(opts) > 0 && opts[0].Name == "flat" {
		output = buildHelpFlat(c.Registry)
	} else {
		output = buildHelpByCategory(c.Registry)
	}

	embed := discord.Embed(version.AppName+" Help", "Use `/play [song]` to start playing music!\n\n"+output, discord.EmbedColor)
	embed.Fields = []*discordgo.MessageEmbedField{{Name: "Pro Tips", Value: tips}}
	return discord.RespondEmbedEphemeral(s, e, embed)
}

// visible returns the registered slash commands with their metadata.
func visible(reg *cmd.Registry) []cmd.Command {
	var out []cmd.Command
	for _, c := range reg.GetAll() {
		if command.Definition(c) != nil {
			out = append(out, c)
		}
	}
	return out
}

func buildHelpByCategory(reg *cmd.Registry) string {
	categoryMap := make(map[string][]cmd.Command)
	for _, c := range visible(reg) {
		cat := ""
		if meta, ok := command.Meta(c); ok {
			cat = meta.Category()
		}
		categoryMap[cat] = append(categoryMap[cat], c)
	}

	cats := make([]string, 0, len(categoryMap))
	for cat := range categoryMap {
		cats = append(cats, cat)
	}
	sort.Slice(cats, func(i, j int) bool {
		wi, wj := command.CategoryWeights[cats[i]], command.CategoryWeights[cats[j]]
		if wi != wj {
			return wi < wj
		}
		return cats[i] < cats[j]
	})

	var sb strings.Builder
	for _, cat := range cats {
		fmt.Fprintf(&sb, "**%s**\n", cat)
		for _, c := range categoryMap[cat] {
			fmt.Fprintf(&sb, "`/%s` - %s\n", c.Name(), c.Description())
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func buildHelpFlat(reg *cmd.Registry) string {
	var sb strings.Builder
	for _, c := range visible(reg) {
		fmt.Fprintf(&sb, "`/%s` - %s\n", c.Name(), c.Description())
	}
	return sb.String()
}
