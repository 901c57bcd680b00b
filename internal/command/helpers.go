package command

import "github.com/bwmarrin/discordgo"

// Options flattens the options of a slash interaction, descending into a
// subcommand when there is one.
func Options(e *discordgo.InteractionCreate) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	out := make(map[string]*discordgo.ApplicationCommandInteractionDataOption)
	opts := e.ApplicationCommandData().Options
	if len(opts) == 1 && opts[0].Type == discordgo.ApplicationCommandOptionSubCommand {
		opts = opts[0].Options
	}
	for _, o := range opts {
		out[o.Name] = o
	}
	return out
}

// User returns the user behind an interaction, in a guild or a DM.
func User(e *discordgo.InteractionCreate) *discordgo.User {
	if e.Member != nil && e.Member.User != nil {
		return e.Member.User
	}
	if e.User != nil {
		return e.User
	}
	return &discordgo.User{ID: "unknown", Username: "Unknown"}
}

// Event returns the interaction of a slash or component context.
func Event(data any) (*discordgo.Session, *discordgo.InteractionCreate, bool) {
	switch v := data.(type) {
	case *SlashInteractionContext:
		return v.Session, v.Event, true
	case *ComponentInteractionContext:
		return v.Session, v.Event, true
	}
	return nil, nil, false
}
