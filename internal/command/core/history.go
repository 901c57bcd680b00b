package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/cord-titan/internal/command"
	"github.com/keshon/cord-titan/internal/discord"
	"github.com/keshon/cord-titan/internal/storage"
)

const (
	discordMaxMessageLength = 2000
	codeLeftBlockWrapper    = "```md"
	codeRightBlockWrapper   = "```"
)

var maxContentLength = discordMaxMessageLength - len(codeLeftBlockWrapper) - len(codeRightBlockWrapper)

type HistoryCommand struct{}

func (c *HistoryCommand) Name() string        { return "history" }
func (c *HistoryCommand) Description() string { return "Review recent commands used in this server" }
func (c *HistoryCommand) Group() string       { return "core" }
func (c *HistoryCommand) Category() string    { return "⚙️ Settings" }
func (c *HistoryCommand) UserPermissions() []int64 {
	return []int64{discordgo.PermissionAdministrator}
}

func (c *HistoryCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{Name: c.Name(), Description: c.Description()}
}

func (c *HistoryCommand) Run(_ context.Context, data any) error {
	context, ok := data.(*command.SlashInteractionContext)
	if !ok {
		return nil
	}
	s, e := context.Session, context.Event

	records, err := context.Storage.FetchCommandHistory(e.GuildID)
	if err != nil {
		return discord.RespondEmbedEphemeral(s, e, discord.ErrorEmbed("Error", fmt.Sprintf("Failed to fetch command history: %v", err)))
	}
	if len(records) == 0 {
		return discord.RespondEmbedEphemeral(s, e, discord.Embed("📜 History", "No commands recorded yet.", discord.ColorInfo))
	}
	return discord.RespondEphemeral(s, e, historyTable(records))
}

// historyTable renders records newest first as a markdown code block that
// fits in one message.
func historyTable(records []storage.CommandHistoryRecord) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%-19s\t%-15s\t%-12s\t%s\n", "# Datetime", "# Username", "# Channel", "# Command"))

	for i := len(records) - 1; i >= 0; i-- {
		r := records[i]
		cmd := "/" + r.Command
		if r.Param != "" {
			cmd += " " + r.Param
		}
		line := fmt.Sprintf("%-19s\t%-15s\t#%-12s\t%s\n",
			r.Datetime.Format("2006-01-02 15:04:05"),
			r.Username,
			r.ChannelName,
			cmd,
		)
		if b.Len()+len(line) > maxContentLength {
			break
		}
		b.WriteString(line)
	}
	return codeLeftBlockWrapper + "\n" + b.String() + codeRightBlockWrapper
}
