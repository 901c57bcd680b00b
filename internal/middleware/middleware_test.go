package middleware

import (
	"context"
	"errors"
	"testing"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/cord-titan/internal/command"
	"github.com/keshon/cord-titan/pkg/cmd"
)

type stubCommand struct {
	ran   int
	dj    bool
	perms []int64
}

func (p *stubCommand) Name() string             { return "stub" }
func (p *stubCommand) Description() string      { return "records runs" }
func (p *stubCommand) Group() string            { return "test" }
func (p *stubCommand) Category() string         { return "test" }
func (p *stubCommand) UserPermissions() []int64 { return p.perms }
func (p *stubCommand) RequiresDJ(any) bool      { return p.dj }
func (p *stubCommand) Run(context.Context, any) error {
	p.ran++
	return nil
}

type roles map[string]string

func (r roles) DJRole(guildID string) (string, error) {
	if guildID == "broken" {
		return "", errors.New("store down")
	}
	return r[guildID], nil
}

type counter struct{ n int }

func (c *counter) CommandUsed() { c.n++ }

func slash(guildID string, member *discordgo.Member) *command.SlashInteractionContext {
	return &command.SlashInteractionContext{Event: &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		Type:    discordgo.InteractionApplicationCommand,
		GuildID: guildID,
		Member:  member,
		Data:    discordgo.ApplicationCommandInteractionData{Name: "stub"},
	}}}
}

func run(t *testing.T, c cmd.Command, data any) {
	t.Helper()
	if err := c.Run(context.Background(), &cmd.Invocation{Data: data}); err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func TestDJCheckLetsAllowedMembersThrough(t *testing.T) {
	store := roles{"g": "dj", "open": ""}
	tests := []struct {
		name   string
		guild  string
		member *discordgo.Member
	}{
		{"no DJ role configured", "open", &discordgo.Member{User: &discordgo.User{ID: "u"}}},
		{"member holds DJ role", "g", &discordgo.Member{User: &discordgo.User{ID: "u"}, Roles: []string{"x", "dj"}}},
		{"administrator", "g", &discordgo.Member{User: &discordgo.User{ID: "u"}, Permissions: discordgo.PermissionAdministrator}},
		{"developer", "g", &discordgo.Member{User: &discordgo.User{ID: "dev"}}},
		{"role lookup failure counts as unset", "broken", &discordgo.Member{User: &discordgo.User{ID: "u"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &stubCommand{dj: true}
			c := cmd.Apply(&command.DiscordAdapter{Cmd: p}, WithDJCheck(store, "dev"))
			run(t, c, slash(tt.guild, tt.member))
			if p.ran != 1 {
				t.Fatalf("command ran %d times", p.ran)
			}
		})
	}
}

func TestDJCheckSkipsUngatedCommands(t *testing.T) {
	p := &stubCommand{}
	c := cmd.Apply(&command.DiscordAdapter{Cmd: p}, WithDJCheck(roles{"g": "dj"}, ""))
	run(t, c, slash("g", &discordgo.Member{User: &discordgo.User{ID: "u"}}))
	if p.ran != 1 {
		t.Fatal("ungated command should run for anyone")
	}
}

func TestPermissionCheckPassesAdminsAndHolders(t *testing.T) {
	p := &stubCommand{perms: []int64{discordgo.PermissionManageGuild}}
	c := cmd.Apply(&command.DiscordAdapter{Cmd: p}, WithUserPermissionCheck(""))

	run(t, c, slash("g", &discordgo.Member{User: &discordgo.User{ID: "u"}, Permissions: discordgo.PermissionAdministrator}))
	run(t, c, slash("g", &discordgo.Member{User: &discordgo.User{ID: "u"}, Permissions: discordgo.PermissionManageGuild}))
	if p.ran != 2 {
		t.Fatalf("command ran %d times", p.ran)
	}
}

func TestCommandLoggerCounts(t *testing.T) {
	p := &stubCommand{}
	n := &counter{}
	c := cmd.Apply(&command.DiscordAdapter{Cmd: p}, WithCommandLogger(n))

	run(t, c, slash("g", &discordgo.Member{User: &discordgo.User{ID: "u", Username: "ann"}}))
	run(t, c, "not an interaction")
	if p.ran != 2 || n.n != 1 {
		t.Fatalf("ran=%d counted=%d", p.ran, n.n)
	}
}
