package discord

import (
	"github.com/bwmarrin/discordgo"

	"github.com/keshon/cord-titan/internal/music/policy"
)

// IsAdministrator reports whether the member behind an interaction has
// administrator rights in the guild, or is the configured developer.
func IsAdministrator(i *discordgo.InteractionCreate, developerID string) bool {
	m := i.Member
	if m == nil || m.User == nil {
		return false
	}
	if developerID != "" && m.User.ID == developerID {
		return true
	}
	return m.Permissions&discordgo.PermissionAdministrator != 0
}

// Actor describes the interaction's member for access decisions.
func Actor(i *discordgo.InteractionCreate, developerID string) policy.Actor {
	a := policy.Actor{Admin: IsAdministrator(i, developerID)}
	if i.Member != nil {
		a.Roles = i.Member.Roles
	}
	return a
}
