// Package policy decides who may control playback and when a vote skip passes.
package policy

import (
	"math"
	"slices"
)

// Actor is the member attempting a privileged playback action.
type Actor struct {
	Admin bool
	Roles []string
}

// CanControl reports whether actor may force playback changes. Admins always
// can; otherwise a configured DJ role is required, and without one anyone can.
func CanControl(actor Actor, djRoleID string) bool {
	if actor.Admin || djRoleID == "" {
		return true
	}
	return slices.Contains(actor.Roles, djRoleID)
}

// VotesNeeded returns the number of votes required out of listeners
// non-bot members. At least one vote is always required.
func VotesNeeded(listeners int, threshold float64) int {
	if listeners < 1 {
		listeners = 1
	}
	return max(1, int(math.Ceil(float64(listeners)*threshold)))
}

// VoteSkip evaluates votes against the listener count.
func VoteSkip(votes, listeners int, threshold float64) (needed int, passed bool) {
	needed = VotesNeeded(listeners, threshold)
	return needed, votes >= needed
}
