// Package cmd is a transport-agnostic command core: a command has a name, a
// description and Run(ctx, invocation). Registration and dispatch belong to
// adapters such as the Discord one.
package cmd

import "context"

// Invocation carries what a runner passes in. Adapters put their own context
// in Data, e.g. the session and interaction event.
type Invocation struct {
	Args []string
	Data any
}

// Command is identity plus execution. Permissions and transport-specific
// registration stay in adapters.
type Command interface {
	Name() string
	Description() string
	Run(ctx context.Context, inv *Invocation) error
}
