package cmd

import (
	"context"
	"testing"
)

type named string

func (n named) Name() string                           { return string(n) }
func (n named) Description() string                    { return "test command" }
func (n named) Run(context.Context, *Invocation) error { return nil }

func trace(tag string, out *[]string) Middleware {
	return func(c Command) Command {
		return Wrap(c, func(ctx context.Context, inv *Invocation) error {
			*out = append(*out, tag)
			return c.Run(ctx, inv)
		})
	}
}

func TestApplyOrder(t *testing.T) {
	var order []string
	c := Apply(named("play"), trace("outer", &order), trace("inner", &order))
	if err := c.Run(context.Background(), &Invocation{}); err != nil {
		t.Fatal(err)
	}
	if len(order) != 2 || order[0] != "outer" || order[1] != "inner" {
		t.Fatalf("order = %v", order)
	}
	if c.Name() != "play" {
		t.Fatalf("Name = %q", c.Name())
	}
	if Root(c) != Command(named("play")) {
		t.Fatalf("Root did not unwrap to the registered command")
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	r.Register(named("skip"))
	r.Register(named("controls"))

	if r.Get("skip") == nil || r.Get("missing") != nil {
		t.Fatal("Get mismatch")
	}
	if c := r.Match("controls:vol_up"); c == nil || c.Name() != "controls" {
		t.Fatalf("Match = %v", c)
	}
	all := r.GetAll()
	if len(all) != 2 || all[0].Name() != "controls" {
		t.Fatalf("GetAll = %v", all)
	}
}
