package filter_test

import (
	"testing"

	"github.com/keshon/cord-titan/internal/music/filter"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    filter.Name
		wantErr bool
	}{
		{"", filter.Normal, false},
		{"BassBoost", filter.BassBoost, false},
		{" 8d ", filter.EightD, false},
		{"chipmunk", filter.Normal, true},
	}
	for _, tt := range tests {
		got, err := filter.Parse(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("Parse(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("Parse(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestArgs(t *testing.T) {
	if args := filter.Normal.Args(); args != nil {
		t.Errorf("normal should not add ffmpeg args, got %v", args)
	}
	for _, n := range filter.All() {
		if n == filter.Normal {
			continue
		}
		args := n.Args()
		if len(args) != 2 || args[0] != "-af" || args[1] == "" {
			t.Errorf("%s: unexpected args %v", n, args)
		}
	}
}
