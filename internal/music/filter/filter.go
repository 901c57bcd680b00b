// Package filter lists the audio filters a track can be played through.
package filter

import (
	"fmt"
	"strings"
)

// Name identifies an ffmpeg audio filter preset.
type Name string

const (
	Normal    Name = "normal"
	BassBoost Name = "bassboost"
	SuperBass Name = "superbass"
	Nightcore Name = "nightcore"
	Vaporwave Name = "vaporwave"
	Treble    Name = "treble"
	EightD    Name = "8d"
	Karaoke   Name = "karaoke"
	Soft      Name = "soft"
	Loud      Name = "loud"
)

type preset struct {
	label string
	chain string
}

// Output is always resampled to 48 kHz, so rate tricks are expressed against it.
var presets = map[Name]preset{
	Normal:    {"🎵 Normal", ""},
	BassBoost: {"🔊 Bass Boost", "bass=g=10,dynaudnorm=f=200"},
	SuperBass: {"💥 Super Bass", "bass=g=20,dynaudnorm=f=150"},
	Nightcore: {"⚡ Nightcore", "asetrate=48000*1.25,aresample=48000,bass=g=5"},
	Vaporwave: {"🌊 Vaporwave", "asetrate=48000*0.8,aresample=48000,atempo=1.1"},
	Treble:    {"🎼 Treble Boost", "treble=g=5,dynaudnorm=f=200"},
	EightD:    {"🎧 8D Audio", "apulsator=hz=0.08"},
	Karaoke:   {"🎤 Karaoke", "stereotools=mlev=0.03"},
	Soft:      {"🌙 Soft", "lowpass=f=1000,volume=0.5"},
	Loud:      {"📢 Loud", "volume=2.0,dynaudnorm=f=100"},
}

// All returns the presets in display order.
func All() []Name {
	return []Name{Normal, BassBoost, SuperBass, Nightcore, Vaporwave, Treble, EightD, Karaoke, Soft, Loud}
}

// Parse maps user input to a known preset.
func Parse(s string) (Name, error) {
	n := Name(strings.ToLower(strings.TrimSpace(s)))
	if n == "" {
		return Normal, nil
	}
	if _, ok := presets[n]; !ok {
		return Normal, fmt.Errorf("unknown filter %q", s)
	}
	return n, nil
}

// Label is the human readable preset name.
func (n Name) Label() string {
	if p, ok := presets[n]; ok {
		return p.label
	}
	return string(n)
}

// Chain returns the ffmpeg -af expression, empty for no filtering.
func (n Name) Chain() string {
	return presets[n].chain
}

// Args returns the ffmpeg arguments that apply the preset.
func (n Name) Args() []string {
	if c := n.Chain(); c != "" {
		return []string{"-af", c}
	}
	return nil
}
