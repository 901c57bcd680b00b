package queue

import (
	"fmt"
	"strings"
)

// LoopMode controls what happens when the current track ends.
type LoopMode int

const (
	LoopOff LoopMode = iota
	LoopSong
	LoopQueue
)

func (m LoopMode) String() string {
	switch m {
	case LoopSong:
		return "song"
	case LoopQueue:
		return "queue"
	default:
		return "off"
	}
}

// Emoji is used on control buttons and embeds.
func (m LoopMode) Emoji() string {
	switch m {
	case LoopSong:
		return "🔂"
	case LoopQueue:
		return "🔁"
	default:
		return "➡️"
	}
}

// Cycle returns the mode that follows m: off, song, queue, off.
func (m LoopMode) Cycle() LoopMode {
	return (m + 1) % 3
}

// ParseLoopMode accepts off, song or queue.
func ParseLoopMode(s string) (LoopMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "off", "":
		return LoopOff, nil
	case "song", "track":
		return LoopSong, nil
	case "queue", "all":
		return LoopQueue, nil
	}
	return LoopOff, fmt.Errorf("unknown loop mode %q", s)
}
