package music

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/keshon/cord-titan/internal/command"
	"github.com/keshon/cord-titan/internal/discord"
	"github.com/keshon/cord-titan/internal/music/queue"
)

var loopAnnouncements = map[queue.LoopMode]string{
	queue.LoopOff:   "Loop disabled",
	queue.LoopSong:  "Looping current song",
	queue.LoopQueue: "Looping queue",
}

// ControlsCommand handles the buttons under a now playing message.
type ControlsCommand struct{ *Music }

func (c *ControlsCommand) Name() string        { return "controls" }
func (c *ControlsCommand) Description() string { return "Now playing control buttons" }
func (c *ControlsCommand) Category() string    { return categoryMusic }

// RequiresDJ gates the buttons that change what is playing.
func (c *ControlsCommand) RequiresDJ(data any) bool {
	ctx, ok := data.(*command.ComponentInteractionContext)
	if !ok {
		return false
	}
	switch ctx.Event.MessageComponentData().CustomID {
	case discord.ControlPauseResume, discord.ControlSkip, discord.ControlPrevious, discord.ControlStop:
		return true
	}
	return false
}

func (c *ControlsCommand) Run(ctx context.Context, data any) error {
	cc, ok := data.(*command.ComponentInteractionContext)
	if !ok {
		return nil
	}
	s, e := cc.Session, cc.Event
	guildID := e.GuildID
	q := c.queue(guildID)

	switch id := e.MessageComponentData().CustomID; id {
	case discord.ControlPauseResume:
		switch {
		case c.Player.IsPaused(guildID):
			if err := c.Player.Resume(guildID); err != nil {
				return respondFailure(s, e, err)
			}
			return discord.RespondUpdate(s, e, nil, discord.Controls(false))
		case c.Player.IsPlaying(guildID):
			if err := c.Player.Pause(guildID); err != nil {
				return respondFailure(s, e, err)
			}
			return discord.RespondUpdate(s, e, nil, discord.Controls(true))
		}
		return discord.RespondEphemeral(s, e, "Nothing playing!")

	case discord.ControlSkip:
		if err := discord.RespondDeferredEphemeral(s, e); err != nil {
			return err
		}
		if _, err := c.Player.Skip(ctx, guildID); err != nil {
			return discord.EditContent(s, e, "Nothing playing!")
		}
		return discord.EditContent(s, e, "Skipped!")

	case discord.ControlPrevious:
		if len(q.History()) == 0 {
			return discord.RespondEphemeral(s, e, "No previous song!")
		}
		if err := discord.RespondDeferredEphemeral(s, e); err != nil {
			return err
		}
		prev, err := c.Player.Previous(ctx, guildID)
		if err != nil {
			return editFailure(s, e, err)
		}
		if err := discord.EditContent(s, e, "Playing previous!"); err != nil {
			return err
		}
		c.Notifier.NowPlaying(guildID, prev)
		return nil

	case discord.ControlVolumeUp, discord.ControlVolumeDown:
		step, limit := volumeStep, "Max volume!"
		if id == discord.ControlVolumeDown {
			step, limit = -volumeStep, "Min volume!"
		}
		cur := q.Volume()
		if (step > 0 && cur >= maxVolume) || (step < 0 && cur <= 0) {
			return discord.RespondEphemeral(s, e, limit)
		}
		v := c.Player.SetVolume(guildID, cur+step)
		if err := discord.RespondEphemeral(s, e, fmt.Sprintf("Volume: %d%%", v)); err != nil {
			return err
		}
		c.refresh(guildID)
		return nil

	case discord.ControlLoop:
		mode := q.Loop().Cycle()
		q.SetLoop(mode)
		if err := discord.RespondEphemeral(s, e, loopAnnouncements[mode]); err != nil {
			return err
		}
		c.refresh(guildID)
		return nil

	case discord.ControlShuffle:
		status := "OFF"
		if q.ToggleShuffle() {
			status = "ON"
		}
		if err := discord.RespondEphemeral(s, e, "Shuffle: "+status); err != nil {
			return err
		}
		c.refresh(guildID)
		return nil

	case discord.ControlStop:
		if err := discord.RespondDeferredEphemeral(s, e); err != nil {
			return err
		}
		if err := c.stop(ctx, guildID); err != nil {
			return editFailure(s, e, err)
		}
		return discord.EditContent(s, e, "Stopped!")

	default:
		log.Warn().Str("component", "music").Str("custom_id", id).Msg("unknown control")
		return nil
	}
}
