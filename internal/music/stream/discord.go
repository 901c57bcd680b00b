// Package stream plays audio into a Discord voice connection: ffmpeg decodes
// the source to PCM, gopus encodes 20ms frames, and frames go to OpusSend.
package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"
	"layeh.com/gopus"

	"github.com/keshon/cord-titan/internal/music/filter"
)

const sendTimeout = 5 * time.Second

// ErrNotConnected is returned when the voice connection is gone.
var ErrNotConnected = errors.New("voice connection is not ready")

// VoiceTransport streams one track at a time into a voice connection.
// Every Start produces exactly one onComplete call.
type VoiceTransport struct {
	guildID string
	ffmpeg  string

	mu     sync.Mutex
	vc     *discordgo.VoiceConnection
	cancel context.CancelFunc
	done   chan struct{}

	playing atomic.Bool
	paused  atomic.Bool
	gain    atomic.Uint64 // math.Float64bits
	resume  chan struct{}
}

// NewVoiceTransport wraps vc. ffmpegPath may be empty to use ffmpeg from PATH.
func NewVoiceTransport(guildID string, vc *discordgo.VoiceConnection, ffmpegPath string) *VoiceTransport {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	t := &VoiceTransport{
		guildID: guildID,
		ffmpeg:  ffmpegPath,
		vc:      vc,
		resume:  make(chan struct{}, 1),
	}
	t.SetVolume(0.5)
	return t
}

// Rebind swaps the underlying voice connection, e.g. after a channel move.
func (t *VoiceTransport) Rebind(vc *discordgo.VoiceConnection) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.vc = vc
}

// Start stops whatever is playing and begins streamURL through filter f.
func (t *VoiceTransport) Start(streamURL string, f filter.Name, onComplete func(error)) error {
	t.Stop()

	t.mu.Lock()
	vc := t.vc
	if vc == nil {
		t.mu.Unlock()
		return ErrNotConnected
	}

	ctx, cancel := context.WithCancel(context.Background())
	proc, err := startFFmpeg(ctx, t.ffmpeg, streamURL, f)
	if err != nil {
		cancel()
		t.mu.Unlock()
		return err
	}

	done := make(chan struct{})
	t.cancel = cancel
	t.done = done
	t.paused.Store(false)
	t.playing.Store(true)
	t.mu.Unlock()

	log.Info().Str("component", "stream").Str("guild", t.guildID).Str("filter", string(f)).Msg("playback started")

	go func() {
		defer close(done)
		err := t.pump(ctx, proc.stdout, vc)
		cancel()
		if werr := proc.wait(ctx); err == nil {
			err = werr
		}
		t.playing.Store(false)
		if err != nil {
			log.Warn().Str("component", "stream").Str("guild", t.guildID).Err(err).Msg("playback ended with error")
		}
		if onComplete != nil {
			onComplete(err)
		}
	}()
	return nil
}

// pump runs until the source ends, ctx is canceled or sending fails.
func (t *VoiceTransport) pump(ctx context.Context, src io.Reader, vc *discordgo.VoiceConnection) error {
	encoder, err := gopus.NewEncoder(sampleRate, channels, gopus.Audio)
	if err != nil {
		return fmt.Errorf("encoder error: %w", err)
	}

	_ = vc.Speaking(true)
	defer func() { _ = vc.Speaking(false) }()

	pcmBuf := make([]byte, frameSize*channels*2)
	intBuf := make([]int16, frameSize*channels)
	timer := time.NewTimer(sendTimeout)
	defer timer.Stop()

	for {
		if t.paused.Load() {
			select {
			case <-ctx.Done():
				return nil
			case <-t.resume:
				continue
			}
		}

		if _, err := io.ReadFull(src, pcmBuf); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read error: %w", err)
		}

		decodePCM(intBuf, pcmBuf, t.volume())
		opus, err := encoder.Encode(intBuf, frameSize, len(pcmBuf))
		if err != nil {
			return fmt.Errorf("encode error: %w", err)
		}

		timer.Reset(sendTimeout)
		select {
		case <-ctx.Done():
			return nil
		case vc.OpusSend <- opus:
		case <-timer.C:
			return ErrNotConnected
		}
	}
}

// Stop ends the current playback and waits for its goroutine to exit.
func (t *VoiceTransport) Stop() {
	t.mu.Lock()
	cancel, done := t.cancel, t.done
	t.cancel, t.done = nil, nil
	t.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	select {
	case <-done:
	case <-time.After(sendTimeout):
		log.Warn().Str("component", "stream").Str("guild", t.guildID).Msg("playback goroutine did not exit in time")
	}
}

// Pause holds the frame loop. It reports false when nothing is playing.
func (t *VoiceTransport) Pause() bool {
	if !t.playing.Load() {
		return false
	}
	return t.paused.CompareAndSwap(false, true)
}

// Resume releases a paused frame loop.
func (t *VoiceTransport) Resume() bool {
	if !t.paused.CompareAndSwap(true, false) {
		return false
	}
	select {
	case t.resume <- struct{}{}:
	default:
	}
	return true
}

func (t *VoiceTransport) IsPlaying() bool { return t.playing.Load() && !t.paused.Load() }

func (t *VoiceTransport) IsPaused() bool { return t.playing.Load() && t.paused.Load() }

// SetVolume sets the gain applied to every sample; 1.0 is unchanged.
func (t *VoiceTransport) SetVolume(fraction float64) {
	t.gain.Store(math.Float64bits(max(fraction, 0)))
}

func (t *VoiceTransport) volume() float64 {
	return math.Float64frombits(t.gain.Load())
}
