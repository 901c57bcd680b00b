package stream

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"

	"github.com/keshon/cord-titan/internal/music/filter"
)

const (
	channels   = 2
	sampleRate = 48000
	frameSize  = 960 // 20ms at 48kHz
)

// ffmpegArgs decodes url into raw s16le stereo PCM on stdout.
func ffmpegArgs(url string, f filter.Name) []string {
	args := []string{
		"-reconnect", "1",
		"-reconnect_streamed", "1",
		"-reconnect_delay_max", "5",
		"-nostdin",
		"-i", url,
		"-vn",
	}
	args = append(args, f.Args()...)
	return append(args,
		"-f", "s16le",
		"-ar", strconv.Itoa(sampleRate),
		"-ac", strconv.Itoa(channels),
		"-loglevel", "warning",
		"pipe:1",
	)
}

type ffmpegProcess struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser
	stderr bytes.Buffer
}

func startFFmpeg(ctx context.Context, bin, url string, f filter.Name) (*ffmpegProcess, error) {
	p := &ffmpegProcess{cmd: exec.CommandContext(ctx, bin, ffmpegArgs(url, f)...)}
	p.cmd.Stderr = &p.stderr

	stdout, err := p.cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe error: %w", err)
	}
	p.stdout = stdout

	if err := p.cmd.Start(); err != nil {
		return nil, fmt.Errorf("ffmpeg start error: %w", err)
	}
	return p, nil
}

// wait reaps the process. A kill caused by ctx cancellation is not an error.
func (p *ffmpegProcess) wait(ctx context.Context) error {
	err := p.cmd.Wait()
	if err == nil || ctx.Err() != nil {
		return nil
	}
	if msg := strings.TrimSpace(p.stderr.String()); msg != "" {
		return fmt.Errorf("ffmpeg: %w: %s", err, msg)
	}
	return fmt.Errorf("ffmpeg: %w", err)
}
