package util

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"
)

func TestParallelKeepsOrderAndCollectsErrors(t *testing.T) {
	inputs := []int{1, 2, 3, 4, 5, 6}
	results, errs := Parallel(context.Background(), inputs, 3, func(_ context.Context, n int) (string, error) {
		if n%3 == 0 {
			return "", fmt.Errorf("bad %d", n)
		}
		return fmt.Sprintf("r%d", n), nil
	})
	for i, n := range inputs {
		if n%3 == 0 {
			if errs[i] == nil {
				t.Errorf("input %d: expected error", n)
			}
			continue
		}
		if errs[i] != nil || results[i] != fmt.Sprintf("r%d", n) {
			t.Errorf("input %d: got %q, %v", n, results[i], errs[i])
		}
	}
}

func TestParallelRespectsWorkerLimit(t *testing.T) {
	var active, peak atomic.Int32
	inputs := make([]int, 20)
	Parallel(context.Background(), inputs, 2, func(context.Context, int) (struct{}, error) {
		n := active.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(time.Millisecond)
		active.Add(-1)
		return struct{}{}, nil
	})
	if peak.Load() > 2 {
		t.Fatalf("peak concurrency = %d", peak.Load())
	}
}

func TestParallelCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, errs := Parallel(ctx, []int{1, 2, 3}, 1, func(context.Context, int) (int, error) {
		return 0, nil
	})
	cancelled := 0
	for _, err := range errs {
		if errors.Is(err, context.Canceled) {
			cancelled++
		}
	}
	if cancelled == 0 {
		t.Fatal("expected unreached items to report cancellation")
	}
}

func TestFormatCompactDate(t *testing.T) {
	tests := []struct {
		raw, tpl, want string
	}{
		{"20231110", "YYYY.MM.DD", "2023.11.10"},
		{"20231110", "DD/MM/YY", "10/11/23"},
		{"", "YYYY", ""},
		{"unknown", "YYYY", "unknown"},
	}
	for _, tt := range tests {
		if got := FormatCompactDate(tt.raw, tt.tpl); got != tt.want {
			t.Errorf("FormatCompactDate(%q, %q) = %q, want %q", tt.raw, tt.tpl, got, tt.want)
		}
	}
	if FormatDateTpl(time.Time{}, "YYYY") != "" {
		t.Error("zero time should format as empty")
	}
}
