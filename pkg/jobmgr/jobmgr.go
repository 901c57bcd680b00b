// Package jobmgr runs named background jobs bound to a parent context and
// tracks them until they return.
//
// Typical usage:
//
//	jm := jobmgr.NewManager(ctx, nil)
//	_ = jm.Every("idle-sweep", 5*time.Minute, func(ctx context.Context) error {
//	    reaper.Sweep(ctx)
//	    return nil
//	})
//	defer jm.Shutdown()
//
// No retries and no persistence. Jobs are removed when their runner returns.
package jobmgr

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Job represents a running unit of work.
type Job struct {
	Name    string
	Started time.Time
	Cancel  context.CancelFunc
}

// StatusReporter receives lifecycle events for jobs, e.g.
//
//	running:idle-sweep
//	error:idle-sweep:voice state unavailable
//	done:idle-sweep
type StatusReporter func(string)

// Manager is safe for concurrent use.
type Manager struct {
	mu       sync.Mutex
	ctx      context.Context
	jobs     map[string]*Job
	wg       sync.WaitGroup
	Reporter StatusReporter
}

// NewManager binds all jobs to parent. A nil reporter logs through zerolog.
func NewManager(parent context.Context, reporter StatusReporter) *Manager {
	if reporter == nil {
		reporter = logReporter
	}
	return &Manager{
		ctx:      parent,
		jobs:     make(map[string]*Job),
		Reporter: reporter,
	}
}

func logReporter(msg string) {
	log.Debug().Str("component", "jobmgr").Msg(msg)
}

// StartAsync runs a job in its own goroutine. Starting a name that is
// already running is an error.
func (m *Manager) StartAsync(name string, runner func(ctx context.Context) error) error {
	m.mu.Lock()
	if _, exists := m.jobs[name]; exists {
		m.mu.Unlock()
		return fmt.Errorf("job '%s' is already running", name)
	}
	ctx, cancel := context.WithCancel(m.ctx)
	job := &Job{Name: name, Started: time.Now(), Cancel: cancel}
	m.jobs[name] = job
	m.wg.Add(1)
	m.mu.Unlock()

	go func() {
		defer m.wg.Done()
		defer cancel()
		m.report("running:" + name)

		err := runner(ctx)
		switch {
		case err != nil && ctx.Err() == nil:
			m.report("error:" + name + ":" + err.Error())
		default:
			m.report("done:" + name)
		}

		m.mu.Lock()
		if m.jobs[name] == job {
			delete(m.jobs, name)
		}
		m.mu.Unlock()
	}()

	return nil
}

// Every starts a job that calls fn once per interval until stopped.
// A failing tick is reported and the job keeps going.
func (m *Manager) Every(name string, interval time.Duration, fn func(ctx context.Context) error) error {
	if interval <= 0 {
		return fmt.Errorf("job '%s': interval must be positive", name)
	}
	return m.StartAsync(name, func(ctx context.Context) error {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				if err := fn(ctx); err != nil && ctx.Err() == nil {
					m.report("error:" + name + ":" + err.Error())
				}
			}
		}
	})
}

// Stop cancels a running job by name.
func (m *Manager) Stop(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, ok := m.jobs[name]
	if !ok {
		return fmt.Errorf("job '%s' not running", name)
	}

	job.Cancel()
	delete(m.jobs, name)
	return nil
}

// Shutdown cancels every job and waits for their runners to return.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	for name, job := range m.jobs {
		job.Cancel()
		delete(m.jobs, name)
	}
	m.mu.Unlock()
	m.wg.Wait()
}

// List returns the active job names, sorted.
func (m *Manager) List() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]string, 0, len(m.jobs))
	for k := range m.jobs {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

func (m *Manager) report(s string) {
	if m.Reporter != nil {
		m.Reporter(s)
	}
}
