// Package monitor runs the suite once or on a cron schedule. Every finished run is saved to history
// and reported to notifier, both optional.
package monitor

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	log "github.com/go-pkgz/lgr"
	"github.com/robfig/cron/v3"

	"github.com/umputun/loginprobe/app/scenario"
)

//go:generate moq -out mocks/cron.go -pkg mocks -skip-ensure -fmt goimports . Cron
//go:generate moq -out mocks/suite.go -pkg mocks -skip-ensure -fmt goimports . SuiteRunner
//go:generate moq -out mocks/store.go -pkg mocks -skip-ensure -fmt goimports . Store
//go:generate moq -out mocks/notifier.go -pkg mocks -skip-ensure -fmt goimports . Notifier

// Monitor wires suite with history and notifications
type Monitor struct {
	Suite     SuiteRunner
	Scenarios []scenario.Scenario
	Store     Store    // optional
	Notifier  Notifier // optional
	HostName  string
	Cron      Cron

	running atomic.Bool
}

// SuiteRunner runs scenarios, implemented by scenario.Suite
type SuiteRunner interface {
	Run(ctx context.Context, scenarios []scenario.Scenario) scenario.Report
}

// Store saves finished runs
type Store interface {
	Save(ctx context.Context, host string, started time.Time, rep scenario.Report) (int64, error)
}

// Notifier delivers reports
type Notifier interface {
	Report(ctx context.Context, rep scenario.Report) error
}

// Cron interface defines basic robfig/cron methods used by monitor
type Cron interface {
	Start()
	Stop() context.Context
	Schedule(schedule cron.Schedule, cmd cron.Job) cron.EntryID
}

// RunOnce runs the suite, saves and reports the result
func (m *Monitor) RunOnce(ctx context.Context) scenario.Report {
	started := time.Now()
	rep := m.Suite.Run(ctx, m.Scenarios)
	log.Printf("[INFO] run completed, %s", rep.String())

	if m.Store != nil {
		if id, err := m.Store.Save(ctx, m.HostName, started, rep); err != nil {
			log.Printf("[WARN] failed to save run, %v", err)
		} else {
			log.Printf("[DEBUG] run saved as %d", id)
		}
	}
	if m.Notifier != nil {
		if err := m.Notifier.Report(ctx, rep); err != nil {
			log.Printf("[WARN] failed to send report, %v", err)
		}
	}
	return rep
}

// Do runs the suite on schedule until ctx canceled. Scheduled run is skipped if the previous one
// is still in progress.
func (m *Monitor) Do(ctx context.Context, spec string) error {
	sched, err := cron.ParseStandard(spec)
	if err != nil {
		return fmt.Errorf("can't parse schedule %q: %w", spec, err)
	}

	id := m.Cron.Schedule(sched, m.job(ctx))
	log.Printf("[INFO] scheduled %d scenarios with %q (%v), first run at %s", len(m.Scenarios), spec, id,
		sched.Next(time.Now()).Format(time.RFC3339))
	m.Cron.Start()
	<-ctx.Done()
	log.Print("[DEBUG] terminate")
	<-m.Cron.Stop().Done()
	return nil
}

func (m *Monitor) job(ctx context.Context) cron.FuncJob {
	return func() {
		if !m.running.CompareAndSwap(false, true) {
			log.Printf("[WARN] previous run is still in progress, skip")
			return
		}
		defer m.running.Store(false)
		m.RunOnce(ctx)
	}
}
