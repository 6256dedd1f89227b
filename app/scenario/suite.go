package scenario

import (
	"context"
	"fmt"
	"strings"
	"time"

	log "github.com/go-pkgz/lgr"
	"github.com/go-pkgz/repeater"
	"github.com/go-pkgz/repeater/strategy"
	"github.com/go-pkgz/syncs"
)

//go:generate moq -out mocks/runner.go -pkg mocks -skip-ensure -fmt goimports . ScenarioRunner Repeater

// ScenarioRunner runs one scenario from scratch
type ScenarioRunner interface {
	Run(ctx context.Context, sc Scenario) Result
}

// Repeater repeats failed function
type Repeater interface {
	Do(ctx context.Context, fun func() error, errors ...error) (err error)
}

// NewRepeater makes repeater running a scenario up to retries+1 times with a fixed delay between runs
func NewRepeater(retries int, delay time.Duration) Repeater {
	if retries <= 0 {
		return repeater.New(&strategy.Once{})
	}
	return repeater.New(&strategy.FixedDelay{Repeats: retries + 1, Delay: delay})
}

// Suite runs scenarios in parallel, each in its own session. A failed scenario is
// re-run from scratch by the repeater, nothing is retried inside a scenario.
type Suite struct {
	Runner   ScenarioRunner
	Repeater Repeater
	Workers  int
}

// Report of a suite run, results are in the order of scenarios
type Report struct {
	Results  []Result
	Passed   int
	Failed   int
	Skipped  int
	Duration time.Duration
}

// OK is true if no scenario failed
func (r Report) OK() bool { return r.Failed == 0 }

func (r Report) String() string {
	return fmt.Sprintf("%d passed, %d failed, %d skipped in %v", r.Passed, r.Failed, r.Skipped,
		r.Duration.Round(time.Millisecond))
}

// Failures lists failed results, one per line
func (r Report) Failures() string {
	var b strings.Builder
	for _, res := range r.Results {
		if res.State == Failed {
			b.WriteString(res.String())
			b.WriteString("\n")
		}
	}
	return b.String()
}

// Run executes all scenarios and waits for completion
func (s *Suite) Run(ctx context.Context, scenarios []Scenario) Report {
	st := time.Now()
	workers := max(s.Workers, 1)
	rptr := s.Repeater
	if rptr == nil {
		rptr = NewRepeater(0, 0)
	}

	results := make([]Result, len(scenarios))
	gr := syncs.NewSizedGroup(workers, syncs.Context(ctx))
	for i, sc := range scenarios {
		gr.Go(func(ctx context.Context) {
			attempts := 0
			var res Result
			_ = rptr.Do(ctx, func() error {
				attempts++
				if attempts > 1 {
					log.Printf("[INFO] retry %s, attempt %d", sc.ID, attempts)
				}
				res = s.Runner.Run(ctx, sc)
				if res.State == Failed {
					return res.Err
				}
				return nil
			})
			if attempts == 0 { // group context canceled before start
				res = Result{ID: sc.ID, Name: sc.Name, State: Failed, Err: fmt.Errorf("not started: %w", ctx.Err())}
			}
			res.Attempts = max(attempts, 1)
			results[i] = res
			log.Printf("[INFO] %s", res)
		})
	}
	gr.Wait()

	rep := Report{Results: results, Duration: time.Since(st)}
	for i, res := range results {
		if res.ID == "" { // goroutine not scheduled, group context canceled
			res = Result{ID: scenarios[i].ID, Name: scenarios[i].Name, State: Failed, Attempts: 0,
				Err: fmt.Errorf("not started: %w", context.Cause(ctx))}
			rep.Results[i] = res
		}
		switch res.State {
		case Passed:
			rep.Passed++
		case Skipped:
			rep.Skipped++
		default:
			rep.Failed++
		}
	}
	return rep
}
