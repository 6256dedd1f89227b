// Package scenario sequences page object calls into named steps and runs them against
// a fresh browser session. A scenario is strictly linear, the first failing step fails it
// and the rest of the steps are skipped. There are no retries inside a scenario, see Suite.
package scenario

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	log "github.com/go-pkgz/lgr"

	"github.com/umputun/loginprobe/app/authstate"
	"github.com/umputun/loginprobe/app/browser"
	"github.com/umputun/loginprobe/app/config"
	"github.com/umputun/loginprobe/app/page"
	"github.com/umputun/loginprobe/app/perf"
)

// State of a scenario run
type State int

// scenario states, in the order a run moves through them
const (
	NotStarted State = iota
	Navigated
	FormFilled
	Submitted
	Observed
	Passed
	Failed
	Skipped
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not-started"
	case Navigated:
		return "navigated"
	case FormFilled:
		return "form-filled"
	case Submitted:
		return "submitted"
	case Observed:
		return "observed"
	case Passed:
		return "passed"
	case Failed:
		return "failed"
	case Skipped:
		return "skipped"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Step is a named unit of a scenario. Reach is the state the run is in after the step succeeded,
// zero value keeps the current state.
type Step struct {
	Name  string
	Reach State
	Do    func(ctx context.Context, env *Env) error
}

// Scenario is an ordered list of steps. NeedsApp scenarios require the application itself
// and are skipped when it isn't reachable.
type Scenario struct {
	ID       string
	Name     string
	NeedsApp bool
	Steps    []Step
}

func (s Scenario) String() string { return s.ID + " - " + s.Name }

// ErrAssertion is matched by every AssertionError
var ErrAssertion = errors.New("assertion failed")

// AssertionError is an expected condition found false
type AssertionError struct {
	Msg string
	Err error // optional cause, i.e. perf.ErrThreshold
}

func (e *AssertionError) Error() string { return e.Msg }

// Is makes errors.Is(err, ErrAssertion) true
func (e *AssertionError) Is(target error) bool { return target == ErrAssertion }

func (e *AssertionError) Unwrap() error { return e.Err }

// Assertf returns AssertionError if ok is false
func Assertf(ok bool, format string, args ...any) error {
	if ok {
		return nil
	}
	return &AssertionError{Msg: fmt.Sprintf(format, args...)}
}

// AsAssertion converts a failed check into AssertionError keeping the cause
func AsAssertion(err error) error {
	if err == nil {
		return nil
	}
	return &AssertionError{Msg: err.Error(), Err: err}
}

// StepStatus is the outcome of a single step
type StepStatus string

// step outcomes
const (
	StepPassed  StepStatus = "passed"
	StepFailed  StepStatus = "failed"
	StepSkipped StepStatus = "skipped"
)

// StepResult records one executed or skipped step
type StepResult struct {
	Name     string
	Status   StepStatus
	State    State // state after the step
	Err      error
	Soft     []string // soft check observations
	Duration time.Duration
}

// Result of a scenario run
type Result struct {
	ID         string
	Name       string
	State      State // Passed, Failed or Skipped
	Err        error
	Reason     string // why the scenario was skipped
	Steps      []StepResult
	Duration   time.Duration
	Screenshot string // failure screenshot, if taken
	Attempts   int
}

func (r Result) String() string {
	switch r.State {
	case Failed:
		return fmt.Sprintf("%s %s: failed in %v, %v", r.ID, r.Name, r.Duration.Round(time.Millisecond), r.Err)
	case Skipped:
		return fmt.Sprintf("%s %s: skipped, %s", r.ID, r.Name, r.Reason)
	default:
		return fmt.Sprintf("%s %s: %s in %v", r.ID, r.Name, r.State, r.Duration.Round(time.Millisecond))
	}
}

// Waits are the fixed settle delays used by scenarios
type Waits struct {
	Submit   time.Duration // after submitting credentials expected to be rejected
	Login    time.Duration // after submitting valid credentials
	Redirect time.Duration // max wait for redirect away from the identity provider
	Settle   time.Duration // before reading url or title of the landing page
	Probe    time.Duration // per selector of logout control
	Recheck  time.Duration // after re-opening the login page
}

// DefaultWaits used against a live identity provider
func DefaultWaits() Waits {
	return Waits{Submit: 2 * time.Second, Login: 5 * time.Second, Redirect: 30 * time.Second,
		Settle: 3 * time.Second, Probe: time.Second, Recheck: 2 * time.Second}
}

// Env is what a step sees: the session, the page object bound to it and the settings.
// A new Env is made for each scenario run.
type Env struct {
	Session  browser.Session
	Page     *page.Login
	Settings config.Settings
	Waits    Waits
	Samples  []perf.Sample
	Values   map[string]string // data passed between steps of one run

	id   string
	soft []string
}

// Soft logs a diagnostic observation. It never fails the step.
func (e *Env) Soft(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	e.soft = append(e.soft, msg)
	log.Printf("[INFO] %s: %s", e.id, msg)
}

// Observe snapshots url and cookies of the session
func (e *Env) Observe(ctx context.Context) (authstate.Observation, error) {
	u, err := e.Session.URL(ctx)
	if err != nil {
		return authstate.Observation{}, fmt.Errorf("failed to read url: %w", err)
	}
	cookies, err := e.Session.Cookies(ctx)
	if err != nil {
		return authstate.Observation{}, fmt.Errorf("failed to read cookies: %w", err)
	}
	return authstate.Observation{URL: u, Cookies: cookies}, nil
}

// URL reads current url of the session
func (e *Env) URL(ctx context.Context) (string, error) {
	u, err := e.Session.URL(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to read url: %w", err)
	}
	return u, nil
}

// Screenshot saves full page screenshot under artifacts dir and returns its path
func (e *Env) Screenshot(ctx context.Context, name string) (string, error) {
	path := filepath.Join(e.Settings.ArtifactsDir, name)
	if err := e.Session.Screenshot(ctx, path, true); err != nil {
		return "", fmt.Errorf("failed to save screenshot %s: %w", name, err)
	}
	return path, nil
}

// Runner runs a single scenario in its own session
type Runner struct {
	Open         browser.Opener
	Settings     config.Settings
	Waits        Waits
	AppAvailable bool
}

// Run opens a session, executes steps in order and closes the session.
// Run never returns an error, the outcome is in the Result.
func (r *Runner) Run(ctx context.Context, sc Scenario) Result {
	st := time.Now()
	res := Result{ID: sc.ID, Name: sc.Name, State: NotStarted, Attempts: 1}
	defer func() { res.Duration = time.Since(st) }()

	if sc.NeedsApp && !r.AppAvailable {
		res.State, res.Reason = Skipped, "application not available"
		res.Steps = skipAll(sc.Steps, NotStarted)
		log.Printf("[INFO] %s skipped, %s", sc, res.Reason)
		return res
	}

	if r.Settings.Timeouts.Test > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Settings.Timeouts.Test)
		defer cancel()
	}

	sess, err := r.Open(ctx)
	if err != nil {
		res.State, res.Err = Failed, fmt.Errorf("failed to open browser session: %w", err)
		res.Steps = skipAll(sc.Steps, NotStarted)
		return res
	}
	defer func() {
		if e := sess.Close(); e != nil {
			log.Printf("[WARN] failed to close session of %s, %v", sc.ID, e)
		}
	}()

	env := &Env{Session: sess, Settings: r.Settings, Waits: r.Waits, Values: map[string]string{}, id: sc.ID,
		Page: page.NewLogin(sess, r.Settings.Selectors, r.Settings.PageTimeouts())}

	log.Printf("[INFO] start %s", sc)
	state := NotStarted
	for i, step := range sc.Steps {
		sr := r.runStep(ctx, env, step, state)
		res.Steps = append(res.Steps, sr)
		if sr.Status == StepFailed {
			res.State, res.Err = Failed, fmt.Errorf("step %q: %w", step.Name, sr.Err)
			res.Steps = append(res.Steps, skipAll(sc.Steps[i+1:], state)...)
			res.Screenshot = r.failureScreenshot(ctx, env, sc)
			log.Printf("[WARN] %s failed at %q, %v", sc.ID, step.Name, sr.Err)
			return res
		}
		state = sr.State
	}
	res.State = Passed
	log.Printf("[INFO] %s passed", sc.ID)
	return res
}

func (r *Runner) runStep(ctx context.Context, env *Env, step Step, state State) (sr StepResult) {
	st := time.Now()
	sr = StepResult{Name: step.Name, State: state}
	env.soft = nil
	defer func() {
		if x := recover(); x != nil {
			sr.Status, sr.Err = StepFailed, fmt.Errorf("panic: %v", x)
		}
		sr.Soft = env.soft
		sr.Duration = time.Since(st)
	}()

	if step.Reach != NotStarted && step.Reach < state {
		sr.Status, sr.Err = StepFailed, fmt.Errorf("step moves state back from %s to %s", state, step.Reach)
		return sr
	}
	if err := ctx.Err(); err != nil {
		sr.Status, sr.Err = StepFailed, fmt.Errorf("scenario timeout: %w", err)
		return sr
	}

	log.Printf("[DEBUG] %s: %s", env.id, step.Name)
	if step.Do != nil {
		if err := step.Do(ctx, env); err != nil {
			sr.Status, sr.Err = StepFailed, err
			return sr
		}
	}
	sr.Status = StepPassed
	if step.Reach != NotStarted {
		sr.State = step.Reach
	}
	return sr
}

// failureScreenshot is best effort, scenario context may be already expired
func (r *Runner) failureScreenshot(ctx context.Context, env *Env, sc Scenario) string {
	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	path, err := env.Screenshot(sctx, ScreenshotName(strings.ToLower(sc.ID)+"-failure", time.Now()))
	if err != nil {
		log.Printf("[DEBUG] no failure screenshot for %s, %v", sc.ID, err)
		return ""
	}
	return path
}

func skipAll(steps []Step, state State) []StepResult {
	res := make([]StepResult, 0, len(steps))
	for _, s := range steps {
		res = append(res, StepResult{Name: s.Name, Status: StepSkipped, State: state})
	}
	return res
}
