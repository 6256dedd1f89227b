package scenario

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/loginprobe/app/browser"
	"github.com/umputun/loginprobe/app/perf"
)

func TestCatalogue(t *testing.T) {
	ids := []string{}
	seen := map[string]bool{}
	for _, sc := range Catalogue() {
		assert.False(t, seen[sc.ID], "duplicate %s", sc.ID)
		seen[sc.ID] = true
		ids = append(ids, sc.ID)
		assert.NotEmpty(t, sc.Name)
		require.NotEmpty(t, sc.Steps, sc.ID)
		for _, st := range sc.Steps {
			assert.NotEmpty(t, st.Name, sc.ID)
			assert.NotNil(t, st.Do, "%s %s", sc.ID, st.Name)
		}
	}
	assert.Equal(t, []string{"TC001", "TC002", "TC003", "TC004", "TC005", "TC006", "TC007", "TC008", "TC009", "TC010",
		"TC021", "TC022", "TC022b", "TC022c", "TC023", "TC024", "TC024b"}, ids)
}

func TestFind(t *testing.T) {
	all, err := Find()
	require.NoError(t, err)
	assert.Len(t, all, len(Catalogue()))

	res, err := Find("tc005", " TC022c")
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.Equal(t, "TC005", res[0].ID)
	assert.Equal(t, "TC022c", res[1].ID)

	_, err = Find("TC999")
	require.EqualError(t, err, `unknown scenario "TC999"`)
}

func TestRunner_CatalogueAgainstFake(t *testing.T) {
	for _, sc := range Catalogue() {
		t.Run(sc.ID, func(t *testing.T) {
			f := newFakeIdP()
			r := Runner{Open: f.opener(), Settings: testSettings(t), AppAvailable: true}
			res := r.Run(context.Background(), sc)
			require.Equal(t, Passed, res.State, "%s: %v", sc.ID, res.Err)
			require.NoError(t, res.Err)
			assert.Len(t, res.Steps, len(sc.Steps))
			for _, st := range res.Steps {
				assert.Equal(t, StepPassed, st.Status, st.Name)
			}
			assert.True(t, f.closed, "session closed")
		})
	}
}

func TestRunner_SoftChecks(t *testing.T) {
	sc, err := Find("TC005")
	require.NoError(t, err)
	f := newFakeIdP()
	r := Runner{Open: f.opener(), Settings: testSettings(t)}
	res := r.Run(context.Background(), sc[0])
	require.Equal(t, Passed, res.State)
	last := res.Steps[len(res.Steps)-1]
	assert.Equal(t, []string{"error message displayed"}, last.Soft)
	assert.Equal(t, Observed, last.State)
}

func TestRunner_ClassifiedObservations(t *testing.T) {
	tbl := []struct {
		id, step string
		soft     []string
	}{
		{"TC001", "verify successful login", []string{"after login: redirected=true, indicators=true, session cookies=1",
			"url after login http://localhost:3000/", "landed on application: true"}},
		{"TC002", "verify page title and form elements", []string{`page heading "Sign in to your account"`,
			"social login providers shown: false"}},
		{"TC004", "verify authenticated session", []string{"after login: redirected=true, indicators=true, session cookies=1",
			"authorization code c1...", "session state ss1"}},
		{"TC023", "verify session is active", []string{"session: redirected=true, indicators=true, session cookies=1",
			"1 session related cookies", "cookie KEYCLOAK_SESSION: lq/3f0c1d2e-session-..."}},
		{"TC024", "verify logout", []string{"after logout: redirected=false, indicators=false, session cookies=0"}},
	}

	for _, tt := range tbl {
		t.Run(tt.id, func(t *testing.T) {
			sc, err := Find(tt.id)
			require.NoError(t, err)
			f := newFakeIdP()
			r := Runner{Open: f.opener(), Settings: testSettings(t), AppAvailable: true}
			res := r.Run(context.Background(), sc[0])
			require.Equal(t, Passed, res.State, "%v", res.Err)
			var soft []string
			for _, st := range res.Steps {
				if st.Name == tt.step {
					soft = st.Soft
				}
			}
			for _, want := range tt.soft {
				assert.Contains(t, soft, want)
			}
		})
	}
}

func TestRunner_CallbackWithoutSessionState(t *testing.T) {
	f := newFakeIdP()
	f.callback = "http://localhost:3000/#/login?state=s1&code=c1"
	r := Runner{Open: f.opener(), Settings: testSettings(t)}
	sc, err := Find("TC004")
	require.NoError(t, err)
	res := r.Run(context.Background(), sc[0])
	require.Equal(t, Passed, res.State, "missing session_state is a soft check, %v", res.Err)
	soft := res.Steps[1].Soft
	assert.Contains(t, soft, "authorization code c1...")
	assert.Contains(t, soft, `callback parameters incomplete, parameter "session_state" not found in `+f.callback)
}

func TestRunner_PaintMetrics(t *testing.T) {
	sc, err := Find("TC022b")
	require.NoError(t, err)

	t.Run("enabled before navigation", func(t *testing.T) {
		f := newFakeIdP()
		r := Runner{Open: f.opener(), Settings: testSettings(t)}
		res := r.Run(context.Background(), sc[0])
		require.Equal(t, Passed, res.State, "%v", res.Err)
		assert.Equal(t, []string{testAuthURL}, f.measured, "login page navigation is measured")
		soft := res.Steps[0].Soft
		assert.Contains(t, soft, "first contentful paint 0.25s")
		assert.Contains(t, soft, "dom content loaded 0.20s")
		assert.Contains(t, soft, "metric Documents: 1.0000")
	})

	t.Run("metrics not available", func(t *testing.T) {
		f := newFakeIdP()
		f.metricsErr = errors.New("performance metrics require chromium")
		r := Runner{Open: f.opener(), Settings: testSettings(t)}
		res := r.Run(context.Background(), sc[0])
		require.Equal(t, Passed, res.State, "%v", res.Err)
		assert.Empty(t, f.measured)
		assert.Equal(t, testAuthURL, f.url, "login page still opened")
		assert.Equal(t, []string{"performance metrics not available, performance metrics require chromium"},
			res.Steps[0].Soft)
	})
}

func TestRunner_WrongCredentials(t *testing.T) {
	f := newFakeIdP()
	f.pass = "changed"
	r := Runner{Open: f.opener(), Settings: testSettings(t)}
	sc, err := Find("TC001")
	require.NoError(t, err)

	res := r.Run(context.Background(), sc[0])
	assert.Equal(t, Failed, res.State)
	require.Error(t, res.Err)
	assert.ErrorIs(t, res.Err, ErrAssertion)
	assert.Contains(t, res.Err.Error(), `step "verify successful login"`)
	assert.Contains(t, res.Err.Error(), "still on identity provider")
	require.Len(t, f.screenshots, 1)
	assert.Regexp(t, `tc001-failure-.+\.png$`, res.Screenshot)
}

func TestRunner_NegativeScenarioWithValidLogin(t *testing.T) {
	// identity provider accepting everything breaks all negative scenarios
	f := newFakeIdP()
	f.user, f.pass = "invalid_user_12345", "Qq121212"
	r := Runner{Open: f.opener(), Settings: testSettings(t)}
	sc, err := Find("TC005")
	require.NoError(t, err)
	res := r.Run(context.Background(), sc[0])
	assert.Equal(t, Failed, res.State)
	assert.ErrorIs(t, res.Err, ErrAssertion)
	assert.Contains(t, res.Err.Error(), "left identity provider")
}

func TestRunner_DialogFailsXSSCheck(t *testing.T) {
	f := newFakeIdP()
	f.dialogs = 1
	r := Runner{Open: f.opener(), Settings: testSettings(t)}
	sc, err := Find("TC010")
	require.NoError(t, err)
	res := r.Run(context.Background(), sc[0])
	assert.Equal(t, Failed, res.State)
	assert.Contains(t, res.Err.Error(), "1 dialogs opened by the payload")
}

func TestRunner_PageLoadThreshold(t *testing.T) {
	f := newFakeIdP()
	f.gotoDelay = 30 * time.Millisecond
	settings := testSettings(t)
	settings.Thresholds.PageLoad = 10 * time.Millisecond
	r := Runner{Open: f.opener(), Settings: settings}
	sc, err := Find("TC021")
	require.NoError(t, err)
	res := r.Run(context.Background(), sc[0])
	assert.Equal(t, Failed, res.State)
	assert.ErrorIs(t, res.Err, ErrAssertion)
	assert.ErrorIs(t, res.Err, perf.ErrThreshold)
	require.Len(t, res.Steps, 2)
	assert.Equal(t, StepFailed, res.Steps[0].Status)
	assert.Equal(t, StepSkipped, res.Steps[1].Status)
}

func TestRunner_NavigationError(t *testing.T) {
	f := newFakeIdP()
	f.gotoErr = errors.New("net::ERR_CONNECTION_REFUSED")
	r := Runner{Open: f.opener(), Settings: testSettings(t)}
	sc, err := Find("TC002")
	require.NoError(t, err)
	res := r.Run(context.Background(), sc[0])
	assert.Equal(t, Failed, res.State)
	assert.NotErrorIs(t, res.Err, ErrAssertion, "environment errors are not assertions")
	assert.Contains(t, res.Err.Error(), "ERR_CONNECTION_REFUSED")
}

func TestRunner_NeedsApp(t *testing.T) {
	f := newFakeIdP()
	r := Runner{Open: f.opener(), Settings: testSettings(t), AppAvailable: false}
	sc, err := Find("TC023")
	require.NoError(t, err)
	res := r.Run(context.Background(), sc[0])
	assert.Equal(t, Skipped, res.State)
	assert.Equal(t, "application not available", res.Reason)
	for _, st := range res.Steps {
		assert.Equal(t, StepSkipped, st.Status)
	}
	assert.False(t, f.closed, "no session opened")
}

func TestRunner_Steps(t *testing.T) {
	var order []string
	mk := func(name string, reach State, err error) Step {
		return Step{Name: name, Reach: reach, Do: func(context.Context, *Env) error {
			order = append(order, name)
			return err
		}}
	}

	tbl := []struct {
		name      string
		steps     []Step
		state     State
		ran       []string
		statuses  []StepStatus
		errSubstr string
	}{
		{
			name:     "all pass",
			steps:    []Step{mk("a", Navigated, nil), mk("b", FormFilled, nil), mk("c", 0, nil), mk("d", Observed, nil)},
			state:    Passed,
			ran:      []string{"a", "b", "c", "d"},
			statuses: []StepStatus{StepPassed, StepPassed, StepPassed, StepPassed},
		},
		{
			name:      "failure skips the rest",
			steps:     []Step{mk("a", Navigated, nil), mk("b", FormFilled, errors.New("boom")), mk("c", Submitted, nil)},
			state:     Failed,
			ran:       []string{"a", "b"},
			statuses:  []StepStatus{StepPassed, StepFailed, StepSkipped},
			errSubstr: `step "b": boom`,
		},
		{
			name:      "state can't go back",
			steps:     []Step{mk("a", Submitted, nil), mk("b", Navigated, nil), mk("c", Observed, nil)},
			state:     Failed,
			ran:       []string{"a"},
			statuses:  []StepStatus{StepPassed, StepFailed, StepSkipped},
			errSubstr: "step moves state back from submitted to navigated",
		},
		{
			name:     "same state again is fine",
			steps:    []Step{mk("a", Submitted, nil), mk("b", Submitted, nil)},
			state:    Passed,
			ran:      []string{"a", "b"},
			statuses: []StepStatus{StepPassed, StepPassed},
		},
		{
			name: "panic fails the step",
			steps: []Step{mk("a", Navigated, nil), {Name: "b", Reach: FormFilled, Do: func(context.Context, *Env) error {
				panic("oops")
			}}},
			state:     Failed,
			ran:       []string{"a"},
			statuses:  []StepStatus{StepPassed, StepFailed},
			errSubstr: "panic: oops",
		},
	}

	for _, tt := range tbl {
		t.Run(tt.name, func(t *testing.T) {
			order = nil
			f := newFakeIdP()
			r := Runner{Open: f.opener(), Settings: testSettings(t)}
			res := r.Run(context.Background(), Scenario{ID: "T1", Name: tt.name, Steps: tt.steps})
			assert.Equal(t, tt.state, res.State)
			assert.Equal(t, tt.ran, order)
			statuses := make([]StepStatus, 0, len(res.Steps))
			for _, st := range res.Steps {
				statuses = append(statuses, st.Status)
			}
			assert.Equal(t, tt.statuses, statuses)
			if tt.errSubstr != "" {
				require.Error(t, res.Err)
				assert.Contains(t, res.Err.Error(), tt.errSubstr)
			}
			assert.True(t, f.closed)
		})
	}
}

func TestRunner_OpenError(t *testing.T) {
	r := Runner{Settings: testSettings(t), Open: func(context.Context) (browser.Session, error) {
		return nil, errors.New("browser not installed")
	}}
	res := r.Run(context.Background(), Scenario{ID: "T1", Steps: []Step{{Name: "a"}}})
	assert.Equal(t, Failed, res.State)
	assert.EqualError(t, res.Err, "failed to open browser session: browser not installed")
	require.Len(t, res.Steps, 1)
	assert.Equal(t, StepSkipped, res.Steps[0].Status)
}

func TestRunner_ScenarioTimeout(t *testing.T) {
	f := newFakeIdP()
	settings := testSettings(t)
	settings.Timeouts.Test = 20 * time.Millisecond
	r := Runner{Open: f.opener(), Settings: settings}
	sc := Scenario{ID: "T1", Steps: []Step{
		{Name: "slow", Reach: Navigated, Do: func(ctx context.Context, env *Env) error {
			<-ctx.Done()
			return ctx.Err()
		}},
		{Name: "never", Reach: Observed},
	}}
	res := r.Run(context.Background(), sc)
	assert.Equal(t, Failed, res.State)
	assert.ErrorIs(t, res.Err, context.DeadlineExceeded)
	assert.Equal(t, StepSkipped, res.Steps[1].Status)
}

func TestAssertionError(t *testing.T) {
	require.NoError(t, Assertf(true, "never"))
	err := Assertf(false, "got %d", 5)
	require.EqualError(t, err, "got 5")
	assert.ErrorIs(t, err, ErrAssertion)
	var ae *AssertionError
	require.ErrorAs(t, fmt.Errorf("step: %w", err), &ae)

	require.NoError(t, AsAssertion(nil))
	thr := perf.Below(perf.Sample{Operation: "x", End: time.Unix(10, 0), Start: time.Unix(0, 0)}, time.Second)
	err = AsAssertion(thr)
	assert.ErrorIs(t, err, ErrAssertion)
	assert.ErrorIs(t, err, perf.ErrThreshold)
	assert.Equal(t, thr.Error(), err.Error())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "not-started", NotStarted.String())
	assert.Equal(t, "form-filled", FormFilled.String())
	assert.Equal(t, "skipped", Skipped.String())
	assert.Equal(t, "state(42)", State(42).String())
}

func TestResult_String(t *testing.T) {
	r := Result{ID: "TC001", Name: "login", State: Passed, Duration: 1500 * time.Millisecond}
	assert.Equal(t, "TC001 login: passed in 1.5s", r.String())
	r = Result{ID: "TC023", Name: "dash", State: Skipped, Reason: "application not available"}
	assert.Equal(t, "TC023 dash: skipped, application not available", r.String())
	r = Result{ID: "TC005", Name: "bad", State: Failed, Err: errors.New("boom"), Duration: time.Second}
	assert.Equal(t, "TC005 bad: failed in 1s, boom", r.String())
}

func TestRandomString(t *testing.T) {
	s := RandomString(10)
	assert.Len(t, s, 10)
	assert.Regexp(t, regexp.MustCompile(`^[A-Za-z0-9]+$`), s)
	assert.NotEqual(t, RandomString(32), RandomString(32))
	assert.Empty(t, RandomString(0))
}

func TestScreenshotName(t *testing.T) {
	ts := time.Date(2024, 5, 6, 7, 8, 9, 123000000, time.UTC)
	name := ScreenshotName("tc001-failure", ts)
	assert.Equal(t, "tc001-failure-2024-05-06T07-08-09-123Z.png", name)
	assert.False(t, strings.ContainsAny(name, ":"))
}
