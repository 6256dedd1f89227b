package scenario

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/umputun/loginprobe/app/authstate"
	"github.com/umputun/loginprobe/app/browser"
	"github.com/umputun/loginprobe/app/perf"
	"github.com/umputun/loginprobe/app/probe"
)

// SequentialLogins is the number of attempts of the sequential logins check
const SequentialLogins = 3

// XSSPayload is typed into the username field to check it's stored verbatim and never executed
const XSSPayload = `<script>alert("xss")</script>`

// Catalogue returns all scenarios in run order
func Catalogue() []Scenario {
	return []Scenario{
		{ID: "TC001", Name: "successful login with valid credentials", Steps: []Step{
			navigate(),
			{Name: "verify login form elements are visible", Reach: Navigated, Do: func(ctx context.Context, env *Env) error {
				return env.Page.VerifyLoginPageLoaded(ctx)
			}},
			fill("enter valid username and password", validUsername, validPassword),
			{Name: "verify credentials are entered correctly", Reach: FormFilled, Do: verifyFilled},
			submit(),
			{Name: "wait for login redirect", Reach: Submitted, Do: func(ctx context.Context, env *Env) error {
				err := env.Page.WaitForLoginRedirect(ctx, env.Settings.Origin, env.Waits.Redirect)
				if err != nil && isTimeout(ctx, err) {
					env.Soft("login redirect timeout, checking current state")
					return nil
				}
				return err
			}},
			{Name: "verify successful login", Reach: Observed, Do: func(ctx context.Context, env *Env) error {
				if err := env.Session.Wait(ctx, env.Waits.Settle); err != nil {
					return err
				}
				obs, out, err := observe(ctx, env, "after login")
				if err != nil {
					return err
				}
				env.Soft("url after login %s", authstate.Endpoint(obs.URL))
				onApp, err := env.Page.VerifySuccessfulLogin(ctx, authstate.Host(env.Settings.AppURL))
				if err != nil {
					return err
				}
				env.Soft("landed on application: %v", onApp)
				return Assertf(out.Authenticated(), "still on identity provider, %s", obs.URL)
			}},
		}},

		{ID: "TC002", Name: "login page accessibility and elements", Steps: []Step{
			navigate(),
			{Name: "verify page title and form elements", Reach: Navigated, Do: func(ctx context.Context, env *Env) error {
				title, err := env.Page.Title(ctx)
				if err != nil {
					return fmt.Errorf("failed to read title: %w", err)
				}
				if err := Assertf(title != "", "login page has no title"); err != nil {
					return err
				}
				if err := env.Page.VerifyLoginPageLoaded(ctx); err != nil {
					return err
				}
				if h := env.Page.Heading(ctx); h != "" {
					env.Soft("page heading %q", h)
				}
				env.Soft("social login providers shown: %v", env.Page.SocialLogin(ctx))
				return nil
			}},
			{Name: "verify form fields are enabled", Reach: Observed, Do: func(ctx context.Context, env *Env) error {
				if err := env.Page.VerifyFormEnabled(ctx); err != nil {
					return err
				}
				env.Soft("form fields are accessible and enabled")
				return nil
			}},
		}},

		{ID: "TC003", Name: "login flow with form clearing", Steps: []Step{
			navigate(),
			{Name: "clear and refill the form", Reach: FormFilled, Do: func(ctx context.Context, env *Env) error {
				if err := env.Page.FillUsername(ctx, "testuser"); err != nil {
					return err
				}
				if err := env.Page.FillPassword(ctx, "testpass"); err != nil {
					return err
				}
				if err := env.Page.ClearForm(ctx); err != nil {
					return err
				}
				if err := verifyValues(ctx, env, "", ""); err != nil {
					return err
				}
				return fillCredentials(ctx, env, validUsername(env), validPassword(env))
			}},
			submit(),
			{Name: "verify login progression", Reach: Observed, Do: func(ctx context.Context, env *Env) error {
				if err := env.Session.Wait(ctx, env.Waits.Submit); err != nil {
					return err
				}
				return verifyRedirected(ctx, env)
			}},
		}},

		{ID: "TC004", Name: "end-to-end authentication flow", Steps: []Step{
			Authenticate(),
			{Name: "verify authenticated session", Reach: Observed, Do: func(ctx context.Context, env *Env) error {
				obs, _, err := observe(ctx, env, "after login")
				if err != nil {
					return err
				}
				u := obs.URL
				if err := Assertf(!strings.Contains(u, authstate.Endpoint(env.Settings.AuthURL)),
					"still on authorization endpoint, %s", u); err != nil {
					return err
				}
				hasIndicators := strings.Contains(u, "code=") || strings.Contains(u, "session_state=") ||
					strings.Contains(u, authstate.Host(env.Settings.AppURL))
				if err := Assertf(hasIndicators, "no authentication indicators in %s", u); err != nil {
					return err
				}
				if code := authstate.AuthCode(u); code != "" {
					env.Soft("authorization code %s...", truncate(code, 8))
				}
				if ss := authstate.SessionState(u); ss != "" {
					env.Soft("session state %s", ss)
				}
				// the application may strip the callback parameters, not a failure
				if err := authstate.VerifyParams(u, map[string]string{"code": "", "session_state": ""}); err != nil {
					env.Soft("callback parameters incomplete, %v", err)
				}
				return nil
			}},
			{Name: "verify page after login has a title", Reach: Observed, Do: func(ctx context.Context, env *Env) error {
				title, err := env.Session.Title(ctx)
				if err != nil {
					return fmt.Errorf("failed to read title: %w", err)
				}
				return Assertf(title != "", "page after login has no title")
			}},
		}},

		rejected("TC005", "login with invalid username", "enter invalid username and valid password",
			literal("invalid_user_12345"), validPassword, true),
		rejected("TC006", "login with invalid password", "enter valid username and invalid password",
			validUsername, literal("WrongPassword123!"), true),
		rejected("TC007", "login with empty username", "leave username empty and enter valid password",
			nil, validPassword, false),
		rejected("TC008", "login with empty password", "enter valid username and leave password empty",
			validUsername, nil, false),
		rejected("TC009", "login with both fields empty", "leave both username and password empty",
			nil, nil, false),

		{ID: "TC010", Name: "script payload in username", Steps: []Step{
			navigate(),
			fill("enter script payload as username", literal(XSSPayload), validPassword),
			{Name: "verify payload is stored verbatim", Reach: FormFilled, Do: func(ctx context.Context, env *Env) error {
				v, err := env.Page.UsernameValue(ctx)
				if err != nil {
					return fmt.Errorf("failed to read username: %w", err)
				}
				return Assertf(v == XSSPayload, "username field holds %q, expected %q", v, XSSPayload)
			}},
			submit(),
			{Name: "verify login fails safely", Reach: Observed, Do: func(ctx context.Context, env *Env) error {
				if err := verifyStayed(ctx, env, false); err != nil {
					return err
				}
				return Assertf(env.Session.Dialogs() == 0, "%d dialogs opened by the payload", env.Session.Dialogs())
			}},
		}},

		{ID: "TC021", Name: "login page load time", Steps: []Step{
			{Name: "measure page load time", Reach: Navigated, Do: func(ctx context.Context, env *Env) error {
				s, err := perf.Measure("login page load", func() error {
					if err := env.Session.Goto(ctx, env.Settings.AuthURL); err != nil {
						return fmt.Errorf("failed to open login page: %w", err)
					}
					return env.Session.WaitForLoadState(ctx, browser.LoadStateDOMContentLoaded)
				})
				if err != nil {
					return err
				}
				env.Soft("page load time %dms, limit %dms, %s environment", s.Elapsed().Milliseconds(),
					env.Settings.Thresholds.PageLoad.Milliseconds(), environment(env))
				return AsAssertion(perf.Below(s, env.Settings.Thresholds.PageLoad))
			}},
			{Name: "verify page is interactive", Reach: Observed, Do: func(ctx context.Context, env *Env) error {
				return env.Page.VerifyLoginPageLoaded(ctx)
			}},
		}},

		{ID: "TC022", Name: "login response time", Steps: []Step{
			navigate(),
			fill("fill credentials", validUsername, validPassword),
			{Name: "measure login response time", Reach: Observed, Do: func(ctx context.Context, env *Env) error {
				limit := env.Settings.Thresholds.LoginResponse
				s := perf.Sample{Operation: "login response", Start: time.Now()}
				if err := env.Page.ClickLogin(ctx); err != nil {
					return err
				}
				err := env.Page.WaitForLoginRedirect(ctx, env.Settings.Origin, limit)
				s.End = time.Now()
				if err != nil {
					if !isTimeout(ctx, err) {
						return err
					}
					env.Soft("login took %dms, exceeded %dms", s.Elapsed().Milliseconds(), limit.Milliseconds())
				}
				env.Soft("login response time %dms, limit %dms, %s environment", s.Elapsed().Milliseconds(),
					limit.Milliseconds(), environment(env))
				return AsAssertion(perf.Below(s, limit))
			}},
		}},

		{ID: "TC022b", Name: "paint and load metrics", Steps: []Step{
			{Name: "collect performance metrics", Reach: Observed, Do: func(ctx context.Context, env *Env) error {
				// enabled before navigation, paint metrics are recorded for it
				if err := env.Session.EnableMetrics(ctx); err != nil {
					if ctx.Err() != nil {
						return ctx.Err()
					}
					env.Soft("performance metrics not available, %v", err)
					return env.Page.NavigateToLogin(ctx, env.Settings.AuthURL)
				}
				if err := env.Page.NavigateToLogin(ctx, env.Settings.AuthURL); err != nil {
					return err
				}
				metrics, err := env.Session.Metrics(ctx)
				if err != nil {
					if ctx.Err() != nil {
						return ctx.Err()
					}
					env.Soft("performance metrics not available, %v", err)
					return nil
				}
				for _, m := range metrics {
					switch m.Name {
					case "FirstContentfulPaint":
						env.Soft("first contentful paint %.2fs", m.Value)
					case "DomContentLoaded":
						env.Soft("dom content loaded %.2fs", m.Value)
					}
				}
				for _, m := range metrics[:min(10, len(metrics))] {
					env.Soft("metric %s: %.4f", m.Name, m.Value)
				}
				return nil
			}},
		}},

		{ID: "TC022c", Name: "multiple sequential logins", Steps: sequentialLogins()},

		{ID: "TC023", Name: "dashboard loads after login", NeedsApp: true, Steps: []Step{
			navigate(),
			fill("enter valid credentials", validUsername, validPassword),
			submit(),
			{Name: "wait for redirect to application", Reach: Submitted, Do: func(ctx context.Context, env *Env) error {
				if err := env.Session.Wait(ctx, env.Waits.Login); err != nil {
					return err
				}
				return verifyRedirected(ctx, env)
			}},
			{Name: "verify application loads", Reach: Observed, Do: verifyDashboard},
			{Name: "verify session is active", Reach: Observed, Do: func(ctx context.Context, env *Env) error {
				obs, out, err := observe(ctx, env, "session")
				if err != nil {
					return err
				}
				env.Soft("%d session related cookies", out.SessionCookies)
				for _, c := range authstate.SessionCookies(obs.Cookies) {
					env.Soft("cookie %s: %s...", c.Name, truncate(c.Value, 20))
				}
				return nil
			}},
		}},

		{ID: "TC024", Name: "logout", NeedsApp: true, Steps: []Step{
			loginFirst(true),
			{Name: "find and click logout control", Reach: Observed, Do: logout},
			{Name: "verify logout", Reach: Observed, Do: func(ctx context.Context, env *Env) error {
				if err := env.Session.Wait(ctx, env.Waits.Settle); err != nil {
					return err
				}
				obs, _, err := observe(ctx, env, "after logout")
				if err != nil {
					return err
				}
				env.Soft("url after logout %s, looks logged out: %v", authstate.Endpoint(obs.URL),
					authstate.LoggedOutHint(obs.URL, env.Settings.Origin))
				env.Soft("%d session cookies after logout", len(authstate.SessionCookies(obs.Cookies, "session", "token")))
				if _, err := env.Screenshot(ctx, "after-logout.png"); err != nil {
					return err
				}
				return nil
			}},
			{Name: "verify protected resources need login again", Reach: Observed, Do: func(ctx context.Context, env *Env) error {
				if err := env.Page.NavigateToLogin(ctx, env.Settings.AuthURL); err != nil {
					return err
				}
				if err := env.Session.Wait(ctx, env.Waits.Recheck); err != nil {
					return err
				}
				if env.Page.UsernameVisible(ctx, env.Waits.Probe) {
					env.Soft("login page shown after logout")
					return nil
				}
				env.Soft("login page not shown, session may still be cached")
				return nil
			}},
		}},

		{ID: "TC024b", Name: "session persistence after page refresh", NeedsApp: true, Steps: []Step{
			loginFirst(false),
			{Name: "refresh page", Reach: Observed, Do: func(ctx context.Context, env *Env) error {
				before, err := env.URL(ctx)
				if err != nil {
					return err
				}
				if err := env.Session.Reload(ctx); err != nil {
					return fmt.Errorf("failed to reload: %w", err)
				}
				if err := waitIdle(ctx, env); err != nil {
					return err
				}
				if err := env.Session.Wait(ctx, env.Waits.Settle); err != nil {
					return err
				}
				after, err := env.URL(ctx)
				if err != nil {
					return err
				}
				env.Soft("url before refresh %s, after %s", authstate.Endpoint(before), authstate.Endpoint(after))
				if !strings.Contains(after, authstate.Endpoint(env.Settings.AuthURL)) {
					env.Soft("session persisted after refresh")
					return nil
				}
				env.Soft("session may have been lost, redirected to login")
				return nil
			}},
		}},
	}
}

// Find returns scenarios by id, case-insensitive. No ids returns the whole catalogue.
func Find(ids ...string) ([]Scenario, error) {
	all := Catalogue()
	if len(ids) == 0 {
		return all, nil
	}
	res := make([]Scenario, 0, len(ids))
	for _, id := range ids {
		found := false
		for _, sc := range all {
			if strings.EqualFold(sc.ID, strings.TrimSpace(id)) {
				res = append(res, sc)
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("unknown scenario %q", id)
		}
	}
	return res, nil
}

// Authenticate logs in with valid credentials and lets the scenario continue on whatever page
// the browser ended up. Failures of the login are only logged, the following steps decide.
func Authenticate() Step {
	return Step{Name: "authenticate", Reach: Submitted, Do: func(ctx context.Context, env *Env) error {
		err := func() error {
			if err := navigate().Do(ctx, env); err != nil {
				return err
			}
			if err := fillCredentials(ctx, env, validUsername(env), validPassword(env)); err != nil {
				return err
			}
			if err := env.Page.ClickLogin(ctx); err != nil {
				return err
			}
			return env.Session.Wait(ctx, env.Waits.Login)
		}()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			env.Soft("login fixture error, %v", err)
			return nil
		}
		u, err := env.URL(ctx)
		if err != nil {
			return err
		}
		if !strings.Contains(u, "code=") && !strings.Contains(u, "session_state=") {
			env.Soft("login may have failed, continuing")
		}
		return nil
	}}
}

type credential func(env *Env) string

func validUsername(env *Env) string { return env.Settings.Credentials.Username }
func validPassword(env *Env) string { return env.Settings.Credentials.Password }

func literal(v string) credential { return func(*Env) string { return v } }

func navigate() Step {
	return Step{Name: "navigate to login page", Reach: Navigated, Do: func(ctx context.Context, env *Env) error {
		if err := env.Page.NavigateToLogin(ctx, env.Settings.AuthURL); err != nil {
			return err
		}
		return env.Page.VerifyLoginPageLoaded(ctx)
	}}
}

// fill makes a step entering credentials, nil credential leaves the field untouched
func fill(name string, username, password credential) Step {
	return Step{Name: name, Reach: FormFilled, Do: func(ctx context.Context, env *Env) error {
		if username != nil {
			if err := env.Page.FillUsername(ctx, username(env)); err != nil {
				return err
			}
		}
		if password != nil {
			if err := env.Page.FillPassword(ctx, password(env)); err != nil {
				return err
			}
		}
		return nil
	}}
}

func submit() Step {
	return Step{Name: "click login button", Reach: Submitted, Do: func(ctx context.Context, env *Env) error {
		return env.Page.ClickLogin(ctx)
	}}
}

// rejected makes a scenario submitting credentials the identity provider must refuse
func rejected(id, name, fillName string, username, password credential, errorMessage bool) Scenario {
	return Scenario{ID: id, Name: name, Steps: []Step{
		navigate(),
		fill(fillName, username, password),
		submit(),
		{Name: "verify login is rejected", Reach: Observed, Do: func(ctx context.Context, env *Env) error {
			return verifyStayed(ctx, env, errorMessage)
		}},
	}}
}

// loginFirst logs in with valid credentials and waits for the redirect to settle
func loginFirst(verify bool) Step {
	return Step{Name: "login first", Reach: Submitted, Do: func(ctx context.Context, env *Env) error {
		if err := navigate().Do(ctx, env); err != nil {
			return err
		}
		if err := fillCredentials(ctx, env, validUsername(env), validPassword(env)); err != nil {
			return err
		}
		if err := env.Page.ClickLogin(ctx); err != nil {
			return err
		}
		if err := env.Session.Wait(ctx, env.Waits.Login); err != nil {
			return err
		}
		if !verify {
			return nil
		}
		return verifyRedirected(ctx, env)
	}}
}

func sequentialLogins() []Step {
	steps := make([]Step, 0, SequentialLogins+1)
	for i := 1; i <= SequentialLogins; i++ {
		steps = append(steps, Step{Name: fmt.Sprintf("login attempt %d of %d", i, SequentialLogins), Reach: Submitted,
			Do: func(ctx context.Context, env *Env) error {
				// each attempt starts without identity provider session, otherwise the form is skipped
				if err := env.Session.ClearCookies(ctx); err != nil {
					return fmt.Errorf("failed to reset cookies: %w", err)
				}
				if err := navigate().Do(ctx, env); err != nil {
					return err
				}
				if err := fillCredentials(ctx, env, validUsername(env), validPassword(env)); err != nil {
					return err
				}
				s, err := perf.Measure(fmt.Sprintf("login %d", i), func() error {
					if err := env.Page.ClickLogin(ctx); err != nil {
						return err
					}
					return env.Session.Wait(ctx, env.Waits.Settle)
				})
				if err != nil {
					return err
				}
				env.Samples = append(env.Samples, s)
				env.Soft("login %d time %dms", i, s.Elapsed().Milliseconds())
				return nil
			}})
	}
	steps = append(steps, Step{Name: "analyze login performance", Reach: Observed, Do: func(ctx context.Context, env *Env) error {
		sum := perf.Summarize(env.Samples)
		env.Soft("summary %s, %s environment", sum, environment(env))
		return AsAssertion(perf.MeanBelow(sum, env.Settings.Thresholds.SequentialMean))
	}})
	return steps
}

func fillCredentials(ctx context.Context, env *Env, username, password string) error {
	if err := env.Page.FillUsername(ctx, username); err != nil {
		return err
	}
	return env.Page.FillPassword(ctx, password)
}

func verifyFilled(ctx context.Context, env *Env) error {
	return verifyValues(ctx, env, validUsername(env), validPassword(env))
}

func verifyValues(ctx context.Context, env *Env, username, password string) error {
	u, err := env.Page.UsernameValue(ctx)
	if err != nil {
		return fmt.Errorf("failed to read username: %w", err)
	}
	if err := Assertf(u == username, "username field holds %q, expected %q", u, username); err != nil {
		return err
	}
	p, err := env.Page.PasswordValue(ctx)
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}
	return Assertf(p == password, "password field holds %d characters, expected %d", len(p), len(password))
}

// observe snapshots the session and logs how the snapshot classifies
func observe(ctx context.Context, env *Env, what string) (authstate.Observation, authstate.Outcome, error) {
	obs, err := env.Observe(ctx)
	if err != nil {
		return authstate.Observation{}, authstate.Outcome{}, err
	}
	out := authstate.Classify(obs, env.Settings.Origin)
	env.Soft("%s: %s", what, out)
	return obs, out, nil
}

// verifyRedirected checks the browser left the identity provider
func verifyRedirected(ctx context.Context, env *Env) error {
	u, err := env.URL(ctx)
	if err != nil {
		return err
	}
	return Assertf(authstate.RedirectedAway(u, env.Settings.Origin), "still on identity provider, %s", u)
}

// verifyStayed waits and checks the browser is still on the identity provider
func verifyStayed(ctx context.Context, env *Env, errorMessage bool) error {
	if err := env.Session.Wait(ctx, env.Waits.Submit); err != nil {
		return err
	}
	u, err := env.URL(ctx)
	if err != nil {
		return err
	}
	if err := Assertf(authstate.StillOnAuthPage(u, env.Settings.Origin), "left identity provider, %s", u); err != nil {
		return err
	}
	if errorMessage && env.Page.HasErrorMessage(ctx) {
		env.Soft("error message displayed")
	}
	return nil
}

func verifyDashboard(ctx context.Context, env *Env) error {
	if err := env.Session.Wait(ctx, env.Waits.Settle); err != nil {
		return err
	}
	u, err := env.URL(ctx)
	if err != nil {
		return err
	}
	if !strings.Contains(u, authstate.Host(env.Settings.AppURL)) {
		// not on the application, the authentication itself must have completed
		return Assertf(authstate.HasAuthIndicators(u), "neither on application nor authenticated, %s", u)
	}

	if err := waitIdle(ctx, env); err != nil {
		return err
	}
	title, err := env.Session.Title(ctx)
	if err != nil {
		return fmt.Errorf("failed to read title: %w", err)
	}
	env.Soft("page title %q", title)
	path, err := env.Screenshot(ctx, "dashboard-after-login.png")
	if err != nil {
		return err
	}
	env.Soft("screenshot saved to %s", path)
	return Assertf(title != "", "application page has no title")
}

// logout clicks the first visible logout control, falls back to the identity provider logout url
func logout(ctx context.Context, env *Env) error {
	candidates := probe.Candidates(env.Waits.Probe, env.Page.Selectors().Logout...)
	if m, ok := probe.FirstVisible(ctx, env.Session, candidates); ok {
		err := m.Locator.Click(ctx)
		if err == nil {
			env.Soft("clicked logout control %s", m.Selector)
			return nil
		}
		env.Soft("failed to click logout control %s, %v", m.Selector, err)
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	env.Soft("no logout control found, using identity provider logout url")
	if err := env.Session.Goto(ctx, env.Settings.LogoutURL); err != nil {
		return fmt.Errorf("failed to open logout url: %w", err)
	}
	return nil
}

// waitIdle waits for network idle, a timeout is only logged
func waitIdle(ctx context.Context, env *Env) error {
	ictx, cancel := context.WithTimeout(ctx, env.Settings.Timeouts.Navigation)
	defer cancel()
	if err := env.Session.WaitForLoadState(ictx, browser.LoadStateNetworkIdle); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !isTimeout(ctx, err) {
			return err
		}
		env.Soft("network not idle, continuing")
	}
	return nil
}

// isTimeout reports a bounded wait running out while the scenario itself is still alive
func isTimeout(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	return errors.Is(err, browser.ErrTimeout) || errors.Is(err, context.DeadlineExceeded)
}

func environment(env *Env) string {
	if env.Settings.Constrained {
		return "constrained"
	}
	return "local"
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
