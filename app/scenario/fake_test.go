package scenario

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/umputun/loginprobe/app/browser"
	"github.com/umputun/loginprobe/app/config"
	"github.com/umputun/loginprobe/app/page"
)

const (
	testOrigin  = "idp.example.com"
	testAuthURL = "https://idp.example.com/realms/lq/protocol/openid-connect/auth?client_id=app&state=s1" +
		"&response_mode=fragment&response_type=code"
	testLogoutURL = "https://idp.example.com/realms/lq/protocol/openid-connect/logout"
	testFailedURL = "https://idp.example.com/realms/lq/login-actions/authenticate?execution=e1"
	testAppURL    = "http://localhost:3000"
	testCallback  = "http://localhost:3000/#/login?state=s1&session_state=ss1&code=c1"
)

func testSettings(t *testing.T) config.Settings {
	return config.Settings{
		Credentials:  config.Credentials{Username: "devonebyone", Password: "Qq121212"},
		AuthURL:      testAuthURL,
		LogoutURL:    testLogoutURL,
		Origin:       testOrigin,
		AppURL:       testAppURL,
		Thresholds:   config.ThresholdsFor(false),
		Timeouts:     config.Timeouts{Navigation: time.Second, Action: time.Second, Expect: 10 * time.Millisecond, Test: 10 * time.Second},
		ArtifactsDir: t.TempDir(),
		Selectors:    page.DefaultSelectors(),
	}
}

// fakeIdP is an in-memory browser showing a login form on the identity provider host
// and redirecting to the application after valid credentials
type fakeIdP struct {
	mu          sync.Mutex
	user, pass  string
	url         string
	callback    string // where valid credentials redirect to
	values      map[string]string
	loggedIn    bool // identity provider session
	failed      bool // last submit rejected
	dialogs     int
	screenshots []string
	gotoErr     error
	gotoDelay   time.Duration
	noTitle     bool
	closed      bool
	metricsErr  error
	metricsOn   bool
	measured    []string // urls opened with metrics enabled
}

func newFakeIdP() *fakeIdP {
	return &fakeIdP{user: "devonebyone", pass: "Qq121212", callback: testCallback, values: map[string]string{}}
}

func (f *fakeIdP) opener() browser.Opener {
	return func(context.Context) (browser.Session, error) { return f, nil }
}

func (f *fakeIdP) onIdP() bool  { return strings.Contains(f.url, testOrigin) }
func (f *fakeIdP) onApp() bool  { return strings.Contains(f.url, "localhost:3000") }
func (f *fakeIdP) formSel() bool { return f.onIdP() }

func (f *fakeIdP) Goto(_ context.Context, u string) error {
	if f.gotoDelay > 0 {
		time.Sleep(f.gotoDelay)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.gotoErr != nil {
		return f.gotoErr
	}
	f.failed = false
	f.values = map[string]string{}
	if f.metricsOn {
		f.measured = append(f.measured, u)
	}
	switch {
	case strings.HasPrefix(u, testLogoutURL):
		f.loggedIn = false
		f.url = testAuthURL
	case strings.Contains(u, "/openid-connect/auth") && f.loggedIn:
		f.url = f.callback
	default:
		f.url = u
	}
	return nil
}

func (f *fakeIdP) WaitForLoadState(context.Context, browser.LoadState) error { return nil }
func (f *fakeIdP) Reload(context.Context) error                            { return nil }

func (f *fakeIdP) Locator(selector string) browser.Locator { return &fakeLocator{f: f, sel: selector} }

func (f *fakeIdP) Title(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.noTitle {
		return "", nil
	}
	if f.onApp() {
		return "Dashboard", nil
	}
	return "Sign in to lq", nil
}

func (f *fakeIdP) URL(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.url, nil
}

func (f *fakeIdP) Cookies(context.Context) ([]browser.Cookie, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	res := []browser.Cookie{{Name: "theme", Value: "light"}}
	if f.loggedIn {
		res = append(res, browser.Cookie{Name: "KEYCLOAK_SESSION", Value: "lq/3f0c1d2e-session-value-longer-than-20"})
	}
	return res, nil
}

func (f *fakeIdP) ClearCookies(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loggedIn = false
	return nil
}

func (f *fakeIdP) Screenshot(_ context.Context, path string, _ bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.screenshots = append(f.screenshots, path)
	return nil
}

func (f *fakeIdP) Wait(ctx context.Context, _ time.Duration) error { return ctx.Err() }

func (f *fakeIdP) WaitForURL(_ context.Context, match func(url string) bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if match(f.url) {
		return nil
	}
	return fmt.Errorf("wait for url: %w", browser.ErrTimeout)
}

func (f *fakeIdP) EnableMetrics(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.metricsErr != nil {
		return f.metricsErr
	}
	f.metricsOn = true
	return nil
}

func (f *fakeIdP) Metrics(context.Context) ([]browser.Metric, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.metricsOn {
		return nil, errors.New("performance domain not enabled")
	}
	return []browser.Metric{{Name: "Documents", Value: 1}, {Name: "FirstContentfulPaint", Value: 0.25},
		{Name: "DomContentLoaded", Value: 0.2}}, nil
}

func (f *fakeIdP) Dialogs() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.dialogs
}

func (f *fakeIdP) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeIdP) submit() {
	if f.values[`input[name="username"]`] == f.user && f.values[`input[name="password"]`] == f.pass {
		f.loggedIn, f.failed = true, false
		f.url = f.callback
		return
	}
	f.failed = true
	f.url = testFailedURL
}

type fakeLocator struct {
	f   *fakeIdP
	sel string
}

func (l *fakeLocator) visible() bool {
	switch l.sel {
	case "#kc-form-login", `input[name="username"]`, `input[name="password"]`, "#kc-login":
		return l.f.formSel()
	case ".pf-c-title":
		return l.f.onIdP()
	case "#input-error":
		return l.f.onIdP() && l.f.failed
	case "#logout":
		return l.f.onApp()
	}
	return false
}

func (l *fakeLocator) IsVisible(context.Context, time.Duration) (bool, error) {
	l.f.mu.Lock()
	defer l.f.mu.Unlock()
	return l.visible(), nil
}

func (l *fakeLocator) IsEnabled(ctx context.Context, timeout time.Duration) (bool, error) {
	return l.IsVisible(ctx, timeout)
}

func (l *fakeLocator) Fill(_ context.Context, value string) error {
	l.f.mu.Lock()
	defer l.f.mu.Unlock()
	if !l.visible() {
		return fmt.Errorf("fill %s: %w", l.sel, browser.ErrTimeout)
	}
	l.f.values[l.sel] = value
	return nil
}

func (l *fakeLocator) Clear(ctx context.Context) error { return l.Fill(ctx, "") }

func (l *fakeLocator) Click(context.Context) error {
	l.f.mu.Lock()
	defer l.f.mu.Unlock()
	if !l.visible() {
		return fmt.Errorf("click %s: %w", l.sel, browser.ErrTimeout)
	}
	switch l.sel {
	case "#kc-login":
		l.f.submit()
	case "#logout":
		l.f.loggedIn = false
		l.f.url = testAuthURL
		l.f.values = map[string]string{}
	}
	return nil
}

func (l *fakeLocator) InputValue(context.Context) (string, error) {
	l.f.mu.Lock()
	defer l.f.mu.Unlock()
	return l.f.values[l.sel], nil
}

func (l *fakeLocator) Attribute(context.Context, string) (string, error) { return "", nil }

func (l *fakeLocator) Text(context.Context) (string, error) {
	switch l.sel {
	case "#input-error":
		return "Invalid username or password.", nil
	case ".pf-c-title":
		return "Sign in to your account", nil
	}
	return "", nil
}
