// Package page implements the page object of the identity provider's login form.
// Scenarios talk to the form only through Login, selector strings stay in this package.
package page

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	log "github.com/go-pkgz/lgr"

	"github.com/umputun/loginprobe/app/authstate"
	"github.com/umputun/loginprobe/app/browser"
	"github.com/umputun/loginprobe/app/probe"
)

// PageNotReadyError reports login form elements missing after the visibility wait
type PageNotReadyError struct {
	Missing []string
}

func (e *PageNotReadyError) Error() string {
	return "login page not ready, missing " + strings.Join(e.Missing, ", ")
}

// ElementNotInteractableError reports a control that can't be focused, filled or clicked
type ElementNotInteractableError struct {
	Field    string
	Selector string
	Err      error
}

func (e *ElementNotInteractableError) Error() string {
	return fmt.Sprintf("%s (%s) is not interactable: %v", e.Field, e.Selector, e.Err)
}

func (e *ElementNotInteractableError) Unwrap() error { return e.Err }

// Login is the page object of the login form, bound to a single session
type Login struct {
	sess browser.Session
	sel  Selectors
	tm   Timeouts
}

// NewLogin makes page object for the session
func NewLogin(sess browser.Session, sel Selectors, tm Timeouts) *Login {
	return &Login{sess: sess, sel: sel, tm: tm}
}

// NavigateToLogin opens authURL and waits for the network to settle.
// Navigation errors fail, a network which never goes idle within Timeouts.Navigation is tolerated.
func (p *Login) NavigateToLogin(ctx context.Context, authURL string) error {
	if err := p.sess.Goto(ctx, authURL); err != nil {
		return fmt.Errorf("failed to open login page: %w", err)
	}

	idleCtx, cancel := context.WithTimeout(ctx, p.tm.Navigation)
	defer cancel()
	if err := p.sess.WaitForLoadState(idleCtx, browser.LoadStateNetworkIdle); err != nil {
		if !errors.Is(err, browser.ErrTimeout) && !errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("failed to wait for login page: %w", err)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Printf("[WARN] network not idle after %v on %s, continuing", p.tm.Navigation, authstate.Endpoint(authURL))
	}
	return nil
}

// VerifyLoginPageLoaded checks form, username, password and submit are all visible
func (p *Login) VerifyLoginPageLoaded(ctx context.Context) error {
	var missing []string
	for _, el := range []struct{ name, sel string }{
		{"form", p.sel.Form}, {"username", p.sel.Username}, {"password", p.sel.Password}, {"submit", p.sel.Submit},
	} {
		visible, err := p.sess.Locator(el.sel).IsVisible(ctx, p.tm.Visible)
		if err != nil {
			return fmt.Errorf("failed to check %s: %w", el.name, err)
		}
		if !visible {
			missing = append(missing, el.name)
		}
	}
	if len(missing) > 0 {
		return &PageNotReadyError{Missing: missing}
	}
	return nil
}

// FillUsername replaces username field value
func (p *Login) FillUsername(ctx context.Context, value string) error {
	return p.fill(ctx, "username", p.sel.Username, value)
}

// FillPassword replaces password field value
func (p *Login) FillPassword(ctx context.Context, value string) error {
	return p.fill(ctx, "password", p.sel.Password, value)
}

func (p *Login) fill(ctx context.Context, field, sel, value string) error {
	loc := p.sess.Locator(sel)
	visible, err := loc.IsVisible(ctx, p.tm.Visible)
	if err != nil {
		return &ElementNotInteractableError{Field: field, Selector: sel, Err: err}
	}
	if !visible {
		return &ElementNotInteractableError{Field: field, Selector: sel,
			Err: fmt.Errorf("not visible after %v: %w", p.tm.Visible, browser.ErrTimeout)}
	}
	if err := loc.Fill(ctx, value); err != nil {
		return &ElementNotInteractableError{Field: field, Selector: sel, Err: err}
	}
	return nil
}

// ClickLogin clicks the visible and enabled submit button. It doesn't wait for the navigation
// caused by the click, the caller decides what to wait for.
func (p *Login) ClickLogin(ctx context.Context) error {
	loc := p.sess.Locator(p.sel.Submit)
	visible, err := loc.IsVisible(ctx, p.tm.Visible)
	if err != nil {
		return &ElementNotInteractableError{Field: "submit", Selector: p.sel.Submit, Err: err}
	}
	if !visible {
		return &ElementNotInteractableError{Field: "submit", Selector: p.sel.Submit,
			Err: fmt.Errorf("not visible after %v: %w", p.tm.Visible, browser.ErrTimeout)}
	}
	enabled, err := loc.IsEnabled(ctx, p.tm.Visible)
	if err != nil {
		return &ElementNotInteractableError{Field: "submit", Selector: p.sel.Submit, Err: err}
	}
	if !enabled {
		return &ElementNotInteractableError{Field: "submit", Selector: p.sel.Submit, Err: errors.New("disabled")}
	}
	if err := loc.Click(ctx); err != nil {
		return &ElementNotInteractableError{Field: "submit", Selector: p.sel.Submit, Err: err}
	}
	return nil
}

// Login fills both fields and submits the form
func (p *Login) Login(ctx context.Context, username, password string) error {
	if err := p.FillUsername(ctx, username); err != nil {
		return err
	}
	if err := p.FillPassword(ctx, password); err != nil {
		return err
	}
	return p.ClickLogin(ctx)
}

// HasErrorMessage probes the primary error element, then the alternatives in order.
// It never fails; false means no error message was seen, not that the login succeeded.
func (p *Login) HasErrorMessage(ctx context.Context) bool {
	candidates := []probe.Candidate{{Selector: p.sel.Error, Timeout: p.tm.ErrorProbe}}
	candidates = append(candidates, probe.Candidates(p.tm.ErrorFallback, p.sel.ErrorAlternatives...)...)
	m, ok := probe.FirstVisible(ctx, p.sess, candidates)
	if ok {
		log.Printf("[DEBUG] error message found by %q", m.Selector)
	}
	return ok
}

// VerifyLoginError checks the primary error message is visible and contains expected text.
// Empty expected skips the text check.
func (p *Login) VerifyLoginError(ctx context.Context, expected string) error {
	loc := p.sess.Locator(p.sel.Error)
	visible, err := loc.IsVisible(ctx, p.tm.Visible)
	if err != nil {
		return fmt.Errorf("failed to check error message: %w", err)
	}
	if !visible {
		return fmt.Errorf("error message %s not visible after %v: %w", p.sel.Error, p.tm.Visible, browser.ErrTimeout)
	}
	if expected == "" {
		return nil
	}
	text, err := loc.Text(ctx)
	if err != nil {
		return fmt.Errorf("failed to read error message: %w", err)
	}
	if !strings.Contains(text, expected) {
		return fmt.Errorf("error message %q doesn't contain %q", strings.TrimSpace(text), expected)
	}
	return nil
}

// WaitForLoginRedirect waits up to timeout for the browser to leave the identity provider
func (p *Login) WaitForLoginRedirect(ctx context.Context, origin string, timeout time.Duration) error {
	wctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return p.sess.WaitForURL(wctx, func(u string) bool { return authstate.RedirectedAway(u, origin) })
}

// VerifySuccessfulLogin waits the grace period and checks the url contains expectedFragment.
// This is a string check only, nothing about the login itself is verified.
func (p *Login) VerifySuccessfulLogin(ctx context.Context, expectedFragment string) (bool, error) {
	if err := p.sess.Wait(ctx, p.tm.Grace); err != nil {
		return false, err
	}
	u, err := p.sess.URL(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to read url: %w", err)
	}
	return strings.Contains(u, expectedFragment), nil
}

// ClearForm empties username and password
func (p *Login) ClearForm(ctx context.Context) error {
	if err := p.sess.Locator(p.sel.Username).Clear(ctx); err != nil {
		return &ElementNotInteractableError{Field: "username", Selector: p.sel.Username, Err: err}
	}
	if err := p.sess.Locator(p.sel.Password).Clear(ctx); err != nil {
		return &ElementNotInteractableError{Field: "password", Selector: p.sel.Password, Err: err}
	}
	return nil
}

// UsernameValue reads current value of username field
func (p *Login) UsernameValue(ctx context.Context) (string, error) {
	return p.sess.Locator(p.sel.Username).InputValue(ctx)
}

// PasswordValue reads current value of password field
func (p *Login) PasswordValue(ctx context.Context) (string, error) {
	return p.sess.Locator(p.sel.Password).InputValue(ctx)
}

// UsernamePlaceholder returns placeholder attribute of username field
func (p *Login) UsernamePlaceholder(ctx context.Context) (string, error) {
	return p.sess.Locator(p.sel.Username).Attribute(ctx, "placeholder")
}

// PasswordPlaceholder returns placeholder attribute of password field
func (p *Login) PasswordPlaceholder(ctx context.Context) (string, error) {
	return p.sess.Locator(p.sel.Password).Attribute(ctx, "placeholder")
}

// Title returns document title
func (p *Login) Title(ctx context.Context) (string, error) {
	return p.sess.Title(ctx)
}

// Heading returns trimmed text of the page heading, empty if the heading isn't shown
func (p *Login) Heading(ctx context.Context) string {
	if p.sel.Title == "" || !probe.Visible(ctx, p.sess, p.sel.Title, p.tm.ErrorFallback) {
		return ""
	}
	text, err := p.sess.Locator(p.sel.Title).Text(ctx)
	if err != nil {
		log.Printf("[DEBUG] can't read heading %s, %v", p.sel.Title, err)
		return ""
	}
	return strings.TrimSpace(text)
}

// SocialLogin reports if social provider buttons are shown next to the form
func (p *Login) SocialLogin(ctx context.Context) bool {
	return p.sel.SocialButtons != "" && probe.Visible(ctx, p.sess, p.sel.SocialButtons, p.tm.ErrorFallback)
}

// VerifyFormEnabled checks username, password and submit accept input
func (p *Login) VerifyFormEnabled(ctx context.Context) error {
	var disabled []string
	for _, el := range []struct{ name, sel string }{
		{"username", p.sel.Username}, {"password", p.sel.Password}, {"submit", p.sel.Submit},
	} {
		enabled, err := p.sess.Locator(el.sel).IsEnabled(ctx, p.tm.Visible)
		if err != nil {
			return fmt.Errorf("failed to check %s: %w", el.name, err)
		}
		if !enabled {
			disabled = append(disabled, el.name)
		}
	}
	if len(disabled) > 0 {
		return fmt.Errorf("disabled form controls: %s", strings.Join(disabled, ", "))
	}
	return nil
}

// UsernameVisible is a tolerant check for the login form being shown
func (p *Login) UsernameVisible(ctx context.Context, timeout time.Duration) bool {
	return probe.Visible(ctx, p.sess, p.sel.Username, timeout)
}

// Selectors returns selectors used by the page object
func (p *Login) Selectors() Selectors { return p.sel }
