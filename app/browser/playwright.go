package browser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	log "github.com/go-pkgz/lgr"
	"github.com/playwright-community/playwright-go"
)

// Playwright drives chromium, firefox or webkit through playwright-go.
// One browser process is shared, every session gets its own incognito-like context.
type Playwright struct {
	opts    Options
	pw      *playwright.Playwright
	browser playwright.Browser
	ownPW   bool
}

// NewPlaywright starts playwright and launches the configured browser
func NewPlaywright(opts Options) (*Playwright, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}
	res, err := NewPlaywrightWith(pw, opts)
	if err != nil {
		_ = pw.Stop()
		return nil, err
	}
	res.ownPW = true
	return res, nil
}

// NewPlaywrightWith launches the configured browser on already running playwright instance.
// Close won't stop pw in this case.
func NewPlaywrightWith(pw *playwright.Playwright, opts Options) (*Playwright, error) {
	bt := pw.Chromium
	switch opts.Browser {
	case "", "chromium":
	case "firefox":
		bt = pw.Firefox
	case "webkit":
		bt = pw.WebKit
	default:
		return nil, fmt.Errorf("unknown browser %q", opts.Browser)
	}

	brow, err := bt.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
		SlowMo:   playwright.Float(ms(opts.SlowMo)),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to launch %s: %w", bt.Name(), err)
	}
	log.Printf("[DEBUG] launched %s %s, headless=%v", bt.Name(), brow.Version(), opts.Headless)
	return &Playwright{opts: opts, pw: pw, browser: brow}, nil
}

// Open creates an isolated browser context with a single page
func (p *Playwright) Open(_ context.Context) (Session, error) {
	bctx, err := p.browser.NewContext(playwright.BrowserNewContextOptions{
		IgnoreHttpsErrors: playwright.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create browser context: %w", err)
	}
	if p.opts.ActionTimeout > 0 {
		bctx.SetDefaultTimeout(ms(p.opts.ActionTimeout))
	}
	if p.opts.NavigationTimeout > 0 {
		bctx.SetDefaultNavigationTimeout(ms(p.opts.NavigationTimeout))
	}

	page, err := bctx.NewPage()
	if err != nil {
		_ = bctx.Close()
		return nil, fmt.Errorf("failed to open page: %w", err)
	}

	s := &pwSession{opts: p.opts, bctx: page.Context(), page: page, chromium: p.browser.BrowserType().Name() == "chromium"}
	page.OnDialog(func(d playwright.Dialog) {
		s.dialogs.Add(1)
		log.Printf("[WARN] unexpected %s dialog: %q", d.Type(), d.Message())
		if e := d.Dismiss(); e != nil {
			log.Printf("[DEBUG] failed to dismiss dialog, %v", e)
		}
	})
	return s, nil
}

// Close shuts the browser down, and playwright itself if it was started here
func (p *Playwright) Close() error {
	var errs []error
	if err := p.browser.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close browser: %w", err))
	}
	if p.ownPW {
		if err := p.pw.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop playwright: %w", err))
		}
	}
	return errors.Join(errs...)
}

type pwSession struct {
	opts     Options
	bctx     playwright.BrowserContext
	page     playwright.Page
	chromium bool
	dialogs  atomic.Int32
	cdp      playwright.CDPSession // attached by EnableMetrics, detached on Close
}

func (s *pwSession) Goto(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.page.Goto(url, playwright.PageGotoOptions{
		Timeout: playwright.Float(ms(remaining(ctx, s.opts.NavigationTimeout))),
	})
	return pwErr("goto "+url, err)
}

func (s *pwSession) WaitForLoadState(ctx context.Context, state LoadState) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	st := playwright.LoadStateLoad
	switch state {
	case LoadStateDOMContentLoaded:
		st = playwright.LoadStateDomcontentloaded
	case LoadStateNetworkIdle:
		st = playwright.LoadStateNetworkidle
	}
	err := s.page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State:   st,
		Timeout: playwright.Float(ms(remaining(ctx, s.opts.NavigationTimeout))),
	})
	return pwErr("wait for "+string(state), err)
}

func (s *pwSession) Reload(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.page.Reload(playwright.PageReloadOptions{
		Timeout: playwright.Float(ms(remaining(ctx, s.opts.NavigationTimeout))),
	})
	return pwErr("reload", err)
}

func (s *pwSession) Locator(selector string) Locator {
	return &pwLocator{sel: selector, loc: s.page.Locator(selector).First(), def: s.opts.ActionTimeout}
}

func (s *pwSession) Title(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	title, err := s.page.Title()
	return title, pwErr("title", err)
}

func (s *pwSession) URL(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return s.page.URL(), nil
}

func (s *pwSession) Cookies(ctx context.Context) ([]Cookie, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cookies, err := s.bctx.Cookies()
	if err != nil {
		return nil, pwErr("cookies", err)
	}
	res := make([]Cookie, 0, len(cookies))
	for _, c := range cookies {
		ck := Cookie{Name: c.Name, Value: c.Value, Domain: c.Domain, Path: c.Path, Expires: c.Expires,
			HTTPOnly: c.HttpOnly, Secure: c.Secure}
		if c.SameSite != nil {
			ck.SameSite = string(*c.SameSite)
		}
		res = append(res, ck)
	}
	return res, nil
}

func (s *pwSession) ClearCookies(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.bctx.ClearCookies(); err != nil {
		return pwErr("clear cookies", err)
	}
	return nil
}

func (s *pwSession) Screenshot(ctx context.Context, path string, fullPage bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("failed to make screenshot dir: %w", err)
	}
	_, err := s.page.Screenshot(playwright.PageScreenshotOptions{
		Path:     playwright.String(path),
		FullPage: playwright.Bool(fullPage),
		Timeout:  playwright.Float(ms(remaining(ctx, s.opts.ActionTimeout))),
	})
	return pwErr("screenshot", err)
}

func (s *pwSession) Wait(ctx context.Context, d time.Duration) error {
	return sleep(ctx, d)
}

func (s *pwSession) WaitForURL(ctx context.Context, match func(url string) bool) error {
	return pollURL(ctx, s.opts.NavigationTimeout, func() (string, error) { return s.page.URL(), nil }, match)
}

// EnableMetrics attaches a CDP session with performance domain enabled, available on chromium only.
// The session stays attached until Close, so metrics include navigations made after this call.
func (s *pwSession) EnableMetrics(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.cdp != nil {
		return nil
	}
	if !s.chromium {
		return errors.New("performance metrics require chromium")
	}
	cdp, err := s.bctx.NewCDPSession(s.page)
	if err != nil {
		return fmt.Errorf("failed to open cdp session: %w", err)
	}
	if _, err = cdp.Send("Performance.enable", nil); err != nil {
		if e := cdp.Detach(); e != nil {
			log.Printf("[DEBUG] failed to detach cdp session, %v", e)
		}
		return fmt.Errorf("failed to enable performance domain: %w", err)
	}
	s.cdp = cdp
	return nil
}

func (s *pwSession) Metrics(ctx context.Context) ([]Metric, error) {
	if err := s.EnableMetrics(ctx); err != nil {
		return nil, err
	}
	resp, err := s.cdp.Send("Performance.getMetrics", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get performance metrics: %w", err)
	}
	return parseCDPMetrics(resp)
}

func (s *pwSession) Dialogs() int { return int(s.dialogs.Load()) }

func (s *pwSession) Close() error {
	if s.cdp != nil {
		if err := s.cdp.Detach(); err != nil {
			log.Printf("[DEBUG] failed to detach cdp session, %v", err)
		}
	}
	if err := s.bctx.Close(); err != nil {
		return fmt.Errorf("failed to close browser context: %w", err)
	}
	return nil
}

type pwLocator struct {
	sel string
	loc playwright.Locator
	def time.Duration
}

// IsVisible waits up to timeout for the element to become visible.
// Running out of time is a negative answer, not an error.
func (l *pwLocator) IsVisible(ctx context.Context, timeout time.Duration) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	err := l.loc.WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: playwright.Float(ms(remaining(ctx, timeout))),
	})
	if err == nil {
		return true, nil
	}
	if errors.Is(err, playwright.ErrTimeout) {
		return false, nil
	}
	return false, fmt.Errorf("wait for %s: %w", l.sel, err)
}

func (l *pwLocator) IsEnabled(ctx context.Context, timeout time.Duration) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	enabled, err := l.loc.IsEnabled(playwright.LocatorIsEnabledOptions{
		Timeout: playwright.Float(ms(remaining(ctx, timeout))),
	})
	return enabled, pwErr("is enabled "+l.sel, err)
}

func (l *pwLocator) Fill(ctx context.Context, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := l.loc.Fill(value, playwright.LocatorFillOptions{Timeout: playwright.Float(ms(remaining(ctx, l.def)))})
	return pwErr("fill "+l.sel, err)
}

func (l *pwLocator) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := l.loc.Clear(playwright.LocatorClearOptions{Timeout: playwright.Float(ms(remaining(ctx, l.def)))})
	return pwErr("clear "+l.sel, err)
}

func (l *pwLocator) Click(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := l.loc.Click(playwright.LocatorClickOptions{Timeout: playwright.Float(ms(remaining(ctx, l.def)))})
	return pwErr("click "+l.sel, err)
}

func (l *pwLocator) InputValue(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	v, err := l.loc.InputValue(playwright.LocatorInputValueOptions{Timeout: playwright.Float(ms(remaining(ctx, l.def)))})
	return v, pwErr("input value "+l.sel, err)
}

func (l *pwLocator) Attribute(ctx context.Context, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	v, err := l.loc.GetAttribute(name, playwright.LocatorGetAttributeOptions{Timeout: playwright.Float(ms(remaining(ctx, l.def)))})
	return v, pwErr("attribute "+name+" of "+l.sel, err)
}

func (l *pwLocator) Text(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	v, err := l.loc.TextContent(playwright.LocatorTextContentOptions{Timeout: playwright.Float(ms(remaining(ctx, l.def)))})
	return v, pwErr("text of "+l.sel, err)
}

// pwErr maps playwright timeouts to ErrTimeout and adds the operation to everything else
func pwErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, playwright.ErrTimeout) {
		return timeoutError(op, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// parseCDPMetrics converts raw Performance.getMetrics response
func parseCDPMetrics(resp any) ([]Metric, error) {
	m, ok := resp.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("unexpected metrics response %T", resp)
	}
	raw, ok := m["metrics"].([]any)
	if !ok {
		return nil, errors.New("metrics response has no metrics list")
	}
	res := make([]Metric, 0, len(raw))
	for _, r := range raw {
		rec, ok := r.(map[string]any)
		if !ok {
			continue
		}
		name, _ := rec["name"].(string)
		value, _ := rec["value"].(float64)
		if name == "" {
			continue
		}
		res = append(res, Metric{Name: name, Value: value})
	}
	return res, nil
}

func ms(d time.Duration) float64 { return float64(d.Milliseconds()) }

// pollURL checks the current url every 100ms until match returns true.
// Without a ctx deadline the wait is bounded by def.
func pollURL(ctx context.Context, def time.Duration, get func() (string, error), match func(string) bool) error {
	if _, ok := ctx.Deadline(); !ok && def > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, def)
		defer cancel()
	}
	var last string
	for {
		u, err := get()
		if err != nil {
			return fmt.Errorf("failed to read url: %w", err)
		}
		if u != last {
			log.Printf("[DEBUG] saw url %s", u)
			last = u
		}
		if match(u) {
			return nil
		}
		if err := sleep(ctx, 100*time.Millisecond); err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return timeoutError("wait for url", fmt.Errorf("last url %s", last))
			}
			return err
		}
	}
}
