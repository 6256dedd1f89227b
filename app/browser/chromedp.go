package browser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync/atomic"
	"time"

	cdppage "github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/performance"
	"github.com/chromedp/cdproto/storage"
	"github.com/chromedp/chromedp"
	log "github.com/go-pkgz/lgr"
)

// networkIdleQuiet is how long the resource count must stay unchanged to call network idle
const networkIdleQuiet = 500 * time.Millisecond

// Chrome drives a local chrome through the devtools protocol with chromedp.
// Every session is a separate browser process, so nothing is shared between sessions.
// Selectors are plain CSS, playwright extensions like :has-text() never match here.
type Chrome struct {
	opts Options
}

// NewChrome makes chromedp driver
func NewChrome(opts Options) *Chrome {
	return &Chrome{opts: opts}
}

// Open starts a browser process and waits for it to be ready
func (c *Chrome) Open(ctx context.Context) (Session, error) {
	options := append(chromedp.DefaultExecAllocatorOptions[:], chromedp.IgnoreCertErrors) //nolint:gocritic // copy of defaults
	if !c.opts.Headless {
		options = append(options, chromedp.Flag("headless", false), chromedp.Flag("hide-scrollbars", false))
	}
	if runtime.GOOS != "darwin" && runtime.GOOS != "windows" {
		// running on linux usually means a container, chrome refuses to start sandboxed there
		options = append(options, chromedp.NoSandbox)
	}

	// the browser must outlive ctx, which only bounds the startup
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), options...)
	chromeCtx, chromeCancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(format string, args ...any) { log.Printf("[DEBUG] chromedp "+format, args...) }),
		chromedp.WithErrorf(func(format string, args ...any) { log.Printf("[WARN] chromedp "+format, args...) }),
	)

	s := &cdpSession{opts: c.opts, chromeCtx: chromeCtx, cancel: func() { chromeCancel(); allocCancel() }}
	chromedp.ListenTarget(chromeCtx, func(ev any) {
		if e, ok := ev.(*cdppage.EventJavascriptDialogOpening); ok {
			s.dialogs.Add(1)
			log.Printf("[WARN] unexpected %s dialog: %q", e.Type, e.Message)
			go func() {
				if err := chromedp.Run(chromeCtx, cdppage.HandleJavaScriptDialog(false)); err != nil {
					log.Printf("[DEBUG] failed to dismiss dialog, %v", err)
				}
			}()
		}
	})

	if err := s.run(ctx, c.opts.NavigationTimeout, "start chrome"); err != nil {
		s.cancel()
		return nil, err
	}
	return s, nil
}

// Close is a no-op, sessions own their browser processes
func (c *Chrome) Close() error { return nil }

type cdpSession struct {
	opts      Options
	chromeCtx context.Context
	cancel    context.CancelFunc
	dialogs   atomic.Int32
	metrics   atomic.Bool // performance domain enabled
}

// run executes actions bounded by def or by ctx deadline, whichever comes first.
// Cancelling ctx aborts the actions but keeps the tab open.
func (s *cdpSession) run(ctx context.Context, def time.Duration, op string, actions ...chromedp.Action) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tctx, cancel := context.WithTimeout(s.chromeCtx, remaining(ctx, def))
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(tctx, actions...)
	switch {
	case err == nil:
		return nil
	case ctx.Err() != nil:
		return ctx.Err()
	case errors.Is(err, context.DeadlineExceeded):
		return timeoutError(op, err)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

func (s *cdpSession) Goto(ctx context.Context, url string) error {
	return s.run(ctx, s.opts.NavigationTimeout, "goto "+url, chromedp.Navigate(url))
}

// WaitForLoadState has no direct devtools equivalent for network idle, so it waits for
// the document to complete and the resource timing list to stop growing.
func (s *cdpSession) WaitForLoadState(ctx context.Context, state LoadState) error {
	switch state {
	case LoadStateDOMContentLoaded, LoadStateLoad:
		return s.run(ctx, s.opts.NavigationTimeout, "wait for "+string(state), chromedp.WaitReady("body", chromedp.ByQuery))
	case LoadStateNetworkIdle:
	default:
		return fmt.Errorf("unknown load state %q", state)
	}

	wctx := ctx
	if _, ok := ctx.Deadline(); !ok && s.opts.NavigationTimeout > 0 {
		var cancel context.CancelFunc
		wctx, cancel = context.WithTimeout(ctx, s.opts.NavigationTimeout)
		defer cancel()
	}
	lastCount, quietSince := -1, time.Now()
	for {
		var res struct {
			State string `json:"state"`
			Count int    `json:"count"`
		}
		js := `({state: document.readyState, count: performance.getEntriesByType("resource").length})`
		if err := s.run(wctx, s.opts.ActionTimeout, "wait for networkidle", chromedp.Evaluate(js, &res)); err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return timeoutError("wait for networkidle", err)
			}
			return err
		}
		if res.Count != lastCount {
			lastCount, quietSince = res.Count, time.Now()
		}
		if res.State == "complete" && time.Since(quietSince) >= networkIdleQuiet {
			return nil
		}
		if err := sleep(wctx, 100*time.Millisecond); err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return timeoutError("wait for networkidle", err)
			}
			return err
		}
	}
}

func (s *cdpSession) Reload(ctx context.Context) error {
	return s.run(ctx, s.opts.NavigationTimeout, "reload", chromedp.Reload())
}

func (s *cdpSession) Locator(selector string) Locator {
	return &cdpLocator{s: s, sel: selector}
}

func (s *cdpSession) Title(ctx context.Context) (string, error) {
	var title string
	err := s.run(ctx, s.opts.ActionTimeout, "title", chromedp.Title(&title))
	return title, err
}

func (s *cdpSession) URL(ctx context.Context) (string, error) {
	var u string
	err := s.run(ctx, s.opts.ActionTimeout, "location", chromedp.Location(&u))
	return u, err
}

// Cookies returns all cookies of the browser, not only the current page ones
func (s *cdpSession) Cookies(ctx context.Context) ([]Cookie, error) {
	var res []Cookie
	err := s.run(ctx, s.opts.ActionTimeout, "cookies", chromedp.ActionFunc(func(ctx context.Context) error {
		cookies, err := storage.GetCookies().Do(ctx)
		if err != nil {
			return err
		}
		res = make([]Cookie, 0, len(cookies))
		for _, c := range cookies {
			res = append(res, Cookie{Name: c.Name, Value: c.Value, Domain: c.Domain, Path: c.Path,
				Expires: c.Expires, HTTPOnly: c.HTTPOnly, Secure: c.Secure, SameSite: c.SameSite.String()})
		}
		return nil
	}))
	return res, err
}

func (s *cdpSession) ClearCookies(ctx context.Context) error {
	return s.run(ctx, s.opts.ActionTimeout, "clear cookies", chromedp.ActionFunc(func(ctx context.Context) error {
		return storage.ClearCookies().Do(ctx)
	}))
}

func (s *cdpSession) Screenshot(ctx context.Context, path string, fullPage bool) error {
	var buf []byte
	action := chromedp.CaptureScreenshot(&buf)
	if fullPage {
		action = chromedp.FullScreenshot(&buf, 90)
	}
	if err := s.run(ctx, s.opts.ActionTimeout, "screenshot", action); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("failed to make screenshot dir: %w", err)
	}
	if err := os.WriteFile(path, buf, 0o600); err != nil {
		return fmt.Errorf("failed to write screenshot %s: %w", path, err)
	}
	return nil
}

func (s *cdpSession) Wait(ctx context.Context, d time.Duration) error {
	return sleep(ctx, d)
}

func (s *cdpSession) WaitForURL(ctx context.Context, match func(url string) bool) error {
	return pollURL(ctx, s.opts.NavigationTimeout, func() (string, error) { return s.URL(ctx) }, match)
}

func (s *cdpSession) EnableMetrics(ctx context.Context) error {
	if s.metrics.Load() {
		return nil
	}
	if err := s.run(ctx, s.opts.ActionTimeout, "enable performance domain", performance.Enable()); err != nil {
		return err
	}
	s.metrics.Store(true)
	return nil
}

func (s *cdpSession) Metrics(ctx context.Context) ([]Metric, error) {
	if err := s.EnableMetrics(ctx); err != nil {
		return nil, err
	}
	var res []Metric
	err := s.run(ctx, s.opts.ActionTimeout, "performance metrics", chromedp.ActionFunc(func(ctx context.Context) error {
		metrics, err := performance.GetMetrics().Do(ctx)
		if err != nil {
			return err
		}
		res = make([]Metric, 0, len(metrics))
		for _, m := range metrics {
			res = append(res, Metric{Name: m.Name, Value: m.Value})
		}
		return nil
	}))
	return res, err
}

func (s *cdpSession) Dialogs() int { return int(s.dialogs.Load()) }

func (s *cdpSession) Close() error {
	s.cancel()
	return nil
}

type cdpLocator struct {
	s   *cdpSession
	sel string
}

func (l *cdpLocator) IsVisible(ctx context.Context, timeout time.Duration) (bool, error) {
	return l.waitFor(ctx, timeout, "wait visible "+l.sel, chromedp.WaitVisible(l.sel, chromedp.ByQuery))
}

func (l *cdpLocator) IsEnabled(ctx context.Context, timeout time.Duration) (bool, error) {
	return l.waitFor(ctx, timeout, "wait enabled "+l.sel, chromedp.WaitEnabled(l.sel, chromedp.ByQuery))
}

// waitFor turns running out of time into a negative answer
func (l *cdpLocator) waitFor(ctx context.Context, timeout time.Duration, op string, action chromedp.Action) (bool, error) {
	err := l.s.run(ctx, timeout, op, action)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, ErrTimeout) {
		return false, nil
	}
	return false, err
}

// Fill replaces the value, like playwright's fill does
func (l *cdpLocator) Fill(ctx context.Context, value string) error {
	return l.s.run(ctx, l.s.opts.ActionTimeout, "fill "+l.sel,
		chromedp.WaitVisible(l.sel, chromedp.ByQuery),
		chromedp.Clear(l.sel, chromedp.ByQuery),
		chromedp.SendKeys(l.sel, value, chromedp.ByQuery),
	)
}

func (l *cdpLocator) Clear(ctx context.Context) error {
	return l.s.run(ctx, l.s.opts.ActionTimeout, "clear "+l.sel, chromedp.Clear(l.sel, chromedp.ByQuery))
}

func (l *cdpLocator) Click(ctx context.Context) error {
	return l.s.run(ctx, l.s.opts.ActionTimeout, "click "+l.sel, chromedp.Click(l.sel, chromedp.NodeVisible, chromedp.ByQuery))
}

func (l *cdpLocator) InputValue(ctx context.Context) (string, error) {
	var v string
	err := l.s.run(ctx, l.s.opts.ActionTimeout, "input value "+l.sel, chromedp.Value(l.sel, &v, chromedp.ByQuery))
	return v, err
}

func (l *cdpLocator) Attribute(ctx context.Context, name string) (string, error) {
	var v string
	var ok bool
	err := l.s.run(ctx, l.s.opts.ActionTimeout, "attribute "+name+" of "+l.sel,
		chromedp.AttributeValue(l.sel, name, &v, &ok, chromedp.ByQuery))
	return v, err
}

func (l *cdpLocator) Text(ctx context.Context) (string, error) {
	var v string
	err := l.s.run(ctx, l.s.opts.ActionTimeout, "text of "+l.sel, chromedp.TextContent(l.sel, &v, chromedp.ByQuery))
	return v, err
}
