// Package browser defines the capability set the checks need from a controllable browser page
// and provides two drivers for it: playwright-go and chromedp.
// Callers never see driver types, only Session and Locator.
package browser

import (
	"context"
	"errors"
	"fmt"
	"time"
)

//go:generate moq -out mocks/session.go -pkg mocks -skip-ensure -fmt goimports . Session Locator

// ErrTimeout is wrapped by every error caused by a bounded wait running out
var ErrTimeout = errors.New("timeout")

// LoadState is a page lifecycle milestone
type LoadState string

// supported load states
const (
	LoadStateLoad             LoadState = "load"
	LoadStateDOMContentLoaded LoadState = "domcontentloaded"
	LoadStateNetworkIdle      LoadState = "networkidle"
)

// Session is a single browser page bound to an isolated cookie jar.
// A context deadline bounds each blocking call.
type Session interface {
	Goto(ctx context.Context, url string) error
	WaitForLoadState(ctx context.Context, state LoadState) error
	Reload(ctx context.Context) error
	Locator(selector string) Locator
	Title(ctx context.Context) (string, error)
	URL(ctx context.Context) (string, error)
	Cookies(ctx context.Context) ([]Cookie, error)
	ClearCookies(ctx context.Context) error
	Screenshot(ctx context.Context, path string, fullPage bool) error
	Wait(ctx context.Context, d time.Duration) error
	WaitForURL(ctx context.Context, match func(url string) bool) error
	EnableMetrics(ctx context.Context) error // metrics cover navigations made after this call
	Metrics(ctx context.Context) ([]Metric, error)
	Dialogs() int
	Close() error
}

// Locator points to the first element matching a selector
type Locator interface {
	IsVisible(ctx context.Context, timeout time.Duration) (bool, error)
	IsEnabled(ctx context.Context, timeout time.Duration) (bool, error)
	Fill(ctx context.Context, value string) error
	Clear(ctx context.Context) error
	Click(ctx context.Context) error
	InputValue(ctx context.Context) (string, error)
	Attribute(ctx context.Context, name string) (string, error)
	Text(ctx context.Context) (string, error)
}

// Cookie is a browser cookie as reported by the session's context
type Cookie struct {
	Name     string
	Value    string
	Domain   string
	Path     string
	Expires  float64
	HTTPOnly bool
	Secure   bool
	SameSite string
}

// Metric is a named browser performance counter
type Metric struct {
	Name  string
	Value float64
}

// Options for drivers
type Options struct {
	Driver            string // playwright or chromedp
	Browser           string // chromium, firefox or webkit, playwright only
	Headless          bool
	SlowMo            time.Duration
	ActionTimeout     time.Duration
	NavigationTimeout time.Duration
}

// Opener creates a fresh isolated session
type Opener func(ctx context.Context) (Session, error)

// Driver starts sessions and releases shared resources on Close
type Driver interface {
	Open(ctx context.Context) (Session, error)
	Close() error
}

// NewDriver makes a driver by name
func NewDriver(opts Options) (Driver, error) {
	switch opts.Driver {
	case "", "playwright":
		return NewPlaywright(opts)
	case "chromedp":
		return NewChrome(opts), nil
	default:
		return nil, fmt.Errorf("unknown browser driver %q", opts.Driver)
	}
}

// timeoutError wraps err with ErrTimeout, keeping the original message
func timeoutError(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, ErrTimeout, err)
}

// defaultTimeout bounds calls when neither options nor ctx set a limit
const defaultTimeout = 30 * time.Second

// remaining returns time left before ctx deadline, or def if it is sooner or no deadline set
func remaining(ctx context.Context, def time.Duration) time.Duration {
	if def <= 0 {
		def = defaultTimeout
	}
	dl, ok := ctx.Deadline()
	if !ok {
		return def
	}
	if left := time.Until(dl); left < def {
		if left <= 0 {
			return time.Millisecond
		}
		return left
	}
	return def
}

// sleep waits for d or until ctx is done
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	tm := time.NewTimer(d)
	defer tm.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-tm.C:
		return nil
	}
}
