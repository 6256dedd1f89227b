// Package probe resolves the first visible element out of an ordered list of selectors.
// Markup of third-party pages is not stable, so callers keep several candidate selectors
// per element and accept whichever shows up first. Probing never fails, a miss is just false.
package probe

import (
	"context"
	"time"

	log "github.com/go-pkgz/lgr"

	"github.com/umputun/loginprobe/app/browser"
)

// Candidate is a selector with its own bounded wait
type Candidate struct {
	Selector string
	Timeout  time.Duration
}

// Match is the winning candidate
type Match struct {
	Selector string
	Locator  browser.Locator
}

// Candidates makes a list of candidates sharing the same timeout
func Candidates(timeout time.Duration, selectors ...string) []Candidate {
	res := make([]Candidate, 0, len(selectors))
	for _, s := range selectors {
		res = append(res, Candidate{Selector: s, Timeout: timeout})
	}
	return res
}

// FirstVisible checks candidates in order and returns the first visible one.
// Errors from the browser are logged and treated as a miss.
func FirstVisible(ctx context.Context, sess browser.Session, candidates []Candidate) (Match, bool) {
	for _, c := range candidates {
		if ctx.Err() != nil {
			log.Printf("[DEBUG] probe interrupted before %q, %v", c.Selector, ctx.Err())
			return Match{}, false
		}
		loc := sess.Locator(c.Selector)
		visible, err := loc.IsVisible(ctx, c.Timeout)
		if err != nil {
			log.Printf("[DEBUG] probe %q failed, %v", c.Selector, err)
			continue
		}
		if visible {
			log.Printf("[DEBUG] probe matched %q", c.Selector)
			return Match{Selector: c.Selector, Locator: loc}, true
		}
	}
	return Match{}, false
}

// Visible is FirstVisible for a single selector
func Visible(ctx context.Context, sess browser.Session, selector string, timeout time.Duration) bool {
	_, ok := FirstVisible(ctx, sess, []Candidate{{Selector: selector, Timeout: timeout}})
	return ok
}
