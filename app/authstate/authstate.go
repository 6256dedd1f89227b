// Package authstate classifies browser observations into "looks logged in" or not.
//
// Everything here is string matching on the current URL and cookie names. There is no
// validation of state, no token exchange and no signature checks, so a positive answer only
// means the browser was redirected the way a successful login redirects it. Functions are pure
// and depend on their arguments only.
package authstate

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/umputun/loginprobe/app/browser"
)

// DefaultCookieMarkers are name substrings of cookies considered session related
var DefaultCookieMarkers = []string{"session", "token", "auth"}

// indicators are url parameters present only after the identity provider redirected back
var indicators = []string{"code=", "session_state=", "access_token=", "id_token="}

// Observation is a snapshot of the browser taken at a specific point of a scenario
type Observation struct {
	URL     string
	Cookies []browser.Cookie
}

// Outcome is derived from an Observation and never stored
type Outcome struct {
	RedirectedAway bool // left the identity provider or got the code back
	Indicators     bool // url carries code, session_state or tokens
	SessionCookies int  // cookies with session-like names
}

// Authenticated is the approximation used by login checks, redirect away from the identity
// provider counts as success. Indicators and cookies are reported for diagnostics only.
func (o Outcome) Authenticated() bool { return o.RedirectedAway }

func (o Outcome) String() string {
	return fmt.Sprintf("redirected=%v, indicators=%v, session cookies=%d", o.RedirectedAway, o.Indicators, o.SessionCookies)
}

// Classify makes an Outcome out of an observation. origin identifies the identity provider,
// usually its host.
func Classify(obs Observation, origin string) Outcome {
	return Outcome{
		RedirectedAway: RedirectedAway(obs.URL, origin),
		Indicators:     HasAuthIndicators(obs.URL),
		SessionCookies: len(SessionCookies(obs.Cookies)),
	}
}

// StillOnAuthPage is true if u belongs to the identity provider and carries no code or session_state
func StillOnAuthPage(u, origin string) bool {
	return strings.Contains(u, origin) && !strings.Contains(u, "code=") && !strings.Contains(u, "session_state=")
}

// RedirectedAway is the negation of StillOnAuthPage
func RedirectedAway(u, origin string) bool {
	return !StillOnAuthPage(u, origin)
}

// HasAuthIndicators checks u for any of code, session_state, access_token or id_token parameters
func HasAuthIndicators(u string) bool {
	for _, ind := range indicators {
		if strings.Contains(u, ind) {
			return true
		}
	}
	return false
}

// LoggedOutHint is a loose signal the browser ended up on a login or identity provider page
// after logout. It is meant for logging, lots of urls satisfy it.
func LoggedOutHint(u, origin string) bool {
	return (origin != "" && strings.Contains(u, origin)) || strings.Contains(u, "login") ||
		strings.Contains(u, "auth") || !strings.Contains(u, "code=")
}

// SessionCookies returns cookies whose lowercase name contains any of markers.
// DefaultCookieMarkers used if no markers passed.
func SessionCookies(cookies []browser.Cookie, markers ...string) []browser.Cookie {
	if len(markers) == 0 {
		markers = DefaultCookieMarkers
	}
	var res []browser.Cookie
	for _, c := range cookies {
		name := strings.ToLower(c.Name)
		for _, m := range markers {
			if strings.Contains(name, strings.ToLower(m)) {
				res = append(res, c)
				break
			}
		}
	}
	return res
}

// Param looks up a parameter in the query string first and then in the fragment.
// Keycloak with response_mode=fragment puts code and session_state after "#", often
// as "#/route?state=..&code=..".
func Param(u, name string) (string, bool) {
	pu, err := url.Parse(u)
	if err != nil {
		return "", false
	}
	if vals := pu.Query(); vals.Has(name) {
		return vals.Get(name), true
	}
	frag := pu.Fragment
	if i := strings.Index(frag, "?"); i >= 0 {
		frag = frag[i+1:]
	}
	vals, err := url.ParseQuery(frag)
	if err != nil || !vals.Has(name) {
		return "", false
	}
	return vals.Get(name), true
}

// AuthCode extracts authorization code from u
func AuthCode(u string) string {
	v, _ := Param(u, "code")
	return v
}

// SessionState extracts session_state from u
func SessionState(u string) string {
	v, _ := Param(u, "session_state")
	return v
}

// VerifyParams checks u has all expected parameters. Empty expected value means presence only.
func VerifyParams(u string, expected map[string]string) error {
	for k, want := range expected {
		got, ok := Param(u, k)
		if !ok {
			return fmt.Errorf("parameter %q not found in %s", k, u)
		}
		if want != "" && got != want {
			return fmt.Errorf("parameter %q is %q, expected %q", k, got, want)
		}
	}
	return nil
}

// Endpoint strips query and fragment from rawURL, leaving scheme, host and path
func Endpoint(rawURL string) string {
	pu, err := url.Parse(rawURL)
	if err != nil || pu.Host == "" {
		if i := strings.IndexAny(rawURL, "?#"); i >= 0 {
			return rawURL[:i]
		}
		return rawURL
	}
	return pu.Scheme + "://" + pu.Host + pu.Path
}

// Host returns host:port of rawURL, or rawURL itself if it can't be parsed
func Host(rawURL string) string {
	pu, err := url.Parse(rawURL)
	if err != nil || pu.Host == "" {
		return rawURL
	}
	return pu.Host
}
