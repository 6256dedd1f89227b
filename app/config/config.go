// Package config reads run configuration from flags and environment and resolves it
// into explicit Settings. Nothing downstream looks at the environment directly.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	log "github.com/go-pkgz/lgr"
	"github.com/umputun/go-flags"

	"github.com/umputun/loginprobe/app/browser"
	"github.com/umputun/loginprobe/app/conditions"
	"github.com/umputun/loginprobe/app/page"
)

// DefaultAuthURL is the authorization endpoint of the dev realm, with the parameters the application sends
const DefaultAuthURL = "https://keycloak-dev.logistical.one/realms/lq/protocol/openid-connect/auth?client_id=loglines-fe" +
	"&redirect_uri=http%3A%2F%2Flocalhost%3A3000%2F%23%2Flogin%3F&state=66f1cf3b-ee9f-41da-a5a1-8f2423bbbdb2" +
	"&response_mode=fragment&response_type=code&scope=openid&nonce=baca162c-a37e-4573-8ed9-49a37503f2c1" +
	"&code_challenge=q5Z1up1GgLRkmIqcjHRSreZgdURHQ72I2ti_k5pyQhI&code_challenge_method=S256"

// Options is the flags and env intake
type Options struct {
	Username      string `long:"username" env:"KEYCLOAK_USERNAME" default:"devonebyone" description:"login user name"`
	Password      string `long:"password" env:"KEYCLOAK_PASSWORD" default:"Qq121212" description:"login password"`
	AuthURL       string `long:"auth-url" env:"KEYCLOAK_URL" description:"authorization url with client parameters"`
	LogoutURL     string `long:"logout-url" env:"KEYCLOAK_LOGOUT_URL" description:"logout endpoint, derived from auth url if empty"`
	Origin        string `long:"origin" env:"KEYCLOAK_ORIGIN" description:"identity provider host, derived from auth url if empty"`
	AppURL        string `long:"app-url" env:"APP_URL" default:"http://localhost:3000" description:"application url"`
	BaseURL       string `long:"base-url" env:"BASE_URL" description:"base url of the application, app url if empty"`
	TestTimeout   int    `long:"test-timeout" env:"TEST_TIMEOUT" description:"scenario timeout in ms, 0 for environment default"`
	RetryCount    int    `long:"retries" env:"RETRY_COUNT" default:"-1" description:"scenario retries, negative for environment default"`
	Workers       int    `long:"workers" env:"PARALLEL_WORKERS" description:"parallel scenarios, 0 for environment default"`
	CI            string `long:"ci" env:"CI" description:"any non-empty value marks a constrained environment"`
	ArtifactsDir  string `long:"artifacts" env:"ARTIFACTS_DIR" default:"test-results" description:"screenshots location"`
	SelectorsFile string `long:"selectors" env:"SELECTORS_FILE" description:"yaml file with selector overrides"`

	Scenarios []string `short:"s" long:"scenario" env:"SCENARIOS" env-delim:"," description:"scenario ids to run, all if empty"`
	List      bool     `long:"list" description:"list scenarios and exit"`
	Schedule  string   `long:"schedule" env:"SCHEDULE" description:"cron schedule for repeated runs, single run if empty"`

	Browser struct {
		Driver   string        `long:"driver" env:"BROWSER_DRIVER" choice:"playwright" choice:"chromedp" default:"playwright" description:"browser driver"`
		Name     string        `long:"name" env:"BROWSER" choice:"chromium" choice:"firefox" choice:"webkit" default:"chromium" description:"browser, playwright only"`
		Headless string        `long:"headless" env:"E2E_HEADLESS" default:"true" description:"false to show browser window"`
		SlowMo   time.Duration `long:"slow-mo" env:"SLOW_MO" description:"delay between browser actions"`
	} `group:"browser" namespace:"browser"`

	Thresholds struct {
		PageLoad       time.Duration `long:"page-load" env:"PAGE_LOAD" description:"max login page load time"`
		LoginResponse  time.Duration `long:"login-response" env:"LOGIN_RESPONSE" description:"max login response time"`
		SequentialMean time.Duration `long:"sequential-mean" env:"SEQUENTIAL_MEAN" description:"max mean of sequential logins"`
	} `group:"thresholds" namespace:"thresholds" env-namespace:"THRESHOLD"`

	Host struct {
		SkipCheck   bool    `long:"skip-check" env:"SKIP_CHECK" description:"don't inspect host capacity"`
		MinCPUs     int     `long:"min-cpus" env:"MIN_CPUS" default:"2" description:"min cpus for local thresholds"`
		MinMemoryMB int     `long:"min-memory" env:"MIN_MEMORY" default:"2048" description:"min available memory in MB for local thresholds"`
		MaxLoadAvg  float64 `long:"max-load" env:"MAX_LOAD" description:"max 1m load average for local thresholds, 0 to skip"`
	} `group:"host" namespace:"host" env-namespace:"HOST"`

	FakeIdP struct {
		Enabled    bool   `long:"enabled" env:"ENABLED" description:"run against local fake identity provider"`
		IdPAddress string `long:"idp-address" env:"IDP_ADDRESS" default:"127.0.0.1:8180" description:"fake identity provider listen address"`
		AppAddress string `long:"app-address" env:"APP_ADDRESS" default:"127.0.0.1:3000" description:"fake application listen address"`
	} `group:"fake-idp" namespace:"fake-idp" env-namespace:"FAKE_IDP"`

	Notify struct {
		EnabledError      bool          `long:"enabled-error" env:"ENABLED_ERROR" description:"send report when scenarios failed"`
		EnabledCompletion bool          `long:"enabled-completion" env:"ENABLED_COMPLETION" description:"send report when all scenarios passed"`
		SMTPHost          string        `long:"smtp-host" env:"SMTP_HOST" description:"SMTP host"`
		SMTPPort          int           `long:"smtp-port" env:"SMTP_PORT" default:"25" description:"SMTP port"`
		SMTPUsername      string        `long:"smtp-username" env:"SMTP_USERNAME" description:"SMTP user name"`
		SMTPPassword      string        `long:"smtp-password" env:"SMTP_PASSWORD" description:"SMTP password"`
		SMTPTLS           bool          `long:"smtp-tls" env:"SMTP_TLS" description:"enable SMTP TLS"`
		SMTPTimeOut       time.Duration `long:"smtp-timeout" env:"SMTP_TIMEOUT" default:"10s" description:"SMTP TCP connection timeout"`
		From              string        `long:"from" env:"FROM" description:"SMTP from email"`
		To                []string      `long:"to" env:"TO" env-delim:"," description:"SMTP to email(s)"`
		WebhookURL        string        `long:"webhook" env:"WEBHOOK" description:"webhook url for plain text report"`
		HostName          string        `long:"host" env:"HOST" description:"host name in reports, os hostname if empty"`
	} `group:"notify" namespace:"notify" env-namespace:"NOTIFY"`

	History struct {
		Enabled bool   `long:"enabled" env:"ENABLED" description:"keep run history"`
		Path    string `long:"path" env:"PATH" default:"loginprobe.db" description:"history database file"`
		Show    int    `long:"show" description:"print last runs with flaky scenarios and exit"`
	} `group:"history" namespace:"history" env-namespace:"HISTORY"`

	Log struct {
		Enabled         bool   `long:"enabled" env:"ENABLED" description:"enable logging to file"`
		Filename        string `long:"filename" env:"FILENAME" default:"loginprobe.log" description:"log file"`
		MaxSize         int    `long:"max-size" env:"MAX_SIZE" default:"100" description:"max size in MB before rotation"`
		MaxBackups      int    `long:"max-backups" env:"MAX_BACKUPS" default:"7" description:"rotated files to keep"`
		MaxAge          int    `long:"max-age" env:"MAX_AGE" description:"days to keep rotated files"`
		EnabledCompress bool   `long:"compress" env:"COMPRESS" description:"compress rotated files"`
	} `group:"log" namespace:"log" env-namespace:"LOG"`

	Dbg bool `long:"dbg" env:"DEBUG" description:"debug mode"`
}

// Load parses args and environment. Nil args reads environment only.
func Load(args []string) (Options, error) {
	var opts Options
	p := flags.NewParser(&opts, flags.Default)
	if _, err := p.ParseArgs(args); err != nil {
		return Options{}, fmt.Errorf("failed to parse options: %w", err)
	}
	return opts, nil
}

// Credentials used to log in
type Credentials struct {
	Username string
	Password string
}

// Thresholds are the performance limits, all checks are strictly less than
type Thresholds struct {
	PageLoad       time.Duration
	LoginResponse  time.Duration
	SequentialMean time.Duration
}

// ThresholdsFor returns limits for constrained or local environment
func ThresholdsFor(constrained bool) Thresholds {
	if constrained {
		return Thresholds{PageLoad: 5000 * time.Millisecond, LoginResponse: 10000 * time.Millisecond,
			SequentialMean: 15000 * time.Millisecond}
	}
	return Thresholds{PageLoad: 3000 * time.Millisecond, LoginResponse: 5000 * time.Millisecond,
		SequentialMean: 10000 * time.Millisecond}
}

// Timeouts of browser waits and whole scenarios
type Timeouts struct {
	Navigation time.Duration
	Action     time.Duration
	Expect     time.Duration
	Test       time.Duration
}

// TimeoutsFor returns timeouts for constrained or local environment
func TimeoutsFor(constrained bool) Timeouts {
	if constrained {
		return Timeouts{Navigation: 30 * time.Second, Action: 15 * time.Second, Expect: 10 * time.Second, Test: 60 * time.Second}
	}
	return Timeouts{Navigation: 15 * time.Second, Action: 10 * time.Second, Expect: 5 * time.Second, Test: 30 * time.Second}
}

// Settings is the resolved configuration passed to the runner
type Settings struct {
	Credentials       Credentials
	AuthURL           string
	LogoutURL         string
	Origin            string
	AppURL            string
	BaseURL           string
	Constrained       bool
	ConstrainedReason string
	Thresholds        Thresholds
	Timeouts          Timeouts
	Retries           int
	Workers           int
	ArtifactsDir      string
	Browser           browser.Options
	Selectors         page.Selectors
}

// HostChecker reports whether the host satisfies capacity limits
type HostChecker interface {
	Check(l conditions.Limits) (bool, string)
}

// Settings resolves derived values. Host checker is consulted only when CI isn't set
// and the check isn't disabled, nil checker skips the check.
func (o Options) Settings(hc HostChecker) (Settings, error) {
	res := Settings{
		Credentials:  Credentials{Username: o.Username, Password: o.Password},
		AuthURL:      o.AuthURL,
		LogoutURL:    o.LogoutURL,
		Origin:       o.Origin,
		AppURL:       strings.TrimSuffix(o.AppURL, "/"),
		BaseURL:      strings.TrimSuffix(o.BaseURL, "/"),
		ArtifactsDir: o.ArtifactsDir,
	}
	if res.AuthURL == "" {
		res.AuthURL = DefaultAuthURL
	}
	if res.BaseURL == "" {
		res.BaseURL = res.AppURL
	}

	authURL, err := url.Parse(res.AuthURL)
	if err != nil || authURL.Host == "" {
		return Settings{}, fmt.Errorf("invalid auth url %q", res.AuthURL)
	}
	if res.Origin == "" {
		res.Origin = authURL.Host
	}
	if res.LogoutURL == "" {
		res.LogoutURL = LogoutURL(authURL)
	}

	switch {
	case o.CI != "":
		res.Constrained, res.ConstrainedReason = true, "CI is set"
	case hc != nil && !o.Host.SkipCheck:
		ok, reason := hc.Check(o.hostLimits())
		res.Constrained, res.ConstrainedReason = !ok, reason
	}
	if res.Constrained {
		log.Printf("[INFO] constrained environment, %s", res.ConstrainedReason)
	}

	res.Thresholds = ThresholdsFor(res.Constrained)
	if o.Thresholds.PageLoad > 0 {
		res.Thresholds.PageLoad = o.Thresholds.PageLoad
	}
	if o.Thresholds.LoginResponse > 0 {
		res.Thresholds.LoginResponse = o.Thresholds.LoginResponse
	}
	if o.Thresholds.SequentialMean > 0 {
		res.Thresholds.SequentialMean = o.Thresholds.SequentialMean
	}

	res.Timeouts = TimeoutsFor(res.Constrained)
	if o.TestTimeout > 0 {
		res.Timeouts.Test = time.Duration(o.TestTimeout) * time.Millisecond
	}

	res.Retries = o.RetryCount
	if res.Retries < 0 {
		res.Retries = 0
		if res.Constrained {
			res.Retries = 2
		}
	}
	res.Workers = o.Workers
	if res.Workers <= 0 {
		res.Workers = 4
		if res.Constrained {
			res.Workers = 1
		}
	}

	res.Browser = browser.Options{
		Driver:            o.Browser.Driver,
		Browser:           o.Browser.Name,
		Headless:          o.Browser.Headless != "false",
		SlowMo:            o.Browser.SlowMo,
		ActionTimeout:     res.Timeouts.Action,
		NavigationTimeout: res.Timeouts.Navigation,
	}

	res.Selectors, err = LoadSelectors(o.SelectorsFile)
	if err != nil {
		return Settings{}, err
	}
	return res, nil
}

// PageTimeouts makes page object timeouts from resolved settings
func (s Settings) PageTimeouts() page.Timeouts {
	res := page.DefaultTimeouts()
	res.Visible = s.Timeouts.Expect
	res.Navigation = s.Timeouts.Navigation
	return res
}

// LogoutURL derives the logout endpoint from the authorization endpoint,
// i.e. .../protocol/openid-connect/auth becomes .../protocol/openid-connect/logout
func LogoutURL(authURL *url.URL) string {
	path := authURL.Path
	if i := strings.LastIndex(path, "/"); i >= 0 {
		path = path[:i]
	}
	return authURL.Scheme + "://" + authURL.Host + path + "/logout"
}

// artifactsRoot returns an existing directory to check disk space of,
// artifacts dir may not exist before the first screenshot
func artifactsRoot(dir string) string {
	if dir == "" || !filepath.IsAbs(dir) {
		return "."
	}
	for d := filepath.Clean(dir); ; d = filepath.Dir(d) {
		if _, err := os.Stat(d); err == nil || d == filepath.Dir(d) {
			return d
		}
	}
}

// hostLimits makes limits of the host check, zero cpu or memory falls back to conditions.DefaultLimits
func (o Options) hostLimits() conditions.Limits {
	res := conditions.DefaultLimits()
	if o.Host.MinCPUs > 0 {
		res.MinCPUs = o.Host.MinCPUs
	}
	if o.Host.MinMemoryMB > 0 {
		res.MinMemoryMB = o.Host.MinMemoryMB
	}
	res.LoadAvgBelow = o.Host.MaxLoadAvg
	res.DiskFreeAbove, res.DiskFreePath = 1, artifactsRoot(o.ArtifactsDir)
	return res
}
