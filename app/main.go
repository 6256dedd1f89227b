package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	log "github.com/go-pkgz/lgr"
	gonotify "github.com/go-pkgz/notify"
	"github.com/robfig/cron/v3"
	"github.com/umputun/go-flags"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/umputun/loginprobe/app/browser"
	"github.com/umputun/loginprobe/app/conditions"
	"github.com/umputun/loginprobe/app/config"
	"github.com/umputun/loginprobe/app/fakeidp"
	"github.com/umputun/loginprobe/app/history"
	"github.com/umputun/loginprobe/app/monitor"
	"github.com/umputun/loginprobe/app/notify"
	"github.com/umputun/loginprobe/app/scenario"
)

var opts config.Options

var revision = "unknown"

// exit codes
const (
	exitOK     = 0
	exitFailed = 1
	exitConfig = 2
)

func main() {
	fmt.Printf("loginprobe %s\n", revision)

	var err error
	if opts, err = config.Load(os.Args[1:]); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			os.Exit(exitOK)
		}
		os.Exit(exitConfig)
	}
	setupLogs()

	defer func() {
		if x := recover(); x != nil {
			log.Printf("[WARN] run time panic:\n%v", x)
			panic(x)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	signals(cancel) // handle SIGQUIT and SIGTERM
	code := run(ctx, opts, os.Stdout)
	cancel()
	os.Exit(code)
}

// run executes selected scenarios and prints the report to out, returns exit code
func run(ctx context.Context, o config.Options, out io.Writer) int {
	scenarios, err := scenario.Find(o.Scenarios...)
	if err != nil {
		log.Printf("[ERROR] %v", err)
		return exitConfig
	}
	if o.List {
		listScenarios(out, scenarios)
		return exitOK
	}

	store, err := openHistory(o)
	if err != nil {
		log.Printf("[ERROR] failed to open history, %v", err)
		return exitConfig
	}
	if store != nil {
		defer func() {
			if e := store.Close(); e != nil {
				log.Printf("[WARN] failed to close history, %v", e)
			}
		}()
	}
	if o.History.Show > 0 {
		if store == nil {
			log.Printf("[ERROR] history is not enabled")
			return exitConfig
		}
		if err := showHistory(ctx, out, store, o.History.Show); err != nil {
			log.Printf("[ERROR] %v", err)
			return exitFailed
		}
		return exitOK
	}

	if o.FakeIdP.Enabled {
		if o, err = startFakeIdP(ctx, o); err != nil {
			log.Printf("[ERROR] %v", err)
			return exitConfig
		}
	}

	settings, err := o.Settings(conditions.NewChecker())
	if err != nil {
		log.Printf("[ERROR] %v", err)
		return exitConfig
	}
	log.Printf("[INFO] identity provider %s, application %s, %d workers, %d retries, %s browser with %s",
		settings.Origin, settings.AppURL, settings.Workers, settings.Retries, settings.Browser.Browser, settings.Browser.Driver)

	driver, err := browser.NewDriver(settings.Browser)
	if err != nil {
		log.Printf("[ERROR] failed to start browser driver, %v", err)
		return exitConfig
	}
	defer func() {
		if e := driver.Close(); e != nil {
			log.Printf("[WARN] failed to close browser driver, %v", e)
		}
	}()

	// scenarios needing the application are skipped in CI unless the application is local
	runner := &scenario.Runner{Open: driver.Open, Settings: settings, Waits: scenario.DefaultWaits(),
		AppAvailable: o.CI == "" || o.FakeIdP.Enabled}
	suite := &scenario.Suite{Runner: runner, Repeater: scenario.NewRepeater(settings.Retries, time.Second),
		Workers: settings.Workers}

	mon := &monitor.Monitor{Suite: suite, Scenarios: scenarios, HostName: makeHostName(o), Cron: cron.New()}
	if store != nil {
		mon.Store = store
	}
	if svc := makeNotifier(o); svc != nil {
		mon.Notifier = svc
	}

	if o.Schedule != "" {
		if err := mon.Do(ctx, o.Schedule); err != nil {
			log.Printf("[ERROR] %v", err)
			return exitConfig
		}
		return exitOK
	}

	rep := mon.RunOnce(ctx)
	printReport(out, rep)
	if !rep.OK() {
		return exitFailed
	}
	return exitOK
}

// startFakeIdP runs local identity provider and application until ctx canceled and points options to them.
// The application is served as localhost and the identity provider as 127.0.0.1, the heuristics tell them apart by host.
func startFakeIdP(ctx context.Context, o config.Options) (config.Options, error) {
	appURL := "http://" + strings.Replace(o.FakeIdP.AppAddress, "127.0.0.1", "localhost", 1)
	idpURL := "http://" + strings.Replace(o.FakeIdP.IdPAddress, "localhost", "127.0.0.1", 1)
	srv, err := fakeidp.New(fakeidp.Config{Realm: "lq", Username: o.Username, Password: o.Password,
		IdPURL: idpURL, AppURL: appURL, Version: revision})
	if err != nil {
		return o, fmt.Errorf("failed to make fake identity provider: %w", err)
	}

	go func() {
		if err := srv.Run(ctx, o.FakeIdP.IdPAddress, o.FakeIdP.AppAddress); err != nil {
			log.Printf("[WARN] fake identity provider stopped, %v", err)
		}
	}()
	if err := fakeidp.WaitReady(ctx, 10*time.Second, idpURL, appURL); err != nil {
		return o, fmt.Errorf("fake identity provider failed to start: %w", err)
	}
	log.Printf("[INFO] fake identity provider on %s, application on %s", idpURL, appURL)

	o.AuthURL, o.LogoutURL, o.Origin = srv.AuthURL(), srv.LogoutURL(), ""
	o.AppURL, o.BaseURL = srv.AppURL(), ""
	return o, nil
}

// openHistory returns nil store if history is disabled
func openHistory(o config.Options) (*history.SQLite, error) {
	if !o.History.Enabled {
		return nil, nil
	}
	store, err := history.NewSQLite(o.History.Path)
	if err != nil {
		return nil, err
	}
	log.Printf("[INFO] run history in %s", o.History.Path)
	return store, nil
}

// showHistory prints last n runs and scenarios flaky over them
func showHistory(ctx context.Context, out io.Writer, store *history.SQLite, n int) error {
	runs, err := store.Runs(ctx, n)
	if err != nil {
		return err
	}
	for _, r := range runs {
		_, _ = fmt.Fprintf(out, "#%d %s %s: %d passed, %d failed, %d skipped in %v\n", r.ID,
			r.StartedAt.Format(time.RFC3339), r.Host, r.Passed, r.Failed, r.Skipped, r.Duration.Round(time.Millisecond))
	}
	stats, err := store.Stats(ctx, n)
	if err != nil {
		return err
	}
	for _, st := range stats {
		if st.Flaky() {
			_, _ = fmt.Fprintf(out, "flaky %s: %d failed, %d retried of %d runs\n", st.ScenarioID, st.Failed, st.Retried, st.Runs)
		}
	}
	return nil
}

// makeNotifier returns nil if reports aren't enabled or have no destination
func makeNotifier(o config.Options) *notify.Service {
	from := o.Notify.From
	if from == "" {
		from = "loginprobe@" + makeHostName(o)
	}
	return notify.NewService(notify.Params{
		EnabledError:      o.Notify.EnabledError,
		EnabledCompletion: o.Notify.EnabledCompletion,
		HostName:          makeHostName(o),
		From:              from,
		To:                o.Notify.To,
		WebhookURL:        o.Notify.WebhookURL,
		WebhookTimeout:    o.Notify.SMTPTimeOut,
		SMTP: gonotify.SMTPParams{
			Host:     o.Notify.SMTPHost,
			Port:     o.Notify.SMTPPort,
			TLS:      o.Notify.SMTPTLS,
			Username: o.Notify.SMTPUsername,
			Password: o.Notify.SMTPPassword,
			TimeOut:  o.Notify.SMTPTimeOut,
		},
	})
}

func makeHostName(o config.Options) string {
	if o.Notify.HostName != "" {
		return o.Notify.HostName
	}
	host, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return host
}

func listScenarios(out io.Writer, scenarios []scenario.Scenario) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, sc := range scenarios {
		app := ""
		if sc.NeedsApp {
			app = "needs app"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", sc.ID, sc.Name, app)
	}
	_ = w.Flush()
}

func printReport(out io.Writer, rep scenario.Report) {
	for _, res := range rep.Results {
		_, _ = fmt.Fprintln(out, res.String())
		if res.State == scenario.Failed && res.Screenshot != "" {
			_, _ = fmt.Fprintf(out, "  screenshot: %s\n", res.Screenshot)
		}
		if res.Attempts > 1 {
			_, _ = fmt.Fprintf(out, "  attempts: %d\n", res.Attempts)
		}
	}
	_, _ = fmt.Fprintln(out, rep.String())
}

func setupLogs() io.Writer {
	var out io.Writer = os.Stdout
	if opts.Log.Enabled {
		out = &lumberjack.Logger{
			Filename:   opts.Log.Filename,
			MaxSize:    opts.Log.MaxSize,
			MaxBackups: opts.Log.MaxBackups,
			MaxAge:     opts.Log.MaxAge,
			Compress:   opts.Log.EnabledCompress,
		}
	}

	logOpts := []log.Option{log.Msec, log.LevelBraces, log.Out(out), log.Err(out)}
	if opts.Dbg {
		logOpts = []log.Option{log.Debug, log.Msec, log.LevelBraces, log.CallerFunc, log.CallerPkg, log.CallerFile,
			log.Out(out), log.Err(out)}
	}
	log.Setup(logOpts...)
	return out
}

func signals(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	go func() {
		stacktrace := make([]byte, 8192)
		for sig := range sigChan {
			if sig == syscall.SIGQUIT { // catch SIGQUIT and print stack traces
				length := runtime.Stack(stacktrace, true)
				fmt.Println(string(stacktrace[:length]))
				continue
			}
			log.Printf("[WARN] %v received, stop", sig)
			cancel() // terminate on SIGTERM and SIGINT
		}
	}()
	signal.Notify(sigChan, syscall.SIGQUIT, syscall.SIGTERM, syscall.SIGINT)
}
