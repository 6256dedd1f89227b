// Package notify delivers suite reports to email and webhook destinations
package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/url"
	"strings"
	"time"

	log "github.com/go-pkgz/lgr"
	"github.com/go-pkgz/notify"

	"github.com/umputun/loginprobe/app/scenario"
)

//go:generate moq -out mocks/notifier.go -pkg mocks -skip-ensure -fmt goimports . Notifier

// Notifier sends text to destination, implemented by go-pkgz/notify clients
type Notifier interface {
	Send(ctx context.Context, destination, text string) error
}

// Params of the notification service
type Params struct {
	EnabledError      bool // send when any scenario failed
	EnabledCompletion bool // send when all scenarios passed
	HostName          string
	From              string
	To                []string
	WebhookURL        string
	SMTP              notify.SMTPParams
	WebhookTimeout    time.Duration
}

// Service sends suite reports
type Service struct {
	Params
	email   Notifier
	webhook Notifier
}

// NewService makes service with email and webhook senders. Returns nil if no destination is set
// or neither error nor completion notifications are enabled.
func NewService(p Params) *Service {
	if len(p.To) == 0 && p.WebhookURL == "" {
		return nil
	}
	if !p.EnabledError && !p.EnabledCompletion {
		return nil
	}

	if p.SMTP.ContentType == "" {
		p.SMTP.ContentType = "text/html"
	}
	res := &Service{Params: p}
	if len(p.To) > 0 {
		res.email = notify.NewEmail(p.SMTP)
	}
	if p.WebhookURL != "" {
		res.webhook = notify.NewWebhook(notify.WebhookParams{Timeout: p.WebhookTimeout,
			Headers: []string{"Content-Type:text/plain"}})
	}
	return res
}

// Report sends suite report if enabled for the report outcome
func (s *Service) Report(ctx context.Context, rep scenario.Report) error {
	if (rep.OK() && !s.EnabledCompletion) || (!rep.OK() && !s.EnabledError) {
		return nil
	}

	var errs []error
	if s.email != nil {
		if err := s.sendEmail(ctx, rep); err != nil {
			errs = append(errs, err)
		}
	}
	if s.webhook != nil {
		if err := s.webhook.Send(ctx, s.WebhookURL, MakeText(rep)); err != nil {
			errs = append(errs, fmt.Errorf("failed to send webhook to %s: %w", s.WebhookURL, err))
		}
	}
	return errors.Join(errs...)
}

func (s *Service) sendEmail(ctx context.Context, rep scenario.Report) error {
	body, err := MakeHTML(rep, s.HostName)
	if err != nil {
		return err
	}
	if err := s.email.Send(ctx, s.emailDestination(Subject(rep)), body); err != nil {
		return fmt.Errorf("failed to send email to %v: %w", s.To, err)
	}
	log.Printf("[DEBUG] report sent to %v", s.To)
	return nil
}

// emailDestination makes mailto destination understood by go-pkgz/notify email client
func (s *Service) emailDestination(subj string) string {
	q := url.Values{}
	q.Set("from", s.From)
	q.Set("subject", subj)
	return "mailto:" + strings.Join(s.To, ",") + "?" + q.Encode()
}

// Subject line of the report
func Subject(rep scenario.Report) string {
	if rep.OK() {
		return fmt.Sprintf("loginprobe passed, %d scenarios", rep.Passed)
	}
	return fmt.Sprintf("loginprobe failed, %d of %d scenarios", rep.Failed, len(rep.Results))
}

// MakeText makes plain text report with failures only
func MakeText(rep scenario.Report) string {
	return Subject(rep) + "\n" + rep.Failures() + rep.String()
}

const reportTmpl = `<!DOCTYPE html>
<html>
	<head>
		<meta name="viewport" content="width=device-width" />
		<meta http-equiv="Content-Type" content="text/html; charset=UTF-8" />
		<style type="text/css">
			body { font-family: "Arial"; font-size: 1.0em; }
			pre { padding: 0.6em; font-size: 0.7em; background-color: #E8E2A0; font-family: "Menlo"; white-space: pre-wrap; }
			.failed { color: #882828; font-weight: 900; }
		</style>
	</head>
	<body>
		<p>Login checks {{if .OK}}passed{{else}}<span class="failed">failed</span>{{end}} on {{.Host}} at {{.TS.Format "2006-01-02T15:04:05Z07:00"}}</p>
		<p>{{.Summary}}</p>
		<ul>
		{{- range .Results}}
			<li{{if eq .State.String "failed"}} class="failed"{{end}}>{{.ID}} {{.Name}}: {{.State}}</li>
		{{- end}}
		</ul>
		{{- if .Failures}}
		<pre>
{{.Failures}}
		</pre>
		{{- end}}
	</body>
</html>
`

// MakeHTML makes html report with all results
func MakeHTML(rep scenario.Report, host string) (string, error) {
	data := struct {
		OK       bool
		Host     string
		TS       time.Time
		Summary  string
		Results  []scenario.Result
		Failures string
	}{
		OK:       rep.OK(),
		Host:     host,
		TS:       time.Now(),
		Summary:  rep.String(),
		Results:  rep.Results,
		Failures: rep.Failures(),
	}

	t, err := template.New("report").Parse(reportTmpl)
	if err != nil {
		return "", fmt.Errorf("can't parse report template: %w", err)
	}
	buf := bytes.Buffer{}
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to apply report template: %w", err)
	}
	return buf.String(), nil
}
