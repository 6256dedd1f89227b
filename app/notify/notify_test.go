package notify

import (
	"context"
	"errors"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/loginprobe/app/notify/mocks"
	"github.com/umputun/loginprobe/app/scenario"
)

var (
	passedReport = scenario.Report{Passed: 2, Results: []scenario.Result{
		{ID: "TC001", Name: "login", State: scenario.Passed},
		{ID: "TC002", Name: "form", State: scenario.Passed},
	}}
	failedReport = scenario.Report{Passed: 1, Failed: 1, Skipped: 1, Results: []scenario.Result{
		{ID: "TC001", Name: "login", State: scenario.Passed},
		{ID: "TC005", Name: "bad <user>", State: scenario.Failed, Err: errors.New("still on identity provider")},
		{ID: "TC021", Name: "logout", State: scenario.Skipped, Reason: "application not available"},
	}}
)

func TestNewService(t *testing.T) {
	assert.Nil(t, NewService(Params{EnabledError: true}), "no destinations")
	assert.Nil(t, NewService(Params{To: []string{"a@example.com"}}), "nothing enabled")

	svc := NewService(Params{EnabledError: true, To: []string{"a@example.com"}})
	require.NotNil(t, svc)
	assert.NotNil(t, svc.email)
	assert.Nil(t, svc.webhook)
	assert.Equal(t, "text/html", svc.SMTP.ContentType)

	svc = NewService(Params{EnabledCompletion: true, WebhookURL: "https://example.com/hook"})
	require.NotNil(t, svc)
	assert.Nil(t, svc.email)
	assert.NotNil(t, svc.webhook)
}

func TestSubject(t *testing.T) {
	assert.Equal(t, "loginprobe passed, 2 scenarios", Subject(passedReport))
	assert.Equal(t, "loginprobe failed, 1 of 3 scenarios", Subject(failedReport))
}

func TestMakeText(t *testing.T) {
	exp := "loginprobe failed, 1 of 3 scenarios\n" +
		"TC005 bad <user>: failed in 0s, still on identity provider\n" +
		"1 passed, 1 failed, 1 skipped in 0s"
	assert.Equal(t, exp, MakeText(failedReport))
}

func TestMakeHTML(t *testing.T) {
	res, err := MakeHTML(failedReport, "ci-runner")
	require.NoError(t, err)
	assert.Contains(t, res, `<span class="failed">failed</span> on ci-runner`)
	assert.Contains(t, res, "<li>TC001 login: passed</li>")
	assert.Contains(t, res, `<li class="failed">TC005 bad &lt;user&gt;: failed</li>`)
	assert.Contains(t, res, "<li>TC021 logout: skipped</li>")
	assert.Contains(t, res, "1 passed, 1 failed, 1 skipped in 0s")
	assert.Contains(t, res, "<pre>")

	res, err = MakeHTML(passedReport, "local")
	require.NoError(t, err)
	assert.Contains(t, res, "Login checks passed on local")
	assert.NotContains(t, res, "<pre>")
}

func TestService_Report(t *testing.T) {
	tests := []struct {
		name       string
		params     Params
		rep        scenario.Report
		emailErr   error
		webhookErr error
		emails     int
		webhooks   int
		err        string
	}{
		{name: "failure to both", params: Params{EnabledError: true}, rep: failedReport, emails: 1, webhooks: 1},
		{name: "failure not enabled", params: Params{EnabledCompletion: true}, rep: failedReport},
		{name: "completion", params: Params{EnabledCompletion: true}, rep: passedReport, emails: 1, webhooks: 1},
		{name: "completion not enabled", params: Params{EnabledError: true}, rep: passedReport},
		{name: "email error", params: Params{EnabledError: true}, rep: failedReport, emailErr: errors.New("smtp down"),
			emails: 1, webhooks: 1, err: "failed to send email to [to@example.com to2@example.com]: smtp down"},
		{name: "both errors", params: Params{EnabledError: true}, rep: failedReport, emailErr: errors.New("smtp down"),
			webhookErr: errors.New("500"), emails: 1, webhooks: 1,
			err: "failed to send email to [to@example.com to2@example.com]: smtp down\n" +
				"failed to send webhook to https://example.com/hook: 500"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			email := &mocks.NotifierMock{SendFunc: func(context.Context, string, string) error { return tt.emailErr }}
			webhook := &mocks.NotifierMock{SendFunc: func(context.Context, string, string) error { return tt.webhookErr }}
			p := tt.params
			p.From, p.To, p.WebhookURL = "probe@example.com", []string{"to@example.com", "to2@example.com"}, "https://example.com/hook"
			svc := Service{Params: p, email: email, webhook: webhook}

			err := svc.Report(context.Background(), tt.rep)
			if tt.err != "" {
				require.EqualError(t, err, tt.err)
			} else {
				require.NoError(t, err)
			}
			require.Len(t, email.SendCalls(), tt.emails)
			require.Len(t, webhook.SendCalls(), tt.webhooks)
			if tt.emails > 0 {
				assert.Equal(t, "mailto:to@example.com,to2@example.com?from=probe%40example.com&subject="+
					url.QueryEscape(Subject(tt.rep)), email.SendCalls()[0].Destination)
				assert.Contains(t, email.SendCalls()[0].Text, "<!DOCTYPE html>")
			}
			if tt.webhooks > 0 {
				assert.Equal(t, "https://example.com/hook", webhook.SendCalls()[0].Destination)
				assert.Equal(t, MakeText(tt.rep), webhook.SendCalls()[0].Text)
			}
		})
	}
}
