//go:build e2e

package e2e

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/loginprobe/app/browser"
	"github.com/umputun/loginprobe/app/scenario"
)

func TestScenarios(t *testing.T) {
	runner := newRunner()
	for _, sc := range scenario.Catalogue() {
		t.Run(sc.ID, func(t *testing.T) {
			res := runner.Run(context.Background(), sc)
			if res.State == scenario.Skipped {
				t.Skip(res.Reason)
			}
			for _, st := range res.Steps {
				t.Logf("%s: %s %v", st.Name, st.Status, st.Soft)
			}
			require.Equal(t, scenario.Passed, res.State, "%s: %v, screenshot %s", sc.ID, res.Err, res.Screenshot)
		})
	}
}

func TestSuite_Parallel(t *testing.T) {
	requireFake(t)
	scenarios, err := scenario.Find("TC001", "TC002", "TC005", "TC010")
	require.NoError(t, err)
	suite := scenario.Suite{Runner: newRunner(), Repeater: scenario.NewRepeater(settings.Retries, time.Second), Workers: 2}
	rep := suite.Run(context.Background(), scenarios)
	assert.True(t, rep.OK(), rep.Failures())
	assert.Equal(t, 4, rep.Passed)
}

func TestScenario_WrongPasswordFails(t *testing.T) {
	requireFake(t)
	runner := newRunner()
	runner.Settings.Credentials.Password = "not-the-password"
	sc, err := scenario.Find("TC001")
	require.NoError(t, err)

	res := runner.Run(context.Background(), sc[0])
	assert.Equal(t, scenario.Failed, res.State)
	assert.ErrorIs(t, res.Err, scenario.ErrAssertion)
	assert.FileExists(t, res.Screenshot)
}

func TestScenario_ChromeDriver(t *testing.T) {
	requireFake(t)
	opts := settings.Browser
	opts.Driver = "chromedp"
	chrome := browser.NewChrome(opts)
	defer chrome.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	sess, err := chrome.Open(ctx)
	if err != nil {
		t.Skipf("chrome is not available, %v", err)
	}
	_ = sess.Close()

	runner := newRunner()
	runner.Open = chrome.Open
	scenarios, err := scenario.Find("TC001", "TC005", "TC022c")
	require.NoError(t, err)
	for _, sc := range scenarios {
		res := runner.Run(context.Background(), sc)
		assert.Equal(t, scenario.Passed, res.State, "%s: %v", sc.ID, res.Err)
	}
}
