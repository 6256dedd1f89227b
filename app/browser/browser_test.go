package browser

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDriver(t *testing.T) {
	_, err := NewDriver(Options{Driver: "selenium"})
	require.EqualError(t, err, `unknown browser driver "selenium"`)

	d, err := NewDriver(Options{Driver: "chromedp", Headless: true})
	require.NoError(t, err)
	assert.IsType(t, &Chrome{}, d)
	assert.NoError(t, d.Close())
}

func TestRemaining(t *testing.T) {
	assert.Equal(t, time.Second, remaining(context.Background(), time.Second))
	assert.Equal(t, defaultTimeout, remaining(context.Background(), 0))

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	left := remaining(ctx, time.Minute)
	assert.True(t, left > 0 && left <= 100*time.Millisecond, left)
	assert.Equal(t, 10*time.Millisecond, remaining(ctx, 10*time.Millisecond))

	expired, cancel2 := context.WithTimeout(context.Background(), -time.Second)
	defer cancel2()
	assert.Equal(t, time.Millisecond, remaining(expired, time.Minute))
}

func TestSleep(t *testing.T) {
	require.NoError(t, sleep(context.Background(), time.Millisecond))
	require.NoError(t, sleep(context.Background(), 0))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	st := time.Now()
	require.ErrorIs(t, sleep(ctx, time.Minute), context.Canceled)
	assert.Less(t, time.Since(st), time.Second)
	require.ErrorIs(t, sleep(ctx, 0), context.Canceled)
}

func TestTimeoutError(t *testing.T) {
	err := timeoutError("click #kc-login", errors.New("30000ms exceeded"))
	require.ErrorIs(t, err, ErrTimeout)
	assert.EqualError(t, err, "click #kc-login: timeout: 30000ms exceeded")
}

func TestPwErr(t *testing.T) {
	require.NoError(t, pwErr("goto", nil))

	err := pwErr("goto", playwright.ErrTimeout)
	require.ErrorIs(t, err, ErrTimeout)

	err = pwErr("goto", errors.New("net::ERR_NAME_NOT_RESOLVED"))
	require.NotErrorIs(t, err, ErrTimeout)
	assert.EqualError(t, err, "goto: net::ERR_NAME_NOT_RESOLVED")
}

func TestParseCDPMetrics(t *testing.T) {
	resp := map[string]any{"metrics": []any{
		map[string]any{"name": "Timestamp", "value": 1234.5},
		map[string]any{"name": "Documents", "value": float64(3)},
		map[string]any{"value": 1.0},
		"junk",
		map[string]any{"name": "FirstContentfulPaint", "value": "bad"},
	}}
	res, err := parseCDPMetrics(resp)
	require.NoError(t, err)
	assert.Equal(t, []Metric{{Name: "Timestamp", Value: 1234.5}, {Name: "Documents", Value: 3},
		{Name: "FirstContentfulPaint", Value: 0}}, res)

	_, err = parseCDPMetrics([]any{})
	require.EqualError(t, err, "unexpected metrics response []interface {}")

	_, err = parseCDPMetrics(map[string]any{"other": 1})
	require.EqualError(t, err, "metrics response has no metrics list")
}

func TestPollURL(t *testing.T) {
	t.Run("match on third read", func(t *testing.T) {
		urls := []string{"https://idp/auth", "https://idp/auth", "http://app/#code=1"}
		i := 0
		get := func() (string, error) {
			u := urls[min(i, len(urls)-1)]
			i++
			return u, nil
		}
		err := pollURL(context.Background(), time.Second, get, func(u string) bool { return u == "http://app/#code=1" })
		require.NoError(t, err)
		assert.Equal(t, 3, i)
	})

	t.Run("default timeout", func(t *testing.T) {
		get := func() (string, error) { return "https://idp/auth", nil }
		st := time.Now()
		err := pollURL(context.Background(), 150*time.Millisecond, get, func(string) bool { return false })
		require.ErrorIs(t, err, ErrTimeout)
		assert.Contains(t, err.Error(), "last url https://idp/auth")
		assert.Less(t, time.Since(st), time.Second)
	})

	t.Run("ctx deadline wins", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
		defer cancel()
		get := func() (string, error) { return "https://idp/auth", nil }
		err := pollURL(ctx, time.Minute, get, func(string) bool { return false })
		require.ErrorIs(t, err, ErrTimeout)
	})

	t.Run("canceled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		get := func() (string, error) { return "https://idp/auth", nil }
		err := pollURL(ctx, time.Second, get, func(string) bool { return false })
		require.ErrorIs(t, err, context.Canceled)
	})

	t.Run("read error", func(t *testing.T) {
		get := func() (string, error) { return "", errors.New("target closed") }
		err := pollURL(context.Background(), time.Second, get, func(string) bool { return true })
		require.EqualError(t, err, "failed to read url: target closed")
	})
}
