package scenario

import (
	"math/rand/v2"
	"strings"
	"time"
)

const alnum = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// RandomString makes alphanumeric string of n characters, not for secrets
func RandomString(n int) string {
	var b strings.Builder
	b.Grow(n)
	for range n {
		b.WriteByte(alnum[rand.IntN(len(alnum))]) //nolint:gosec // test data only
	}
	return b.String()
}

// ScreenshotName makes png file name with timestamp safe for any filesystem
func ScreenshotName(prefix string, ts time.Time) string {
	stamp := strings.NewReplacer(":", "-", ".", "-").Replace(ts.UTC().Format("2006-01-02T15:04:05.000Z"))
	return prefix + "-" + stamp + ".png"
}
