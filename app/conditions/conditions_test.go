package conditions

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func fakeChecker(cpus int, availMB uint64, la, diskUsed float64) *Checker {
	return &Checker{
		cpuCount:  func() (int, error) { return cpus, nil },
		available: func() (uint64, error) { return availMB * 1024 * 1024, nil },
		loadAvg:   func() (float64, error) { return la, nil },
		diskUsed:  func(string) (float64, error) { return diskUsed, nil },
	}
}

func TestChecker_Check(t *testing.T) {
	tests := []struct {
		name       string
		checker    *Checker
		limits     Limits
		wantOK     bool
		wantReason string
	}{
		{name: "no limits", checker: fakeChecker(1, 10, 9, 99), limits: Limits{}, wantOK: true},
		{name: "enough of everything", checker: fakeChecker(8, 16000, 0.5, 40),
			limits: Limits{MinCPUs: 2, MinMemoryMB: 2048, LoadAvgBelow: 4, DiskFreeAbove: 10}, wantOK: true},
		{name: "single cpu", checker: fakeChecker(1, 16000, 0, 0), limits: DefaultLimits(),
			wantReason: "1 cpus, need 2"},
		{name: "low memory", checker: fakeChecker(4, 1024, 0, 0), limits: DefaultLimits(),
			wantReason: "1024MB memory available, need 2048MB"},
		{name: "busy host", checker: fakeChecker(4, 4096, 6.5, 0), limits: Limits{LoadAvgBelow: 4},
			wantReason: "load at 6.50, threshold 4.00"},
		{name: "disk almost full", checker: fakeChecker(4, 4096, 0, 97), limits: Limits{DiskFreeAbove: 5, DiskFreePath: "/tmp"},
			wantReason: "disk free at 3%, need 5% on /tmp"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, reason := tt.checker.Check(tt.limits)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantReason, reason)
		})
	}
}

func TestChecker_CheckMetricErrors(t *testing.T) {
	c := fakeChecker(4, 4096, 0, 0)
	c.cpuCount = func() (int, error) { return 0, errors.New("no /proc") }
	ok, reason := c.Check(Limits{MinCPUs: 1})
	assert.False(t, ok)
	assert.Equal(t, "failed to get cpu count: no /proc", reason)

	c = fakeChecker(4, 4096, 0, 0)
	c.diskUsed = func(path string) (float64, error) { return 0, errors.New("not mounted") }
	ok, reason = c.Check(Limits{DiskFreeAbove: 1})
	assert.False(t, ok)
	assert.Equal(t, "failed to get disk usage for /: not mounted", reason)
}

func TestChecker_RealHost(t *testing.T) {
	// real metrics, limits any machine running tests satisfies
	ok, reason := NewChecker().Check(Limits{MinCPUs: 1, MinMemoryMB: 1, DiskFreeAbove: 1})
	assert.True(t, ok, reason)
}
