// Package conditions checks whether the host has enough capacity to run browser checks
// at local speed. A host failing any limit is treated as a constrained environment.
package conditions

import (
	"fmt"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/load"
	"github.com/shirou/gopsutil/v4/mem"
)

// Limits describe the minimal host capacity, zero value of a field disables its check
type Limits struct {
	MinCPUs       int     // logical cpus
	MinMemoryMB   int     // available memory
	LoadAvgBelow  float64 // 1 minute load average
	DiskFreeAbove int     // percent of free space on DiskFreePath
	DiskFreePath  string
}

// DefaultLimits used when nothing else is configured
func DefaultLimits() Limits {
	return Limits{MinCPUs: 2, MinMemoryMB: 2048}
}

// Checker reads host metrics, metric functions can be swapped in tests
type Checker struct {
	cpuCount  func() (int, error)
	available func() (uint64, error)
	loadAvg   func() (float64, error)
	diskUsed  func(path string) (float64, error)
}

// NewChecker makes checker reading real host metrics
func NewChecker() *Checker {
	return &Checker{
		cpuCount: func() (int, error) { return cpu.Counts(true) },
		available: func() (uint64, error) {
			v, err := mem.VirtualMemory()
			if err != nil {
				return 0, err
			}
			return v.Available, nil
		},
		loadAvg: func() (float64, error) {
			v, err := load.Avg()
			if err != nil {
				return 0, err
			}
			return v.Load1, nil
		},
		diskUsed: func(path string) (float64, error) {
			u, err := disk.Usage(path)
			if err != nil {
				return 0, err
			}
			return u.UsedPercent, nil
		},
	}
}

// Check verifies all limits. Returns true if the host satisfies them, false with reason otherwise.
// A metric which can't be read counts as a failed limit.
func (c *Checker) Check(l Limits) (bool, string) {
	// check cpu count
	if l.MinCPUs > 0 {
		n, err := c.cpuCount()
		if err != nil {
			return false, fmt.Sprintf("failed to get cpu count: %v", err)
		}
		if n < l.MinCPUs {
			return false, fmt.Sprintf("%d cpus, need %d", n, l.MinCPUs)
		}
	}

	// check available memory
	if l.MinMemoryMB > 0 {
		avail, err := c.available()
		if err != nil {
			return false, fmt.Sprintf("failed to get memory: %v", err)
		}
		if mb := int(avail / 1024 / 1024); mb < l.MinMemoryMB {
			return false, fmt.Sprintf("%dMB memory available, need %dMB", mb, l.MinMemoryMB)
		}
	}

	// check load average
	if l.LoadAvgBelow > 0 {
		la, err := c.loadAvg()
		if err != nil {
			return false, fmt.Sprintf("failed to get load average: %v", err)
		}
		if la >= l.LoadAvgBelow {
			return false, fmt.Sprintf("load at %.2f, threshold %.2f", la, l.LoadAvgBelow)
		}
	}

	// check disk free space
	if l.DiskFreeAbove > 0 {
		path := l.DiskFreePath
		if path == "" {
			path = "/"
		}
		used, err := c.diskUsed(path)
		if err != nil {
			return false, fmt.Sprintf("failed to get disk usage for %s: %v", path, err)
		}
		if free := 100 - int(used); free < l.DiskFreeAbove {
			return false, fmt.Sprintf("disk free at %d%%, need %d%% on %s", free, l.DiskFreeAbove, path)
		}
	}

	return true, ""
}
