// Package perf measures single operations and checks them against thresholds.
// Statistics are plain arithmetic, no percentiles and no outlier rejection.
package perf

import (
	"errors"
	"fmt"
	"time"
)

// ErrThreshold is wrapped by errors of samples exceeding their limit
var ErrThreshold = errors.New("threshold exceeded")

// Sample is one timed operation
type Sample struct {
	Operation string
	Start     time.Time
	End       time.Time
}

// Elapsed returns duration of the sample
func (s Sample) Elapsed() time.Duration { return s.End.Sub(s.Start) }

func (s Sample) String() string {
	return fmt.Sprintf("%s: %dms", s.Operation, s.Elapsed().Milliseconds())
}

// Measure runs fn and records its start and end. The sample is returned even if fn failed.
func Measure(operation string, fn func() error) (Sample, error) {
	s := Sample{Operation: operation, Start: time.Now()}
	err := fn()
	s.End = time.Now()
	return s, err
}

// Below checks elapsed time is strictly less than limit
func Below(s Sample, limit time.Duration) error {
	if s.Elapsed() < limit {
		return nil
	}
	return fmt.Errorf("%s took %dms, limit %dms: %w", s.Operation, s.Elapsed().Milliseconds(), limit.Milliseconds(), ErrThreshold)
}

// Summary of a series of samples
type Summary struct {
	Count  int
	Mean   time.Duration
	Min    time.Duration
	Max    time.Duration
	Spread time.Duration // max - min
}

func (s Summary) String() string {
	return fmt.Sprintf("count=%d, mean=%dms, min=%dms, max=%dms, spread=%dms",
		s.Count, s.Mean.Milliseconds(), s.Min.Milliseconds(), s.Max.Milliseconds(), s.Spread.Milliseconds())
}

// Summarize computes mean, min and max of samples. Empty input gives zero Summary.
func Summarize(samples []Sample) Summary {
	if len(samples) == 0 {
		return Summary{}
	}
	var total time.Duration
	res := Summary{Count: len(samples), Min: samples[0].Elapsed(), Max: samples[0].Elapsed()}
	for _, s := range samples {
		el := s.Elapsed()
		total += el
		res.Min = min(res.Min, el)
		res.Max = max(res.Max, el)
	}
	res.Mean = total / time.Duration(len(samples))
	res.Spread = res.Max - res.Min
	return res
}

// MeanBelow checks the mean of the summary is strictly less than limit
func MeanBelow(s Summary, limit time.Duration) error {
	if s.Count == 0 {
		return errors.New("no samples")
	}
	if s.Mean < limit {
		return nil
	}
	return fmt.Errorf("mean of %d samples is %dms, limit %dms: %w", s.Count, s.Mean.Milliseconds(), limit.Milliseconds(), ErrThreshold)
}
