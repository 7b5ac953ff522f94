package engine

import "time"

// Clock supplies the wall time stamped into LastUsed.
//
// Production uses SystemClock; tests use testutil.StepClock so repeated runs
// produce identical records.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the real time in UTC.
type SystemClock struct{}

// Now returns the current UTC time.
func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}
