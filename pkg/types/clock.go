package types

import "time"

// Clock is a source of current time, injectable for testing
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall-clock implementation of Clock
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}
