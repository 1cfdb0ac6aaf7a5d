package ringlog

import "time"

// clock abstracts wall time and blocking sleep so the rotation and retry
// state machines can be driven deterministically in tests. The retry loop
// sleeps on the calling goroutine; there is no cancellation once it starts.
type clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

type realClock struct{}

func (realClock) Now() time.Time        { return time.Now() }
func (realClock) Sleep(d time.Duration) { time.Sleep(d) }
