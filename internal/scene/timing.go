package scene

import "time"

// DefaultTickRate is the loop frequency in ticks per second.
const DefaultTickRate = 20

// Timing converts durations in seconds to loop ticks.
type Timing struct {
	Rate int
}

func (t Timing) rate() int {
	if t.Rate <= 0 {
		return DefaultTickRate
	}
	return t.Rate
}

// Ticks converts a duration in seconds to ticks, at least one.
func (t Timing) Ticks(secs float64) int {
	return max(int(secs*float64(t.rate())), 1)
}

// Interval is the time between two ticks.
func (t Timing) Interval() time.Duration {
	return time.Second / time.Duration(t.rate())
}

func (t Timing) moveRepeatDelay() int { return t.Ticks(0.15) } // min ticks between moves when holding a key
func (t Timing) noticeDuration() int  { return t.Ticks(3.0) }
