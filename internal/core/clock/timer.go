package clock

import "time"

// Mode controls what a Timer does after it reaches its duration.
type Mode uint8

const (
	Once      Mode = iota // stays finished until Reset
	Repeating             // wraps around and fires again every duration
)

// Timer accumulates tick deltas and reports when its duration elapses.
// Finished is true only for the tick on which a Repeating timer wraps;
// a Once timer stays finished.
type Timer struct {
	duration time.Duration
	elapsed  time.Duration
	mode     Mode
	finished bool
}

func NewTimer(d time.Duration, mode Mode) Timer {
	return Timer{duration: d, mode: mode}
}

// Seconds builds a duration from a float second count as found in asset files.
func Seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// Tick advances the timer by dt and returns Finished().
func (t *Timer) Tick(dt time.Duration) bool {
	if t.mode == Once && t.finished {
		return true
	}
	t.elapsed += dt
	t.finished = false
	if t.elapsed < t.duration {
		return false
	}
	t.finished = true
	if t.mode == Repeating {
		if t.duration > 0 {
			t.elapsed %= t.duration
		} else {
			t.elapsed = 0
		}
	} else {
		t.elapsed = t.duration
	}
	return true
}

func (t *Timer) Finished() bool          { return t.finished }
func (t *Timer) Elapsed() time.Duration  { return t.elapsed }
func (t *Timer) Duration() time.Duration { return t.duration }

// Fraction returns elapsed/duration in [0,1].
func (t *Timer) Fraction() float64 {
	if t.duration <= 0 {
		return 1
	}
	f := float64(t.elapsed) / float64(t.duration)
	if f > 1 {
		return 1
	}
	return f
}

func (t *Timer) Reset() {
	t.elapsed = 0
	t.finished = false
}

// SetDuration changes the duration without touching elapsed time.
func (t *Timer) SetDuration(d time.Duration) {
	t.duration = d
}
