package automation

import (
	"math/rand"
	"time"
)

// Delays holds the randomized timing ranges for human-like pacing.
// Randomness here is load-bearing: fixed intervals are a trivial bot
// signature, so every wait draws uniformly from its range.
type Delays struct {
	JitterMin, JitterMax   time.Duration // between workflow actions
	TypingMin, TypingMax   time.Duration // between keystrokes
	BackoffMin, BackoffMax time.Duration // between selector candidates
	PauseMin, PauseMax     time.Duration // between pointer movements
	SettleMin, SettleMax   time.Duration // after filling the editor
}

func DefaultDelays() Delays {
	return Delays{
		JitterMin:  2 * time.Second,
		JitterMax:  8 * time.Second,
		TypingMin:  50 * time.Millisecond,
		TypingMax:  200 * time.Millisecond,
		BackoffMin: 200 * time.Millisecond,
		BackoffMax: 800 * time.Millisecond,
		PauseMin:   100 * time.Millisecond,
		PauseMax:   400 * time.Millisecond,
		SettleMin:  time.Second,
		SettleMax:  2 * time.Second,
	}
}

func (d Delays) Jitter() time.Duration  { return between(d.JitterMin, d.JitterMax) }
func (d Delays) Typing() time.Duration  { return between(d.TypingMin, d.TypingMax) }
func (d Delays) Backoff() time.Duration { return between(d.BackoffMin, d.BackoffMax) }
func (d Delays) Pause() time.Duration   { return between(d.PauseMin, d.PauseMax) }
func (d Delays) Settle() time.Duration  { return between(d.SettleMin, d.SettleMax) }

func between(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(rand.Int63n(int64(max-min)))
}
