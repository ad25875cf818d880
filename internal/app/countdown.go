package app

import "time"

// DefaultTimeBudget is the number of seconds an attempt gets.
const DefaultTimeBudget = 60

// Countdown is the per-attempt quiz timer. It holds no goroutine of its own;
// the session feeds it one Tick per interval.
type Countdown struct {
	budget    int
	remaining int
	paused    bool
	expired   bool
}

func NewCountdown(budget int) Countdown {
	if budget <= 0 {
		budget = DefaultTimeBudget
	}
	return Countdown{budget: budget, remaining: budget}
}

// Tick decrements the remaining time unless paused. It reports true exactly
// once, on the tick that reaches zero.
func (c *Countdown) Tick() bool {
	if c.paused || c.expired {
		return false
	}
	if c.remaining > 0 {
		c.remaining--
	}
	if c.remaining == 0 {
		c.expired = true
		return true
	}
	return false
}

func (c *Countdown) Pause()  { c.paused = true }
func (c *Countdown) Resume() { c.paused = false }

// Reset restores the full budget and clears pause and expiry.
func (c *Countdown) Reset() {
	c.remaining = c.budget
	c.paused = false
	c.expired = false
}

func (c Countdown) Remaining() int { return c.remaining }
func (c Countdown) Paused() bool   { return c.paused }
func (c Countdown) Expired() bool  { return c.expired }

// Ticker delivers timer ticks to a running session.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TickerFunc creates a Ticker for the given interval.
type TickerFunc func(time.Duration) Ticker

type realTicker struct{ t *time.Ticker }

func (r realTicker) C() <-chan time.Time { return r.t.C }
func (r realTicker) Stop()               { r.t.Stop() }

// NewRealTicker is the TickerFunc backed by time.Ticker.
func NewRealTicker(d time.Duration) Ticker {
	return realTicker{t: time.NewTicker(d)}
}
