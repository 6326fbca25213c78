package attempt

import (
	"sync"
	"time"
)

// Countdown drives a once-per-second tick toward a deadline and fires an
// expiry callback exactly once when it is reached. The engine runs no
// background clock of its own; whichever layer hosts the attempt owns a
// Countdown and must Stop it when the attempt completes or the view goes
// away, so a stale timer never fires against a finished attempt.
type Countdown struct {
	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// StartCountdown runs a countdown for d. tick receives the remaining time
// every second; expire fires once when the deadline passes. Either callback
// may be nil.
func StartCountdown(d time.Duration, tick func(remaining time.Duration), expire func()) *Countdown {
	return startCountdown(d, time.Second, tick, expire)
}

// startCountdown exists so tests can shrink the tick interval.
func startCountdown(d, interval time.Duration, tick func(remaining time.Duration), expire func()) *Countdown {
	c := &Countdown{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	go c.run(d, interval, tick, expire)
	return c
}

func (c *Countdown) run(d, interval time.Duration, tick func(remaining time.Duration), expire func()) {
	defer close(c.done)

	deadline := time.Now().Add(d)
	if d <= 0 {
		if expire != nil {
			expire()
		}
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case now := <-ticker.C:
			left := deadline.Sub(now)
			if left <= 0 {
				if expire != nil {
					expire()
				}
				return
			}
			if tick != nil {
				tick(left)
			}
		}
	}
}

// Stop cancels the countdown. It is safe to call repeatedly and after expiry.
func (c *Countdown) Stop() {
	c.stopOnce.Do(func() { close(c.stop) })
}

// Done is closed once the countdown has expired or been stopped.
func (c *Countdown) Done() <-chan struct{} {
	return c.done
}
