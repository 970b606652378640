// Package clock provides the time capability injected into the progress
// controller and the quiz session.
package clock

import (
	"sync"
	"time"
)

// Handle cancels a periodic callback registered with EverySecond.
type Handle interface {
	Stop()
}

// Clock is the source of wall-clock time and one-second ticks.
type Clock interface {
	Now() time.Time

	// EverySecond invokes fn once per second until the handle is stopped.
	EverySecond(fn func()) Handle
}

type realClock struct{}

// Real returns a Clock backed by the time package. Callbacks run on a
// dedicated goroutine per handle.
func Real() Clock {
	return realClock{}
}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) EverySecond(fn func()) Handle {
	h := &tickerHandle{
		ticker: time.NewTicker(time.Second),
		done:   make(chan struct{}),
	}
	go func() {
		for {
			select {
			case <-h.done:
				return
			case <-h.ticker.C:
				fn()
			}
		}
	}()
	return h
}

type tickerHandle struct {
	ticker *time.Ticker
	done   chan struct{}
	once   sync.Once
}

func (h *tickerHandle) Stop() {
	h.once.Do(func() {
		h.ticker.Stop()
		close(h.done)
	})
}
