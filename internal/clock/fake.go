package clock

import (
	"sync"
	"time"
)

// Fake is a manually driven Clock for tests. Advance moves time forward and
// fires every registered callback once per whole second crossed, on the
// caller's goroutine.
type Fake struct {
	mu      sync.Mutex
	now     time.Time
	nextID  int
	tickers map[int]*fakeTicker
}

type fakeTicker struct {
	fn      func()
	pending time.Duration
}

// NewFake returns a Fake clock starting at start.
func NewFake(start time.Time) *Fake {
	return &Fake{now: start, tickers: make(map[int]*fakeTicker)}
}

func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *Fake) EverySecond(fn func()) Handle {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.nextID
	f.nextID++
	f.tickers[id] = &fakeTicker{fn: fn}
	return &fakeHandle{clock: f, id: id}
}

// Advance moves the clock forward by d, firing due callbacks second by
// second so that state observed by a callback matches the time it fires at.
func (f *Fake) Advance(d time.Duration) {
	for d > 0 {
		step := time.Second
		if d < step {
			step = d
		}
		d -= step

		f.mu.Lock()
		f.now = f.now.Add(step)
		var due []func()
		for _, t := range f.tickers {
			t.pending += step
			for t.pending >= time.Second {
				t.pending -= time.Second
				due = append(due, t.fn)
			}
		}
		f.mu.Unlock()

		for _, fn := range due {
			fn()
		}
	}
}

// Active reports how many callbacks are still registered.
func (f *Fake) Active() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.tickers)
}

type fakeHandle struct {
	clock *Fake
	id    int
}

func (h *fakeHandle) Stop() {
	h.clock.mu.Lock()
	defer h.clock.mu.Unlock()
	delete(h.clock.tickers, h.id)
}
