package clock

import (
	"testing"
	"time"
)

func TestFake_AdvanceFiresOncePerSecond(t *testing.T) {
	start := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	f := NewFake(start)

	count := 0
	f.EverySecond(func() { count++ })

	f.Advance(5 * time.Second)
	if count != 5 {
		t.Errorf("count = %d, want 5", count)
	}
	if got := f.Now(); !got.Equal(start.Add(5 * time.Second)) {
		t.Errorf("Now() = %v, want %v", got, start.Add(5*time.Second))
	}
}

func TestFake_SubSecondSteps(t *testing.T) {
	f := NewFake(time.Unix(0, 0))
	count := 0
	f.EverySecond(func() { count++ })

	f.Advance(500 * time.Millisecond)
	if count != 0 {
		t.Fatalf("count = %d after half a second, want 0", count)
	}
	f.Advance(500 * time.Millisecond)
	if count != 1 {
		t.Errorf("count = %d after one second, want 1", count)
	}
}

func TestFake_StopCancels(t *testing.T) {
	f := NewFake(time.Unix(0, 0))
	count := 0
	h := f.EverySecond(func() { count++ })

	f.Advance(2 * time.Second)
	h.Stop()
	f.Advance(3 * time.Second)

	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}
	if f.Active() != 0 {
		t.Errorf("Active() = %d, want 0", f.Active())
	}
}

func TestFake_CallbackMayStopItself(t *testing.T) {
	f := NewFake(time.Unix(0, 0))
	count := 0
	var h Handle
	h = f.EverySecond(func() {
		count++
		if count == 3 {
			h.Stop()
		}
	})

	f.Advance(10 * time.Second)
	if count != 3 {
		t.Errorf("count = %d, want 3", count)
	}
}

func TestReal_StopIsIdempotent(t *testing.T) {
	h := Real().EverySecond(func() {})
	h.Stop()
	h.Stop()
}
