package clock

import (
	"testing"
	"time"
)

var epoch = time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)

func TestVirtualClock_AdvanceMovesNow(t *testing.T) {
	vc := NewVirtualClock(epoch)
	vc.Advance(90 * time.Second)

	if got := vc.Now(); !got.Equal(epoch.Add(90 * time.Second)) {
		t.Errorf("Now() = %v, want %v", got, epoch.Add(90*time.Second))
	}
	if got := vc.Since(epoch); got != 90*time.Second {
		t.Errorf("Since() = %v, want 90s", got)
	}
}

func TestVirtualClock_AfterFiresOnDeadline(t *testing.T) {
	vc := NewVirtualClock(epoch)
	ch := vc.After(time.Minute)

	if vc.PendingWaiters() != 1 {
		t.Fatalf("PendingWaiters() = %d, want 1", vc.PendingWaiters())
	}

	vc.Advance(59 * time.Second)
	select {
	case <-ch:
		t.Fatal("fired before deadline")
	default:
	}

	vc.Advance(time.Second)
	select {
	case got := <-ch:
		if !got.Equal(epoch.Add(time.Minute)) {
			t.Errorf("fired at %v, want %v", got, epoch.Add(time.Minute))
		}
	default:
		t.Fatal("did not fire at deadline")
	}
	if vc.PendingWaiters() != 0 {
		t.Errorf("PendingWaiters() = %d, want 0", vc.PendingWaiters())
	}
}

func TestVirtualClock_AfterZeroFiresImmediately(t *testing.T) {
	vc := NewVirtualClock(epoch)
	select {
	case <-vc.After(0):
	default:
		t.Fatal("After(0) should fire immediately")
	}
}

func TestVirtualClock_SetPastPanics(t *testing.T) {
	vc := NewVirtualClock(epoch)
	defer func() {
		if recover() == nil {
			t.Error("Set to the past should panic")
		}
	}()
	vc.Set(epoch.Add(-time.Second))
}
