package bridge

import (
	"testing"

	"github.com/isesword/framebridge/plan"
)

// recordingLock 记录加锁/解锁顺序
type recordingLock struct {
	events []string
	held   bool
}

func (l *recordingLock) Release() {
	l.events = append(l.events, "release")
	l.held = false
}

func (l *recordingLock) Acquire() {
	l.events = append(l.events, "acquire")
	l.held = true
}

func TestReleasingReacquiresAfterPanic(t *testing.T) {
	lock := NewMutexLock()
	lock.Acquire()

	func() {
		defer func() {
			if r := recover(); r == nil {
				t.Fatal("expected the panic to propagate")
			}
			if !lock.Held() {
				t.Error("lock must be held again once the panic leaves Releasing")
			}
		}()
		Releasing(lock, func() int {
			if lock.Held() {
				t.Error("lock must be released inside the section")
			}
			panic("injected fault")
		})
	}()

	if !lock.Held() {
		t.Fatal("lock not held after recovery")
	}
	lock.Release()
}

func TestReleasingReturnsValue(t *testing.T) {
	lock := &recordingLock{held: true}
	got := Releasing(lock, func() string {
		if lock.held {
			t.Error("lock held inside the section")
		}
		return "done"
	})
	if got != "done" {
		t.Errorf("Releasing returned %q", got)
	}
	if !lock.held || len(lock.events) != 2 {
		t.Errorf("events = %v, held = %v", lock.events, lock.held)
	}
}

func TestBlockingSectionLeaveOnce(t *testing.T) {
	lock := &recordingLock{held: true}
	s := EnterBlockingSection(lock)
	s.Leave()
	s.Leave()
	want := []string{"release", "acquire"}
	if len(lock.events) != len(want) {
		t.Fatalf("events = %v, want %v", lock.events, want)
	}
}

func TestBoundaryCallsReleaseAroundNativeWork(t *testing.T) {
	lock := &recordingLock{held: true}
	b := New(&Config{Lock: lock, LockHeldByCaller: true})

	df := mustFrame(t, b, plan.NamedBuffer{Name: "a", Data: plan.Int64Buffer{3, 1, 2}})
	if len(lock.events) != 0 {
		t.Fatalf("construction should not release the lock, events = %v", lock.events)
	}

	lf, err := b.LazyFrame(df)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := b.LazyCollect(lf); err != nil {
		t.Fatal(err)
	}
	if _, err := b.DataFrameSort(df, []string{"a"}, plan.SortMultipleOptions{}); err != nil {
		t.Fatal(err)
	}

	want := []string{"release", "acquire", "release", "acquire"}
	if len(lock.events) != len(want) {
		t.Fatalf("events = %v, want %v", lock.events, want)
	}
	for i := range want {
		if lock.events[i] != want[i] {
			t.Fatalf("events = %v, want %v", lock.events, want)
		}
	}
	if !lock.held {
		t.Error("lock must be held when control returns to the host")
	}
}

func TestBridgeTakesLockPerCall(t *testing.T) {
	lock := NewMutexLock()
	b := New(&Config{Lock: lock})
	df := mustFrame(t, b, plan.NamedBuffer{Name: "a", Data: plan.Int64Buffer{1}})
	if lock.Held() {
		t.Fatal("lock leaked after a boundary call")
	}
	if _, err := b.DataFrameHeight(df); err != nil {
		t.Fatal(err)
	}
	if lock.Held() {
		t.Fatal("lock leaked after a boundary call")
	}
}
