package bramble

import "testing"

func TestFrameQueueRunsOncePerFrame(t *testing.T) {
	q := NewFrameQueue()
	calls := 0
	var loop func()
	loop = func() {
		calls++
		q.RequestFrame(loop)
	}
	q.RequestFrame(loop)

	for i := 1; i <= 5; i++ {
		if n := q.RunFrame(); n != 1 {
			t.Fatalf("frame %d ran %d callbacks, want 1", i, n)
		}
		if calls != i {
			t.Fatalf("calls = %d after %d frames", calls, i)
		}
	}
	if q.Pending() != 1 {
		t.Errorf("Pending = %d, want 1", q.Pending())
	}
}

func TestFrameQueueCancel(t *testing.T) {
	q := NewFrameQueue()
	ran := false
	id := q.RequestFrame(func() { ran = true })
	if id == 0 {
		t.Fatal("RequestFrame returned the zero id")
	}
	q.CancelFrame(id)
	q.CancelFrame(id)
	q.CancelFrame(0)
	if n := q.RunFrame(); n != 0 || ran {
		t.Errorf("cancelled callback ran (n = %d)", n)
	}
}

func TestFrameQueueCancelDuringRun(t *testing.T) {
	q := NewFrameQueue()
	var second FrameID
	secondRan := false
	q.RequestFrame(func() { q.CancelFrame(second) })
	second = q.RequestFrame(func() { secondRan = true })

	if n := q.RunFrame(); n != 1 {
		t.Errorf("RunFrame = %d, want 1", n)
	}
	if secondRan {
		t.Error("callback cancelled earlier in the same frame still ran")
	}
}

func TestFrameQueueIDsIncrease(t *testing.T) {
	q := NewFrameQueue()
	a := q.RequestFrame(func() {})
	b := q.RequestFrame(func() {})
	if b <= a {
		t.Errorf("ids %d then %d, want increasing", a, b)
	}
}
