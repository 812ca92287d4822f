package framebuf

import (
	"errors"
	"testing"
	"time"

	"github.com/smazurov/videocore/pkg/v4l2"
)

func newBuf(index uint32) v4l2.Buffer {
	return v4l2.Buffer{
		Type:   v4l2.BufTypeVideoCapture,
		Index:  index,
		Mem:    make([]byte, 16),
		Length: 16,
	}
}

func TestQueue_FIFOOrder(t *testing.T) {
	q := New()
	if err := q.Allocate(4); err != nil {
		t.Fatalf("Allocate: %v", err)
	}

	for i := range uint32(4) {
		if err := q.Enqueue(newBuf(i)); err != nil {
			t.Fatalf("Enqueue(%d): %v", i, err)
		}
	}

	ts := time.Now()
	for i := range uint32(4) {
		c := q.BindNext()
		if c == nil {
			t.Fatalf("BindNext returned nil at %d", i)
		}
		if c.Buf.Index != i {
			t.Errorf("bound index = %d, want %d", c.Buf.Index, i)
		}
		if done := q.CompleteBound(10+i, false, i, ts); done != c {
			t.Fatalf("CompleteBound returned a different container")
		}
	}

	for i := range uint32(4) {
		c := q.TakeDone()
		if c == nil {
			t.Fatalf("TakeDone returned nil at %d", i)
		}
		if c.Buf.Index != i || c.Buf.BytesUsed != 10+i || c.Buf.Sequence != i {
			t.Errorf("done[%d] = index %d bytes %d seq %d", i, c.Buf.Index, c.Buf.BytesUsed, c.Buf.Sequence)
		}
		q.Free(c)
	}

	if st := q.Stats(); st.Free != 4 || st.Pending != 0 || st.Done != 0 || st.Bound {
		t.Errorf("unexpected stats after drain: %+v", st)
	}
}

func TestQueue_OutOfContainers(t *testing.T) {
	q := New()
	if err := q.Allocate(1); err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if err := q.Enqueue(newBuf(0)); err != nil {
		t.Fatalf("first Enqueue: %v", err)
	}
	if err := q.Enqueue(newBuf(1)); !errors.Is(err, ErrOutOfContainers) {
		t.Errorf("second Enqueue error = %v, want ErrOutOfContainers", err)
	}
}

func TestQueue_AllocateZeroDisablesQueuing(t *testing.T) {
	q := New()
	if err := q.Allocate(3); err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if err := q.Allocate(0); err != nil {
		t.Fatalf("Allocate(0): %v", err)
	}
	if err := q.Enqueue(newBuf(0)); !errors.Is(err, ErrOutOfContainers) {
		t.Errorf("Enqueue after Allocate(0) = %v, want ErrOutOfContainers", err)
	}
}

func TestQueue_AllocateWhileBound(t *testing.T) {
	q := New()
	_ = q.Allocate(2)
	_ = q.Enqueue(newBuf(0))
	if q.BindNext() == nil {
		t.Fatal("BindNext returned nil")
	}
	if err := q.Allocate(2); !errors.Is(err, ErrBusy) {
		t.Errorf("Allocate while bound = %v, want ErrBusy", err)
	}
}

func TestQueue_BindNextGuards(t *testing.T) {
	q := New()
	_ = q.Allocate(2)

	if c := q.BindNext(); c != nil {
		t.Error("BindNext on empty pending queue should return nil")
	}

	_ = q.Enqueue(newBuf(0))
	_ = q.Enqueue(newBuf(1))
	first := q.BindNext()
	if first == nil {
		t.Fatal("BindNext returned nil")
	}
	if c := q.BindNext(); c != nil {
		t.Error("BindNext with a bound container should return nil")
	}
	if q.Bound() != first {
		t.Error("Bound() should return the bound container")
	}
}

func TestQueue_CompleteBoundWithoutBound(t *testing.T) {
	q := New()
	_ = q.Allocate(1)
	if c := q.CompleteBound(5, false, 0, time.Now()); c != nil {
		t.Error("CompleteBound without a bound container should be a no-op")
	}
	if st := q.Stats(); st.Done != 0 {
		t.Errorf("done = %d, want 0", st.Done)
	}
}

func TestQueue_ErrorFlag(t *testing.T) {
	q := New()
	_ = q.Allocate(1)
	_ = q.Enqueue(newBuf(0))
	q.BindNext()
	c := q.CompleteBound(0, true, 0, time.Now())
	if !c.Buf.HasError() {
		t.Error("expected error flag on completed buffer")
	}
}

func TestQueue_RingModeRecyclesOldestDone(t *testing.T) {
	q := New()
	q.SetMode(v4l2.BufModeRing)
	_ = q.Allocate(2)
	_ = q.Enqueue(newBuf(0))
	_ = q.Enqueue(newBuf(1))

	ts := time.Now()
	q.BindNext()
	q.CompleteBound(1, false, 0, ts)
	q.BindNext()
	q.CompleteBound(1, false, 1, ts)

	c := q.BindNext()
	if c == nil {
		t.Fatal("ring mode should recycle a done container")
	}
	if c.Buf.Index != 0 {
		t.Errorf("recycled index = %d, want oldest (0)", c.Buf.Index)
	}
	if st := q.Stats(); st.Overwrites != 1 || st.Done != 1 {
		t.Errorf("stats = %+v, want 1 overwrite and 1 done", st)
	}
}

func TestQueue_FIFOModeStalls(t *testing.T) {
	q := New()
	_ = q.Allocate(1)
	_ = q.Enqueue(newBuf(0))
	q.BindNext()
	q.CompleteBound(1, false, 0, time.Now())

	if c := q.BindNext(); c != nil {
		t.Error("fifo mode must not recycle done containers")
	}
}

func TestQueue_FreeStaleContainer(t *testing.T) {
	q := New()
	_ = q.Allocate(1)
	_ = q.Enqueue(newBuf(0))
	q.BindNext()
	q.CompleteBound(1, false, 0, time.Now())
	c := q.TakeDone()

	_ = q.Allocate(1)
	q.Free(c)

	if st := q.Stats(); st.Free != 1 {
		t.Errorf("free = %d, want 1 (stale container ignored)", st.Free)
	}
}

func TestQueue_UnbindRequeuesAtHead(t *testing.T) {
	q := New()
	if err := q.Allocate(2); err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	_ = q.Enqueue(newBuf(0))
	_ = q.Enqueue(newBuf(1))

	if c := q.BindNext(); c == nil || c.Buf.Index != 0 {
		t.Fatalf("BindNext = %v, want index 0", c)
	}
	q.Unbind()
	if q.Bound() != nil {
		t.Fatal("container still bound after Unbind")
	}
	if err := q.Allocate(2); err != nil {
		t.Errorf("Allocate after Unbind: %v", err)
	}

	_ = q.Enqueue(newBuf(0))
	_ = q.Enqueue(newBuf(1))
	q.BindNext()
	q.Unbind()
	if c := q.BindNext(); c == nil || c.Buf.Index != 0 {
		t.Errorf("rebind = %v, want index 0 again", c)
	}
	if st := q.Stats(); st.Pending != 1 || !st.Bound {
		t.Errorf("stats = %+v, want 1 pending and bound", st)
	}
}
