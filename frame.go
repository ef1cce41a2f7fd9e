package bramble

// FrameID identifies a callback registered with RequestFrame. Zero is never
// a valid id.
type FrameID uint64

// FrameQueue schedules callbacks for the next display frame. Hosts call
// RunFrame once per refresh: the Ebitengine game from Update, the terminal
// program from its tick message and the headless renderer from its loop.
//
// Callbacks requested while RunFrame is running are deferred to the next
// call, so a callback that re-requests itself runs exactly once per frame.
type FrameQueue struct {
	next    FrameID
	queued  []frameEntry
	running []frameEntry
}

type frameEntry struct {
	id FrameID
	fn func()
}

// NewFrameQueue creates an empty queue.
func NewFrameQueue() *FrameQueue {
	return &FrameQueue{}
}

// RequestFrame schedules fn for the next RunFrame and returns its id.
func (q *FrameQueue) RequestFrame(fn func()) FrameID {
	q.next++
	q.queued = append(q.queued, frameEntry{id: q.next, fn: fn})
	return q.next
}

// CancelFrame removes a scheduled callback. Unknown or already-run ids are
// ignored. Cancelling a callback that is due in the frame currently running
// prevents it from running.
func (q *FrameQueue) CancelFrame(id FrameID) {
	if id == 0 {
		return
	}
	for i := range q.queued {
		if q.queued[i].id == id {
			q.queued = append(q.queued[:i], q.queued[i+1:]...)
			return
		}
	}
	for i := range q.running {
		if q.running[i].id == id {
			q.running[i].fn = nil
			return
		}
	}
}

// RunFrame runs every callback scheduled before the call and returns how
// many ran.
func (q *FrameQueue) RunFrame() int {
	q.running, q.queued = q.queued, q.running[:0]
	n := 0
	for i := range q.running {
		fn := q.running[i].fn
		if fn == nil {
			continue
		}
		q.running[i].fn = nil
		fn()
		n++
	}
	q.running = q.running[:0]
	return n
}

// Pending returns the number of callbacks waiting for the next frame.
func (q *FrameQueue) Pending() int {
	return len(q.queued)
}
