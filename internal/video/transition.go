package video

import "github.com/smazurov/videocore/pkg/v4l2"

type opKind int

const (
	opStart opKind = iota
	opNext
	opCancel
)

func (k opKind) String() string {
	switch k {
	case opStart:
		return "start"
	case opNext:
		return "set_next"
	default:
		return "cancel"
	}
}

// engineOp is a transfer engine call decided under the completion lock.
type engineOp struct {
	kind    opKind
	stream  *stream
	session uint64
	format  v4l2.Format
	mem     []byte
}

// effects collects the engine calls and notifications of one critical
// section.
type effects struct {
	ops   []engineOp
	notes []func(Observer)
}

func (fx *effects) notify(fn func(Observer)) {
	fx.notes = append(fx.notes, fn)
}

// commit must be called with d.mu held and releases it. The engine lock is
// taken before the completion lock is dropped so engine calls run in the
// order they were decided.
func (d *Device) commit(fx *effects) {
	if len(fx.ops) == 0 {
		d.mu.Unlock()
		d.notify(fx)
		return
	}

	d.engMu.Lock()
	d.mu.Unlock()

	var failed []engineFailure
	for _, op := range fx.ops {
		if err := d.execute(op); err != nil {
			if op.kind == opCancel {
				d.logger.Warn("Cancel transfer failed", "stream", op.stream.typ.String(), "error", err)
				continue
			}
			failed = append(failed, engineFailure{op: op, err: err})
		}
	}
	d.engMu.Unlock()

	d.notify(fx)
	for _, f := range failed {
		d.transferFailed(f)
	}
}

func (d *Device) execute(op engineOp) error {
	d.logger.Debug("Transfer engine call", "op", op.kind.String(), "stream", op.stream.typ.String(), "session", op.session)

	switch op.kind {
	case opStart:
		session := op.session
		return d.engine.StartTransfer(op.format, op.mem, func(failed bool, bytesUsed uint32) {
			d.complete(session, failed, bytesUsed)
		})
	case opNext:
		return d.engine.SetNextBuffer(op.mem)
	default:
		return d.engine.CancelTransfer()
	}
}

func (d *Device) notify(fx *effects) {
	for _, fn := range fx.notes {
		fn(d.observer)
	}
}

// setState must be called with d.mu held.
func (d *Device) setState(s *stream, to State, fx *effects) {
	from := s.state
	if from == to {
		return
	}
	s.state = to
	t := s.typ
	fx.notify(func(o Observer) { o.StateChanged(t, from, to) })
}

// changeState moves s toward next. Entering Transferring binds a buffer and
// starts the engine, or settles on Armed when nothing can be bound. Leaving
// Transferring cancels the transfer. Must be called with d.mu held.
func (d *Device) changeState(s *stream, next State, fx *effects) {
	cur := s.state
	switch {
	case cur != StateTransferring && next == StateTransferring:
		if !d.beginTransfer(s, fx) {
			next = StateArmed
		}
	case cur == StateTransferring && next != StateTransferring:
		d.endTransfer(s, fx)
	}
	d.setState(s, next, fx)
}

// applyVideo runs the arbiter for the video stream. Must be called with
// d.mu held.
func (d *Device) applyVideo(cause Cause, fx *effects) {
	next := NextState(d.video.state, cause, d.still.state.active())
	d.changeState(d.video, next, fx)
}

func (d *Device) beginTransfer(s *stream, fx *effects) bool {
	if d.owner != nil && d.owner != s {
		d.logger.Debug("Transfer engine owned by other stream",
			"stream", s.typ.String(), "owner", d.owner.typ.String())
		return false
	}
	c := s.queue.BindNext()
	if c == nil {
		return false
	}

	d.session++
	d.owner = s
	fx.ops = append(fx.ops, engineOp{
		kind:    opStart,
		stream:  s,
		session: d.session,
		format:  s.format,
		mem:     c.Buf.Mem[:c.Buf.Length],
	})
	return true
}

// endTransfer cancels the session owned by s. A bound buffer goes back to
// the head of the pending queue. Completions of the old session are ignored.
func (d *Device) endTransfer(s *stream, fx *effects) {
	if d.owner != s {
		return
	}
	d.owner = nil
	d.session++
	s.queue.Unbind()
	fx.ops = append(fx.ops, engineOp{kind: opCancel, stream: s, session: d.session})
}

// deliver hands the oldest completed buffer of s to its blocked dequeuer, if
// there is one still waiting for data. Must be called with d.mu held.
func (d *Device) deliver(s *stream) {
	w := s.wait
	if w == nil || w.cause >= WakeDone {
		return
	}
	c := s.queue.TakeDone()
	if c == nil {
		return
	}
	w.buf = c.Buf
	s.queue.Free(c)
	w.post(WakeDone)
}

type engineFailure struct {
	op  engineOp
	err error
}

// transferFailed handles an engine call that was rejected. The buffer handed
// to the engine completes with the error flag and the stream waits Armed for
// the next client action.
func (d *Device) transferFailed(f engineFailure) {
	s := f.op.stream
	d.logger.Warn("Transfer engine call failed",
		"op", f.op.kind.String(), "stream", s.typ.String(), "error", f.err)

	d.mu.Lock()
	fx := &effects{}
	t, err := s.typ, wrapErr("transfer", s.typ, f.err)
	fx.notify(func(o Observer) { o.TransferFailed(t, err) })

	if !d.open || d.session != f.op.session || d.owner != s {
		d.commit(fx)
		return
	}

	d.owner = nil
	d.session++
	if f.op.kind == opNext {
		fx.ops = append(fx.ops, engineOp{kind: opCancel, stream: s, session: d.session})
	}
	if c := s.queue.CompleteBound(0, true, d.nextSequence(s), d.now()); c != nil {
		buf := observed(c.Buf)
		fx.notify(func(o Observer) { o.BufferDone(t, buf) })
		d.deliver(s)
	}
	d.setState(s, StateArmed, fx)
	d.commit(fx)
}

func (d *Device) nextSequence(s *stream) uint32 {
	seq := s.sequence
	s.sequence++
	return seq
}

// observed strips the memory reference before a buffer leaves the device
// through an observer.
func observed(b v4l2.Buffer) v4l2.Buffer {
	b.Mem = nil
	return b
}
