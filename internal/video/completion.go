package video

// complete is the transfer engine's completion entry point for the given
// session. It only takes short non-blocking critical sections.
func (d *Device) complete(session uint64, failed bool, bytesUsed uint32) {
	d.mu.Lock()

	s := d.owner
	if !d.open || s == nil || session != d.session || s.queue.Bound() == nil {
		d.mu.Unlock()
		d.logger.Debug("Stale transfer completion ignored", "session", session)
		return
	}

	fx := &effects{}
	if !failed && s.remaining > 0 {
		s.remaining--
	}

	c := s.queue.CompleteBound(bytesUsed, failed, d.nextSequence(s), d.now())
	s.completed++
	t, buf := s.typ, observed(c.Buf)
	fx.notify(func(o Observer) { o.BufferDone(t, buf) })
	d.deliver(s)

	switch {
	case s.remaining == 0:
		d.endTransfer(s, fx)
		d.setState(s, StateIdle, fx)
		if s == d.still {
			if w := d.video.wait; w != nil {
				w.post(WakePreempted)
			}
			d.applyVideo(CauseStillStop, fx)
		}

	default:
		next := s.queue.BindNext()
		if next == nil {
			d.endTransfer(s, fx)
			d.setState(s, StateArmed, fx)
			break
		}
		fx.ops = append(fx.ops, engineOp{
			kind:    opNext,
			stream:  s,
			session: session,
			mem:     next.Buf.Mem[:next.Buf.Length],
		})
	}

	d.commit(fx)
}
