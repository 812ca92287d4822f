package video

// State is the transfer state of one stream.
type State int

// Stream states.
const (
	// StateIdle: no transfer requested.
	StateIdle State = iota
	// StateArmed: transfer requested, no buffer bound yet.
	StateArmed
	// StateTransferring: a buffer is bound and the engine is running for the stream.
	StateTransferring
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateArmed:
		return "armed"
	case StateTransferring:
		return "transferring"
	default:
		return "unknown"
	}
}

// active reports whether the stream holds or wants the transfer engine.
func (s State) active() bool {
	return s == StateArmed || s == StateTransferring
}

// Cause is the event that drives a video state transition.
type Cause int

// Transition causes.
const (
	CauseVideoStop Cause = iota
	CauseVideoStart
	CauseStillStop
	CauseStillStart
	CauseVideoDQBuf
)

func (c Cause) String() string {
	switch c {
	case CauseVideoStop:
		return "video_stop"
	case CauseVideoStart:
		return "video_start"
	case CauseStillStop:
		return "still_stop"
	case CauseStillStart:
		return "still_start"
	case CauseVideoDQBuf:
		return "video_dqbuf"
	default:
		return "unknown"
	}
}

// NextState returns the video state requested by cause. stillActive reports
// whether the still stream is Armed or Transferring. A Transferring result is
// a request: it is downgraded to Armed when no buffer can be bound.
//
// Still capture preempts video: starting still demotes a transferring video
// stream to Armed, and video never leaves Armed for Transferring while still
// is active.
func NextState(cur State, cause Cause, stillActive bool) State {
	switch cause {
	case CauseVideoStop:
		return StateIdle
	case CauseVideoStart:
		if stillActive {
			return StateArmed
		}
		return StateTransferring
	case CauseStillStop:
		if cur == StateArmed {
			return StateTransferring
		}
	case CauseStillStart:
		if cur == StateTransferring {
			return StateArmed
		}
	case CauseVideoDQBuf:
		if cur == StateArmed && !stillActive {
			return StateTransferring
		}
	}
	return cur
}
