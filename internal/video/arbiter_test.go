package video

import "testing"

func TestNextState(t *testing.T) {
	tests := []struct {
		name        string
		cur         State
		cause       Cause
		stillActive bool
		want        State
	}{
		{"stop from transferring", StateTransferring, CauseVideoStop, false, StateIdle},
		{"stop from armed while still active", StateArmed, CauseVideoStop, true, StateIdle},
		{"start without still", StateIdle, CauseVideoStart, false, StateTransferring},
		{"start while still active", StateIdle, CauseVideoStart, true, StateArmed},
		{"still stop rearms", StateArmed, CauseStillStop, false, StateTransferring},
		{"still stop leaves idle", StateIdle, CauseStillStop, false, StateIdle},
		{"still stop leaves transferring", StateTransferring, CauseStillStop, false, StateTransferring},
		{"still start demotes", StateTransferring, CauseStillStart, false, StateArmed},
		{"still start leaves armed", StateArmed, CauseStillStart, false, StateArmed},
		{"still start leaves idle", StateIdle, CauseStillStart, false, StateIdle},
		{"dqbuf arms without still", StateArmed, CauseVideoDQBuf, false, StateTransferring},
		{"dqbuf waits for still", StateArmed, CauseVideoDQBuf, true, StateArmed},
		{"dqbuf ignores idle", StateIdle, CauseVideoDQBuf, false, StateIdle},
		{"unknown cause keeps state", StateArmed, Cause(99), false, StateArmed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NextState(tt.cur, tt.cause, tt.stillActive); got != tt.want {
				t.Errorf("NextState(%s, %s, %v) = %s, want %s", tt.cur, tt.cause, tt.stillActive, got, tt.want)
			}
		})
	}
}

func TestNextState_VideoNeverPreemptsStill(t *testing.T) {
	causes := []Cause{CauseVideoStart, CauseVideoDQBuf, CauseStillStart}
	for _, cur := range []State{StateIdle, StateArmed, StateTransferring} {
		for _, cause := range causes {
			got := NextState(cur, cause, true)
			if got == StateTransferring && cur != StateTransferring {
				t.Errorf("NextState(%s, %s, stillActive) entered transferring", cur, cause)
			}
		}
	}
}

func TestWaiter_CompletionWins(t *testing.T) {
	tests := []struct {
		name  string
		posts []WakeCause
		want  WakeCause
	}{
		{"cancel then completion", []WakeCause{WakeCancelled, WakeDone}, WakeDone},
		{"completion then cancel", []WakeCause{WakeDone, WakeCancelled}, WakeDone},
		{"completion then preempt", []WakeCause{WakeDone, WakePreempted}, WakeDone},
		{"preempt then cancel", []WakeCause{WakePreempted, WakeCancelled}, WakeCancelled},
		{"cancel then close", []WakeCause{WakeCancelled, WakeClosed}, WakeClosed},
		{"close then preempt", []WakeCause{WakeClosed, WakePreempted}, WakeClosed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := newWaiter()
			for _, c := range tt.posts {
				w.post(c)
			}
			if w.cause != tt.want {
				t.Errorf("cause = %s, want %s", w.cause, tt.want)
			}
			select {
			case <-w.ch:
			default:
				t.Error("waiter not released")
			}
		})
	}
}
