package video

import "github.com/smazurov/videocore/pkg/v4l2"

// Observer receives device notifications. Methods are called after the
// device has released its locks, from whichever goroutine caused the change,
// and must not block.
type Observer interface {
	StateChanged(stream v4l2.BufType, from, to State)
	BufferDone(stream v4l2.BufType, buf v4l2.Buffer)
	TransferFailed(stream v4l2.BufType, err error)
}

// MultiObserver fans notifications out to several observers.
type MultiObserver []Observer

func (m MultiObserver) StateChanged(stream v4l2.BufType, from, to State) {
	for _, o := range m {
		o.StateChanged(stream, from, to)
	}
}

func (m MultiObserver) BufferDone(stream v4l2.BufType, buf v4l2.Buffer) {
	for _, o := range m {
		o.BufferDone(stream, buf)
	}
}

func (m MultiObserver) TransferFailed(stream v4l2.BufType, err error) {
	for _, o := range m {
		o.TransferFailed(stream, err)
	}
}

type nopObserver struct{}

func (nopObserver) StateChanged(v4l2.BufType, State, State) {}
func (nopObserver) BufferDone(v4l2.BufType, v4l2.Buffer) {}
func (nopObserver) TransferFailed(v4l2.BufType, error) {}
