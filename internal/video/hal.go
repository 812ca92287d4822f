package video

import (
	"github.com/smazurov/videocore/internal/capability"
	"github.com/smazurov/videocore/pkg/v4l2"
)

// TransferDone is called by the transfer engine when the buffer it is
// filling is complete. failed reports a transfer error; bytesUsed is the
// amount of data written.
type TransferDone func(failed bool, bytesUsed uint32)

// TransferEngine is the image data collaborator that moves captured frames
// into buffers.
//
// StartTransfer, SetNextBuffer and CancelTransfer must not block and must
// never invoke a TransferDone callback synchronously. After SetNextBuffer the
// engine keeps calling the done callback passed to the StartTransfer that
// opened the session.
type TransferEngine interface {
	capability.TransferSource

	Open() error
	Close() error
	StartTransfer(f v4l2.Format, mem []byte, done TransferDone) error
	SetNextBuffer(mem []byte) error
	CancelTransfer() error
}

// Sensor is the sensor control collaborator: capability ranges, format and
// frame interval setting, and control values. Methods may be called
// concurrently from different streams.
type Sensor interface {
	capability.SensorSource

	Open() error
	Close() error
	TryFormat(f v4l2.Format) error
	SetFormat(f v4l2.Format) error
	SetFrameInterval(t v4l2.BufType, interval v4l2.Fraction) error

	ControlRange(class, id uint32) (v4l2.ControlRange, error)
	ControlMenu(class, id, index uint32) (v4l2.MenuItem, error)
	GetControl(class uint32, c *v4l2.ExtControl) error
	SetControl(class uint32, c v4l2.ExtControl) error

	SceneControlRange(mode v4l2.SceneMode, class, id uint32) (v4l2.ControlRange, error)
	SceneControlMenu(mode v4l2.SceneMode, class, id, index uint32) (v4l2.MenuItem, error)
	GetSceneControl(mode v4l2.SceneMode, class uint32, c *v4l2.ExtControl) error
	SetSceneControl(mode v4l2.SceneMode, class uint32, c v4l2.ExtControl) error

	DoHalfPush(enable bool) error
}
