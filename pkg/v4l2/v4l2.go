// Package v4l2 provides the V4L2-style value types shared by the capture core,
// the capability negotiator and the hardware collaborators.
//
// The types mirror the shape of the Linux videodev2 structures without their
// memory layout: there is no ioctl plumbing here, only plain Go values that can
// be passed between goroutines and serialized by the API layer.
//
// # Buffer Types
//
// Two capture streams share one transfer engine:
//
//	v4l2.BufTypeVideoCapture // continuous video
//	v4l2.BufTypeStillCapture // on-demand still pictures
//
// # Pixel Formats
//
// Pixel formats are FourCC codes:
//
//	v4l2.PixFmtJPEG.String() // "JPEG"
//	v4l2.FourCC('Y', 'U', 'Y', 'V') == v4l2.PixFmtYUYV
//
// # Frame Sizes
//
// A FrameSize is either discrete (one width/height) or stepwise
// (min/max/step per axis). Formats carrying a thumbnail describe it in the
// Sub fields.
package v4l2
