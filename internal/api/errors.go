package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smazurov/videocore/internal/video"
)

// mapDeviceError maps device errors to HTTP errors.
func mapDeviceError(err error) error {
	if err == nil {
		return nil
	}

	var devErr *video.Error
	if !errors.As(err, &devErr) {
		return huma.Error500InternalServerError("internal server error", err)
	}

	msg := devErr.Error()
	var ctrlErr *video.ControlError
	if errors.As(err, &ctrlErr) {
		msg = fmt.Sprintf("control %d failed: %s", ctrlErr.Index, devErr.Error())
	}

	switch devErr.Code {
	case video.ErrCodeInvalidArgument:
		return huma.Error400BadRequest(msg, err)
	case video.ErrCodeBusy, video.ErrCodePermissionDenied, video.ErrCodeCancelled:
		return huma.Error409Conflict(msg, err)
	case video.ErrCodeOutOfMemory, video.ErrCodeOutOfContainers:
		return huma.NewError(http.StatusInsufficientStorage, msg, err)
	case video.ErrCodeNotSupported:
		return huma.Error404NotFound(msg, err)
	case video.ErrCodeNotOpen, video.ErrCodeClosed:
		return huma.Error503ServiceUnavailable(msg, err)
	default:
		return huma.Error500InternalServerError(msg, err)
	}
}
