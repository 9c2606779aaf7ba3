// Package capture implements the camera capture flow:
// preparing → live → captured → analyzing, with denied reachable from preparing.
package capture

import (
	"context"
	"errors"
	"fmt"
)

// Track is one media track of an acquired stream.
type Track interface {
	ID() string
	Stop()
	Live() bool
}

// Stream is an exclusively owned camera stream.
type Stream interface {
	Tracks() []Track
}

// MediaDevices acquires camera streams.
type MediaDevices interface {
	GetUserMedia(ctx context.Context) (Stream, error)
}

// Acquisition errors.
var (
	ErrPermissionDenied = errors.New("camera permission denied")
	ErrDeviceNotFound   = errors.New("camera not found")
)

// DOMError is a browser media error reported by name (NotAllowedError, NotFoundError, ...).
type DOMError struct {
	Name    string
	Message string
}

func (e *DOMError) Error() string {
	if e.Message == "" {
		return e.Name
	}
	return fmt.Sprintf("%s: %s", e.Name, e.Message)
}

// Is maps browser error names onto the package sentinels.
func (e *DOMError) Is(target error) bool {
	switch target {
	case ErrPermissionDenied:
		return e.Name == "NotAllowedError" || e.Name == "PermissionDeniedError" || e.Name == "SecurityError"
	case ErrDeviceNotFound:
		return e.Name == "NotFoundError" || e.Name == "DevicesNotFoundError" || e.Name == "OverconstrainedError"
	}
	return false
}

// User-facing reasons for the denied state.
const (
	ReasonPermission = "Camera permission was denied. Allow camera access in your browser settings and try again."
	ReasonNotFound   = "No camera was found on this device."
	ReasonOther      = "Unable to access the camera. Please try again."
)

// Classify turns an acquisition error into a user-facing reason.
func Classify(err error) string {
	switch {
	case errors.Is(err, ErrPermissionDenied):
		return ReasonPermission
	case errors.Is(err, ErrDeviceNotFound):
		return ReasonNotFound
	}
	return ReasonOther
}

// StopAll stops every track of s. A nil stream is ignored.
func StopAll(s Stream) {
	if s == nil {
		return
	}
	for _, t := range s.Tracks() {
		t.Stop()
	}
}
