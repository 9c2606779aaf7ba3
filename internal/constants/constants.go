// Package constants provides shared constants used across the codebase.
package constants

import "time"

// Image constants
const (
	// JPEGQuality is used for every re-encoded capture or upload
	JPEGQuality = 85
)

// Remote API constants
const (
	// MaxErrorBodyBytes bounds how much of a failed response is kept for messages
	MaxErrorBodyBytes = 512
)

// Web constants
const (
	// MaxBridgeBodyBytes bounds the camera acquire/retry reports sent by the page
	MaxBridgeBodyBytes = 64 << 10

	// RequestTimeout bounds a single request, analysis calls included
	RequestTimeout = 2 * time.Minute

	// ShutdownTimeout is how long serve waits for in-flight requests and submissions
	ShutdownTimeout = 30 * time.Second

	// LoadingRefreshSeconds is how often the wizard's loading page reloads itself
	LoadingRefreshSeconds = 1
)
