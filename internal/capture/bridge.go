package capture

import (
	"context"
	"sync/atomic"
)

// Report is what the browser sends after calling getUserMedia: either the
// ids of the tracks it obtained or the DOMException name.
type Report struct {
	Tracks  []string `json:"tracks,omitempty"`
	Error   string   `json:"error,omitempty"`
	Message string   `json:"message,omitempty"`
}

// GetUserMedia replays the reported outcome, so a Report can stand in for
// the browser's device when driving a Machine on the server.
func (r Report) GetUserMedia(ctx context.Context) (Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r.Error != "" {
		return nil, &DOMError{Name: r.Error, Message: r.Message}
	}
	if len(r.Tracks) == 0 {
		return nil, &DOMError{Name: "NotFoundError", Message: "no video track"}
	}
	return NewRemoteStream(r.Tracks...), nil
}

// RemoteStream mirrors a stream held by the browser. Stopping a track here
// records the release; the page stops the real track when told to.
type RemoteStream struct {
	tracks []Track
}

// NewRemoteStream creates a stream with one live track per id.
func NewRemoteStream(ids ...string) *RemoteStream {
	s := &RemoteStream{}
	for _, id := range ids {
		s.tracks = append(s.tracks, &remoteTrack{id: id})
	}
	return s
}

func (s *RemoteStream) Tracks() []Track {
	return s.tracks
}

// Live reports whether any track is still running.
func (s *RemoteStream) Live() bool {
	for _, t := range s.tracks {
		if t.Live() {
			return true
		}
	}
	return false
}

type remoteTrack struct {
	id      string
	stopped atomic.Bool
}

func (t *remoteTrack) ID() string { return t.id }
func (t *remoteTrack) Stop()      { t.stopped.Store(true) }
func (t *remoteTrack) Live() bool { return !t.stopped.Load() }
