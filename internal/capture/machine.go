package capture

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

var (
	// ErrInvalidTransition is returned when an event does not apply to the current state.
	ErrInvalidTransition = errors.New("invalid transition")
	// ErrClosed is returned once the machine has been left via Back or Close.
	ErrClosed = errors.New("capture closed")
)

// State is one of Preparing, Live, Captured, Analyzing or Denied.
type State interface {
	Name() string
}

type Preparing struct{}
type Live struct{}
type Captured struct {
	HasFrame bool
}
type Analyzing struct{}
type Denied struct {
	Reason string
}

func (Preparing) Name() string { return "preparing" }
func (Live) Name() string      { return "live" }
func (Captured) Name() string  { return "captured" }
func (Analyzing) Name() string { return "analyzing" }
func (Denied) Name() string    { return "denied" }

// Navigation tells the caller to leave the capture page.
type Navigation int

const (
	Stay Navigation = iota
	NavigatePrevious
	NavigateNext
)

// Delays holds the fixed pauses of the flow.
type Delays struct {
	Prepare   time.Duration // before requesting the camera
	Analyzing time.Duration // after proceeding, before navigating on
}

// Machine owns the camera stream for one capture page. The stream is
// stopped on every exit path: Back, Close, Retry and Proceed.
type Machine struct {
	mu        sync.Mutex
	state     State
	stream    Stream
	frame     string
	acquiring bool
	closed    bool
	delays    Delays
}

// NewMachine returns a machine in the preparing state.
func NewMachine(delays Delays) *Machine {
	return &Machine{state: Preparing{}, delays: delays}
}

// State returns the current state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Stream returns the held stream, nil when none is held.
func (m *Machine) Stream() Stream {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stream
}

// Frame returns the captured frame payload, if one was supplied.
func (m *Machine) Frame() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.frame
}

// Start waits the prepare delay then requests the camera. Success moves to
// Live; failure is classified and moves to Denied. Only valid while preparing.
func (m *Machine) Start(ctx context.Context, devices MediaDevices) error {
	m.mu.Lock()
	if err := m.checkOpen(); err != nil {
		m.mu.Unlock()
		return err
	}
	if _, ok := m.state.(Preparing); !ok || m.acquiring {
		state := m.state.Name()
		m.mu.Unlock()
		return fmt.Errorf("%w: start while %s", ErrInvalidTransition, state)
	}
	m.acquiring = true
	m.mu.Unlock()

	stream, err := m.acquire(ctx, devices)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.acquiring = false

	if ctx.Err() != nil && err != nil && errors.Is(err, ctx.Err()) {
		// Abandoned before an answer; stay in preparing so Start can run again.
		return err
	}
	if m.closed {
		StopAll(stream)
		return ErrClosed
	}
	if err != nil {
		m.state = Denied{Reason: Classify(err)}
		return nil
	}
	m.stream = stream
	m.state = Live{}
	return nil
}

func (m *Machine) acquire(ctx context.Context, devices MediaDevices) (Stream, error) {
	if err := sleep(ctx, m.delays.Prepare); err != nil {
		return nil, err
	}
	return devices.GetUserMedia(ctx)
}

// Retry re-enters preparing from Denied and requests the camera again.
func (m *Machine) Retry(ctx context.Context, devices MediaDevices) error {
	m.mu.Lock()
	if err := m.checkOpen(); err != nil {
		m.mu.Unlock()
		return err
	}
	if _, ok := m.state.(Denied); !ok {
		state := m.state.Name()
		m.mu.Unlock()
		return fmt.Errorf("%w: retry while %s", ErrInvalidTransition, state)
	}
	m.release()
	m.state = Preparing{}
	m.mu.Unlock()

	return m.Start(ctx, devices)
}

// TakePicture moves from Live to Captured. frame may be empty.
func (m *Machine) TakePicture(frame string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.checkOpen(); err != nil {
		return err
	}
	if _, ok := m.state.(Live); !ok {
		return fmt.Errorf("%w: take picture while %s", ErrInvalidTransition, m.state.Name())
	}
	m.frame = frame
	m.state = Captured{HasFrame: frame != ""}
	return nil
}

// Proceed releases the stream, moves to Analyzing and, after the analyzing
// delay, tells the caller to navigate onward.
func (m *Machine) Proceed(ctx context.Context) (Navigation, error) {
	m.mu.Lock()
	if err := m.checkOpen(); err != nil {
		m.mu.Unlock()
		return Stay, err
	}
	if _, ok := m.state.(Captured); !ok {
		state := m.state.Name()
		m.mu.Unlock()
		return Stay, fmt.Errorf("%w: proceed while %s", ErrInvalidTransition, state)
	}
	m.release()
	m.state = Analyzing{}
	m.mu.Unlock()

	if err := sleep(ctx, m.delays.Analyzing); err != nil {
		return Stay, err
	}
	return NavigateNext, nil
}

// Back releases any stream and tells the caller to navigate to the previous page.
func (m *Machine) Back() Navigation {
	m.Close()
	return NavigatePrevious
}

// Close releases any stream. It is called when the page is left or replaced.
func (m *Machine) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.release()
	m.closed = true
}

// Closed reports whether the machine was left via Back or Close.
func (m *Machine) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// release stops all tracks and drops the stream. Callers hold m.mu.
func (m *Machine) release() {
	StopAll(m.stream)
	m.stream = nil
}

func (m *Machine) checkOpen() error {
	if m.closed {
		return ErrClosed
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
