package capture

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeDevices returns queued outcomes in order.
type fakeDevices struct {
	outcomes []error
	streams  []*RemoteStream
	calls    int
}

func (f *fakeDevices) GetUserMedia(ctx context.Context) (Stream, error) {
	i := f.calls
	f.calls++
	if i < len(f.outcomes) && f.outcomes[i] != nil {
		return nil, f.outcomes[i]
	}
	s := NewRemoteStream("video-1", "video-2")
	f.streams = append(f.streams, s)
	return s, nil
}

func noDelays() Delays {
	return Delays{}
}

func TestMachine_LiveCaptureProceed(t *testing.T) {
	ctx := context.Background()
	devices := &fakeDevices{}
	m := NewMachine(noDelays())

	if _, ok := m.State().(Preparing); !ok {
		t.Fatalf("initial State = %#v, want Preparing", m.State())
	}
	if err := m.Start(ctx, devices); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if _, ok := m.State().(Live); !ok {
		t.Fatalf("State = %#v, want Live", m.State())
	}

	if err := m.TakePicture("ZnJhbWU="); err != nil {
		t.Fatalf("TakePicture() error = %v", err)
	}
	if m.State() != (Captured{HasFrame: true}) {
		t.Fatalf("State = %#v, want Captured with frame", m.State())
	}
	if m.Frame() != "ZnJhbWU=" {
		t.Errorf("Frame() = %q", m.Frame())
	}

	nav, err := m.Proceed(ctx)
	if err != nil || nav != NavigateNext {
		t.Fatalf("Proceed() = %v, %v", nav, err)
	}
	if _, ok := m.State().(Analyzing); !ok {
		t.Errorf("State = %#v, want Analyzing", m.State())
	}
	if devices.streams[0].Live() {
		t.Error("tracks still live after leaving captured")
	}
	if m.Stream() != nil {
		t.Error("machine still holds the stream")
	}
}

func TestMachine_DeniedThenRetry(t *testing.T) {
	ctx := context.Background()
	devices := &fakeDevices{outcomes: []error{&DOMError{Name: "NotAllowedError"}}}
	m := NewMachine(noDelays())

	if err := m.Start(ctx, devices); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if m.State() != (Denied{Reason: ReasonPermission}) {
		t.Fatalf("State = %#v, want Denied(permission)", m.State())
	}

	if err := m.Retry(ctx, devices); err != nil {
		t.Fatalf("Retry() error = %v", err)
	}
	if _, ok := m.State().(Live); !ok {
		t.Errorf("State after retry = %#v, want Live", m.State())
	}
	if devices.calls != 2 {
		t.Errorf("GetUserMedia calls = %d, want 2", devices.calls)
	}
	m.Close()
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"not allowed", &DOMError{Name: "NotAllowedError"}, ReasonPermission},
		{"security", &DOMError{Name: "SecurityError"}, ReasonPermission},
		{"sentinel permission", ErrPermissionDenied, ReasonPermission},
		{"not found", &DOMError{Name: "NotFoundError"}, ReasonNotFound},
		{"overconstrained", &DOMError{Name: "OverconstrainedError"}, ReasonNotFound},
		{"wrapped not found", errors.Join(errors.New("open"), ErrDeviceNotFound), ReasonNotFound},
		{"readable", &DOMError{Name: "NotReadableError"}, ReasonOther},
		{"generic", errors.New("boom"), ReasonOther},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Errorf("Classify() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMachine_BackReleasesStream(t *testing.T) {
	ctx := context.Background()
	devices := &fakeDevices{}
	m := NewMachine(noDelays())
	m.Start(ctx, devices)

	if nav := m.Back(); nav != NavigatePrevious {
		t.Errorf("Back() = %v, want NavigatePrevious", nav)
	}
	if devices.streams[0].Live() {
		t.Error("tracks still live after Back")
	}
	if err := m.TakePicture(""); !errors.Is(err, ErrClosed) {
		t.Errorf("TakePicture() after Back = %v, want ErrClosed", err)
	}
}

func TestMachine_CloseAfterCapture(t *testing.T) {
	devices := &fakeDevices{}
	m := NewMachine(noDelays())
	m.Start(context.Background(), devices)
	m.TakePicture("")

	m.Close()
	for _, track := range devices.streams[0].Tracks() {
		if track.Live() {
			t.Errorf("track %s still live after Close", track.ID())
		}
	}
	if !m.Closed() {
		t.Error("Closed() = false")
	}
}

func TestMachine_InvalidTransitions(t *testing.T) {
	ctx := context.Background()
	m := NewMachine(noDelays())

	if err := m.TakePicture(""); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("TakePicture() while preparing = %v", err)
	}
	if _, err := m.Proceed(ctx); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Proceed() while preparing = %v", err)
	}
	if err := m.Retry(ctx, &fakeDevices{}); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Retry() while preparing = %v", err)
	}

	m.Start(ctx, &fakeDevices{})
	if err := m.Start(ctx, &fakeDevices{}); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Start() while live = %v", err)
	}
	m.Close()
}

func TestMachine_PrepareDelayHonorsContext(t *testing.T) {
	m := NewMachine(Delays{Prepare: time.Hour})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	devices := &fakeDevices{}
	err := m.Start(ctx, devices)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Start() error = %v, want DeadlineExceeded", err)
	}
	if _, ok := m.State().(Preparing); !ok {
		t.Errorf("State = %#v, want Preparing", m.State())
	}
	if devices.calls != 0 {
		t.Error("camera requested before the prepare delay elapsed")
	}
}

func TestMachine_CloseDuringAcquire(t *testing.T) {
	devices := &blockingDevices{release: make(chan struct{}), started: make(chan struct{})}
	m := NewMachine(noDelays())

	done := make(chan error, 1)
	go func() { done <- m.Start(context.Background(), devices) }()

	<-devices.started
	m.Close()
	close(devices.release)

	if err := <-done; !errors.Is(err, ErrClosed) {
		t.Errorf("Start() = %v, want ErrClosed", err)
	}
	if devices.stream.Live() {
		t.Error("late stream was not stopped")
	}
}

type blockingDevices struct {
	started chan struct{}
	release chan struct{}
	stream  *RemoteStream
}

func (b *blockingDevices) GetUserMedia(ctx context.Context) (Stream, error) {
	close(b.started)
	<-b.release
	b.stream = NewRemoteStream("video-1")
	return b.stream, nil
}

func TestReport_GetUserMedia(t *testing.T) {
	ctx := context.Background()

	s, err := Report{Tracks: []string{"a"}}.GetUserMedia(ctx)
	if err != nil || len(s.Tracks()) != 1 || s.Tracks()[0].ID() != "a" {
		t.Errorf("GetUserMedia() = %v, %v", s, err)
	}

	_, err = Report{Error: "NotAllowedError"}.GetUserMedia(ctx)
	if !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("error = %v, want ErrPermissionDenied", err)
	}

	_, err = Report{}.GetUserMedia(ctx)
	if !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("error = %v, want ErrDeviceNotFound", err)
	}
}
