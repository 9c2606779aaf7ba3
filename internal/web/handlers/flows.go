package handlers

import (
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/skinstric/onboarding/internal/capture"
	"github.com/skinstric/onboarding/internal/demographics"
	"github.com/skinstric/onboarding/internal/entry"
	"github.com/skinstric/onboarding/internal/validation"
)

// Flow is the in-memory flow state of one visitor: the mounted wizard, the
// mounted camera and the cached review. mu is never held across a remote call;
// concurrent review fetches are collapsed by fetch.
type Flow struct {
	mu          sync.Mutex
	entry       *entry.Machine
	camera      *capture.Machine
	generation  int
	review      *demographics.Review
	reviewEpoch int
	fetch       singleflight.Group
	lastSeen    time.Time
}

// Entry returns the mounted wizard, mounting one hydrated by load if none is.
func (f *Flow) Entry(load func() validation.FormData) *entry.Machine {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.entry == nil {
		f.entry = entry.NewMachine(load())
	}
	return f.entry
}

// RemountEntry replaces the wizard with a freshly hydrated one, unless a
// submission is in flight.
func (f *Flow) RemountEntry(load func() validation.FormData) *entry.Machine {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.entry != nil {
		if _, loading := f.entry.State().(entry.LoadingState); loading {
			return f.entry
		}
	}
	f.entry = entry.NewMachine(load())
	return f.entry
}

// MountCamera closes any previous camera and mounts a new one. It returns the
// machine and its generation.
func (f *Flow) MountCamera(delays capture.Delays) (*capture.Machine, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.camera != nil {
		f.camera.Close()
	}
	f.generation++
	f.camera = capture.NewMachine(delays)
	return f.camera, f.generation
}

// Camera returns the mounted camera, or nil.
func (f *Flow) Camera() *capture.Machine {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.camera
}

// CloseCamera unmounts the camera. A non-zero generation only closes that
// mount, so a late unload beacon cannot close a newer page.
func (f *Flow) CloseCamera(generation int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.camera == nil || (generation != 0 && generation != f.generation) {
		return
	}
	f.camera.Close()
	f.camera = nil
}

// DropReview forgets the cached review, e.g. after a new image was stored.
// A fetch already in flight will not install its result.
func (f *Flow) DropReview() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.review = nil
	f.reviewEpoch++
}

// cachedReview returns the cached review, or nil, with the current epoch.
func (f *Flow) cachedReview() (*demographics.Review, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.review, f.reviewEpoch
}

// installReview caches rev unless the review was dropped since epoch. It
// returns the review callers should use.
func (f *Flow) installReview(rev *demographics.Review, epoch int) *demographics.Review {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.reviewEpoch != epoch {
		return rev
	}
	if f.review == nil {
		f.review = rev
	}
	return f.review
}

// Flows tracks visitor flows and the background submissions they start.
type Flows struct {
	mu    sync.Mutex
	flows map[string]*Flow
	now   func() time.Time
	wg    sync.WaitGroup
}

// NewFlows creates an empty registry.
func NewFlows() *Flows {
	return &Flows{flows: make(map[string]*Flow), now: time.Now}
}

// Get returns the flow of a visitor, creating it on first use.
func (fs *Flows) Get(id string) *Flow {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	f, ok := fs.flows[id]
	if !ok {
		f = &Flow{}
		fs.flows[id] = f
	}
	f.lastSeen = fs.now()
	return f
}

// Len returns the number of tracked flows.
func (fs *Flows) Len() int {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return len(fs.flows)
}

// Sweep drops flows idle for longer than idle, releasing their cameras.
func (fs *Flows) Sweep(idle time.Duration) int {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	cutoff := fs.now().Add(-idle)
	removed := 0
	for id, f := range fs.flows {
		if f.lastSeen.After(cutoff) {
			continue
		}
		f.CloseCamera(0)
		delete(fs.flows, id)
		removed++
	}
	return removed
}

// Go runs fn in the background and tracks it for Wait.
func (fs *Flows) Go(fn func()) {
	fs.wg.Go(fn)
}

// Wait blocks until every background submission has finished.
func (fs *Flows) Wait() {
	fs.wg.Wait()
}
