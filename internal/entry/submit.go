package entry

import (
	"context"
	"time"

	"github.com/skinstric/onboarding/internal/skinstric"
	"github.com/skinstric/onboarding/internal/validation"
)

// Submitter sends the phase one form.
type Submitter interface {
	SubmitPhaseOne(ctx context.Context, data validation.FormData) skinstric.Result
}

// Persister stores the normalized form after a successful submission.
type Persister interface {
	SavePhaseOne(ctx context.Context, data validation.FormData)
}

// Submit sends sub, waits the feedback delay and completes the machine.
// The delay is shortened when ctx is done, but the machine always leaves
// LoadingState. persister may be nil.
func Submit(ctx context.Context, m *Machine, sub *Submission, submitter Submitter, persister Persister, delay time.Duration) skinstric.Result {
	result := submitter.SubmitPhaseOne(ctx, sub.Form)

	if delay > 0 {
		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
		}
	}

	if result.Success && persister != nil {
		persister.SavePhaseOne(ctx, sub.Form)
	}
	// Complete can only fail if the machine already left LoadingState,
	// which nothing else is allowed to do.
	_ = m.Complete(result)
	return result
}
