package render

import "context"

// JobStore persists render jobs. Transitions are committed durably before
// the drive routine takes its next step, so a crash leaves the job in the
// last persisted state rather than silently lost.
type JobStore interface {
	Create(ctx context.Context, j *Job) error
	// Get returns the current persisted snapshot, or NotFound.
	Get(ctx context.Context, id string) (*Job, error)
	List(ctx context.Context, limit, offset int) ([]Job, error)
	// SetStatus records a transition with its message and refreshes
	// updated_at. It rejects illegal transitions.
	SetStatus(ctx context.Context, id string, status Status, message string) error
	// SetDone records the terminal done transition together with the
	// output key, atomically.
	SetDone(ctx context.Context, id string, outputKey, message string) error
}
