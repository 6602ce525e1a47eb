package logistics

import "time"

// TimeProvider is an interface that provides a Now method to get the current time.
type TimeProvider interface {
	Now() time.Time
}

// Real implementation for production.
type realTimeProvider struct{}

func (r *realTimeProvider) Now() time.Time { return time.Now() }

// Timeline tracks temporal aspects of a scan list. Completion time is clearable
// because undoing scans can walk a list back out of the completed state.
type Timeline struct {
	createdAt    time.Time
	updatedAt    time.Time
	completedAt  time.Time
	timeProvider TimeProvider
}

// NewTimeline creates a new Timeline instance.
func NewTimeline(timeProvider TimeProvider) *Timeline {
	now := timeProvider.Now()
	return &Timeline{
		createdAt:    now,
		updatedAt:    now,
		timeProvider: timeProvider,
	}
}

// ReconstructTimeline creates a Timeline from stored timestamps.
// This should only be used by repositories when loading from storage.
func ReconstructTimeline(createdAt, updatedAt, completedAt time.Time) *Timeline {
	return &Timeline{
		createdAt:    createdAt,
		updatedAt:    updatedAt,
		completedAt:  completedAt,
		timeProvider: new(realTimeProvider),
	}
}

// CreatedAt returns the time the scan list was generated.
func (t *Timeline) CreatedAt() time.Time { return t.createdAt }

// UpdatedAt returns the time the scan list was last modified.
func (t *Timeline) UpdatedAt() time.Time { return t.updatedAt }

// CompletedAt returns the time the scan list reached completion.
func (t *Timeline) CompletedAt() time.Time { return t.completedAt }

// IsCompleted checks if the timeline has been marked as completed.
func (t *Timeline) IsCompleted() bool { return !t.completedAt.IsZero() }

// MarkCompleted records completion time.
func (t *Timeline) MarkCompleted() {
	t.completedAt = t.timeProvider.Now()
	t.Touch()
}

// ClearCompleted resets completion time after an undo drops the list below its
// required total.
func (t *Timeline) ClearCompleted() {
	t.completedAt = time.Time{}
	t.Touch()
}

// Touch updates the last-modified timestamp.
func (t *Timeline) Touch() { t.updatedAt = t.timeProvider.Now() }

// Now exposes the timeline's clock so the aggregate stamps line-level times
// from the same source.
func (t *Timeline) Now() time.Time { return t.timeProvider.Now() }
