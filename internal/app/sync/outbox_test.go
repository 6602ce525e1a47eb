package sync

import (
	"errors"
	"testing"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func constantBackOff(d time.Duration) func() backoff.BackOff {
	return func() backoff.BackOff { return backoff.NewConstantBackOff(d) }
}

func TestOutboxCoalescesDuplicateListUpserts(t *testing.T) {
	t.Parallel()

	o := NewOutbox()
	listID := uuid.New()

	o.EnqueueListUpsert(listID, "order-1")
	o.EnqueueListUpsert(listID, "order-1")

	assert.Equal(t, 1, o.Len())
}

func TestOutboxOrderReplaceSupersedesListPushes(t *testing.T) {
	t.Parallel()

	o := NewOutbox()
	o.EnqueueListUpsert(uuid.New(), "order-1")
	o.EnqueueListUpsert(uuid.New(), "order-1")
	o.EnqueueListUpsert(uuid.New(), "order-2")

	o.EnqueueOrderReplace("order-1")

	require.Equal(t, 2, o.Len())

	due := o.Due()
	kinds := make(map[OpKind]int)
	for _, op := range due {
		kinds[op.Kind]++
	}
	assert.Equal(t, 1, kinds[OpOrderReplace])
	assert.Equal(t, 1, kinds[OpListUpsert])
}

func TestOutboxListUpsertSkippedWhenReplacePending(t *testing.T) {
	t.Parallel()

	o := NewOutbox()
	o.EnqueueOrderReplace("order-1")
	o.EnqueueListUpsert(uuid.New(), "order-1")

	assert.Equal(t, 1, o.Len(), "replace already carries every list of the order")
}

func TestOutboxMarkFailedSchedulesRetry(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	o := NewOutbox(
		WithClock(func() time.Time { return now }),
		WithBackOffFactory(constantBackOff(30*time.Second)),
	)

	o.EnqueueListUpsert(uuid.New(), "order-1")
	due := o.Due()
	require.Len(t, due, 1)

	dead := o.MarkFailed(due[0].ID, errors.New("remote unavailable"))
	assert.False(t, dead)
	assert.Empty(t, o.Due(), "operation must wait out its backoff")

	now = now.Add(31 * time.Second)
	retry := o.Due()
	require.Len(t, retry, 1)
	assert.Equal(t, 1, retry[0].Attempts)
	assert.Equal(t, "remote unavailable", retry[0].LastError)
}

func TestOutboxDeadLettersAfterMaxAttempts(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	o := NewOutbox(
		WithClock(func() time.Time { return now }),
		WithBackOffFactory(constantBackOff(time.Second)),
		WithMaxAttempts(2),
	)

	o.EnqueueOrderReplace("order-1")
	op := o.Due()[0]

	require.False(t, o.MarkFailed(op.ID, errors.New("boom")))
	now = now.Add(2 * time.Second)
	require.True(t, o.MarkFailed(op.ID, errors.New("boom again")))

	assert.Equal(t, 0, o.Len())
	dead := o.DeadLetters()
	require.Len(t, dead, 1)
	assert.Equal(t, "boom again", dead[0].LastError)

	requeued := o.RetryDead()
	assert.Equal(t, 1, requeued)
	assert.Equal(t, 1, o.Len())
	assert.Empty(t, o.DeadLetters())
	require.Len(t, o.Due(), 1)
	assert.Equal(t, 0, o.Due()[0].Attempts)
}

func TestOutboxMarkSucceededRemovesOperation(t *testing.T) {
	t.Parallel()

	o := NewOutbox()
	o.EnqueueOrderDelete("order-1")
	op := o.Due()[0]

	o.MarkSucceeded(op.ID)
	assert.Equal(t, 0, o.Len())
}
