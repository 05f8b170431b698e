package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestQueueEnqueueDequeue(t *testing.T) {
	t.Parallel()

	q := NewQueue[string](2)
	require.NoError(t, q.Enqueue(context.Background(), "a"))
	require.NoError(t, q.Enqueue(context.Background(), "b"))
	require.Equal(t, 2, q.Len())

	got, err := q.Dequeue(context.Background())
	require.NoError(t, err)
	require.Equal(t, "a", got)
}

func TestQueueDequeueRespectsContext(t *testing.T) {
	t.Parallel()

	q := NewQueue[int](1)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := q.Dequeue(ctx)
	require.Error(t, err)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestQueueEnqueueBlocksWhenFull(t *testing.T) {
	t.Parallel()

	q := NewQueue[int](1)
	require.NoError(t, q.Enqueue(context.Background(), 1))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := q.Enqueue(ctx, 2)
	require.Error(t, err)
}

func TestQueueCloseIsIdempotent(t *testing.T) {
	t.Parallel()

	q := NewQueue[int](1)
	q.Close()
	q.Close()

	_, err := q.Dequeue(context.Background())
	require.EqualError(t, err, "queue closed")
}
