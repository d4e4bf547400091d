// Package memory holds the in-memory queue used as the unit-test seam for
// the Redis job queue.
package memory

import (
	"context"
	"errors"
	"time"

	"github.com/worldvote/api/internal/core/domain"
	"github.com/worldvote/api/internal/core/ports"
)

// JobQueue buffers side-effect jobs in a channel. Dequeue blocks up to a
// short timeout like the Redis adapter, returning (nil, nil) when nothing
// arrived.
type JobQueue struct {
	jobs chan *domain.SideEffectJob
}

var _ ports.JobQueue = (*JobQueue)(nil)

func NewJobQueue() *JobQueue {
	return &JobQueue{jobs: make(chan *domain.SideEffectJob, 1024)}
}

func (q *JobQueue) Enqueue(ctx context.Context, job *domain.SideEffectJob) error {
	select {
	case q.jobs <- job:
		return nil
	default:
		return errors.New("job queue full")
	}
}

func (q *JobQueue) Dequeue(ctx context.Context) (*domain.SideEffectJob, error) {
	select {
	case job := <-q.jobs:
		return job, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(100 * time.Millisecond):
		return nil, nil
	}
}

// Len reports the number of buffered jobs.
func (q *JobQueue) Len() int { return len(q.jobs) }
