// Package redis backs the side-effect job queue with a Redis list, so jobs
// survive server restarts until a dispatcher claims them.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/worldvote/api/internal/core/domain"
	"github.com/worldvote/api/internal/core/ports"
)

// jobsKey is the list holding pending jobs. LPUSH on enqueue, BRPOP on
// claim: oldest jobs dispatch first, and claiming removes the job, so each
// enqueue gets at most one dispatch attempt.
const jobsKey = "worldvote:jobs"

const dequeueTimeout = 2 * time.Second

type JobQueue struct {
	client *redis.Client
}

var _ ports.JobQueue = (*JobQueue)(nil)

func NewJobQueue(client *redis.Client) *JobQueue {
	return &JobQueue{client: client}
}

func (q *JobQueue) Enqueue(ctx context.Context, job *domain.SideEffectJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to encode side-effect job: %w", err)
	}
	if err := q.client.LPush(ctx, jobsKey, payload).Err(); err != nil {
		return fmt.Errorf("failed to push side-effect job: %w", err)
	}
	return nil
}

// Dequeue claims the oldest pending job, blocking up to dequeueTimeout,
// and returns (nil, nil) when no job arrived in time.
func (q *JobQueue) Dequeue(ctx context.Context) (*domain.SideEffectJob, error) {
	res, err := q.client.BRPop(ctx, dequeueTimeout, jobsKey).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to pop side-effect job: %w", err)
	}
	// BRPOP replies with [key, value].
	if len(res) != 2 {
		return nil, fmt.Errorf("unexpected BRPOP reply of length %d", len(res))
	}

	job := &domain.SideEffectJob{}
	if err := json.Unmarshal([]byte(res[1]), job); err != nil {
		return nil, fmt.Errorf("failed to decode side-effect job: %w", err)
	}
	return job, nil
}
