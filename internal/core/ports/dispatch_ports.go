package ports

import (
	"context"

	"github.com/worldvote/api/internal/core/domain"
)

// JobQueue is the durable handoff between vote acceptance and side-effect
// execution. Dequeue blocks up to an adapter-chosen timeout and returns
// (nil, nil) when no job arrived; a dequeued job is owned by the caller.
type JobQueue interface {
	Enqueue(ctx context.Context, job *domain.SideEffectJob) error
	Dequeue(ctx context.Context) (*domain.SideEffectJob, error)
}

type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

type BackupClient interface {
	Backup(ctx context.Context, record *domain.VoteRecord) error
}

type DispatchService interface {
	Run(ctx context.Context) error
	Dispatch(ctx context.Context, job *domain.SideEffectJob)
}
