package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/worldvote/api/internal/core/domain"
	"github.com/worldvote/api/internal/core/ports"
	"github.com/worldvote/api/internal/metrics"
)

type dispatchService struct {
	queue  ports.JobQueue
	mailer ports.Mailer
	backup ports.BackupClient // nil when no backup target is configured
}

func NewDispatchService(queue ports.JobQueue, mailer ports.Mailer, backup ports.BackupClient) ports.DispatchService {
	return &dispatchService{
		queue:  queue,
		mailer: mailer,
		backup: backup,
	}
}

// Run consumes jobs until ctx is done. Dequeue owns its own blocking
// timeout, so the loop notices cancellation between claims.
func (s *dispatchService) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		job, err := s.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			slog.Error("failed to dequeue side-effect job", "error", err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Second):
			}
			continue
		}
		if job == nil {
			continue
		}

		s.Dispatch(ctx, job)
	}
}

// Dispatch runs both effects of a claimed job to completion. Each failure
// is logged and counted; neither blocks nor cancels the other, and nothing
// is retried.
func (s *dispatchService) Dispatch(ctx context.Context, job *domain.SideEffectJob) {
	record := job.Record
	if record == nil {
		slog.Error("discarding side-effect job without a record")
		return
	}

	subject, body := ConfirmationMail(record)
	if err := s.mailer.Send(ctx, record.Email, subject, body); err != nil {
		metrics.JobEffects.WithLabelValues("email", "failure").Inc()
		slog.Error("failed to send confirmation mail", "email", record.Email, "error", err)
	} else {
		metrics.JobEffects.WithLabelValues("email", "success").Inc()
	}

	if s.backup == nil {
		return
	}
	if err := s.backup.Backup(ctx, record); err != nil {
		metrics.JobEffects.WithLabelValues("backup", "failure").Inc()
		slog.Error("failed to back up vote record", "email", record.Email, "error", err)
	} else {
		metrics.JobEffects.WithLabelValues("backup", "success").Inc()
	}
}

// ConfirmationMail picks the mail content for a record. Finalized records
// get the vote confirmation; anything else gets a registration receipt.
func ConfirmationMail(record *domain.VoteRecord) (subject, body string) {
	if !record.Finalized() {
		subject = "Your registration was received"
		body = fmt.Sprintf("<p>Hi,</p><p>Your registration for %s was received. Your vote has not been cast yet.</p>", record.Email)
		return subject, body
	}

	public := record.PublicProjection()
	subject = "Your vote was counted"
	body = fmt.Sprintf(
		"<p>Hi %s,</p><p>Your vote was counted. You are vote number %d for %s.</p>",
		public.Alias, public.Index, public.Nationality,
	)
	return subject, body
}
