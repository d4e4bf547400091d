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

type voteService struct {
	voteRepo ports.VoteRepository
	ranking  ports.RankingService
	queue    ports.JobQueue

	identityLocks *keyedMutex
	countryLocks  *keyedMutex
}

func NewVoteService(voteRepo ports.VoteRepository, ranking ports.RankingService, queue ports.JobQueue) ports.VoteService {
	return &voteService{
		voteRepo:      voteRepo,
		ranking:       ranking,
		queue:         queue,
		identityLocks: newKeyedMutex(),
		countryLocks:  newKeyedMutex(),
	}
}

// Submit runs the whole read-check-write sequence under the submitter's
// identity lock, and the index assignment through the cache update under
// the country lock. Lock order is always identity, then country, then the
// cache's own lock inside Apply.
func (s *voteService) Submit(ctx context.Context, input ports.SubmitInput) error {
	email := domain.NormalizeEmail(input.Email)

	unlockIdentity := s.identityLocks.Lock(email)
	defer unlockIdentity()

	record, err := s.voteRepo.Get(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to get vote record: %w", err)
	}
	if record == nil {
		metrics.VotesRejected.WithLabelValues("not_registered").Inc()
		return domain.ErrNotRegistered
	}

	if record.Finalized() {
		metrics.VotesRejected.WithLabelValues("conflict").Inc()
		return fmt.Errorf("identity has already voted: %w", domain.ErrConflict)
	}
	if input.ID != record.ID {
		metrics.VotesRejected.WithLabelValues("conflict").Inc()
		return fmt.Errorf("ballot id does not match the registered one: %w", domain.ErrConflict)
	}

	if !input.Answers.Terms.Given() || !input.Answers.Privacy.Given() {
		metrics.VotesRejected.WithLabelValues("not_acceptable").Inc()
		return fmt.Errorf("terms and privacy consent are required: %w", domain.ErrNotAcceptable)
	}
	nationality, err := domain.NormalizeCountry(input.Nationality)
	if err != nil {
		metrics.VotesRejected.WithLabelValues("not_acceptable").Inc()
		return err
	}

	unlockCountry := s.countryLocks.Lock(nationality)

	// The store write happens inside the country lock window: a failed Put
	// never advanced the count, so the next vote reuses the index and the
	// per-country sequence stays gapless.
	index := int(s.ranking.CountryCount(nationality)) + 1
	now := time.Now().UTC()
	answers := input.Answers

	final := &domain.VoteRecord{
		ID:          record.ID,
		Email:       record.Email,
		Nationality: nationality,
		Answers:     &answers,
		Created:     &now,
		Index:       index,
	}

	if err := s.voteRepo.Put(ctx, final); err != nil {
		unlockCountry()
		return fmt.Errorf("failed to store vote: %w", err)
	}

	s.ranking.Apply(final)
	unlockCountry()

	metrics.VotesAccepted.Inc()

	// The vote is committed; a failed enqueue loses the side effects but
	// must not surface to the voter.
	job := &domain.SideEffectJob{EnqueuedAt: time.Now().UTC(), Record: final}
	if err := s.queue.Enqueue(ctx, job); err != nil {
		metrics.EnqueueFailures.Inc()
		slog.Error("failed to enqueue side-effect job", "email", final.Email, "error", err)
	}

	return nil
}

func (s *voteService) ExportAll(ctx context.Context) ([]*domain.VoteRecord, error) {
	records, err := s.voteRepo.ScanAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to scan vote records: %w", err)
	}
	return records, nil
}
