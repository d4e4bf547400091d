package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/worldvote/api/internal/core/domain"
	"github.com/worldvote/api/internal/core/ports"
)

type registrationService struct {
	voteRepo ports.VoteRepository
	locks    *keyedMutex
}

func NewRegistrationService(voteRepo ports.VoteRepository) ports.RegistrationService {
	return &registrationService{
		voteRepo: voteRepo,
		locks:    newKeyedMutex(),
	}
}

func (s *registrationService) Register(ctx context.Context, email string) (*domain.VoteRecord, error) {
	email = domain.NormalizeEmail(email)
	if email == "" {
		return nil, fmt.Errorf("empty email: %w", domain.ErrNotAcceptable)
	}

	unlock := s.locks.Lock(email)
	defer unlock()

	record, err := s.voteRepo.Get(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to get vote record: %w", err)
	}
	if record != nil {
		return record, nil
	}

	record = &domain.VoteRecord{ID: uuid.New(), Email: email}
	created, err := s.voteRepo.Create(ctx, record)
	if err != nil {
		return nil, fmt.Errorf("failed to create vote record: %w", err)
	}
	if !created {
		// Another instance won the insert; read theirs back.
		record, err = s.voteRepo.Get(ctx, email)
		if err != nil {
			return nil, fmt.Errorf("failed to get vote record: %w", err)
		}
		if record == nil {
			return nil, domain.ErrInternal
		}
	}

	return record, nil
}

func (s *registrationService) Lookup(ctx context.Context, email string) (*domain.VoteRecord, error) {
	record, err := s.voteRepo.Get(ctx, domain.NormalizeEmail(email))
	if err != nil {
		return nil, fmt.Errorf("failed to get vote record: %w", err)
	}
	if record == nil {
		return nil, domain.ErrNotRegistered
	}
	return record, nil
}
