package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/worldvote/api/internal/core/domain"
)

// VoteRepository is the durable store: one record per identity email.
// Get returns (nil, nil) when the key is absent.
type VoteRepository interface {
	Get(ctx context.Context, email string) (*domain.VoteRecord, error)
	Put(ctx context.Context, record *domain.VoteRecord) error
	Create(ctx context.Context, record *domain.VoteRecord) (bool, error)
	ScanAll(ctx context.Context) ([]*domain.VoteRecord, error)
}

type SubmitInput struct {
	Email       string
	ID          uuid.UUID
	Nationality string
	Answers     domain.Answers
}

type VoteService interface {
	Submit(ctx context.Context, input SubmitInput) error
	ExportAll(ctx context.Context) ([]*domain.VoteRecord, error)
}
