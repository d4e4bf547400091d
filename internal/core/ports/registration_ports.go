package ports

import (
	"context"

	"github.com/worldvote/api/internal/core/domain"
)

// RegistrationService creates and looks up vote records for verified
// identities. Register is idempotent: a second call for the same email
// returns the existing record.
type RegistrationService interface {
	Register(ctx context.Context, email string) (*domain.VoteRecord, error)
	Lookup(ctx context.Context, email string) (*domain.VoteRecord, error)
}
