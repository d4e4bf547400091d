// Package memory holds the in-memory store used as the unit-test seam for
// the Postgres repository.
package memory

import (
	"context"
	"sync"

	"github.com/worldvote/api/internal/core/domain"
	"github.com/worldvote/api/internal/core/ports"
)

// VoteRepository keeps records in a map guarded by a RWMutex. Records are
// cloned on the way in and out so callers never share state with the store.
type VoteRepository struct {
	mu      sync.RWMutex
	records map[string]*domain.VoteRecord
}

var _ ports.VoteRepository = (*VoteRepository)(nil)

func NewVoteRepository() *VoteRepository {
	return &VoteRepository{records: make(map[string]*domain.VoteRecord)}
}

func (r *VoteRepository) Get(ctx context.Context, email string) (*domain.VoteRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.records[email].Clone(), nil
}

func (r *VoteRepository) Put(ctx context.Context, record *domain.VoteRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[record.Email] = record.Clone()
	return nil
}

func (r *VoteRepository) Create(ctx context.Context, record *domain.VoteRecord) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[record.Email]; ok {
		return false, nil
	}
	r.records[record.Email] = record.Clone()
	return true, nil
}

func (r *VoteRepository) ScanAll(ctx context.Context) ([]*domain.VoteRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domain.VoteRecord, 0, len(r.records))
	for _, rec := range r.records {
		out = append(out, rec.Clone())
	}
	return out, nil
}
