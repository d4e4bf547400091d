package ports

import (
	"context"

	"github.com/worldvote/api/internal/core/domain"
)

// RankingService is the in-memory aggregate cache over finalized votes.
// Apply must be called exactly once per finalized record, under the same
// country lock that assigned the record's index.
type RankingService interface {
	Rebuild(ctx context.Context) error
	Apply(record *domain.VoteRecord)
	FindCountry(code string) (*domain.CountryRanking, error)
	CountryCount(code string) int64
	Stats() *domain.GlobalStats
}
