package services

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/worldvote/api/internal/core/domain"
	"github.com/worldvote/api/internal/core/ports"
)

// rankingService keeps the per-country aggregates in memory. Lookups go
// through a map; the ordered country list and the global snapshot are
// recomputed on every mutation, so reads never pay for sorting.
type rankingService struct {
	voteRepo ports.VoteRepository

	mu        sync.RWMutex
	countries map[string]*domain.CountryRanking
	seen      []string // country codes in first-seen order, the sort tie-break
	total     int64
	stats     *domain.GlobalStats
}

func NewRankingService(voteRepo ports.VoteRepository) ports.RankingService {
	return &rankingService{
		voteRepo:  voteRepo,
		countries: make(map[string]*domain.CountryRanking),
		stats:     &domain.GlobalStats{Countries: []domain.CountryRanking{}},
	}
}

// Rebuild folds every finalized record from the store through the same
// apply path used for live votes, replaying in finalization order.
func (s *rankingService) Rebuild(ctx context.Context) error {
	records, err := s.voteRepo.ScanAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to scan vote records: %w", err)
	}

	finalized := make([]*domain.VoteRecord, 0, len(records))
	for _, r := range records {
		if r.Finalized() {
			finalized = append(finalized, r)
		}
	}
	sort.Slice(finalized, func(i, j int) bool {
		if finalized[i].Created.Equal(*finalized[j].Created) {
			return finalized[i].Index < finalized[j].Index
		}
		return finalized[i].Created.Before(*finalized[j].Created)
	})

	s.mu.Lock()
	defer s.mu.Unlock()

	s.countries = make(map[string]*domain.CountryRanking)
	s.seen = nil
	s.total = 0
	for _, r := range finalized {
		s.applyLocked(r)
	}
	s.rebuildStatsLocked()

	return nil
}

func (s *rankingService) Apply(record *domain.VoteRecord) {
	if !record.Finalized() {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.applyLocked(record)
	s.rebuildStatsLocked()
}

func (s *rankingService) FindCountry(code string) (*domain.CountryRanking, error) {
	normalized, err := domain.NormalizeCountry(code)
	if err != nil {
		return nil, domain.ErrCountryNotFound
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.countries[normalized]; !ok {
		return nil, domain.ErrCountryNotFound
	}
	c := s.snapshotLocked(normalized)
	return &c, nil
}

func (s *rankingService) CountryCount(code string) int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if agg, ok := s.countries[code]; ok {
		return agg.TotalCount
	}
	return 0
}

// Stats returns the snapshot precomputed by the last mutation. Callers
// must treat it as read-only; it is never mutated in place.
func (s *rankingService) Stats() *domain.GlobalStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats
}

func (s *rankingService) applyLocked(record *domain.VoteRecord) {
	code := record.Nationality
	agg, ok := s.countries[code]
	if !ok {
		agg = &domain.CountryRanking{Code: code}
		s.countries[code] = agg
		s.seen = append(s.seen, code)
	}

	agg.TotalCount++
	agg.RecentVotes = append([]domain.PublicVote{record.PublicProjection()}, agg.RecentVotes...)
	if len(agg.RecentVotes) > domain.RecentVotesCap {
		agg.RecentVotes = agg.RecentVotes[:domain.RecentVotesCap]
	}
	s.total++
}

// rebuildStatsLocked sorts countries by total descending; sorting the
// first-seen order with a stable sort keeps earlier-seen countries ahead
// on equal totals.
func (s *rankingService) rebuildStatsLocked() {
	codes := make([]string, len(s.seen))
	copy(codes, s.seen)
	sort.SliceStable(codes, func(i, j int) bool {
		return s.countries[codes[i]].TotalCount > s.countries[codes[j]].TotalCount
	})

	out := make([]domain.CountryRanking, 0, len(codes))
	for _, code := range codes {
		out = append(out, s.snapshotLocked(code))
	}
	s.stats = &domain.GlobalStats{TotalVotes: s.total, Countries: out}
}

func (s *rankingService) snapshotLocked(code string) domain.CountryRanking {
	agg := s.countries[code]
	recent := make([]domain.PublicVote, len(agg.RecentVotes))
	copy(recent, agg.RecentVotes)
	return domain.CountryRanking{Code: agg.Code, TotalCount: agg.TotalCount, RecentVotes: recent}
}
