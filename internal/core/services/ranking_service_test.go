package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	repomemory "github.com/worldvote/api/internal/adapters/repository/memory"
	"github.com/worldvote/api/internal/core/domain"
)

func finalizedRecord(alias, code string, index int, created time.Time) *domain.VoteRecord {
	ts := created
	return &domain.VoteRecord{
		ID:          uuid.New(),
		Email:       fmt.Sprintf("%s-%s-%d@example.com", alias, code, index),
		Nationality: code,
		Answers: &domain.Answers{
			Terms:   domain.ConsentYes,
			Privacy: domain.ConsentYes,
			Alias:   alias,
		},
		Created: &ts,
		Index:   index,
	}
}

func TestApplyCapsRecentVotes(t *testing.T) {
	s := NewRankingService(repomemory.NewVoteRepository())
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i := 1; i <= 6; i++ {
		s.Apply(finalizedRecord(fmt.Sprintf("v%d", i), "FR", i, base.Add(time.Duration(i)*time.Minute)))
	}

	ranking, err := s.FindCountry("FR")
	require.NoError(t, err)
	require.Equal(t, int64(6), ranking.TotalCount)
	require.Len(t, ranking.RecentVotes, domain.RecentVotesCap)
	for i, pv := range ranking.RecentVotes {
		require.Equal(t, 6-i, pv.Index)
	}
}

func TestStatsOrderingWithTies(t *testing.T) {
	s := NewRankingService(repomemory.NewVoteRepository())
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	s.Apply(finalizedRecord("a", "BR", 1, base))
	s.Apply(finalizedRecord("b", "AR", 1, base.Add(time.Minute)))

	// Equal totals keep first-seen order.
	stats := s.Stats()
	require.Equal(t, int64(2), stats.TotalVotes)
	require.Equal(t, []string{"BR", "AR"}, []string{stats.Countries[0].Code, stats.Countries[1].Code})

	s.Apply(finalizedRecord("c", "AR", 2, base.Add(2*time.Minute)))
	stats = s.Stats()
	require.Equal(t, []string{"AR", "BR"}, []string{stats.Countries[0].Code, stats.Countries[1].Code})
	require.Equal(t, int64(2), stats.Countries[0].TotalCount)
}

func TestStatsSnapshotStable(t *testing.T) {
	s := NewRankingService(repomemory.NewVoteRepository())
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	s.Apply(finalizedRecord("a", "FR", 1, base))
	before := s.Stats()
	require.Equal(t, int64(1), before.TotalVotes)

	s.Apply(finalizedRecord("b", "FR", 2, base.Add(time.Minute)))

	// The previously returned snapshot must not change under later applies.
	require.Equal(t, int64(1), before.TotalVotes)
	require.Equal(t, int64(1), before.Countries[0].TotalCount)
	require.Equal(t, int64(2), s.Stats().TotalVotes)
}

func TestApplyIgnoresUnfinalized(t *testing.T) {
	s := NewRankingService(repomemory.NewVoteRepository())

	s.Apply(&domain.VoteRecord{ID: uuid.New(), Email: "pending@example.com"})

	require.Equal(t, int64(0), s.Stats().TotalVotes)
	_, err := s.FindCountry("FR")
	require.ErrorIs(t, err, domain.ErrCountryNotFound)
}

func TestFindCountryLookup(t *testing.T) {
	s := NewRankingService(repomemory.NewVoteRepository())
	s.Apply(finalizedRecord("a", "FR", 1, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)))

	ranking, err := s.FindCountry("fr")
	require.NoError(t, err)
	require.Equal(t, "FR", ranking.Code)

	_, err = s.FindCountry("JP")
	require.ErrorIs(t, err, domain.ErrCountryNotFound)

	_, err = s.FindCountry("France")
	require.ErrorIs(t, err, domain.ErrCountryNotFound)
}

func TestRebuildMatchesIncremental(t *testing.T) {
	repo := repomemory.NewVoteRepository()
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	records := []*domain.VoteRecord{
		finalizedRecord("a", "FR", 1, base),
		finalizedRecord("b", "BR", 1, base.Add(1*time.Minute)),
		finalizedRecord("c", "FR", 2, base.Add(2*time.Minute)),
		finalizedRecord("d", "JP", 1, base.Add(3*time.Minute)),
		finalizedRecord("e", "FR", 3, base.Add(4*time.Minute)),
		finalizedRecord("f", "BR", 2, base.Add(5*time.Minute)),
	}
	for _, r := range records {
		require.NoError(t, repo.Put(ctx, r))
	}
	// An unfinalized registration must not count.
	require.NoError(t, repo.Put(ctx, &domain.VoteRecord{ID: uuid.New(), Email: "pending@example.com"}))

	incremental := NewRankingService(repo)
	for _, r := range records {
		incremental.Apply(r)
	}

	rebuilt := NewRankingService(repo)
	require.NoError(t, rebuilt.Rebuild(ctx))

	require.Equal(t, incremental.Stats(), rebuilt.Stats())

	fr, err := rebuilt.FindCountry("FR")
	require.NoError(t, err)
	require.Equal(t, int64(3), fr.TotalCount)
	require.Equal(t, 3, fr.RecentVotes[0].Index)

	// Rebuilding again over the same store is idempotent.
	require.NoError(t, rebuilt.Rebuild(ctx))
	require.Equal(t, incremental.Stats(), rebuilt.Stats())
}
