package memory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/worldvote/api/internal/core/domain"
)

func TestRepositoryCloneSemantics(t *testing.T) {
	repo := NewVoteRepository()
	ctx := context.Background()

	record := &domain.VoteRecord{ID: uuid.New(), Email: "ada@example.com"}
	ok, err := repo.Create(ctx, record)
	require.NoError(t, err)
	require.True(t, ok)

	// Mutating the original must not touch the stored copy.
	record.Nationality = "XX"
	stored, err := repo.Get(ctx, "ada@example.com")
	require.NoError(t, err)
	require.Empty(t, stored.Nationality)

	// Neither must mutating what Get handed out.
	stored.Nationality = "YY"
	again, err := repo.Get(ctx, "ada@example.com")
	require.NoError(t, err)
	require.Empty(t, again.Nationality)
}

func TestCreateIsPutIfAbsent(t *testing.T) {
	repo := NewVoteRepository()
	ctx := context.Background()

	first := &domain.VoteRecord{ID: uuid.New(), Email: "ada@example.com"}
	ok, err := repo.Create(ctx, first)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = repo.Create(ctx, &domain.VoteRecord{ID: uuid.New(), Email: "ada@example.com"})
	require.NoError(t, err)
	require.False(t, ok)

	stored, err := repo.Get(ctx, "ada@example.com")
	require.NoError(t, err)
	require.Equal(t, first.ID, stored.ID)
}

func TestGetAbsentReturnsNil(t *testing.T) {
	repo := NewVoteRepository()

	record, err := repo.Get(context.Background(), "ghost@example.com")
	require.NoError(t, err)
	require.Nil(t, record)
}

func TestScanAll(t *testing.T) {
	repo := NewVoteRepository()
	ctx := context.Background()

	require.NoError(t, repo.Put(ctx, &domain.VoteRecord{ID: uuid.New(), Email: "a@example.com"}))
	require.NoError(t, repo.Put(ctx, &domain.VoteRecord{ID: uuid.New(), Email: "b@example.com"}))

	records, err := repo.ScanAll(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
}
