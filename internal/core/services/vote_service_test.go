package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/worldvote/api/internal/adapters/queue/memory"
	repomemory "github.com/worldvote/api/internal/adapters/repository/memory"
	"github.com/worldvote/api/internal/core/domain"
	"github.com/worldvote/api/internal/core/ports"
)

type failingQueue struct{ ports.JobQueue }

func (failingQueue) Enqueue(ctx context.Context, job *domain.SideEffectJob) error {
	return errors.New("queue down")
}

type flakyRepo struct {
	ports.VoteRepository
	failPuts atomic.Bool
}

func (r *flakyRepo) Put(ctx context.Context, record *domain.VoteRecord) error {
	if r.failPuts.Load() {
		return errors.New("store down")
	}
	return r.VoteRepository.Put(ctx, record)
}

type voteFixture struct {
	repo         ports.VoteRepository
	queue        *memory.JobQueue
	ranking      ports.RankingService
	registration ports.RegistrationService
	votes        ports.VoteService
}

func newVoteFixture(repo ports.VoteRepository, queue ports.JobQueue) *voteFixture {
	f := &voteFixture{repo: repo}
	if mq, ok := queue.(*memory.JobQueue); ok {
		f.queue = mq
	}
	f.ranking = NewRankingService(repo)
	f.registration = NewRegistrationService(repo)
	f.votes = NewVoteService(repo, f.ranking, queue)
	return f
}

func newDefaultFixture() *voteFixture {
	return newVoteFixture(repomemory.NewVoteRepository(), memory.NewJobQueue())
}

func (f *voteFixture) register(t *testing.T, email string) *domain.VoteRecord {
	t.Helper()
	record, err := f.registration.Register(context.Background(), email)
	require.NoError(t, err)
	return record
}

func acceptedAnswers() domain.Answers {
	return domain.Answers{
		Terms:   domain.ConsentYes,
		Privacy: domain.ConsentYes,
		Alias:   "ada",
	}
}

func TestSubmitLifecycle(t *testing.T) {
	f := newDefaultFixture()
	ctx := context.Background()

	record := f.register(t, "ada@example.com")
	require.False(t, record.Finalized())

	err := f.votes.Submit(ctx, ports.SubmitInput{
		Email:       "ada@example.com",
		ID:          record.ID,
		Nationality: "fr",
		Answers:     acceptedAnswers(),
	})
	require.NoError(t, err)

	stored, err := f.repo.Get(ctx, "ada@example.com")
	require.NoError(t, err)
	require.True(t, stored.Finalized())
	require.Equal(t, "FR", stored.Nationality)
	require.Equal(t, 1, stored.Index)
	require.Equal(t, record.ID, stored.ID)
	require.NotNil(t, stored.Answers)

	ranking, err := f.ranking.FindCountry("FR")
	require.NoError(t, err)
	require.Equal(t, int64(1), ranking.TotalCount)
	require.Len(t, ranking.RecentVotes, 1)
	require.Equal(t, "ada", ranking.RecentVotes[0].Alias)

	require.Equal(t, 1, f.queue.Len())
	job, err := f.queue.Dequeue(ctx)
	require.NoError(t, err)
	require.NotNil(t, job)
	require.Equal(t, "ada@example.com", job.Record.Email)
	require.True(t, job.Record.Finalized())
}

func TestSubmitRequiresRegistration(t *testing.T) {
	f := newDefaultFixture()

	err := f.votes.Submit(context.Background(), ports.SubmitInput{
		Email:       "ghost@example.com",
		ID:          uuid.New(),
		Nationality: "FR",
		Answers:     acceptedAnswers(),
	})
	require.ErrorIs(t, err, domain.ErrNotRegistered)
	require.Equal(t, 0, f.queue.Len())
}

func TestSubmitWrongBallotID(t *testing.T) {
	f := newDefaultFixture()
	ctx := context.Background()

	f.register(t, "ada@example.com")

	err := f.votes.Submit(ctx, ports.SubmitInput{
		Email:       "ada@example.com",
		ID:          uuid.New(),
		Nationality: "FR",
		Answers:     acceptedAnswers(),
	})
	require.ErrorIs(t, err, domain.ErrConflict)

	stored, err := f.repo.Get(ctx, "ada@example.com")
	require.NoError(t, err)
	require.False(t, stored.Finalized())
	require.Equal(t, 0, f.queue.Len())
}

func TestSubmitTwiceConflicts(t *testing.T) {
	f := newDefaultFixture()
	ctx := context.Background()

	record := f.register(t, "ada@example.com")
	input := ports.SubmitInput{
		Email:       "ada@example.com",
		ID:          record.ID,
		Nationality: "FR",
		Answers:     acceptedAnswers(),
	}

	require.NoError(t, f.votes.Submit(ctx, input))
	err := f.votes.Submit(ctx, input)
	require.ErrorIs(t, err, domain.ErrConflict)

	require.Equal(t, int64(1), f.ranking.CountryCount("FR"))
	require.Equal(t, 1, f.queue.Len())
}

func TestSubmitRejectsUnacceptableBallots(t *testing.T) {
	cases := []struct {
		name        string
		nationality string
		answers     domain.Answers
	}{
		{
			name:        "terms not given",
			nationality: "FR",
			answers:     domain.Answers{Terms: "no", Privacy: domain.ConsentYes},
		},
		{
			name:        "privacy missing",
			nationality: "FR",
			answers:     domain.Answers{Terms: domain.ConsentYes},
		},
		{
			name:        "nationality not a country code",
			nationality: "France",
			answers:     acceptedAnswers(),
		},
		{
			name:        "nationality empty",
			nationality: "",
			answers:     acceptedAnswers(),
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newDefaultFixture()
			ctx := context.Background()
			record := f.register(t, "ada@example.com")

			err := f.votes.Submit(ctx, ports.SubmitInput{
				Email:       "ada@example.com",
				ID:          record.ID,
				Nationality: tc.nationality,
				Answers:     tc.answers,
			})
			require.ErrorIs(t, err, domain.ErrNotAcceptable)

			stored, err := f.repo.Get(ctx, "ada@example.com")
			require.NoError(t, err)
			require.False(t, stored.Finalized())
			require.Equal(t, int64(0), f.ranking.Stats().TotalVotes)
			require.Equal(t, 0, f.queue.Len())
		})
	}
}

func TestSubmitConcurrentDuplicates(t *testing.T) {
	f := newDefaultFixture()
	ctx := context.Background()
	record := f.register(t, "ada@example.com")

	const attempts = 32
	var wg sync.WaitGroup
	var accepted, conflicted atomic.Int32

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := f.votes.Submit(ctx, ports.SubmitInput{
				Email:       "ada@example.com",
				ID:          record.ID,
				Nationality: "FR",
				Answers:     acceptedAnswers(),
			})
			switch {
			case err == nil:
				accepted.Add(1)
			case errors.Is(err, domain.ErrConflict):
				conflicted.Add(1)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, int32(1), accepted.Load())
	require.Equal(t, int32(attempts-1), conflicted.Load())

	stored, err := f.repo.Get(ctx, "ada@example.com")
	require.NoError(t, err)
	require.True(t, stored.Finalized())
	require.Equal(t, 1, stored.Index)
	require.Equal(t, 1, f.queue.Len())
}

func TestSubmitConcurrentIndexContiguity(t *testing.T) {
	f := newDefaultFixture()
	ctx := context.Background()
	countries := []string{"FR", "BR", "JP"}

	const voters = 60
	type reg struct {
		email string
		id    uuid.UUID
		nat   string
	}
	regs := make([]reg, 0, voters)
	for i := 0; i < voters; i++ {
		email := fmt.Sprintf("voter%d@example.com", i)
		record := f.register(t, email)
		regs = append(regs, reg{email: email, id: record.ID, nat: countries[i%len(countries)]})
	}

	var wg sync.WaitGroup
	errCh := make(chan error, voters)
	for _, r := range regs {
		wg.Add(1)
		go func(r reg) {
			defer wg.Done()
			errCh <- f.votes.Submit(ctx, ports.SubmitInput{
				Email:       r.email,
				ID:          r.id,
				Nationality: r.nat,
				Answers:     acceptedAnswers(),
			})
		}(r)
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		require.NoError(t, err)
	}

	records, err := f.repo.ScanAll(ctx)
	require.NoError(t, err)
	require.Len(t, records, voters)

	indices := make(map[string]map[int]bool)
	for _, rec := range records {
		require.True(t, rec.Finalized())
		if indices[rec.Nationality] == nil {
			indices[rec.Nationality] = make(map[int]bool)
		}
		require.False(t, indices[rec.Nationality][rec.Index], "duplicate index %d in %s", rec.Index, rec.Nationality)
		indices[rec.Nationality][rec.Index] = true
	}

	stats := f.ranking.Stats()
	require.Equal(t, int64(voters), stats.TotalVotes)
	for code, seen := range indices {
		count := f.ranking.CountryCount(code)
		require.Equal(t, int64(len(seen)), count)
		for i := 1; i <= int(count); i++ {
			require.True(t, seen[i], "missing index %d in %s", i, code)
		}
	}

	require.Equal(t, voters, f.queue.Len())
}

func TestSubmitRecentVotesOrder(t *testing.T) {
	f := newDefaultFixture()
	ctx := context.Background()

	a := f.register(t, "a@example.com")
	b := f.register(t, "b@example.com")

	answersA := acceptedAnswers()
	answersA.Alias = "A"
	require.NoError(t, f.votes.Submit(ctx, ports.SubmitInput{Email: "a@example.com", ID: a.ID, Nationality: "FR", Answers: answersA}))

	answersB := acceptedAnswers()
	answersB.Alias = "B"
	require.NoError(t, f.votes.Submit(ctx, ports.SubmitInput{Email: "b@example.com", ID: b.ID, Nationality: "FR", Answers: answersB}))

	ranking, err := f.ranking.FindCountry("FR")
	require.NoError(t, err)
	require.Equal(t, int64(2), ranking.TotalCount)
	require.Equal(t, []string{"B", "A"}, []string{ranking.RecentVotes[0].Alias, ranking.RecentVotes[1].Alias})
	require.Equal(t, 2, ranking.RecentVotes[0].Index)
	require.Equal(t, 1, ranking.RecentVotes[1].Index)
}

func TestSubmitEnqueueFailureInvisible(t *testing.T) {
	f := newVoteFixture(repomemory.NewVoteRepository(), failingQueue{})
	ctx := context.Background()

	record := f.register(t, "ada@example.com")
	err := f.votes.Submit(ctx, ports.SubmitInput{
		Email:       "ada@example.com",
		ID:          record.ID,
		Nationality: "FR",
		Answers:     acceptedAnswers(),
	})
	require.NoError(t, err)

	stored, err := f.repo.Get(ctx, "ada@example.com")
	require.NoError(t, err)
	require.True(t, stored.Finalized())
	require.Equal(t, int64(1), f.ranking.CountryCount("FR"))
}

func TestSubmitStoreFailureLeavesNoGap(t *testing.T) {
	repo := &flakyRepo{VoteRepository: repomemory.NewVoteRepository()}
	f := newVoteFixture(repo, memory.NewJobQueue())
	ctx := context.Background()

	record := f.register(t, "ada@example.com")
	input := ports.SubmitInput{
		Email:       "ada@example.com",
		ID:          record.ID,
		Nationality: "FR",
		Answers:     acceptedAnswers(),
	}

	repo.failPuts.Store(true)
	err := f.votes.Submit(ctx, input)
	require.Error(t, err)
	require.NotErrorIs(t, err, domain.ErrConflict)
	require.Equal(t, int64(0), f.ranking.CountryCount("FR"))
	require.Equal(t, 0, f.queue.Len())

	// The failed write never advanced the country count, so the retry gets
	// index 1 and the sequence stays gapless.
	repo.failPuts.Store(false)
	require.NoError(t, f.votes.Submit(ctx, input))

	stored, err := f.repo.Get(ctx, "ada@example.com")
	require.NoError(t, err)
	require.Equal(t, 1, stored.Index)
	require.Equal(t, 1, f.queue.Len())
}

func TestExportAll(t *testing.T) {
	f := newDefaultFixture()
	ctx := context.Background()

	record := f.register(t, "ada@example.com")
	require.NoError(t, f.votes.Submit(ctx, ports.SubmitInput{
		Email:       "ada@example.com",
		ID:          record.ID,
		Nationality: "FR",
		Answers:     acceptedAnswers(),
	}))
	f.register(t, "pending@example.com")

	records, err := f.votes.ExportAll(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
}
