package integration

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"

	handler "github.com/worldvote/api/internal/adapters/handler/http"
	redisqueue "github.com/worldvote/api/internal/adapters/queue/redis"
	repo "github.com/worldvote/api/internal/adapters/repository/postgres"
	"github.com/worldvote/api/internal/core/domain"
	"github.com/worldvote/api/internal/core/ports"
	"github.com/worldvote/api/internal/core/services"
)

func setupPostgresContainer(ctx context.Context) (testcontainers.Container, string, error) {
	dbName := "testdb"
	user := "user"
	password := "password"

	pgContainer, err := postgres.Run(ctx, "postgres:15-alpine",
		postgres.WithDatabase(dbName),
		postgres.WithUsername(user),
		postgres.WithPassword(password),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Second),
		),
	)
	if err != nil {
		return nil, "", fmt.Errorf("failed to start postgres container: %w", err)
	}

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return nil, "", err
	}

	return pgContainer, connStr, nil
}

func setupRedisContainer(ctx context.Context) (testcontainers.Container, *goredis.Client, error) {
	redisContainer, err := tcredis.Run(ctx, "redis:7-alpine")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to start redis container: %w", err)
	}

	connStr, err := redisContainer.ConnectionString(ctx)
	if err != nil {
		return nil, nil, err
	}

	opts, err := goredis.ParseURL(connStr)
	if err != nil {
		return nil, nil, err
	}

	return redisContainer, goredis.NewClient(opts), nil
}

func applyMigrations(db *sql.DB) error {
	dirPath := "../../internal/adapters/repository/postgres/migrations"

	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		if !strings.HasSuffix(entry.Name(), "up.sql") {
			continue
		}

		fullPath := filepath.Join(dirPath, entry.Name())
		content, err := os.ReadFile(fullPath)
		if err != nil {
			return fmt.Errorf("failed to read migration file %s: %w", entry.Name(), err)
		}

		_, err = db.Exec(string(content))
		if err != nil {
			return fmt.Errorf("failed to execute migration %s: %w", entry.Name(), err)
		}
	}

	return nil
}

// MockVerifier for testing; any "valid:<email>" credential authenticates
// as <email>.
type MockVerifier struct{}

func (v *MockVerifier) Verify(ctx context.Context, token string, clientID string) (*ports.TokenPayload, error) {
	if email, ok := strings.CutPrefix(token, "valid:"); ok {
		return &ports.TokenPayload{Email: domain.NormalizeEmail(email)}, nil
	}
	return nil, fmt.Errorf("invalid credential")
}

type capturedMail struct {
	To      string
	Subject string
	Body    string
}

type captureMailer struct {
	mu   sync.Mutex
	sent []capturedMail
}

func (m *captureMailer) Send(_ context.Context, to, subject, htmlBody string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, capturedMail{To: to, Subject: subject, Body: htmlBody})
	return nil
}

func (m *captureMailer) mails() []capturedMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]capturedMail(nil), m.sent...)
}

type TestApp struct {
	DB             *sql.DB
	Redis          *goredis.Client
	Server         *httptest.Server
	Client         *http.Client
	Queue          ports.JobQueue
	Ranking        ports.RankingService
	Registration   ports.RegistrationService
	DBContainer    testcontainers.Container
	RedisContainer testcontainers.Container
}

func setupTestApp(t *testing.T) *TestApp {
	os.Setenv("JWT_SECRET", "test-secret")
	ctx := context.Background()

	dbContainer, dbURL, err := setupPostgresContainer(ctx)
	require.NoError(t, err)

	db, err := sql.Open("postgres", dbURL)
	require.NoError(t, err)

	err = applyMigrations(db)
	require.NoError(t, err)

	redisContainer, redisClient, err := setupRedisContainer(ctx)
	require.NoError(t, err)

	voteRepo := repo.NewVoteRepository(db)
	authRepo := repo.NewAuthRepository(db)

	queue := redisqueue.NewJobQueue(redisClient)
	ranking := services.NewRankingService(voteRepo)
	registration := services.NewRegistrationService(voteRepo)
	votes := services.NewVoteService(voteRepo, ranking, queue)
	auth := services.NewAuthService(registration, authRepo, &MockVerifier{})

	require.NoError(t, ranking.Rebuild(ctx))

	router := handler.NewHandler(handler.Handlers{
		Auth:         handler.NewAuthHandler(auth, "https://example.com/redirect", "", http.SameSiteLaxMode),
		Votes:        handler.NewVoteHandler(votes),
		Registration: handler.NewRegistrationHandler(registration),
		Rankings:     handler.NewRankingHandler(ranking),
		Admin:        handler.NewAdminHandler(votes, "admin@example.com"),
		Health:       handler.NewHealthHandler(db, redisClient),
		AuthMW:       handler.NewAuthMiddleware(),
	})

	server := httptest.NewServer(router)

	return &TestApp{
		DB:             db,
		Redis:          redisClient,
		Server:         server,
		Client:         server.Client(),
		Queue:          queue,
		Ranking:        ranking,
		Registration:   registration,
		DBContainer:    dbContainer,
		RedisContainer: redisContainer,
	}
}

// registerAndToken registers the email and mints a session access token
// for it, the way a completed Google login would.
func (app *TestApp) registerAndToken(t *testing.T, email string) (*domain.VoteRecord, string) {
	t.Helper()

	record, err := app.Registration.Register(context.Background(), email)
	require.NoError(t, err)

	claims := jwt.MapClaims{
		"sub":   record.ID.String(),
		"email": record.Email,
		"exp":   time.Now().Add(15 * time.Minute).Unix(),
		"iat":   time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return record, signedToken
}

func (app *TestApp) Teardown(t *testing.T) {
	app.Server.Close()
	app.DB.Close()
	app.Redis.Close()
	if err := app.DBContainer.Terminate(context.Background()); err != nil {
		t.Logf("failed to terminate container: %v", err)
	}
	if err := app.RedisContainer.Terminate(context.Background()); err != nil {
		t.Logf("failed to terminate container: %v", err)
	}
}
