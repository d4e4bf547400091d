package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	stdhttp "net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/worldvote/api/internal/adapters/handler/http"
	"github.com/worldvote/api/internal/adapters/oauth/google"
	redisqueue "github.com/worldvote/api/internal/adapters/queue/redis"
	"github.com/worldvote/api/internal/adapters/repository/postgres"
	"github.com/worldvote/api/internal/core/services"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	db, err := sql.Open("postgres", dbConnString())
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatal(err)
	}

	redisClient := redis.NewClient(&redis.Options{Addr: redisAddr()})
	defer redisClient.Close()

	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Fatal(err)
	}

	// Initialize Repositories
	voteRepo := postgres.NewVoteRepository(db)
	authRepo := postgres.NewAuthRepository(db)

	// Initialize Services
	queue := redisqueue.NewJobQueue(redisClient)
	ranking := services.NewRankingService(voteRepo)
	registration := services.NewRegistrationService(voteRepo)
	votes := services.NewVoteService(voteRepo, ranking, queue)
	auth := services.NewAuthService(registration, authRepo, google.NewVerifier())

	// The per-country vote index is derived from the cache, so the cache
	// must be warm before the first submission is accepted.
	rebuildCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := ranking.Rebuild(rebuildCtx); err != nil {
		log.Fatalf("Failed to rebuild ranking cache: %v", err)
	}

	handler := http.NewHandler(http.Handlers{
		Auth:           http.NewAuthHandler(auth, redirectURL(), os.Getenv("COOKIE_DOMAIN"), cookieSameSite()),
		Votes:          http.NewVoteHandler(votes),
		Registration:   http.NewRegistrationHandler(registration),
		Rankings:       http.NewRankingHandler(ranking),
		Admin:          http.NewAdminHandler(votes, os.Getenv("ADMIN_EMAIL")),
		Health:         http.NewHealthHandler(db, redisClient),
		AuthMW:         http.NewAuthMiddleware(),
		AllowedOrigins: allowedOrigins(),
	})

	server := &stdhttp.Server{Addr: "0.0.0.0:" + serverPort(), Handler: handler}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("Listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	fmt.Println("Gracefully shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal(err)
	}
}

func serverPort() string {
	if port := os.Getenv("PORT"); port != "" {
		return port
	}
	return "8080"
}

func redirectURL() string {
	if url := os.Getenv("REDIRECT_URL"); url != "" {
		return url
	}
	return "/"
}

func allowedOrigins() []string {
	raw := os.Getenv("ALLOWED_ORIGINS")
	if raw == "" {
		return nil
	}
	var origins []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

func redisAddr() string {
	host := os.Getenv("REDIS_HOST")
	if host == "" {
		host = "localhost"
	}
	port := os.Getenv("REDIS_PORT")
	if port == "" {
		port = "6379"
	}
	return host + ":" + port
}

func cookieSameSite() stdhttp.SameSite {
	switch os.Getenv("COOKIE_SAMESITE") {
	case "none":
		return stdhttp.SameSiteNoneMode
	case "strict":
		return stdhttp.SameSiteStrictMode
	default:
		return stdhttp.SameSiteLaxMode
	}
}

func dbConnString() string {
	dbName, user, password, host, port := dbConfig()
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", user, password, host, port, dbName)
}

func dbConfig() (dbName string, user string, password string, host string, port string) {
	dbName = os.Getenv("POSTGRES_DB")
	user = os.Getenv("POSTGRES_USER")
	password = os.Getenv("POSTGRES_PASSWORD")
	host = os.Getenv("POSTGRES_HOST")
	port = os.Getenv("POSTGRES_PORT")
	return
}
