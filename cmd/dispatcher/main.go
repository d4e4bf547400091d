package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/worldvote/api/internal/adapters/backup/httpapi"
	"github.com/worldvote/api/internal/adapters/mail/smtp"
	redisqueue "github.com/worldvote/api/internal/adapters/queue/redis"
	"github.com/worldvote/api/internal/core/ports"
	"github.com/worldvote/api/internal/core/services"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	var workers int
	var smtpHost, backupURL string

	flag.IntVar(&workers, "workers", envInt("DISPATCH_WORKERS", 4), "Number of dispatch workers")
	flag.StringVar(&smtpHost, "smtp-host", os.Getenv("SMTP_HOST"), "SMTP relay host")
	flag.StringVar(&backupURL, "backup-url", os.Getenv("BACKUP_URL"), "Remote backup endpoint, empty disables backup")
	flag.Parse()

	redisClient := redis.NewClient(&redis.Options{Addr: redisAddr()})
	defer redisClient.Close()

	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Fatal(err)
	}

	queue := redisqueue.NewJobQueue(redisClient)

	mailer := smtp.NewMailer(smtp.Config{
		Host:     smtpHost,
		Port:     envInt("SMTP_PORT", 587),
		Username: os.Getenv("SMTP_USERNAME"),
		Password: os.Getenv("SMTP_PASSWORD"),
		From:     os.Getenv("SMTP_FROM"),
		NoTLS:    os.Getenv("SMTP_NO_TLS") == "true",
	})

	// A nil interface keeps the backup effect disabled end to end.
	var backup ports.BackupClient
	if backupURL != "" {
		backup = httpapi.NewClient(backupURL, os.Getenv("BACKUP_TOKEN"))
	}

	dispatch := services.NewDispatchService(queue, mailer, backup)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Printf("Starting %d dispatch workers...", workers)

	g, gCtx := errgroup.WithContext(ctx)
	for range workers {
		g.Go(func() error {
			return dispatch.Run(gCtx)
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("Dispatch workers stopped: %v", err)
	}

	log.Println("Dispatch workers stopped.")
}

func envInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		log.Fatalf("Invalid %s: %v", key, err)
	}
	return value
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
