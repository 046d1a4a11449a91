package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alumni-registry/internal/config"
	"github.com/alumni-registry/internal/infrastructure/backend"
	"github.com/alumni-registry/internal/infrastructure/dynamo"
	"github.com/alumni-registry/internal/infrastructure/google"
	jwtinfra "github.com/alumni-registry/internal/infrastructure/jwt"
	"github.com/alumni-registry/internal/infrastructure/memory"
	s3infra "github.com/alumni-registry/internal/infrastructure/s3"
	"github.com/alumni-registry/internal/infrastructure/smtp"
	"github.com/alumni-registry/internal/infrastructure/sns"
	"github.com/alumni-registry/internal/pkg/seal"
	transporthttp "github.com/alumni-registry/internal/transport/http"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps := &transporthttp.Deps{}

	// Stores: DynamoDB, or in-process maps for offline development.
	switch cfg.StoreDriver {
	case config.StoreMemory:
		log.Println("WARN: using in-memory store, data is lost on restart")
		deps.PendingRepo = memory.NewPendingRepo()
		deps.OTPRepo = memory.NewOTPRepo()
		deps.DocumentRepo = memory.NewDocumentRepo()
	case config.StoreDynamo:
		dynamoClient, err := dynamo.NewClient(ctx, cfg)
		if err != nil {
			log.Fatalf("dynamodb client: %v", err)
		}
		dynamo.Bootstrap(ctx, dynamoClient, cfg.DynamoTables)
		deps.PendingRepo = dynamo.NewPendingRepo(dynamoClient, cfg.DynamoTables.PendingRegistrations)
		deps.OTPRepo = dynamo.NewOTPRepo(dynamoClient, cfg.DynamoTables.OTPRecords)
		deps.DocumentRepo = dynamo.NewDocumentRepo(dynamoClient, cfg.DynamoTables.Documents)
	default:
		log.Fatalf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}

	// S3 store.
	s3Client, err := s3infra.NewClient(ctx, cfg)
	if err != nil {
		log.Fatalf("s3 client: %v", err)
	}
	deps.ObjectStore = s3infra.NewStore(s3Client, cfg.S3BucketName)

	// JWT provider (optional; document routes stay closed without it).
	var jwtProvider *jwtinfra.Provider
	if p, err := jwtinfra.NewProvider(cfg); err == nil {
		jwtProvider = p
		deps.TokenVerifier = p
	} else {
		log.Printf("WARN: JWT provider not available: %v", err)
	}

	// Account backend: remote service, or the in-memory mock when BACKEND_URL is unset.
	if cfg.BackendURL != "" {
		client := backend.NewClient(cfg)
		log.Printf("Account backend %s (timeout %s)", cfg.BackendURL, client.Timeout())
		deps.Backend = client
	} else {
		log.Println("WARN: BACKEND_URL not set, using in-memory account backend")
		if jwtProvider != nil && cfg.JWTPrivateKeyPath != "" {
			deps.Backend = backend.NewMock(jwtProvider)
		} else {
			deps.Backend = backend.NewMock(nil)
		}
	}

	if cfg.GoogleClientID != "" {
		deps.IDTokenVerifier = google.NewVerifier(cfg.GoogleClientID)
	}

	// Pending passwords are sealed; a random key does not survive restarts.
	if cfg.PendingSealKey != "" {
		sealer, err := seal.New(cfg.PendingSealKey)
		if err != nil {
			log.Fatalf("PENDING_SEAL_KEY: %v", err)
		}
		deps.Sealer = sealer
	} else {
		log.Println("WARN: PENDING_SEAL_KEY not set, pending registrations will not survive a restart")
		sealer, err := seal.NewRandom()
		if err != nil {
			log.Fatalf("seal key: %v", err)
		}
		deps.Sealer = sealer
	}

	// SMTP mailer.
	deps.Mailer = smtp.NewMailer(cfg)

	// SNS publisher for the contact form (optional; falls back to mail).
	if cfg.ContactTopicARN != "" {
		if pub, err := sns.NewPublisher(ctx, cfg); err == nil {
			deps.Publisher = pub
		} else {
			log.Printf("WARN: SNS publisher not available: %v", err)
		}
	}

	router := transporthttp.NewRouter(ctx, cfg, deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on :%s (env=%s, store=%s)", cfg.AppPort, cfg.AppEnv, cfg.StoreDriver)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	stop()

	log.Println("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("forced shutdown: %v", err)
		os.Exit(1)
	}
	log.Println("Server stopped")
}
