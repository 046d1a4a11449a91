// Command sweep runs one expiry sweep over pending registrations and
// verification codes, for schedulers that cannot call the HTTP endpoint.
package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"time"

	"github.com/alumni-registry/internal/application/registration"
	"github.com/alumni-registry/internal/config"
	"github.com/alumni-registry/internal/infrastructure/dynamo"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}
	cfg := config.Load()
	if cfg.StoreDriver != config.StoreDynamo {
		log.Fatalf("sweep needs STORE_DRIVER=%s, got %q", config.StoreDynamo, cfg.StoreDriver)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	client, err := dynamo.NewClient(ctx, cfg)
	if err != nil {
		log.Fatalf("dynamodb client: %v", err)
	}
	svc := registration.NewService(registration.ServiceDeps{
		PendingRepo: dynamo.NewPendingRepo(client, cfg.DynamoTables.PendingRegistrations),
		OTPRepo:     dynamo.NewOTPRepo(client, cfg.DynamoTables.OTPRecords),
	})

	res, err := svc.Sweep(ctx)
	if err != nil {
		log.Fatalf("sweep: %v", err)
	}
	_ = json.NewEncoder(os.Stdout).Encode(res)
}
