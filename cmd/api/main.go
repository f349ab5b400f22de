package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/joho/godotenv"

	"github.com/hivedesk/api/internal/config"
	"github.com/hivedesk/api/internal/infrastructure/dynamo"
	s3infra "github.com/hivedesk/api/internal/infrastructure/s3"
	"github.com/hivedesk/api/internal/infrastructure/smtp"
	"github.com/hivedesk/api/internal/infrastructure/sns"
	"github.com/hivedesk/api/internal/infrastructure/token"
	transporthttp "github.com/hivedesk/api/internal/transport/http"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()

	// Bootstrap DynamoDB tables (creates them if they don't exist).
	dynamoClient := dynamo.NewClient(cfg)
	dynamo.Bootstrap(context.Background(), dynamoClient, cfg.DynamoTables)

	issuer, err := buildIssuer(cfg, dynamoClient)
	if err != nil {
		log.Fatalf("token issuer: %v", err)
	}

	// S3 store.
	s3Client := s3infra.NewClient(cfg)
	s3Store := s3infra.NewStore(s3Client, cfg.S3BucketName)

	// SMTP mailer.
	mailer := smtp.NewMailer(cfg)

	// SNS event publisher (optional, needs a topic ARN).
	var events sns.Publisher
	if cfg.SNSTopicARN != "" {
		if p, err := sns.NewPublisher(cfg); err == nil {
			events = p
		} else {
			log.Printf("WARN: SNS publisher not available: %v", err)
		}
	}

	deps := &transporthttp.Deps{
		UserRepo:         dynamo.NewUserRepo(dynamoClient, cfg.DynamoTables.Users),
		AuthMethodRepo:   dynamo.NewAuthMethodRepo(dynamoClient, cfg.DynamoTables.AuthMethods),
		MagicLinkRepo:    dynamo.NewMagicLinkRepo(dynamoClient, cfg.DynamoTables.MagicLinks),
		SessionRepo:      dynamo.NewSessionRepo(dynamoClient, cfg.DynamoTables.Sessions),
		ProjectRepo:      dynamo.NewProjectRepo(dynamoClient, cfg.DynamoTables.Projects),
		TaskRepo:         dynamo.NewTaskRepo(dynamoClient, cfg.DynamoTables.Tasks),
		NoteRepo:         dynamo.NewNoteRepo(dynamoClient, cfg.DynamoTables.Notes),
		FileRepo:         dynamo.NewFileRepo(dynamoClient, cfg.DynamoTables.Files),
		NotificationRepo: dynamo.NewNotificationRepo(dynamoClient, cfg.DynamoTables.Notifications),
		S3Store:          s3Store,
		Mailer:           mailer,
		Events:           events,
		Issuer:           issuer,
	}

	router := transporthttp.NewRouter(cfg, deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "port", cfg.AppPort, "env", cfg.AppEnv, "sandbox", cfg.Sandbox, "token_backend", cfg.TokenBackend)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}
	log.Println("Server stopped")
}

// buildIssuer selects the access-token backend. "memory" suffices for a
// single instance; multi-instance deployments need "dynamo" (shared store)
// or "signed" (stateless).
func buildIssuer(cfg *config.Config, client *dynamodb.Client) (token.Issuer, error) {
	switch cfg.TokenBackend {
	case "memory":
		return token.NewOpaqueIssuer(token.NewMemoryStore(), cfg.AccessTokenTTL), nil
	case "dynamo":
		store := dynamo.NewAccessTokenRepo(client, cfg.DynamoTables.AccessTokens)
		return token.NewOpaqueIssuer(store, cfg.AccessTokenTTL), nil
	case "signed":
		return token.NewSignedIssuer(cfg.TokenSigningKey, cfg.AccessTokenTTL)
	default:
		return nil, fmt.Errorf("unknown TOKEN_BACKEND %q", cfg.TokenBackend)
	}
}
