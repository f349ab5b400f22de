package config

import (
	"os"
	"strings"
	"time"

	"github.com/hivedesk/api/internal/domain"
)

// Token lifetime windows per deployment mode. The sandbox values exist purely
// for developer convenience and are selected by the same predicate that gates
// the dev bypass authenticator.
const (
	ProdAccessTokenTTL     = 15 * time.Minute
	ProdRefreshTokenTTL    = 7 * 24 * time.Hour
	SandboxAccessTokenTTL  = 365 * 24 * time.Hour
	SandboxRefreshTokenTTL = 365 * 24 * time.Hour

	MagicLinkTTL = 15 * time.Minute
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort string
	AppEnv  string

	// Sandbox is the single trusted-local predicate. It is true only when the
	// process points at a local AWS emulation endpoint AND is not declared
	// production. It gates dev bypass, extended token lifetimes, and console
	// echo of magic links; never any of them independently.
	Sandbox bool

	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string

	DynamoTables DynamoTables
	S3BucketName string

	// TokenBackend selects the access-token issuer: "memory" (in-process,
	// single instance), "dynamo" (shared store, multi-instance), or "signed"
	// (stateless HS256 tokens, multi-instance).
	TokenBackend     string
	TokenSigningKey  string
	AccessTokenTTL   time.Duration
	RefreshTokenTTL  time.Duration
	MagicLinkBaseURL string

	DevAccounts []domain.DevAccount

	SMTPHost     string
	SMTPPort     string
	SMTPFrom     string
	SMTPUsername string
	SMTPPassword string

	SNSTopicARN string

	AllowedOrigins []string // CORS allowed origins
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Users         string
	AuthMethods   string
	MagicLinks    string
	Sessions      string
	AccessTokens  string
	Projects      string
	Tasks         string
	Notes         string
	Files         string
	Notifications string
}

// Load reads all configuration from environment variables.
func Load() *Config {
	appEnv := getEnv("APP_ENV", "development")
	endpoint := getEnv("AWS_ENDPOINT_URL", "")
	sandbox := appEnv != "production" && endpoint != ""

	cfg := &Config{
		AppPort: getEnv("APP_PORT", "3000"),
		AppEnv:  appEnv,
		Sandbox: sandbox,

		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: endpoint,
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),

		DynamoTables: DynamoTables{
			Users:         getEnv("DYNAMO_TABLE_USERS", "users"),
			AuthMethods:   getEnv("DYNAMO_TABLE_AUTH_METHODS", "auth_methods"),
			MagicLinks:    getEnv("DYNAMO_TABLE_MAGIC_LINKS", "magic_links"),
			Sessions:      getEnv("DYNAMO_TABLE_SESSIONS", "sessions"),
			AccessTokens:  getEnv("DYNAMO_TABLE_ACCESS_TOKENS", "access_tokens"),
			Projects:      getEnv("DYNAMO_TABLE_PROJECTS", "projects"),
			Tasks:         getEnv("DYNAMO_TABLE_TASKS", "tasks"),
			Notes:         getEnv("DYNAMO_TABLE_NOTES", "notes"),
			Files:         getEnv("DYNAMO_TABLE_FILES", "files"),
			Notifications: getEnv("DYNAMO_TABLE_NOTIFICATIONS", "notifications"),
		},
		S3BucketName: getEnv("S3_BUCKET_NAME", "hivedesk-files"),

		TokenBackend:     getEnv("TOKEN_BACKEND", "memory"),
		TokenSigningKey:  getEnv("TOKEN_SIGNING_KEY", ""),
		MagicLinkBaseURL: getEnv("MAGIC_LINK_BASE_URL", "http://localhost:3000"),

		SMTPHost:     getEnv("SMTP_HOST", "localhost"),
		SMTPPort:     getEnv("SMTP_PORT", "1025"),
		SMTPFrom:     getEnv("SMTP_FROM", "noreply@hivedesk.app"),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),

		SNSTopicARN: getEnv("SNS_TOPIC_ARN", ""),

		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
	}

	if sandbox {
		cfg.AccessTokenTTL = SandboxAccessTokenTTL
		cfg.RefreshTokenTTL = SandboxRefreshTokenTTL
		cfg.DevAccounts = parseDevAccounts(getEnv("DEV_ACCOUNTS", ""))
	} else {
		cfg.AccessTokenTTL = ProdAccessTokenTTL
		cfg.RefreshTokenTTL = ProdRefreshTokenTTL
	}

	return cfg
}

// parseDevAccounts parses the DEV_ACCOUNTS env value: a comma-separated list
// of id:email:name:token tuples. Malformed entries are skipped.
func parseDevAccounts(raw string) []domain.DevAccount {
	if raw == "" {
		return nil
	}
	var accounts []domain.DevAccount
	for _, entry := range strings.Split(raw, ",") {
		parts := strings.SplitN(strings.TrimSpace(entry), ":", 4)
		if len(parts) != 4 || parts[0] == "" || parts[3] == "" {
			continue
		}
		accounts = append(accounts, domain.DevAccount{
			UserID: parts[0],
			Email:  parts[1],
			Name:   parts[2],
			Token:  parts[3],
		})
	}
	return accounts
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
