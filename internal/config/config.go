package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Store drivers selectable with STORE_DRIVER.
const (
	StoreDynamo = "dynamo"
	StoreMemory = "memory"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort string
	AppEnv  string

	StoreDriver    string // "dynamo" (default) or "memory" for offline development
	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string
	DynamoTables   DynamoTables
	S3BucketName   string

	JWTPrivateKeyPath string // optional; only the mock backend signs tokens
	JWTPublicKeyPath  string
	JWTExpiry         time.Duration

	SMTPHost     string
	SMTPPort     string
	SMTPFrom     string
	SMTPUsername string
	SMTPPassword string
	MailTimeout  time.Duration

	SNSRegion       string
	ContactTopicARN string // when empty, contact messages are mailed to ContactInbox
	ContactInbox    string

	BackendURL     string // account backend; empty selects the in-memory mock
	BackendTimeout time.Duration
	GoogleClientID string

	PendingSealKey string // 32 bytes, hex encoded
	PendingTTL     time.Duration
	OTPTTL         time.Duration
	CleanupToken   string

	AllowedOrigins []string // CORS allowed origins
	TrustProxy     bool     // honour X-Forwarded-For / X-Real-Ip from a fronting proxy
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	PendingRegistrations string
	OTPRecords           string
	Documents            string
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort:        getEnv("APP_PORT", "3000"),
		AppEnv:         getEnv("APP_ENV", "development"),
		StoreDriver:    strings.ToLower(getEnv("STORE_DRIVER", StoreDynamo)),
		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		DynamoTables: DynamoTables{
			PendingRegistrations: getEnv("DYNAMO_TABLE_PENDING_REGISTRATIONS", "pending_registrations"),
			OTPRecords:           getEnv("DYNAMO_TABLE_OTP_RECORDS", "otp_records"),
			Documents:            getEnv("DYNAMO_TABLE_DOCUMENTS", "documents"),
		},
		S3BucketName:      getEnv("S3_BUCKET_NAME", "alumni-documents"),
		JWTPrivateKeyPath: getEnv("JWT_PRIVATE_KEY_PATH", ""),
		JWTPublicKeyPath:  getEnv("JWT_PUBLIC_KEY_PATH", "./public_key.pem"),
		JWTExpiry:         getEnvDuration("JWT_EXPIRY", 7*24*time.Hour),
		SMTPHost:          getEnv("SMTP_HOST", "localhost"),
		SMTPPort:          getEnv("SMTP_PORT", "1025"),
		SMTPFrom:          getEnv("SMTP_FROM", "noreply@example.com"),
		SMTPUsername:      getEnv("SMTP_USERNAME", ""),
		SMTPPassword:      getEnv("SMTP_PASSWORD", ""),
		MailTimeout:       getEnvDuration("MAIL_TIMEOUT", 5*time.Second),
		SNSRegion:         getEnv("SNS_REGION", "us-east-1"),
		ContactTopicARN:   getEnv("CONTACT_TOPIC_ARN", ""),
		ContactInbox:      getEnv("CONTACT_INBOX", "alumni-office@example.com"),
		BackendURL:        strings.TrimRight(getEnv("BACKEND_URL", ""), "/"),
		BackendTimeout:    getEnvDuration("BACKEND_TIMEOUT", 5*time.Second),
		GoogleClientID:    getEnv("GOOGLE_CLIENT_ID", ""),
		PendingSealKey:    getEnv("PENDING_SEAL_KEY", ""),
		PendingTTL:        getEnvDuration("PENDING_TTL", 30*time.Minute),
		OTPTTL:            getEnvDuration("OTP_TTL", 10*time.Minute),
		CleanupToken:      getEnv("CLEANUP_TOKEN", ""),
		AllowedOrigins:    strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
		TrustProxy:        getEnvBool("TRUST_PROXY", false),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

// getEnvDuration accepts Go duration strings ("90s", "30m") or a bare number of seconds.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d
	}
	if n := getEnvInt(key, 0); n > 0 {
		return time.Duration(n) * time.Second
	}
	return fallback
}
