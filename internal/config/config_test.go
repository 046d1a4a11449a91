package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", "")
	t.Setenv("PENDING_TTL", "")
	t.Setenv("OTP_TTL", "")
	cfg := Load()
	assert.Equal(t, StoreDynamo, cfg.StoreDriver)
	assert.Equal(t, 30*time.Minute, cfg.PendingTTL)
	assert.Equal(t, 10*time.Minute, cfg.OTPTTL)
	assert.Equal(t, 5*time.Second, cfg.MailTimeout)
	assert.Equal(t, "pending_registrations", cfg.DynamoTables.PendingRegistrations)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "Memory")
	t.Setenv("BACKEND_URL", "http://backend:8080/")
	t.Setenv("BACKEND_TIMEOUT", "3")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example,https://b.example")
	cfg := Load()
	assert.Equal(t, StoreMemory, cfg.StoreDriver)
	assert.Equal(t, "http://backend:8080", cfg.BackendURL)
	assert.Equal(t, 3*time.Second, cfg.BackendTimeout)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
}

func TestGetEnvDuration_InvalidFallsBack(t *testing.T) {
	t.Setenv("SOME_DURATION", "soon")
	assert.Equal(t, time.Minute, getEnvDuration("SOME_DURATION", time.Minute))
	t.Setenv("SOME_DURATION", "-5s")
	assert.Equal(t, time.Minute, getEnvDuration("SOME_DURATION", time.Minute))
}

func TestLoad_TrustProxy(t *testing.T) {
	t.Setenv("TRUST_PROXY", "")
	assert.False(t, Load().TrustProxy)
	t.Setenv("TRUST_PROXY", "true")
	assert.True(t, Load().TrustProxy)
	t.Setenv("TRUST_PROXY", "maybe")
	assert.False(t, Load().TrustProxy)
}
