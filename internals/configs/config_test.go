package configs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.False(t, cfg.Billing.AllowPartialPayment)
	assert.Equal(t, 500, cfg.Billing.IssuanceBatchSize)
	assert.Equal(t, 24*time.Hour, cfg.Billing.IssuanceRetryWindow)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.True(t, cfg.Billing.MinimumNominal.IsZero())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("BILLING_ALLOW_PARTIAL_PAYMENT", "true")
	t.Setenv("BILLING_ISSUANCE_BATCH_SIZE", "50")
	t.Setenv("BILLING_ISSUANCE_RETRY_WINDOW", "2h")
	t.Setenv("JWT_SECRET", "s3cr3t")

	cfg := Load()

	assert.True(t, cfg.Billing.AllowPartialPayment)
	assert.Equal(t, 50, cfg.Billing.IssuanceBatchSize)
	assert.Equal(t, 2*time.Hour, cfg.Billing.IssuanceRetryWindow)
	assert.Equal(t, "s3cr3t", cfg.Auth.JWTSecret)
}

func TestBatchSizeIsCappedAtStoreLimit(t *testing.T) {
	t.Setenv("BILLING_ISSUANCE_BATCH_SIZE", "5000")
	assert.Equal(t, 500, Load().Billing.IssuanceBatchSize)
}

func TestGetEnvDefault(t *testing.T) {
	assert.Equal(t, "fallback", GetEnv("PESANTRENKU_SURELY_UNSET", "fallback"))
}
