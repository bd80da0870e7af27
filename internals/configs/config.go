package configs

import (
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// =======================
// APP CONFIG
// =======================

type ServerConfig struct {
	Port           string
	AllowedOrigins string
}

type DatabaseConfig struct {
	DSN     string
	MaxOpen int
	MaxIdle int
}

type AuthConfig struct {
	JWTSecret string
}

type BillingConfig struct {
	AllowPartialPayment      bool
	IssuanceBatchSize        int
	IssuanceRetryWindow      time.Duration
	IssuanceRetrySchedule    string
	CounterReconcileSchedule string
	// Nominal tagihan minimal; 0 berarti tanpa batas bawah selain > 0.
	MinimumNominal decimal.Decimal
}

type MidtransConfig struct {
	ServerKey    string
	IsProduction bool
}

type OSSConfig struct {
	Endpoint        string
	AccessKeyID     string
	AccessKeySecret string
	Bucket          string
	Prefix          string
	PublicBase      string
}

type NotifyConfig struct {
	WhatsAppURL   string
	WhatsAppToken string
	SendGridKey   string
	SenderEmail   string
	SenderName    string
}

// ReaperConfig: pembersihan data soft-delete & bukti lama.
type ReaperConfig struct {
	Schedule       string
	Retention      time.Duration
	ProofRetention time.Duration // 0 = bukti tidak pernah dihapus
	DryRun         bool
}

type AppConfig struct {
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Billing  BillingConfig
	Midtrans MidtransConfig
	OSS      OSSConfig
	Notify   NotifyConfig
	Reaper   ReaperConfig
	LogLevel string
}

// =======================
// ENV LOADER
// =======================

// LoadEnv loads .env when running outside a managed platform.
func LoadEnv() {
	if os.Getenv("RAILWAY_ENVIRONMENT") != "" {
		log.Println("🚀 Running in Railway, menggunakan ENV dari sistem")
		return
	}
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ Tidak menemukan .env file, menggunakan ENV dari sistem")
		return
	}
	log.Println("✅ .env file berhasil dimuat!")
}

func GetEnv(key string, defaultValue ...string) string {
	value, exists := os.LookupEnv(key)
	if !exists && len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return value
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetTypeByDefaultValue(true)

	v.SetDefault("port", "8080")
	v.SetDefault("allowed.origins", "*")
	v.SetDefault("log.level", "info")

	v.SetDefault("database.url", "")
	v.SetDefault("db.max.open", 20)
	v.SetDefault("db.max.idle", 10)

	v.SetDefault("jwt.secret", "")

	v.SetDefault("billing.allow.partial.payment", false)
	v.SetDefault("billing.issuance.batch.size", 500)
	v.SetDefault("billing.issuance.retry.window", 24*time.Hour)
	v.SetDefault("billing.issuance.retry.schedule", "@every 5m")
	v.SetDefault("billing.counter.reconcile.schedule", "0 2 * * *")
	v.SetDefault("billing.minimum.nominal", "0")

	v.SetDefault("midtrans.server.key", "")
	v.SetDefault("midtrans.is.production", false)

	v.SetDefault("oss.endpoint", "")
	v.SetDefault("oss.access.key.id", "")
	v.SetDefault("oss.access.key.secret", "")
	v.SetDefault("oss.bucket", "")
	v.SetDefault("oss.prefix", "payment-proofs")
	v.SetDefault("oss.public.base", "")

	v.SetDefault("whatsapp.gateway.url", "")
	v.SetDefault("whatsapp.gateway.token", "")
	v.SetDefault("sendgrid.api.key", "")
	v.SetDefault("notify.sender.email", "noreply@pesantrenku.id")
	v.SetDefault("notify.sender.name", "Pesantrenku")

	v.SetDefault("reaper.schedule", "15 2 * * *")
	v.SetDefault("reaper.retention", 30*24*time.Hour)
	v.SetDefault("reaper.proof.retention", time.Duration(0))
	v.SetDefault("reaper.dry.run", false)

	// BILLING_ISSUANCE_BATCH_SIZE -> billing.issuance.batch.size
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the whole configuration from the environment (after LoadEnv).
func Load() *AppConfig {
	v := newViper()

	minNominal, err := decimal.NewFromString(v.GetString("billing.minimum.nominal"))
	if err != nil {
		log.Printf("⚠️ BILLING_MINIMUM_NOMINAL tidak valid (%v), pakai 0", err)
		minNominal = decimal.Zero
	}

	cfg := &AppConfig{
		Server: ServerConfig{
			Port:           v.GetString("port"),
			AllowedOrigins: v.GetString("allowed.origins"),
		},
		Database: DatabaseConfig{
			DSN:     v.GetString("database.url"),
			MaxOpen: v.GetInt("db.max.open"),
			MaxIdle: v.GetInt("db.max.idle"),
		},
		Auth: AuthConfig{JWTSecret: v.GetString("jwt.secret")},
		Billing: BillingConfig{
			AllowPartialPayment:      v.GetBool("billing.allow.partial.payment"),
			IssuanceBatchSize:        v.GetInt("billing.issuance.batch.size"),
			IssuanceRetryWindow:      v.GetDuration("billing.issuance.retry.window"),
			IssuanceRetrySchedule:    v.GetString("billing.issuance.retry.schedule"),
			CounterReconcileSchedule: v.GetString("billing.counter.reconcile.schedule"),
			MinimumNominal:           minNominal,
		},
		Midtrans: MidtransConfig{
			ServerKey:    v.GetString("midtrans.server.key"),
			IsProduction: v.GetBool("midtrans.is.production"),
		},
		OSS: OSSConfig{
			Endpoint:        v.GetString("oss.endpoint"),
			AccessKeyID:     v.GetString("oss.access.key.id"),
			AccessKeySecret: v.GetString("oss.access.key.secret"),
			Bucket:          v.GetString("oss.bucket"),
			Prefix:          v.GetString("oss.prefix"),
			PublicBase:      v.GetString("oss.public.base"),
		},
		Notify: NotifyConfig{
			WhatsAppURL:   v.GetString("whatsapp.gateway.url"),
			WhatsAppToken: v.GetString("whatsapp.gateway.token"),
			SendGridKey:   v.GetString("sendgrid.api.key"),
			SenderEmail:   v.GetString("notify.sender.email"),
			SenderName:    v.GetString("notify.sender.name"),
		},
		Reaper: ReaperConfig{
			Schedule:       v.GetString("reaper.schedule"),
			Retention:      v.GetDuration("reaper.retention"),
			ProofRetention: v.GetDuration("reaper.proof.retention"),
			DryRun:         v.GetBool("reaper.dry.run"),
		},
		LogLevel: v.GetString("log.level"),
	}

	if cfg.Billing.IssuanceBatchSize <= 0 || cfg.Billing.IssuanceBatchSize > 500 {
		cfg.Billing.IssuanceBatchSize = 500
	}
	if cfg.Auth.JWTSecret == "" {
		log.Println("❌ JWT_SECRET belum diset!")
	}
	return cfg
}

// DefaultBilling is the billing section with every default applied.
func DefaultBilling() BillingConfig {
	return BillingConfig{
		AllowPartialPayment:      false,
		IssuanceBatchSize:        500,
		IssuanceRetryWindow:      24 * time.Hour,
		IssuanceRetrySchedule:    "@every 5m",
		CounterReconcileSchedule: "0 2 * * *",
		MinimumNominal:           decimal.Zero,
	}
}
