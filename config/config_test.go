package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENV", "development")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("KAFKA_BROKERS", "")
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("TRACE_SAMPLE_RATIO", "")

	cfg := Load()

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.Equal(t, "storefront-events", cfg.Kafka.Topic)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	assert.NotEmpty(t, cfg.Auth.JWTSecret)
	assert.False(t, cfg.Business.ClearCartOnCheckout)
	assert.Equal(t, 6, cfg.Business.ProductsPageSize)
	assert.Equal(t, 99, cfg.Business.MaxQuantityDelta)
	assert.Equal(t, 1.0, cfg.Observ.SampleRatio)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")
	t.Setenv("ADMIN_EMAILS", "a@example.com,,b@example.com")
	t.Setenv("CLEAR_CART_ON_CHECKOUT", "true")
	t.Setenv("TOKEN_TTL_HOURS", "2")
	t.Setenv("PRODUCTS_PAGE_SIZE", "not-a-number")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("TRACE_SAMPLE_RATIO", "0.25")

	cfg := Load()

	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, cfg.Auth.AdminEmails)
	assert.True(t, cfg.Business.ClearCartOnCheckout)
	assert.Equal(t, 2*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, 6, cfg.Business.ProductsPageSize)
	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
	assert.Equal(t, 0.25, cfg.Observ.SampleRatio)
}

func TestLoadClient(t *testing.T) {
	t.Setenv("STOREFRONT_API_URL", "http://shop.local:9000/")
	t.Setenv("STOREFRONT_SESSION_FILE", "/tmp/session.json")

	cfg := LoadClient()
	assert.Equal(t, "http://shop.local:9000", cfg.APIURL)
	assert.Equal(t, "/tmp/session.json", cfg.SessionFile)
}
