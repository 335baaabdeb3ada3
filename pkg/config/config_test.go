package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"SERVICE_NAME", "SERVER_PORT", "LOG_LEVEL", "CATALOG_PATH", "FEEDBACK_PATH", "JWT_SECRET", "KAFKA_BROKERS", "ES_URL", "ES_INDEX"} {
		t.Setenv(k, "")
	}

	cfg := Load()
	assert.Equal(t, "storefront", cfg.ServiceName)
	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, "products.txt", cfg.CatalogPath)
	assert.Equal(t, "feedback.txt", cfg.FeedbackPath)
	assert.Equal(t, "products", cfg.ESIndex)
	assert.Empty(t, cfg.JWTSecret)
	assert.Nil(t, cfg.KafkaBrokers)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("CATALOG_PATH", "/data/products.txt")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("KAFKA_BROKERS", " k1:9092, ,k2:9092 ")
	t.Setenv("ACCOUNTS", "amina:pw")

	cfg := Load()
	assert.Equal(t, 9090, cfg.ServerPort)
	assert.Equal(t, "/data/products.txt", cfg.CatalogPath)
	assert.Equal(t, []byte("s3cret"), cfg.JWTSecret)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "amina:pw", cfg.Accounts)
}

func TestEnvIntDefault_InvalidFallsBack(t *testing.T) {
	t.Setenv("SERVER_PORT", "eighty")
	assert.Equal(t, 8080, EnvIntDefault("SERVER_PORT", 8080))
}
