package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
order_db:
  dsn: "file:orders.db"
store:
  name: Tienda Luna
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "file:orders.db", cfg.OrderDB.Dsn)
	assert.Equal(t, "Tienda Luna", cfg.Store.Name)
	assert.Equal(t, 0.16, cfg.Store.TaxRate)
	assert.Equal(t, 3, cfg.Notifications.MaxAttempts)
	assert.Equal(t, 50, cfg.Notifications.BatchSize)
	assert.Equal(t, 5*time.Minute, cfg.Notifications.RetryBackoff)
	assert.Equal(t, 24*time.Hour, cfg.Lifecycle.ReceivedGrace)
	assert.Equal(t, 7*24*time.Hour, cfg.Lifecycle.ShippedGrace)
	assert.Equal(t, time.Hour, cfg.Admission.BlockDuration)
	assert.Equal(t, RateLimit{Window: time.Minute, Max: 100}, cfg.Admission.Defaults["GET"])
	assert.Equal(t, 10, cfg.Admission.Routes["POST /api/orders/:id/payment-proof"].Max)
}

func TestLoad_ReadsRouteOverrides(t *testing.T) {
	path := writeConfig(t, `
admission:
  enabled: true
  routes:
    "POST /api/orders": {window: 30s, max: 5}
kafka-service:
  host: kafka
  port: "9093"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, RateLimit{Window: 30 * time.Second, Max: 5}, cfg.Admission.Routes["POST /api/orders"])
	assert.Len(t, cfg.Admission.Routes, 1)
	assert.Equal(t, []string{"kafka:9093"}, cfg.KafkaService.Brokers())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
