package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "cfg.yaml")
	require.NoError(t, os.WriteFile(p, []byte(`
database:
  host: "localhost"
  port: 5432
  username: "u"
  password: "p"
  name: "db"
kafka:
  host: "localhost"
  port: 9092
  calculation_performed_topic_name: "calculation.performed"
redis:
  host: "localhost"
  port: 6379
datebox:
  http_addr: ":8080"
  kafka_consumer_group: "date-worker"
  snapshot_ttl_seconds: 600
  rate_limit_per_user_per_minute: 60
`), 0o600))

	cfg, err := LoadConfig(p)
	require.NoError(t, err)
	require.Equal(t, "u", cfg.Database.Username)
	require.Equal(t, "calculation.performed", cfg.Kafka.CalculationPerformedTopicName)
	require.Equal(t, 6379, cfg.Redis.Port)
	require.Equal(t, ":8080", cfg.DateBox.HTTPAddr)
	require.Equal(t, 60, cfg.DateBox.RateLimitPerUserPerMinute)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig("/nonexistent/cfg.yaml")
	require.Error(t, err)
}
