package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.test.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "")
	t.Setenv("SERVER_MODE", "")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 50, cfg.Notifications.ScanLimit)
	assert.Equal(t, 50, cfg.Notifications.PreviewLength)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoad_FileAndEnvironment(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9000
  mode: production
database:
  driver: mysql
  host: db
  port: 3306
  user: app
  password: pw
  dbname: boostflow
jwt:
  secret: from-file
notifications:
  scan_limit: 20
`)
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092 ,")
	t.Setenv("REDIS_ENABLED", "true")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.False(t, cfg.IsDevelopment())
	assert.Equal(t, "from-env", cfg.JWT.Secret)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, 20, cfg.Notifications.ScanLimit)
	assert.Equal(t, 50, cfg.Notifications.PreviewLength)
	assert.Equal(t, "app:pw@tcp(db:3306)/boostflow?charset=utf8mb4&parseTime=True&loc=Local", cfg.Database.GetDSN())
}

func TestLoad_Validation(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("DB_DRIVER", "")

	_, err := Load(writeConfig(t, "database:\n  driver: postgres\n"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "server:\n  mode: production\n"))
	assert.Error(t, err, "production requires a jwt secret")

	_, err = Load(writeConfig(t, "server: [not a map"))
	assert.Error(t, err)
}
