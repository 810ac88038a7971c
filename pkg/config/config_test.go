package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"
)

func TestLoad_DefaultValues(t *testing.T) {
	for _, key := range []string{"DB_DRIVER", "DB_HOST", "DB_PORT", "DB_MAX_IDLE_CONNS", "DB_CONN_MAX_LIFETIME",
		"DB_LOG_LEVEL", "SERVER_PORT", "APP_TIMEZONE", "METRICS_PREFIX", "SEED_FILE"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg, err := Load("measurement-service")
	require.NoError(t, err)

	assert.Equal(t, "measurement-service", cfg.ServiceName)
	assert.Equal(t, DriverPostgres, cfg.DB.Driver)
	assert.Equal(t, "localhost", cfg.DB.Host)
	assert.Equal(t, "5432", cfg.DB.Port)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "measurement_service", cfg.Metrics.Prefix)
	assert.Empty(t, cfg.Seed.File)
	assert.Equal(t, 10, cfg.DB.MaxIdleConns)
	assert.Equal(t, time.Hour, cfg.DB.ConnMaxLifetime)
	assert.Equal(t, logger.Error, cfg.DB.LogLevel)
	assert.Equal(t, time.Local, cfg.Server.Location())
}

func TestLoad_EnvironmentVariables(t *testing.T) {
	t.Setenv("DB_DRIVER", "memory")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_MAX_OPEN_CONNS", "7")
	t.Setenv("DB_CONN_MAX_LIFETIME", "5m")
	t.Setenv("DB_LOG_LEVEL", "warn")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("APP_TIMEZONE", "America/Sao_Paulo")
	t.Setenv("JWT_EXPIRATION_HOURS", "not-a-number")
	t.Setenv("SEED_FILE", "fixtures/dev.yaml")

	cfg, err := Load("measurement-service")
	require.NoError(t, err)

	assert.Equal(t, DriverMemory, cfg.DB.Driver)
	assert.Equal(t, "db.internal", cfg.DB.Host)
	assert.Equal(t, 7, cfg.DB.MaxOpenConns)
	assert.Equal(t, 5*time.Minute, cfg.DB.ConnMaxLifetime)
	assert.Equal(t, logger.Warn, cfg.DB.LogLevel)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "America/Sao_Paulo", cfg.Server.Location().String())
	assert.Equal(t, 24, cfg.JWT.ExpirationHours)
	assert.Equal(t, "fixtures/dev.yaml", cfg.Seed.File)
}

func TestLoad_RejectsUnknownDriver(t *testing.T) {
	t.Setenv("DB_DRIVER", "mongo")
	_, err := Load("measurement-service")
	assert.Error(t, err)
}

func TestLoad_RejectsUnknownTimezone(t *testing.T) {
	t.Setenv("DB_DRIVER", DriverPostgres)
	t.Setenv("APP_TIMEZONE", "Mars/Olympus")
	_, err := Load("measurement-service")
	assert.Error(t, err)
}

func TestGetDSN(t *testing.T) {
	c := DBConfig{Host: "h", Port: "1", User: "u", Password: "p", DBName: "d", SSLMode: "disable"}
	assert.Equal(t, "host=h port=1 user=u password=p dbname=d sslmode=disable", c.GetDSN())
}
