package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "  s3cret ")
	t.Setenv("MQ_BACKEND", "RabbitMQ")

	cfg := LoadConfig()

	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, "s3cret", cfg.JWTSecret)
	assert.Equal(t, 8*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, MQBackendRabbitMQ, cfg.MQ.Backend)
	assert.Equal(t, "clubroom.activity", cfg.MQ.RabbitMQ.Exchange)
	assert.Equal(t, ".tail", cfg.MQ.RabbitMQ.QueueSuffix)
	assert.Equal(t, StorageBackendNone, cfg.Storage.Backend)
	assert.False(t, cfg.Database.UseSSL)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("TOKEN_TTL", "45m")
	t.Setenv("REQUEST_TIMEOUT", "not-a-duration")
	t.Setenv("DB_SSL", "true")
	t.Setenv("REDIS_ADDR", "localhost:6379")

	cfg := LoadConfig()

	assert.Equal(t, 9090, cfg.ServerPort)
	assert.Equal(t, 45*time.Minute, cfg.TokenTTL)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.True(t, cfg.Database.UseSSL)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
}
