// File: screenlink/utils/redis.go
package utils

import (
	"context"
	"time"

	"screenlink/config"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// MirrorClient is the Redis client backing the durable registry mirror.
var MirrorClient *redis.Client

// InitMirrorClient connects the registry mirror client. Mirror
// unavailability is not fatal: the registry degrades to in-memory only.
func InitMirrorClient() {
	MirrorClient = redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisMirrorDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := MirrorClient.Ping(ctx).Err(); err != nil {
		GetLogger().Warn("Redis mirror unreachable, running in-memory only",
			zap.String("addr", config.AppConfig.RedisAddr), zap.Error(err))
	}
}

// GetMirrorClient returns the mirror client, connecting it on first use.
func GetMirrorClient() *redis.Client {
	if MirrorClient == nil {
		InitMirrorClient()
	}
	return MirrorClient
}
