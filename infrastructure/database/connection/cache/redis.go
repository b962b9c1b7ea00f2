package cache

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"prism.io/infrastructure/logger"
)

type RedisConnection struct {
	Client *redis.Client
}

var (
	instance *RedisConnection
	once     sync.Once
)

// GetInstance returns the process-wide redis connection, dialing on first use.
func GetInstance() (*RedisConnection, error) {
	var err error
	once.Do(func() {
		client := redis.NewClient(&redis.Options{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       0,
			PoolSize: 10,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if pingErr := client.Ping(ctx).Err(); pingErr != nil {
			logger.Warning("could not reach redis", logger.LoggerOptions{
				Key:  "error",
				Data: pingErr,
			})
		}
		instance = &RedisConnection{Client: client}
		logger.Info("connected to redis successfully")
	})
	return instance, err
}

func ConnectToCache() {
	GetInstance()
}
