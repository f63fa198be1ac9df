package config

import (
	"os"
	"sync"
)

type RedisConfig struct {
	Addr     string
	Password string
}

var (
	redisConfig *RedisConfig
	redisOnce   sync.Once
)

func LoadRedisConfig() *RedisConfig {
	redisOnce.Do(func() {
		redisConfig = &RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
		}
		if redisConfig.Addr == "" {
			redisConfig.Addr = "localhost:6379"
		}
	})
	return redisConfig
}
