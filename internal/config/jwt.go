package config

import (
	"log"
	"os"
	"sync"
	"time"
)

type JWTConfig struct {
	Secret        string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

var (
	jwtConfig *JWTConfig
	jwtOnce   sync.Once
)

func LoadJWTConfig() *JWTConfig {
	jwtOnce.Do(func() {
		jwtConfig = &JWTConfig{
			Secret:        os.Getenv("JWT_SECRET"),
			RefreshSecret: os.Getenv("JWT_REFRESH_SECRET"),
			AccessTTL:     parseDuration(os.Getenv("JWT_EXPIRES_IN"), 15*time.Minute),
			RefreshTTL:    parseDuration(os.Getenv("JWT_REFRESH_EXPIRES_IN"), 7*24*time.Hour),
		}
		if jwtConfig.Secret == "" {
			log.Println("Warning: JWT_SECRET not set, using insecure default")
			jwtConfig.Secret = "dev"
		}
		if jwtConfig.RefreshSecret == "" {
			jwtConfig.RefreshSecret = jwtConfig.Secret
		}
	})
	return jwtConfig
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("Warning: invalid duration %q, using %s", raw, fallback)
		return fallback
	}
	return d
}
