package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Environment variables read by ApplyEnv.
const (
	EnvRedisAddr     = "WIKICRAWL_REDIS_ADDR"
	EnvRedisPassword = "WIKICRAWL_REDIS_PASSWORD"
	EnvRedisDB       = "WIKICRAWL_REDIS_DB"
)

// LoadEnv loads .env files into the process environment. Missing files are
// skipped and variables already set are not overridden. With no arguments
// it loads ".env" from the current directory.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// ApplyEnv fills the Redis settings from the environment. Values already
// set (from flags) win.
func (c *Config) ApplyEnv() error {
	if c.RedisAddr == "" {
		c.RedisAddr = os.Getenv(EnvRedisAddr)
	}
	if c.RedisPassword == "" {
		c.RedisPassword = os.Getenv(EnvRedisPassword)
	}
	if v := os.Getenv(EnvRedisDB); v != "" && c.RedisDB == DefaultRedisDB {
		db, err := strconv.Atoi(v)
		if err != nil || db < 0 {
			return fmt.Errorf("%w: %s=%q", ErrInvalidRedisDB, EnvRedisDB, v)
		}
		c.RedisDB = db
	}
	return nil
}
