package config

import (
	"fmt"
	"strings"
	"time"
)

// RedisConfig holds the connection settings for the cart cache.
type RedisConfig struct {
	Addr    string        `koanf:"addr"`
	DB      int           `koanf:"db"`
	TTL     time.Duration `koanf:"ttl"`
	Timeout time.Duration `koanf:"timeout"`
}

// String returns a string representation of the Redis configuration.
func (c *RedisConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Redis ---\n")
	b.WriteString(fmt.Sprintf("  addr: %s\n", c.Addr))
	b.WriteString(fmt.Sprintf("  db: %d\n", c.DB))
	b.WriteString(fmt.Sprintf("  ttl: %s\n", c.TTL))
	b.WriteString(fmt.Sprintf("  timeout: %s\n", c.Timeout))
	return b.String()
}

func (c *RedisConfig) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("redis address is not configured")
	}
	if c.TTL <= 0 {
		return fmt.Errorf("redis cart cache TTL is not configured")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("redis dial timeout is not configured")
	}
	return nil
}
