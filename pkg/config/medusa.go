package config

import (
	"fmt"
	"strings"
	"time"
)

// MedusaConfig holds the connection settings for the commerce backend API.
type MedusaConfig struct {
	BaseURL        string        `koanf:"baseurl"`
	PublishableKey string        `koanf:"publishablekey"`
	Timeout        time.Duration `koanf:"timeout"`
}

// String returns a string representation of the commerce backend configuration.
func (c *MedusaConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Medusa ---\n")
	b.WriteString(fmt.Sprintf("  baseurl: %s\n", c.BaseURL))
	b.WriteString(fmt.Sprintf("  publishablekey: %s\n", maskKey(c.PublishableKey)))
	b.WriteString(fmt.Sprintf("  timeout: %s\n", c.Timeout))
	return b.String()
}

func (c *MedusaConfig) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("medusa base URL is not configured")
	}
	if !strings.HasPrefix(c.BaseURL, "http://") && !strings.HasPrefix(c.BaseURL, "https://") {
		return fmt.Errorf("medusa base URL must start with http:// or https://: %s", c.BaseURL)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("medusa client timeout is not configured")
	}
	return nil
}

// maskKey hides all but the last four characters of an API key.
func maskKey(key string) string {
	if key == "" {
		return "<not configured>"
	}
	if len(key) <= 4 {
		return "****"
	}
	return "****" + key[len(key)-4:]
}
