package config

import (
	"fmt"
	"strings"
	"time"
)

// MailerConfig holds the connection settings for the transactional email
// provider.
type MailerConfig struct {
	BaseURL string        `koanf:"baseurl"`
	APIKey  string        `koanf:"apikey"`
	From    string        `koanf:"from"`
	Timeout time.Duration `koanf:"timeout"`
}

// String returns a string representation of the mailer configuration.
func (c *MailerConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Mailer ---\n")
	b.WriteString(fmt.Sprintf("  baseurl: %s\n", c.BaseURL))
	b.WriteString(fmt.Sprintf("  apikey: %s\n", maskKey(c.APIKey)))
	b.WriteString(fmt.Sprintf("  from: %s\n", c.From))
	b.WriteString(fmt.Sprintf("  timeout: %s\n", c.Timeout))
	return b.String()
}

func (c *MailerConfig) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("mailer base URL is not configured")
	}
	if c.From == "" {
		return fmt.Errorf("mailer sender address is not configured")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("mailer timeout is not configured")
	}
	return nil
}
