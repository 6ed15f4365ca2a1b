// internal/workers/notification/send-account-email/config.go
package sendaccountemail

import "time"

type Config struct {
	Timeout         time.Duration
	ConfirmationURL string
	ResetURL        string
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 30 * time.Second,
	}
}
