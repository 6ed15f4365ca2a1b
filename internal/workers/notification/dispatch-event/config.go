// internal/workers/notification/dispatch-event/config.go
package dispatchevent

import "time"

type Config struct {
	Timeout       time.Duration
	AlertsEnabled bool
	AlertTopicARN string
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 30 * time.Second,
	}
}
