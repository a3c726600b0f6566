// internal/handlers/activities/signup/config.go
package signup

import "time"

type Config struct {
	// SinkTimeout bounds how long enrollment sinks may take per event.
	SinkTimeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		SinkTimeout: 2 * time.Second,
	}
}
