// internal/handlers/activities/list-activities/config.go
package listactivities

// No per-handler settings yet; struct provided for consistency
type Config struct{}

func LoadConfig() *Config {
	return &Config{}
}
