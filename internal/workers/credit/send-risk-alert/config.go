// internal/workers/credit/send-risk-alert/config.go
package sendriskalert

import "time"

type Config struct {
	EmailEnabled bool
	SMSEnabled   bool
	MinRiskLevel string // SMS is sent at or above this level
	Timeout      time.Duration
}

func LoadConfig() *Config {
	return &Config{
		MinRiskLevel: "High",
		Timeout:      30 * time.Second,
	}
}
