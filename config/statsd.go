package config

import "strings"

// StatsdConfig controls StatsD metric emission. Metrics are off unless an
// address is configured and STATSD_ENABLED is set.
type StatsdConfig struct {
	// Enabled turns metric emission on.
	Enabled bool `env:"ENABLED" envDefault:"false"`

	// Address is the UDP host:port of the StatsD agent.
	Address string `env:"ADDR" envDefault:""`

	// Prefix is prepended to every metric name.
	Prefix string `env:"PREFIX" envDefault:"pantrykit"`
}

// Sanitize applies guardrails to StatsD configuration values.
func (c *StatsdConfig) Sanitize() {
	c.Address = strings.TrimSpace(c.Address)
	if c.Address == "" {
		c.Enabled = false
	}
}
