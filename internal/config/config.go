// Package config handles collector daemon configuration loading using viper.
package config

import (
	"fmt"
	"net/netip"
	"time"

	"github.com/stssrv/forkstream/internal/log"
)

// Config is the top-level collector daemon configuration. Maps to the
// `forkstream:` root key in YAML.
type Config struct {
	Collector CollectorConfig `mapstructure:"collector" yaml:"collector"`
	Control   ControlConfig   `mapstructure:"control" yaml:"control"`
	Metrics   MetricsConfig   `mapstructure:"metrics" yaml:"metrics"`
	Log       log.Config      `mapstructure:"log" yaml:"log"`
}

// CollectorConfig configures the UDP listener and stream tracking.
type CollectorConfig struct {
	// Listen is the UDP endpoint taps send to, "ip:port".
	Listen string `mapstructure:"listen" yaml:"listen"`

	// ReadBatch is the number of datagrams read per batched syscall.
	ReadBatch int `mapstructure:"read_batch" yaml:"read_batch"`

	// StreamTimeout evicts streams that stop sending without ever
	// being torn down on the tap side (UDP gives us no close event).
	StreamTimeout time.Duration `mapstructure:"stream_timeout" yaml:"stream_timeout"`

	// Sinks receive decoded packets. Each entry is a sink type plus
	// type-specific options.
	Sinks []SinkConfig `mapstructure:"sinks" yaml:"sinks"`
}

// SinkConfig selects and configures one collector sink.
type SinkConfig struct {
	Type    string         `mapstructure:"type" yaml:"type"`
	Options map[string]any `mapstructure:"options" yaml:"options,omitempty"`
}

// ControlConfig configures the local control plane.
type ControlConfig struct {
	Socket string `mapstructure:"socket" yaml:"socket"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Listen  string `mapstructure:"listen" yaml:"listen"`
	Path    string `mapstructure:"path" yaml:"path"`
}

// Default returns the built-in configuration: console sink, control
// socket under /var/run, metrics off.
func Default() *Config {
	return &Config{
		Collector: CollectorConfig{
			Listen:        "0.0.0.0:9999",
			ReadBatch:     32,
			StreamTimeout: 5 * time.Minute,
			Sinks:         []SinkConfig{{Type: "console"}},
		},
		Control: ControlConfig{
			Socket: "/var/run/forkstream.sock",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Listen:  "127.0.0.1:9090",
			Path:    "/metrics",
		},
		Log: log.Config{
			Level:   "info",
			Pattern: "%time [%level] %field%msg\n",
			Time:    "2006-01-02 15:04:05",
		},
	}
}

// Validate checks the fields no component can default its way around.
func (c *Config) Validate() error {
	if _, err := netip.ParseAddrPort(c.Collector.Listen); err != nil {
		return fmt.Errorf("forkstream: invalid collector listen address %q: %w", c.Collector.Listen, err)
	}
	if c.Collector.ReadBatch < 1 {
		return fmt.Errorf("forkstream: read_batch must be at least 1, got %d", c.Collector.ReadBatch)
	}
	for i, sink := range c.Collector.Sinks {
		if sink.Type == "" {
			return fmt.Errorf("forkstream: sink %d has no type", i)
		}
	}
	if c.Control.Socket == "" {
		return fmt.Errorf("forkstream: control socket path is empty")
	}
	return nil
}
