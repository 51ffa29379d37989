// Package config loads and validates the netspy configuration.
package config

import (
	"time"
)

// TopicFilter selects topics by name and type. Both accept * and ? wildcards.
type TopicFilter struct {
	Name string `yaml:"name" validate:"required"`
	Type string `yaml:"type,omitempty"`
}

// SimulatedTopic is a topic written by the built-in simulator.
type SimulatedTopic struct {
	Name       string   `yaml:"name" validate:"required"`
	Type       string   `yaml:"type" validate:"required"`
	Reliable   bool     `yaml:"reliable,omitempty"`
	Keyed      bool     `yaml:"keyed,omitempty"`
	Partitions []string `yaml:"partitions,omitempty"`
	// HideType keeps the type definition off the network, so the topic is
	// listed but cannot be printed.
	HideType bool `yaml:"hide_type,omitempty"`
}

type Simulation struct {
	Enabled  bool             `yaml:"enabled"`
	Interval time.Duration    `yaml:"interval" validate:"gt=0"`
	Topics   []SimulatedTopic `yaml:"topics" validate:"dive"`
}

type Logging struct {
	Format string `yaml:"format" validate:"oneof=text json"`
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
}

type Tracing struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"service_name" validate:"required_if=Enabled true"`
	ZipkinURL   string `yaml:"zipkin_url" validate:"required_if=Enabled true,omitempty,url"`
	// SampleRatio is the fraction of bus messages traced when tracing is enabled.
	SampleRatio float64 `yaml:"sample_ratio" validate:"gte=0,lte=1"`
}

type Reload struct {
	// Watch reloads the allowed topics whenever the configuration file changes.
	Watch    bool          `yaml:"watch"`
	Debounce time.Duration `yaml:"debounce" validate:"gte=0"`
}

// Config holds all configuration for the application.
type Config struct {
	Allowlist []TopicFilter `yaml:"allowlist" validate:"dive"`
	Blocklist []TopicFilter `yaml:"blocklist" validate:"dive"`
	// Threads is the number of workers delivering discovery events.
	Threads    int        `yaml:"threads" validate:"min=1,max=256"`
	Domain     int        `yaml:"domain" validate:"min=0,max=232"`
	Simulation Simulation `yaml:"simulation"`
	Logging    Logging    `yaml:"logging"`
	Tracing    Tracing    `yaml:"tracing"`
	Reload     Reload     `yaml:"reload"`
}

// Default returns the configuration used when no file is given: every topic
// allowed and a small simulated network to inspect.
func Default() *Config {
	return &Config{
		Threads: 12,
		Domain:  0,
		Simulation: Simulation{
			Enabled:  true,
			Interval: time.Second,
			Topics: []SimulatedTopic{
				{Name: "Chatter", Type: "std_msgs::String", Reliable: true},
				{Name: "Square", Type: "ShapeType", Keyed: true},
				{Name: "Ghost", Type: "ghost_msgs::Boo", HideType: true},
			},
		},
		Logging: Logging{Format: "text", Level: "info"},
		Tracing: Tracing{
			ServiceName: "netspy",
			ZipkinURL:   "http://localhost:9411/api/v2/spans",
			SampleRatio: 1,
		},
		Reload: Reload{Debounce: 250 * time.Millisecond},
	}
}
