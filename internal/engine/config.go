package engine

import "github.com/roach88/vats/internal/device"

// Default priority bounds and fallback.
const (
	DefaultUnknownPriority = 999
	DefaultMinPriority     = 1
	DefaultMaxPriority     = 100
)

// Config is the ranking configuration held by an Engine.
type Config struct {
	// Priorities maps a model name to its default priority. Smaller wins.
	Priorities map[string]int

	// UnknownPriority applies to models missing from Priorities.
	UnknownPriority int

	// MinPriority and MaxPriority bound custom priorities, inclusive.
	MinPriority int
	MaxPriority int
}

// DefaultConfig returns the stock headset priority table.
func DefaultConfig() Config {
	return Config{
		Priorities: map[string]int{
			"Quest3":      1,
			"Quest2":      2,
			"HTC_Vive_XR": 3,
		},
		UnknownPriority: DefaultUnknownPriority,
		MinPriority:     DefaultMinPriority,
		MaxPriority:     DefaultMaxPriority,
	}
}

// withDefaults fills zero values so a partially built Config still ranks.
func (c Config) withDefaults() Config {
	if c.UnknownPriority == 0 {
		c.UnknownPriority = DefaultUnknownPriority
	}
	if c.MinPriority == 0 {
		c.MinPriority = DefaultMinPriority
	}
	if c.MaxPriority == 0 {
		c.MaxPriority = DefaultMaxPriority
	}
	return c
}

// DefaultPriority returns the configured priority for a model.
func (c Config) DefaultPriority(model string) int {
	if p, ok := c.Priorities[model]; ok {
		return p
	}
	return c.UnknownPriority
}

// EffectivePriority returns the device's custom priority if set, else its
// model default. custom reports which one applied.
func (c Config) EffectivePriority(d device.Device) (value int, custom bool) {
	if d.CustomPriority != nil {
		return *d.CustomPriority, true
	}
	return c.DefaultPriority(d.Model), false
}
