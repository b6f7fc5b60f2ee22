package config

import (
	"sync"

	"github.com/tombanbury-cyber/network-rail-integration/errors"
)

// Safe provides thread-safe access to the configuration for components that
// can be reconfigured at runtime. Readers get an independent copy; writers
// swap the whole config after validation.
type Safe struct {
	mu  sync.RWMutex
	cfg *Config
}

// NewSafe wraps a config. A nil argument yields an empty config rather than
// nil so readers never have to check.
func NewSafe(cfg *Config) *Safe {
	if cfg == nil {
		cfg = &Config{}
	}
	return &Safe{cfg: cfg}
}

// Get returns a deep copy of the current configuration.
func (s *Safe) Get() *Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.clone()
}

// Update swaps in a new configuration after applying defaults.
func (s *Safe) Update(cfg *Config) error {
	if cfg == nil {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Safe", "Update", "nil config")
	}
	cfg.applyDefaults()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg = cfg
	return nil
}

func (c *Config) clone() *Config {
	if c == nil {
		return &Config{}
	}
	out := *c

	out.TD.Areas = append([]string(nil), c.TD.Areas...)
	out.Filters.TOCs = append([]string(nil), c.Filters.TOCs...)
	out.Filters.EventTypes = append([]string(nil), c.Filters.EventTypes...)
	out.Stations = append([]StationConfig(nil), c.Stations...)

	out.TrackSections = make([]TrackSectionConfig, len(c.TrackSections))
	for i, ts := range c.TrackSections {
		ts.TDAreas = append([]string(nil), ts.TDAreas...)
		ts.AlertClasses = append([]string(nil), ts.AlertClasses...)
		out.TrackSections[i] = ts
	}
	return &out
}
