package config

import (
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/tombanbury-cyber/network-rail-integration/errors"
)

// Default feed topics and endpoints.
const (
	DefaultMovementTopic = "TRAIN_MVT_ALL_TOC"
	DefaultTDTopic       = "TD_ALL_SIG_AREA"
	DefaultVSTPTopic     = "VSTP_ALL"

	DefaultSmartDataURL = "https://publicdatafeeds.networkrail.co.uk/ntrod/SupportingFileAuthenticate?type=SMART"
	DefaultCacheFile    = "smart_data.json"

	DefaultCacheExpiryDays = 30

	DefaultEventHistorySize     = 10
	MinEventHistorySize         = 1
	MaxEventHistorySize         = 50
	DefaultUpdateIntervalSec    = 3
	DefaultMaxBatchSize         = 50
	DefaultMaxMessagesPerSecond = 20

	DefaultMetricsListen = ":9090"
)

// Config is the complete application configuration.
type Config struct {
	Feed          FeedConfig           `yaml:"feed" validate:"required"`
	Topology      TopologyConfig       `yaml:"topology"`
	TD            TDConfig             `yaml:"td"`
	VSTP          VSTPConfig           `yaml:"vstp"`
	Filters       FilterConfig         `yaml:"filters"`
	Stations      []StationConfig      `yaml:"stations" validate:"dive"`
	RefData       RefDataConfig        `yaml:"refdata"`
	TrackSections []TrackSectionConfig `yaml:"track_sections" validate:"dive"`
	Metrics       MetricsConfig        `yaml:"metrics"`
	Logging       LoggingConfig        `yaml:"logging"`
}

// FeedConfig holds broker connection settings.
type FeedConfig struct {
	URL           string `yaml:"url" validate:"required"`
	Username      string `yaml:"username"`
	Password      string `yaml:"password"`
	MovementTopic string `yaml:"movement_topic"`
	TDTopic       string `yaml:"td_topic"`
	VSTPTopic     string `yaml:"vstp_topic"`
}

// TopologyConfig controls the SMART reference dataset.
type TopologyConfig struct {
	DataURL         string `yaml:"data_url" validate:"omitempty,url"`
	Username        string `yaml:"username"`
	Password        string `yaml:"password"`
	CacheFile       string `yaml:"cache_file"`
	CacheExpiryDays int    `yaml:"cache_expiry_days" validate:"gte=0"`
}

// CacheExpiry returns the cache expiry window as a duration.
func (c TopologyConfig) CacheExpiry() time.Duration {
	return time.Duration(c.CacheExpiryDays) * 24 * time.Hour
}

// TDConfig controls the Train Describer feed and its rate limiting.
type TDConfig struct {
	Enabled              bool     `yaml:"enabled"`
	Areas                []string `yaml:"areas"`
	EventHistorySize     int      `yaml:"event_history_size"`
	UpdateIntervalSec    int      `yaml:"update_interval" validate:"gte=0"`
	MaxBatchSize         int      `yaml:"max_batch_size" validate:"gte=0"`
	MaxMessagesPerSecond int      `yaml:"max_messages_per_second" validate:"gte=0"`
}

// UpdateInterval returns the batch dispatch interval as a duration.
func (c TDConfig) UpdateInterval() time.Duration {
	return time.Duration(c.UpdateIntervalSec) * time.Second
}

// VSTPConfig controls the short-term schedule feed.
type VSTPConfig struct {
	Enabled bool `yaml:"enabled"`
}

// FilterConfig narrows which movement reports are dispatched. Zero values
// pass everything.
type FilterConfig struct {
	Stanox     string   `yaml:"stanox"` // single-station filter, kept alongside Stations
	TOCs       []string `yaml:"tocs"`
	EventTypes []string `yaml:"event_types"`
}

// StationConfig names one tracked station.
type StationConfig struct {
	Stanox string `yaml:"stanox" validate:"required"`
	Name   string `yaml:"name"`
}

// RefDataConfig points at the STANOX→station-name reference table, a
// two-column CSV of stanox,name lines. Optional; without it station names
// fall back to the SMART dataset's STANME field.
type RefDataConfig struct {
	StanoxFile string `yaml:"stanox_file"`
}

// TrackSectionConfig defines one monitored stretch of track.
type TrackSectionConfig struct {
	Name         string   `yaml:"name" validate:"required"`
	CenterStanox string   `yaml:"center_stanox" validate:"required"`
	BerthRange   int      `yaml:"berth_range" validate:"gte=0"`
	TDAreas      []string `yaml:"td_areas"`
	AlertClasses []string `yaml:"alert_classes"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
}

// LoggingConfig controls the slog handler.
type LoggingConfig struct {
	Level  string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	Format string `yaml:"format" validate:"omitempty,oneof=text json"`
}

// Load reads, defaults, and validates a YAML config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapFatal(err, "config", "Load", "read config file")
	}
	return Parse(data)
}

// Parse decodes and validates raw YAML config bytes. Defaults are applied
// before validation, so a minimal file with just the feed URL is valid.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.WrapInvalid(err, "config", "Parse", "decode yaml")
	}

	cfg.applyDefaults()

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, errors.WrapInvalid(err, "config", "Parse", "validate")
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Feed.MovementTopic == "" {
		c.Feed.MovementTopic = DefaultMovementTopic
	}
	if c.Feed.TDTopic == "" {
		c.Feed.TDTopic = DefaultTDTopic
	}
	if c.Feed.VSTPTopic == "" {
		c.Feed.VSTPTopic = DefaultVSTPTopic
	}

	if c.Topology.DataURL == "" {
		c.Topology.DataURL = DefaultSmartDataURL
	}
	if c.Topology.CacheFile == "" {
		c.Topology.CacheFile = DefaultCacheFile
	}
	if c.Topology.CacheExpiryDays == 0 {
		c.Topology.CacheExpiryDays = DefaultCacheExpiryDays
	}
	// Topology credentials default to the feed's; both come from the same
	// account.
	if c.Topology.Username == "" {
		c.Topology.Username = c.Feed.Username
	}
	if c.Topology.Password == "" {
		c.Topology.Password = c.Feed.Password
	}

	// History size clamps rather than errors; out-of-range values are a
	// recoverable user mistake.
	switch {
	case c.TD.EventHistorySize == 0:
		c.TD.EventHistorySize = DefaultEventHistorySize
	case c.TD.EventHistorySize < MinEventHistorySize:
		c.TD.EventHistorySize = MinEventHistorySize
	case c.TD.EventHistorySize > MaxEventHistorySize:
		c.TD.EventHistorySize = MaxEventHistorySize
	}
	if c.TD.UpdateIntervalSec == 0 {
		c.TD.UpdateIntervalSec = DefaultUpdateIntervalSec
	}
	if c.TD.MaxBatchSize == 0 {
		c.TD.MaxBatchSize = DefaultMaxBatchSize
	}
	if c.TD.MaxMessagesPerSecond == 0 {
		c.TD.MaxMessagesPerSecond = DefaultMaxMessagesPerSecond
	}

	if c.Metrics.Listen == "" {
		c.Metrics.Listen = DefaultMetricsListen
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
}

// TrackedStanoxes returns the union of the legacy single filter and the
// station list, deduplicated in declaration order.
func (c *Config) TrackedStanoxes() []string {
	seen := make(map[string]bool)
	var out []string
	add := func(s string) {
		if s != "" && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	add(c.Filters.Stanox)
	for _, st := range c.Stations {
		add(st.Stanox)
	}
	return out
}
