package topology

import (
	"context"
	stderrors "errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/tombanbury-cyber/network-rail-integration/errors"
	"github.com/tombanbury-cyber/network-rail-integration/pkg/retry"
)

// CacheMaxAge is how long a cached dataset stays acceptable before a refresh
// is forced.
const CacheMaxAge = 30 * 24 * time.Hour

// Metrics tracks reference-data lifecycle for Prometheus.
type Metrics struct {
	RecordCount     prometheus.Gauge
	LastRefreshUnix prometheus.Gauge
	RefreshFailures prometheus.Counter
}

// NewMetrics creates and registers the topology metrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RecordCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "topology_record_count",
			Help: "Number of berth step records in the active graph",
		}),
		LastRefreshUnix: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "topology_last_refresh_timestamp_seconds",
			Help: "Unix time of the last successful dataset load",
		}),
		RefreshFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "topology_refresh_failures_total",
			Help: "Number of failed dataset refresh attempts",
		}),
	}
	reg.MustRegister(m.RecordCount, m.LastRefreshUnix, m.RefreshFailures)
	return m
}

// Manager owns the active berth graph. Load prefers the on-disk cache and
// falls back to a fresh download; Refresh always downloads. The graph is
// swapped atomically so queries never observe a half-built index.
type Manager struct {
	fetcher Fetcher
	cache   CacheStore
	logger  *slog.Logger
	metrics *Metrics

	graph       atomic.Pointer[Graph]
	lastUpdated atomic.Pointer[time.Time]
	maxAge      time.Duration
	retryCfg    retry.Config
}

// ManagerOption customizes a Manager.
type ManagerOption func(*Manager)

// WithMetrics attaches Prometheus metrics.
func WithMetrics(m *Metrics) ManagerOption {
	return func(mgr *Manager) { mgr.metrics = m }
}

// WithMaxCacheAge overrides the cache expiry window.
func WithMaxCacheAge(d time.Duration) ManagerOption {
	return func(mgr *Manager) { mgr.maxAge = d }
}

// WithRetryConfig overrides the download retry policy.
func WithRetryConfig(cfg retry.Config) ManagerOption {
	return func(mgr *Manager) { mgr.retryCfg = cfg }
}

// NewManager builds a Manager. The cache store may be nil, in which case
// every load downloads.
func NewManager(fetcher Fetcher, cache CacheStore, logger *slog.Logger, opts ...ManagerOption) *Manager {
	m := &Manager{
		fetcher: fetcher,
		cache:   cache,
		logger:  logger,
		maxAge:  CacheMaxAge,
		retryCfg: retry.Config{
			MaxAttempts:  3,
			InitialDelay: 2 * time.Second,
			MaxDelay:     30 * time.Second,
			Multiplier:   2,
			AddJitter:    true,
		},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Graph returns the active graph, or nil before the first successful load.
func (m *Manager) Graph() *Graph {
	return m.graph.Load()
}

// LastUpdated reports when the active graph's dataset was obtained.
func (m *Manager) LastUpdated() (time.Time, bool) {
	t := m.lastUpdated.Load()
	if t == nil {
		return time.Time{}, false
	}
	return *t, true
}

// Load installs a graph, preferring a fresh-enough cached dataset over a
// download. A stale or unreadable cache falls through to Refresh.
func (m *Manager) Load(ctx context.Context) error {
	if m.cache != nil {
		data, savedAt, err := m.cache.Load()
		switch {
		case err == nil && time.Since(savedAt) <= m.maxAge:
			if g, buildErr := Load(data); buildErr == nil {
				m.install(g, savedAt)
				m.logger.Info("topology loaded from cache",
					"records", g.RecordCount(), "cached_at", savedAt)
				return nil
			} else {
				m.logger.Warn("cached topology dataset unreadable, refreshing", "error", buildErr)
			}
		case err == nil:
			m.logger.Info("cached topology dataset expired, refreshing",
				"cached_at", savedAt, "max_age", m.maxAge)
		case !stderrors.Is(err, errors.ErrCacheMiss):
			m.logger.Warn("topology cache load failed, refreshing", "error", err)
		}
	}
	return m.Refresh(ctx)
}

// Refresh downloads the dataset, rebuilds the graph, and saves the payload
// to cache. Transient download failures are retried with backoff; auth
// failures are not, since bad credentials won't improve between attempts.
// The previous graph stays active if anything fails.
func (m *Manager) Refresh(ctx context.Context) error {
	var data []byte
	err := retry.Do(ctx, m.retryCfg, func() error {
		d, fetchErr := m.fetcher.Fetch(ctx)
		if fetchErr != nil {
			if errors.IsFatal(fetchErr) {
				return retry.NonRetryable(fetchErr)
			}
			return fetchErr
		}
		data = d
		return nil
	})
	if err != nil {
		m.refreshFailed()
		if errors.IsFatal(err) {
			return errors.WrapFatal(err, "Manager", "Refresh", "fetch dataset")
		}
		return errors.WrapTransient(err, "Manager", "Refresh", "fetch dataset")
	}

	g, err := Load(data)
	if err != nil {
		m.refreshFailed()
		return errors.WrapInvalid(err, "Manager", "Refresh", "build graph")
	}

	now := time.Now()
	m.install(g, now)
	m.logger.Info("topology refreshed", "records", g.RecordCount())

	if m.cache != nil {
		if err := m.cache.Save(data); err != nil {
			// The in-memory graph is already live; a cache write failure
			// only costs the next startup a download.
			m.logger.Warn("topology cache save failed", "error", err)
		}
	}
	return nil
}

func (m *Manager) install(g *Graph, at time.Time) {
	m.graph.Store(g)
	m.lastUpdated.Store(&at)
	if m.metrics != nil {
		m.metrics.RecordCount.Set(float64(g.RecordCount()))
		m.metrics.LastRefreshUnix.Set(float64(at.Unix()))
	}
}

func (m *Manager) refreshFailed() {
	if m.metrics != nil {
		m.metrics.RefreshFailures.Inc()
	}
}
