// Package main implements the nrfeed entry point. nrfeed ingests the Network
// Rail open data feeds (train movements, Train Describer, VSTP schedules),
// reconstructs berth and platform occupancy, and raises track-section alerts.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/tombanbury-cyber/network-rail-integration/berth"
	"github.com/tombanbury-cyber/network-rail-integration/config"
	"github.com/tombanbury-cyber/network-rail-integration/hub"
	"github.com/tombanbury-cyber/network-rail-integration/metric"
	"github.com/tombanbury-cyber/network-rail-integration/ratelimit"
	"github.com/tombanbury-cyber/network-rail-integration/refdata"
	"github.com/tombanbury-cyber/network-rail-integration/topology"
	"github.com/tombanbury-cyber/network-rail-integration/tracksection"
)

// Build information constants
const (
	Version = "0.1.0"
	appName = "nrfeed"
)

// topologyRefreshCheck is how often the background refresher compares the
// dataset age against the configured expiry.
const topologyRefreshCheck = time.Hour

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := run(); err != nil {
		slog.Error("Application failed", "error", err, "exit_code", 1)
		os.Exit(1)
	}
}

func run() error {
	cliCfg := parseFlags()
	if err := validateFlags(cliCfg); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}

	if cliCfg.ShowVersion {
		fmt.Printf("%s version %s\n", appName, Version)
		return nil
	}
	if cliCfg.ShowHelp {
		printDetailedHelp()
		return nil
	}

	cfg, err := config.Load(cliCfg.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if cliCfg.Validate {
		slog.Info("Configuration is valid", "path", cliCfg.ConfigPath)
		return nil
	}

	// CLI flags win over the config file's logging section.
	level := cfg.Logging.Level
	if cliCfg.LogLevel != "" {
		level = cliCfg.LogLevel
	}
	format := cfg.Logging.Format
	if cliCfg.LogFormat != "" {
		format = cliCfg.LogFormat
	}
	logger := setupLogger(level, format)
	slog.SetDefault(logger)

	logger.Info("starting nrfeed",
		"config_path", cliCfg.ConfigPath,
		"feed_url", cfg.Feed.URL,
		"td_enabled", cfg.TD.Enabled,
		"vstp_enabled", cfg.VSTP.Enabled)

	registry := metric.NewRegistry()

	lookup := loadStationLookup(cfg, logger)

	signalCtx, signalCancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer signalCancel()

	topo := setupTopology(signalCtx, cfg, registry, logger)

	berths := berth.New(cfg.TD.EventHistorySize)
	applyPlatformMappings(berths, topo, cfg.TD.Areas, logger)

	feedHub := buildHub(cfg, berths, registry, logger)
	setupTrackSections(cfg, topo, feedHub, lookup, logger)

	g, gctx := errgroup.WithContext(signalCtx)

	var metricsServer *metric.Server
	if cfg.Metrics.Enabled {
		metricsServer = metric.NewServer(cfg.Metrics.Listen, registry)
		g.Go(metricsServer.Start)
		logger.Info("metrics endpoint enabled", "listen", cfg.Metrics.Listen)
	}

	if topo != nil {
		g.Go(func() error {
			refreshTopology(gctx, topo, cfg.Topology.CacheExpiry(), logger)
			return nil
		})
	}

	if err := feedHub.Start(gctx); err != nil {
		return fmt.Errorf("start hub: %w", err)
	}
	logger.Info("nrfeed started")

	<-gctx.Done()
	logger.Info("shutdown signal received")

	if err := feedHub.Stop(cliCfg.ShutdownTimeout); err != nil {
		logger.Warn("hub shutdown incomplete", "error", err)
	}
	if metricsServer != nil {
		if err := metricsServer.Shutdown(cliCfg.ShutdownTimeout); err != nil {
			logger.Warn("metrics server shutdown failed", "error", err)
		}
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("worker failed: %w", err)
	}

	logger.Info("nrfeed shutdown complete")
	return nil
}

// loadStationLookup reads the optional STANOX name table. Failure to load it
// degrades station naming, nothing else, so it only warns.
func loadStationLookup(cfg *config.Config, logger *slog.Logger) *refdata.Lookup {
	if cfg.RefData.StanoxFile == "" {
		return nil
	}

	f, err := os.Open(cfg.RefData.StanoxFile)
	if err != nil {
		logger.Warn("stanox reference table unavailable", "path", cfg.RefData.StanoxFile, "error", err)
		return nil
	}
	defer func() { _ = f.Close() }()

	lookup, err := refdata.NewLookup(f)
	if err != nil {
		logger.Warn("stanox reference table unreadable", "path", cfg.RefData.StanoxFile, "error", err)
		return nil
	}

	logger.Info("station reference table loaded",
		"path", cfg.RefData.StanoxFile,
		"stations", lookup.StationCount())
	for _, stanox := range cfg.TrackedStanoxes() {
		if name, ok := lookup.StationName(stanox); ok {
			logger.Debug("tracking station", "stanox", stanox, "name", name)
		}
	}
	return lookup
}

// setupTopology builds the SMART dataset manager and does the initial
// cache-first load. A load failure is not fatal: the feed still runs, only
// topology-derived features (platforms, track sections) are missing.
func setupTopology(ctx context.Context, cfg *config.Config, registry prometheus.Registerer, logger *slog.Logger) *topology.Manager {
	if cfg.Topology.DataURL == "" {
		return nil
	}

	fetcher := topology.NewHTTPFetcher(cfg.Topology.DataURL, cfg.Topology.Username, cfg.Topology.Password)
	cache := topology.NewFileCacheStore(cfg.Topology.CacheFile)
	manager := topology.NewManager(fetcher, cache, logger,
		topology.WithMetrics(topology.NewMetrics(registry)),
		topology.WithMaxCacheAge(cfg.Topology.CacheExpiry()))

	if err := manager.Load(ctx); err != nil {
		logger.Warn("topology dataset unavailable, continuing without it", "error", err)
	} else if graph := manager.Graph(); graph != nil {
		logger.Info("topology dataset loaded", "records", graph.RecordCount())
	}
	return manager
}

// refreshTopology re-fetches the SMART dataset once it ages past the expiry.
func refreshTopology(ctx context.Context, manager *topology.Manager, maxAge time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(topologyRefreshCheck)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			last, ok := manager.LastUpdated()
			if ok && time.Since(last) < maxAge {
				continue
			}
			if err := manager.Refresh(ctx); err != nil {
				logger.Warn("topology refresh failed", "error", err)
			}
		}
	}
}

// applyPlatformMappings wires the berth→platform tables for the configured
// TD areas into the state machine.
func applyPlatformMappings(berths *berth.State, topo *topology.Manager, areas []string, logger *slog.Logger) {
	if topo == nil {
		return
	}
	graph := topo.Graph()
	if graph == nil {
		return
	}

	mapping := make(map[berth.Key]string)
	for _, area := range areas {
		for key, platform := range graph.BerthToPlatformMapping(area) {
			mapping[key] = platform
		}
	}
	if len(mapping) > 0 {
		berths.SetPlatformMapping(mapping)
		logger.Info("platform mapping applied", "berths", len(mapping), "areas", areas)
	}
}

func buildHub(cfg *config.Config, berths *berth.State, registry prometheus.Registerer, logger *slog.Logger) *hub.Hub {
	transport := hub.NewNATSTransport(cfg.Feed.URL, cfg.Feed.Username, cfg.Feed.Password,
		hub.WithClientName(appName))

	return hub.New(hub.Config{
		MovementTopic:   cfg.Feed.MovementTopic,
		TDTopic:         cfg.Feed.TDTopic,
		VSTPTopic:       cfg.Feed.VSTPTopic,
		EnableTD:        cfg.TD.Enabled,
		EnableVSTP:      cfg.VSTP.Enabled,
		TDAreas:         cfg.TD.Areas,
		TrackedStanoxes: cfg.TrackedStanoxes(),
		TOCs:            cfg.Filters.TOCs,
		EventTypes:      cfg.Filters.EventTypes,
		Limiter: ratelimit.Config{
			MaxMessagesPerSecond: cfg.TD.MaxMessagesPerSecond,
			MaxBatchSize:         cfg.TD.MaxBatchSize,
			UpdateInterval:       cfg.TD.UpdateInterval(),
		},
	}, transport, berths, logger, hub.WithMetrics(hub.NewMetrics(registry)))
}

// setupTrackSections builds one monitor per configured section and feeds it
// from the hub's TD batches. Alerts are logged; the default headcode-based
// collaborators classify without an external schedule store.
func setupTrackSections(cfg *config.Config, topo *topology.Manager, feedHub *hub.Hub, lookup *refdata.Lookup, logger *slog.Logger) {
	if len(cfg.TrackSections) == 0 {
		return
	}

	var graph *topology.Graph
	if topo != nil {
		graph = topo.Graph()
	}
	if graph == nil {
		logger.Warn("track sections configured but topology dataset is unavailable",
			"sections", len(cfg.TrackSections))
		return
	}

	for _, section := range cfg.TrackSections {
		monitor, err := tracksection.NewMonitor(
			tracksection.Config{
				Name:         section.Name,
				CenterStanox: section.CenterStanox,
				BerthRange:   section.BerthRange,
				TDAreas:      section.TDAreas,
				AlertClasses: section.AlertClasses,
			},
			graph,
			tracksection.HeadcodeSchedules{},
			tracksection.HeadcodeClassifier{},
			logger,
			tracksection.WithAlertFunc(func(alert tracksection.Alert) {
				logAlert(logger, lookup, alert)
			}))
		if err != nil {
			logger.Warn("track section skipped", "section", section.Name, "error", err)
			continue
		}

		feedHub.OnTDBatch(func(batch hub.TDBatch) {
			for _, event := range batch.Events {
				monitor.Apply(context.Background(), event)
			}
		})
	}
}

func logAlert(logger *slog.Logger, lookup *refdata.Lookup, alert tracksection.Alert) {
	attrs := []any{
		"alert_id", alert.ID,
		"section", alert.Section,
		"train", alert.Train,
		"berth", alert.Berth.String(),
		"class", alert.Class,
	}
	if lookup != nil {
		attrs = append(attrs, "td_area", lookup.TDAreaTitle(alert.Berth.Area))
		if alert.Schedule.OperatorCode != "" {
			attrs = append(attrs, "operator", lookup.TOCName(alert.Schedule.OperatorCode))
		}
	}
	logger.Info("track section alert", attrs...)
}
