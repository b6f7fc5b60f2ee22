// Package tracksection watches trains traversing a configured corridor of
// berths and raises alerts for services matching a per-section class filter.
//
// A Monitor is a pure consumer of Train Describer events: it owns no network
// connection and no parsing. Feed it events from the hub's dispatch loop (or
// a batch observer) and it maintains a per-train position map, consulting a
// schedule store and a service classifier only when a train first enters the
// monitored set.
package tracksection

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tombanbury-cyber/network-rail-integration/berth"
	"github.com/tombanbury-cyber/network-rail-integration/errors"
	"github.com/tombanbury-cyber/network-rail-integration/feed"
	"github.com/tombanbury-cyber/network-rail-integration/topology"
)

// Schedule is the enrichment record returned by a schedule store for a
// headcode. Fields mirror what the store knows; all may be empty except UID.
type Schedule struct {
	UID              string
	Headcode         string
	OperatorCode     string
	TrainCategory    string
	TrainServiceCode string
	Origin           string
	Destination      string
}

// ScheduleLookup resolves a train description (headcode) to its schedule.
// A nil schedule with a nil error means the store has no match; that is not
// a failure.
type ScheduleLookup interface {
	Lookup(ctx context.Context, headcode string) (*Schedule, error)
}

// ServiceClassifier buckets a schedule into a service class such as
// "passenger" or "freight". An empty class means unclassifiable.
type ServiceClassifier interface {
	Classify(sched Schedule) string
}

// Alert is emitted when a train entering the section matches the section's
// alert classes.
type Alert struct {
	ID       string
	Section  string
	Train    string
	Berth    berth.Key
	Class    string
	Schedule Schedule
	RaisedAt time.Time
}

// AlertFunc receives alerts on the goroutine that applied the triggering
// event.
type AlertFunc func(Alert)

// TrainPosition is one tracked train inside the section.
type TrainPosition struct {
	Train         string
	CurrentBerth  berth.Key
	EnteredAt     time.Time
	BerthsVisited []berth.Key
}

// Config defines one monitored section.
type Config struct {
	// Name labels the section in alerts and logs.
	Name string
	// CenterStanox anchors the monitored corridor.
	CenterStanox string
	// BerthRange is how many berth hops out from the center's berths the
	// monitored set extends. Zero monitors only the center's own berths.
	BerthRange int
	// TDAreas restricts the monitored set to these areas; empty means any.
	TDAreas []string
	// AlertClasses is the set of service classes that raise alerts. Empty
	// disables alerting; the position map is still maintained.
	AlertClasses []string
}

// Monitor tracks trains within one section's berth set.
type Monitor struct {
	cfg        Config
	schedules  ScheduleLookup
	classifier ServiceClassifier
	onAlert    AlertFunc
	logger     *slog.Logger

	monitored map[berth.Key]bool
	areas     map[string]bool
	classes   map[string]bool

	mu     sync.RWMutex
	trains map[string]*TrainPosition

	now func() time.Time
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithAlertFunc sets the alert callback.
func WithAlertFunc(fn AlertFunc) Option {
	return func(m *Monitor) { m.onAlert = fn }
}

// WithClock injects a time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Monitor) { m.now = now }
}

// NewMonitor derives the monitored berth set from the topology graph and
// returns a ready Monitor. Returns an error when the center station has no
// berths in the graph, since an empty set would silently monitor nothing.
// schedules and classifier may be nil; entry tracking still works, alerting
// is skipped.
func NewMonitor(cfg Config, graph *topology.Graph, schedules ScheduleLookup, classifier ServiceClassifier, logger *slog.Logger, opts ...Option) (*Monitor, error) {
	if logger == nil {
		logger = slog.Default()
	}

	areas := make(map[string]bool, len(cfg.TDAreas))
	for _, area := range cfg.TDAreas {
		areas[area] = true
	}

	monitored := monitoredSet(graph, cfg.CenterStanox, cfg.BerthRange, areas)
	if len(monitored) == 0 {
		return nil, errors.WrapInvalid(errors.ErrEmptyDataset, "Monitor", "NewMonitor",
			"derive berth set for "+cfg.CenterStanox)
	}

	classes := make(map[string]bool, len(cfg.AlertClasses))
	for _, class := range cfg.AlertClasses {
		classes[class] = true
	}

	m := &Monitor{
		cfg:        cfg,
		schedules:  schedules,
		classifier: classifier,
		logger:     logger.With("component", "tracksection", "section", cfg.Name),
		monitored:  monitored,
		areas:      areas,
		classes:    classes,
		trains:     make(map[string]*TrainPosition),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}

	m.logger.Info("track section monitor ready",
		"center_stanox", cfg.CenterStanox,
		"berth_range", cfg.BerthRange,
		"monitored_berths", len(monitored))
	return m, nil
}

// monitoredSet walks outward from the center station's berths, both link
// directions, up to berthRange hops, keeping berths in the allowed TD areas.
func monitoredSet(graph *topology.Graph, centerStanox string, berthRange int, areas map[string]bool) map[berth.Key]bool {
	allowed := func(key berth.Key) bool {
		return len(areas) == 0 || areas[key.Area]
	}

	set := make(map[berth.Key]bool)
	var frontier []berth.Key
	for _, key := range graph.StationBerthKeys(centerStanox) {
		if allowed(key) && !set[key] {
			set[key] = true
			frontier = append(frontier, key)
		}
	}

	for hop := 0; hop < berthRange; hop++ {
		var next []berth.Key
		for _, key := range frontier {
			links := graph.AdjacentBerths(key)
			for _, conn := range append(links.To, links.From...) {
				neighbor := berth.Key{Area: conn.TDArea, Berth: conn.Berth}
				if neighbor.Area == "" {
					neighbor.Area = key.Area
				}
				if !allowed(neighbor) || set[neighbor] {
					continue
				}
				set[neighbor] = true
				next = append(next, neighbor)
			}
		}
		frontier = next
	}
	return set
}

// Name returns the section label.
func (m *Monitor) Name() string { return m.cfg.Name }

// MonitoredBerthCount returns the size of the derived berth set.
func (m *Monitor) MonitoredBerthCount() int { return len(m.monitored) }

// Monitors reports whether a berth belongs to the section.
func (m *Monitor) Monitors(key berth.Key) bool { return m.monitored[key] }

// Apply advances the per-train map with one TD event. Safe for a single
// caller; the hub's dispatch loop is the intended one.
func (m *Monitor) Apply(ctx context.Context, event feed.TDEvent) {
	switch event.MsgType {
	case feed.TDStep:
		from := berth.Key{Area: event.AreaID, Berth: event.FromBerth}
		to := berth.Key{Area: event.AreaID, Berth: event.ToBerth}
		m.transition(ctx, event.Description, from, to)
	case feed.TDInterpose:
		to := berth.Key{Area: event.AreaID, Berth: event.ToBerth}
		m.transition(ctx, event.Description, berth.Key{}, to)
	case feed.TDCancel:
		m.remove(event.Description)
	}
}

func (m *Monitor) transition(ctx context.Context, train string, from, to berth.Key) {
	if train == "" {
		return
	}
	fromIn := from.Berth != "" && m.monitored[from]
	toIn := to.Berth != "" && m.monitored[to]

	switch {
	case toIn && !fromIn:
		m.enter(ctx, train, to)
	case toIn && fromIn:
		m.advance(train, to)
	case fromIn && !toIn:
		m.exit(train)
	}
}

func (m *Monitor) enter(ctx context.Context, train string, at berth.Key) {
	m.mu.Lock()
	m.trains[train] = &TrainPosition{
		Train:         train,
		CurrentBerth:  at,
		EnteredAt:     m.now(),
		BerthsVisited: []berth.Key{at},
	}
	m.mu.Unlock()

	m.logger.Debug("train entered section", "train", train, "berth", at.String())
	m.evaluateAlert(ctx, train, at)
}

func (m *Monitor) advance(train string, to berth.Key) {
	m.mu.Lock()
	defer m.mu.Unlock()

	pos, ok := m.trains[train]
	if !ok {
		// First sighting was an internal move; treat as entry without
		// re-running enrichment, the entry edge was missed.
		m.trains[train] = &TrainPosition{
			Train:         train,
			CurrentBerth:  to,
			EnteredAt:     m.now(),
			BerthsVisited: []berth.Key{to},
		}
		return
	}
	pos.CurrentBerth = to
	pos.BerthsVisited = append(pos.BerthsVisited, to)
}

func (m *Monitor) exit(train string) {
	m.mu.Lock()
	_, ok := m.trains[train]
	delete(m.trains, train)
	m.mu.Unlock()
	if ok {
		m.logger.Debug("train left section", "train", train)
	}
}

func (m *Monitor) remove(train string) {
	if train == "" {
		return
	}
	m.mu.Lock()
	delete(m.trains, train)
	m.mu.Unlock()
}

func (m *Monitor) evaluateAlert(ctx context.Context, train string, at berth.Key) {
	if m.onAlert == nil || len(m.classes) == 0 || m.schedules == nil || m.classifier == nil {
		return
	}

	sched, err := m.schedules.Lookup(ctx, train)
	if err != nil {
		m.logger.Warn("schedule lookup failed", "train", train, "error", err)
		return
	}
	if sched == nil {
		return
	}

	class := m.classifier.Classify(*sched)
	if class == "" || !m.classes[class] {
		return
	}

	m.onAlert(Alert{
		ID:       uuid.NewString(),
		Section:  m.cfg.Name,
		Train:    train,
		Berth:    at,
		Class:    class,
		Schedule: *sched,
		RaisedAt: m.now(),
	})
}

// Trains returns a copy of the per-train position map.
func (m *Monitor) Trains() map[string]TrainPosition {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]TrainPosition, len(m.trains))
	for train, pos := range m.trains {
		copied := *pos
		copied.BerthsVisited = append([]berth.Key(nil), pos.BerthsVisited...)
		out[train] = copied
	}
	return out
}
