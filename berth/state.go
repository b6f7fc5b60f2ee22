// Package berth maintains live berth and platform occupancy reconstructed
// from Train Describer events.
//
// The feed is best-effort and lossy: events arrive out of order, steps for
// berths never seen before are normal, and a cancel may follow an interpose
// that was itself dropped. The state machine is therefore last-write-wins per
// berth with no per-berth history; a bounded global event log covers recent
// activity across all TD areas.
//
// Mutations happen only from the hub's dispatch goroutine (single-writer
// invariant); all accessors return independent copies so observers can never
// mutate shared state or see a torn update.
package berth

import (
	"strings"
	"sync"

	"github.com/tombanbury-cyber/network-rail-integration/feed"
	"github.com/tombanbury-cyber/network-rail-integration/pkg/ring"
)

// Event history bounds. Out-of-range configuration is clamped, not rejected.
const (
	MinHistorySize     = 1
	MaxHistorySize     = 50
	DefaultHistorySize = 10
)

// Key identifies a berth within a TD area.
type Key struct {
	Area  string
	Berth string
}

func (k Key) String() string {
	return k.Area + ":" + k.Berth
}

// ParseKey splits an "AREA:BERTH" string into a Key.
func ParseKey(s string) (Key, bool) {
	area, berth, ok := strings.Cut(s, ":")
	if !ok || area == "" || berth == "" {
		return Key{}, false
	}
	return Key{Area: area, Berth: berth}, true
}

// Occupant is the train currently described in a berth.
type Occupant struct {
	Description string `json:"description"`
	Timestamp   string `json:"timestamp"`
}

// PlatformStatus distinguishes an occupied platform from a free one.
type PlatformStatus string

// Platform statuses
const (
	PlatformIdle   PlatformStatus = "idle"
	PlatformActive PlatformStatus = "active"
)

// PlatformEvent is the event that last activated a platform.
type PlatformEvent string

// Platform events
const (
	PlatformArrive    PlatformEvent = "arrive"
	PlatformInterpose PlatformEvent = "interpose"
)

// Platform is the derived occupancy of a physical platform, driven by the
// berths mapped to it.
type Platform struct {
	PlatformID   string         `json:"platform_id"`
	CurrentTrain string         `json:"current_train,omitempty"`
	CurrentEvent PlatformEvent  `json:"current_event,omitempty"`
	LastUpdated  string         `json:"last_updated"`
	Status       PlatformStatus `json:"status"`
}

// EventType labels a history entry.
type EventType string

// Event types recorded in history
const (
	EventStep      EventType = "step"
	EventCancel    EventType = "cancel"
	EventInterpose EventType = "interpose"
)

// EventRecord is one immutable history entry. Heartbeats and signalling
// messages are not recorded.
type EventRecord struct {
	MsgType      feed.TDMsgType `json:"msg_type"`
	AreaID       string         `json:"area_id"`
	Timestamp    string         `json:"timestamp"`
	EventType    EventType      `json:"event_type"`
	FromBerth    string         `json:"from_berth,omitempty"`
	ToBerth      string         `json:"to_berth,omitempty"`
	FromPlatform string         `json:"from_platform,omitempty"`
	ToPlatform   string         `json:"to_platform,omitempty"`
	TrainID      string         `json:"train_id"`
}

// State tracks berth and platform occupancy plus a bounded event history.
// Mutators are intended for a single goroutine (the hub's dispatch loop);
// read accessors are safe from any goroutine and return copies.
type State struct {
	mu              sync.RWMutex
	berths          map[Key]Occupant
	platforms       map[string]Platform
	berthToPlatform map[Key]string
	history         *ring.Ring[EventRecord]
	historySize     int
}

// New creates a State with the given event history size (clamped to 1-50).
func New(historySize int) *State {
	size := clampHistorySize(historySize)
	return &State{
		berths:          make(map[Key]Occupant),
		platforms:       make(map[string]Platform),
		berthToPlatform: make(map[Key]string),
		history:         ring.New[EventRecord](size),
		historySize:     size,
	}
}

func clampHistorySize(size int) int {
	if size < MinHistorySize {
		return MinHistorySize
	}
	if size > MaxHistorySize {
		return MaxHistorySize
	}
	return size
}

// SetPlatformMapping replaces the berth-to-platform table. The mapping is
// copied; an empty or nil mapping disables platform tracking for subsequent
// events.
func (s *State) SetPlatformMapping(mapping map[Key]string) {
	copied := make(map[Key]string, len(mapping))
	for k, v := range mapping {
		copied[k] = v
	}
	s.mu.Lock()
	s.berthToPlatform = copied
	s.mu.Unlock()
}

// SetEventHistorySize reconfigures the history bound at runtime, truncating
// to the most recent entries when shrinking. Out-of-range input is clamped.
func (s *State) SetEventHistorySize(size int) {
	clamped := clampHistorySize(size)
	s.mu.Lock()
	defer s.mu.Unlock()
	if clamped == s.historySize {
		return
	}
	s.historySize = clamped
	s.history.Resize(clamped)
}

// HistorySize returns the configured event history bound.
func (s *State) HistorySize() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.historySize
}

// Apply mutates state for one TD event. Step clears the source berth and
// occupies the destination; cancel clears; interpose occupies. Heartbeats and
// signalling events are ignored. Each berth operation appends one history
// record.
func (s *State) Apply(event feed.TDEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch event.MsgType {
	case feed.TDStep:
		s.applyStep(event)
	case feed.TDCancel:
		s.applyCancel(event)
	case feed.TDInterpose:
		s.applyInterpose(event)
	}
}

func (s *State) applyStep(event feed.TDEvent) {
	from := Key{Area: event.AreaID, Berth: event.FromBerth}
	to := Key{Area: event.AreaID, Berth: event.ToBerth}

	record := EventRecord{
		MsgType:   event.MsgType,
		AreaID:    event.AreaID,
		Timestamp: event.Time,
		EventType: EventStep,
		FromBerth: event.FromBerth,
		ToBerth:   event.ToBerth,
		TrainID:   event.Description,
	}

	fromPlatform := s.berthToPlatform[from]
	toPlatform := s.berthToPlatform[to]
	record.FromPlatform = fromPlatform
	record.ToPlatform = toPlatform

	delete(s.berths, from)
	s.markPlatformIdle(fromPlatform, event.Time)

	s.berths[to] = Occupant{Description: event.Description, Timestamp: event.Time}
	s.markPlatformActive(toPlatform, event.Description, PlatformArrive, event.Time)

	s.history.Append(record)
}

func (s *State) applyCancel(event feed.TDEvent) {
	from := Key{Area: event.AreaID, Berth: event.FromBerth}
	fromPlatform := s.berthToPlatform[from]

	delete(s.berths, from)
	s.markPlatformIdle(fromPlatform, event.Time)

	s.history.Append(EventRecord{
		MsgType:      event.MsgType,
		AreaID:       event.AreaID,
		Timestamp:    event.Time,
		EventType:    EventCancel,
		FromBerth:    event.FromBerth,
		FromPlatform: fromPlatform,
		TrainID:      event.Description,
	})
}

func (s *State) applyInterpose(event feed.TDEvent) {
	to := Key{Area: event.AreaID, Berth: event.ToBerth}
	toPlatform := s.berthToPlatform[to]

	s.berths[to] = Occupant{Description: event.Description, Timestamp: event.Time}
	s.markPlatformActive(toPlatform, event.Description, PlatformInterpose, event.Time)

	s.history.Append(EventRecord{
		MsgType:    event.MsgType,
		AreaID:     event.AreaID,
		Timestamp:  event.Time,
		EventType:  EventInterpose,
		ToBerth:    event.ToBerth,
		ToPlatform: toPlatform,
		TrainID:    event.Description,
	})
}

func (s *State) markPlatformIdle(platformID, timestamp string) {
	if platformID == "" {
		return
	}
	s.platforms[platformID] = Platform{
		PlatformID:  platformID,
		LastUpdated: timestamp,
		Status:      PlatformIdle,
	}
}

func (s *State) markPlatformActive(platformID, train string, event PlatformEvent, timestamp string) {
	if platformID == "" {
		return
	}
	s.platforms[platformID] = Platform{
		PlatformID:   platformID,
		CurrentTrain: train,
		CurrentEvent: event,
		LastUpdated:  timestamp,
		Status:       PlatformActive,
	}
}
