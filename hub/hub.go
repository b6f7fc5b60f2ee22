// Package hub owns the broker connection and turns the raw feed into ordered
// state updates and typed signals.
//
// One worker goroutine manages connect/subscribe/reconnect. Raw frames arrive
// on transport goroutines, where they are classified and filtered; surviving
// work is enqueued into a single dispatch goroutine that applies events to the
// berth state in arrival order and emits signals. The dispatch queue never
// blocks a transport goroutine: if it is full the item is dropped and counted,
// matching the feed's best-effort contract.
package hub

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tombanbury-cyber/network-rail-integration/berth"
	"github.com/tombanbury-cyber/network-rail-integration/errors"
	"github.com/tombanbury-cyber/network-rail-integration/feed"
	"github.com/tombanbury-cyber/network-rail-integration/pkg/retry"
	"github.com/tombanbury-cyber/network-rail-integration/ratelimit"
)

// Reconnect policy bounds.
const (
	DefaultReconnectInitial = 5 * time.Second
	DefaultReconnectMax     = 60 * time.Second
	defaultDispatchBuffer   = 256
)

// Config selects topics, feature toggles, and filters for one hub instance.
type Config struct {
	MovementTopic string
	TDTopic       string
	VSTPTopic     string

	EnableTD   bool
	EnableVSTP bool

	// TDAreas limits Train Describer processing to these areas; empty means
	// all areas.
	TDAreas []string

	// Movement filters; empty slices pass everything.
	TrackedStanoxes []string
	TOCs            []string
	EventTypes      []string

	Limiter ratelimit.Config

	ReconnectInitial time.Duration
	ReconnectMax     time.Duration
	DispatchBuffer   int
}

// MovementUpdate is delivered to movement observers after each batch that
// survives filtering.
type MovementUpdate struct {
	Latest   feed.MovementRecord
	Kept     int
	ByStanox map[string]feed.MovementRecord
}

// TDBatch is delivered to Train Describer observers once per dispatched
// batch. Latest is the batch's final event, the representative for consumers
// that only show one.
type TDBatch struct {
	Events []feed.TDEvent
	Latest feed.TDEvent
}

// State is a point-in-time snapshot of hub health and last-seen data.
type State struct {
	Connected        bool
	LastError        string
	LastSeen         time.Time
	LastBatchCount   int
	TDMessageCount   uint64
	LastMovement     *feed.MovementRecord
	StationMovements map[string]feed.MovementRecord
	LastTDEvent      *feed.TDEvent
}

type dispatchKind int

const (
	dispatchSeen dispatchKind = iota
	dispatchMovement
	dispatchTDBatch
	dispatchVSTP
)

type dispatchItem struct {
	kind      dispatchKind
	batchSize int
	movement  MovementUpdate
	tdEvents  []feed.TDEvent
	vstp      json.RawMessage
}

// Hub wires transport, limiter, berth state, and observers together.
type Hub struct {
	cfg       Config
	transport Transport
	berths    *berth.State
	limiter   *ratelimit.Limiter
	logger    *slog.Logger
	metrics   *Metrics

	tdAreas    map[string]bool
	tracked    map[string]bool
	tocs       map[string]bool
	eventTypes map[string]bool

	dispatchCh chan dispatchItem

	mu    sync.RWMutex
	state State

	connectionSig signal[bool]
	movementSig   signal[MovementUpdate]
	stationSig    keyedSignal[feed.MovementRecord]
	tdSig         signal[TDBatch]
	areaTDSig     keyedSignal[feed.TDEvent]
	vstpSig       signal[json.RawMessage]

	started atomic.Bool
	stopped atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// Option configures a Hub.
type Option func(*Hub)

// WithMetrics attaches Prometheus metrics.
func WithMetrics(m *Metrics) Option {
	return func(h *Hub) { h.metrics = m }
}

// New creates a Hub. The transport is dialed on Start, not here. A nil
// logger uses slog.Default.
func New(cfg Config, transport Transport, berths *berth.State, logger *slog.Logger, opts ...Option) *Hub {
	if cfg.ReconnectInitial <= 0 {
		cfg.ReconnectInitial = DefaultReconnectInitial
	}
	if cfg.ReconnectMax <= 0 {
		cfg.ReconnectMax = DefaultReconnectMax
	}
	if cfg.DispatchBuffer <= 0 {
		cfg.DispatchBuffer = defaultDispatchBuffer
	}
	if logger == nil {
		logger = slog.Default()
	}

	h := &Hub{
		cfg:        cfg,
		transport:  transport,
		berths:     berths,
		logger:     logger.With("component", "hub"),
		tdAreas:    toSet(cfg.TDAreas),
		tracked:    toSet(cfg.TrackedStanoxes),
		tocs:       toSet(cfg.TOCs),
		eventTypes: toSet(cfg.EventTypes),
		dispatchCh: make(chan dispatchItem, cfg.DispatchBuffer),
	}
	for _, opt := range opts {
		opt(h)
	}

	h.limiter = ratelimit.New(cfg.Limiter, h.enqueueTDBatch, logger)
	return h
}

func toSet(items []string) map[string]bool {
	if len(items) == 0 {
		return nil
	}
	set := make(map[string]bool, len(items))
	for _, item := range items {
		if item != "" {
			set[item] = true
		}
	}
	return set
}

// Start launches the connection worker and the dispatch loop.
func (h *Hub) Start(ctx context.Context) error {
	if !h.started.CompareAndSwap(false, true) {
		return errors.WrapInvalid(errors.ErrAlreadyStarted, "Hub", "Start", "start")
	}

	runCtx, cancel := context.WithCancel(ctx)
	h.cancel = cancel

	h.wg.Add(2)
	go h.dispatchLoop()
	go h.connectionLoop(runCtx)
	return nil
}

// Stop shuts the hub down: the connection worker exits, the pending TD batch
// is flushed, and the dispatch loop drains. Returns ErrShuttingDown if the
// workers do not join within the timeout.
func (h *Hub) Stop(timeout time.Duration) error {
	if !h.started.Load() {
		return errors.WrapInvalid(errors.ErrNotStarted, "Hub", "Stop", "stop")
	}
	if !h.stopped.CompareAndSwap(false, true) {
		return nil
	}
	h.cancel()

	// Close the transport first so no handler can enqueue after the channel
	// closes, then flush the pending TD batch into the queue.
	closeCtx, closeCancel := context.WithTimeout(context.Background(), timeout)
	defer closeCancel()
	if err := h.transport.Close(closeCtx); err != nil {
		h.logger.Warn("transport close failed", "error", err)
	}
	h.limiter.Flush()
	close(h.dispatchCh)

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return errors.WrapTransient(errors.ErrShuttingDown, "Hub", "Stop", "join workers")
	}
}

// connectionLoop dials, subscribes, and waits for loss, with exponential
// backoff between attempts.
func (h *Hub) connectionLoop(ctx context.Context) {
	defer h.wg.Done()

	backoff := retry.NewBackoff(h.cfg.ReconnectInitial, h.cfg.ReconnectMax)
	for ctx.Err() == nil {
		if err := h.transport.Connect(ctx); err != nil {
			h.setConnected(false, err)
			if h.metrics != nil {
				h.metrics.Reconnects.Inc()
			}
			delay := backoff.Next()
			h.logger.Warn("broker connection failed", "error", err, "retry_in", delay)
			if retry.Sleep(ctx, delay) != nil {
				return
			}
			continue
		}

		if err := h.subscribeAll(); err != nil {
			// The movement subscription is the hub's reason to exist; without
			// it the connection is useless, so tear down and retry.
			h.logger.Error("movement subscription failed", "error", err)
			h.setConnected(false, err)
			delay := backoff.Next()
			if retry.Sleep(ctx, delay) != nil {
				return
			}
			continue
		}

		backoff.Reset()
		h.setConnected(true, nil)
		h.logger.Info("connected to feed broker", "movement_topic", h.cfg.MovementTopic)

		// Hold until the connection drops or we are told to stop.
		lost := h.awaitDisconnect(ctx)
		if ctx.Err() != nil {
			return
		}
		h.setConnected(false, lost)
		if h.metrics != nil {
			h.metrics.Reconnects.Inc()
		}
		delay := backoff.Next()
		h.logger.Warn("broker connection lost", "error", lost, "retry_in", delay)
		if retry.Sleep(ctx, delay) != nil {
			return
		}
	}
}

func (h *Hub) awaitDisconnect(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-h.transport.Events():
			switch ev.Kind {
			case EventDisconnected:
				if ev.Err != nil {
					return ev.Err
				}
				return errors.ErrConnectionLost
			case EventClosed:
				return errors.ErrConnectionLost
			}
		}
	}
}

// subscribeAll sets up topic subscriptions. The movement topic is required;
// TD and VSTP are optional extras whose failures are logged, not fatal.
func (h *Hub) subscribeAll() error {
	if err := h.transport.Subscribe(h.cfg.MovementTopic, h.handleFrame); err != nil {
		return errors.WrapTransient(err, "Hub", "subscribeAll", "subscribe movements")
	}

	if h.cfg.EnableTD {
		if err := h.transport.Subscribe(h.cfg.TDTopic, h.handleFrame); err != nil {
			h.logger.Warn("train describer subscription failed, continuing without it",
				"topic", h.cfg.TDTopic, "error", err)
		} else {
			h.logger.Info("subscribed to train describer feed",
				"topic", h.cfg.TDTopic, "areas", h.cfg.TDAreas)
		}
	}

	if h.cfg.EnableVSTP {
		if err := h.transport.Subscribe(h.cfg.VSTPTopic, h.handleFrame); err != nil {
			h.logger.Warn("vstp subscription failed, continuing without it",
				"topic", h.cfg.VSTPTopic, "error", err)
		} else {
			h.logger.Info("subscribed to vstp feed", "topic", h.cfg.VSTPTopic)
		}
	}
	return nil
}

// handleFrame classifies one raw broker message. Runs on a transport
// goroutine; anything slow or stateful is pushed to the dispatch loop.
func (h *Hub) handleFrame(payload []byte) {
	if h.metrics != nil {
		h.metrics.FramesReceived.Inc()
	}

	frame, ok := feed.DecodeFrame(payload)
	if !ok {
		if h.metrics != nil {
			h.metrics.FramesUnclassified.Inc()
		}
		return
	}

	switch f := frame.(type) {
	case feed.VSTPFrame:
		h.enqueue(dispatchItem{kind: dispatchVSTP, vstp: f.Raw})
	case feed.TDFrame:
		for _, event := range f.Events {
			if !event.PassesAreaFilter(h.tdAreas) {
				continue
			}
			h.limiter.Offer(event)
		}
	case feed.MovementFrame:
		h.handleMovements(f)
	}
}

func (h *Hub) handleMovements(frame feed.MovementFrame) {
	var (
		latest   *feed.MovementRecord
		kept     int
		byStanox map[string]feed.MovementRecord
	)
	for i := range frame.Records {
		rec := frame.Records[i]
		if !h.keepMovement(rec) {
			if h.metrics != nil {
				h.metrics.MovementsFiltered.Inc()
			}
			continue
		}
		kept++
		latest = &frame.Records[i]
		if rec.Body.LocStanox != "" {
			if byStanox == nil {
				byStanox = make(map[string]feed.MovementRecord)
			}
			byStanox[rec.Body.LocStanox] = rec
		}
	}
	if h.metrics != nil && kept > 0 {
		h.metrics.MovementsKept.Add(float64(kept))
	}

	if latest == nil {
		// Nothing survived, but the feed is alive; record the sighting.
		h.enqueue(dispatchItem{kind: dispatchSeen, batchSize: frame.BatchSize})
		return
	}
	h.enqueue(dispatchItem{
		kind:      dispatchMovement,
		batchSize: frame.BatchSize,
		movement:  MovementUpdate{Latest: *latest, Kept: kept, ByStanox: byStanox},
	})
}

func (h *Hub) keepMovement(rec feed.MovementRecord) bool {
	if h.tracked != nil && !h.tracked[rec.Body.LocStanox] {
		return false
	}
	if h.tocs != nil && !h.tocs[rec.Body.TocID] {
		return false
	}
	if h.eventTypes != nil && !h.eventTypes[rec.Body.EventType] {
		return false
	}
	return true
}

// enqueueTDBatch is the limiter's dispatch callback.
func (h *Hub) enqueueTDBatch(batch []feed.TDEvent) {
	h.enqueue(dispatchItem{kind: dispatchTDBatch, tdEvents: batch})
}

func (h *Hub) enqueue(item dispatchItem) {
	select {
	case h.dispatchCh <- item:
	default:
		if h.metrics != nil {
			h.metrics.DispatchDropped.Inc()
		}
		h.logger.Debug("dispatch queue full, dropping item", "kind", item.kind)
	}
}

// dispatchLoop is the only goroutine that mutates berth state and last-seen
// hub state. It drains the channel fully on shutdown so flushed batches are
// still applied.
func (h *Hub) dispatchLoop() {
	defer h.wg.Done()

	for item := range h.dispatchCh {
		h.apply(item)
	}
}

func (h *Hub) apply(item dispatchItem) {
	switch item.kind {
	case dispatchSeen:
		h.mu.Lock()
		h.state.LastSeen = time.Now()
		h.state.LastBatchCount = item.batchSize
		h.mu.Unlock()

	case dispatchMovement:
		h.mu.Lock()
		latest := item.movement.Latest
		h.state.LastMovement = &latest
		h.state.LastSeen = time.Now()
		h.state.LastBatchCount = item.movement.Kept
		if h.state.StationMovements == nil {
			h.state.StationMovements = make(map[string]feed.MovementRecord)
		}
		for stanox, rec := range item.movement.ByStanox {
			h.state.StationMovements[stanox] = rec
		}
		h.mu.Unlock()

		h.movementSig.emit(item.movement)
		for stanox, rec := range item.movement.ByStanox {
			h.stationSig.emit(stanox, rec)
		}

	case dispatchTDBatch:
		if len(item.tdEvents) == 0 {
			return
		}
		applied := 0
		for _, event := range item.tdEvents {
			if event.MsgType.IsBerthOperation() {
				h.berths.Apply(event)
				applied++
			}
		}
		last := item.tdEvents[len(item.tdEvents)-1]

		h.mu.Lock()
		h.state.TDMessageCount += uint64(len(item.tdEvents))
		h.state.LastTDEvent = &last
		h.state.LastSeen = time.Now()
		h.mu.Unlock()

		if h.metrics != nil {
			h.metrics.TDBatches.Inc()
			h.metrics.TDEventsApplied.Add(float64(applied))
		}

		h.tdSig.emit(TDBatch{Events: item.tdEvents, Latest: last})

		// One emit per area, carrying that area's latest event.
		perArea := make(map[string]feed.TDEvent)
		var areaOrder []string
		for _, event := range item.tdEvents {
			if event.AreaID == "" {
				continue
			}
			if _, seen := perArea[event.AreaID]; !seen {
				areaOrder = append(areaOrder, event.AreaID)
			}
			perArea[event.AreaID] = event
		}
		for _, area := range areaOrder {
			h.areaTDSig.emit(area, perArea[area])
		}

	case dispatchVSTP:
		if h.metrics != nil {
			h.metrics.VSTPMessages.Inc()
		}
		h.vstpSig.emit(item.vstp)
	}
}

func (h *Hub) setConnected(connected bool, cause error) {
	h.mu.Lock()
	h.state.Connected = connected
	if cause != nil {
		h.state.LastError = cause.Error()
	}
	h.mu.Unlock()

	if h.metrics != nil {
		if connected {
			h.metrics.Connected.Set(1)
		} else {
			h.metrics.Connected.Set(0)
		}
	}
	h.connectionSig.emit(connected)
}

// IsConnected reports the current broker connection state.
func (h *Hub) IsConnected() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.state.Connected
}

// Snapshot returns an independent copy of the hub state.
func (h *Hub) Snapshot() State {
	h.mu.RLock()
	defer h.mu.RUnlock()

	snap := h.state
	if h.state.LastMovement != nil {
		mv := *h.state.LastMovement
		snap.LastMovement = &mv
	}
	if h.state.LastTDEvent != nil {
		td := *h.state.LastTDEvent
		snap.LastTDEvent = &td
	}
	if h.state.StationMovements != nil {
		snap.StationMovements = make(map[string]feed.MovementRecord, len(h.state.StationMovements))
		for k, v := range h.state.StationMovements {
			snap.StationMovements[k] = v
		}
	}
	return snap
}

// Limiter exposes the TD rate limiter, for observability.
func (h *Hub) Limiter() *ratelimit.Limiter {
	return h.limiter
}

// OnConnectionChanged subscribes to connection up/down transitions. The
// returned function unsubscribes.
func (h *Hub) OnConnectionChanged(fn func(connected bool)) func() {
	return h.connectionSig.subscribe(fn)
}

// OnMovement subscribes to filtered movement updates.
func (h *Hub) OnMovement(fn func(MovementUpdate)) func() {
	return h.movementSig.subscribe(fn)
}

// OnStationMovement subscribes to movements at one station.
func (h *Hub) OnStationMovement(stanox string, fn func(feed.MovementRecord)) func() {
	return h.stationSig.subscribe(stanox, fn)
}

// OnTDBatch subscribes to Train Describer batches.
func (h *Hub) OnTDBatch(fn func(TDBatch)) func() {
	return h.tdSig.subscribe(fn)
}

// OnAreaTD subscribes to the latest Train Describer event per batch for one
// TD area.
func (h *Hub) OnAreaTD(area string, fn func(feed.TDEvent)) func() {
	return h.areaTDSig.subscribe(area, fn)
}

// OnVSTP subscribes to raw VSTP schedule messages.
func (h *Hub) OnVSTP(fn func(json.RawMessage)) func() {
	return h.vstpSig.subscribe(fn)
}
