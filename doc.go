// Package networkrail ingests the Network Rail open data feeds and
// reconstructs railway operating state from them.
//
// # What it does
//
// Three feeds arrive over a NATS broker as JSON frames:
//
//   - Train movements: arrival/departure reports per station (STANOX)
//   - Train Describer (TD): berth-level signalling steps showing a train
//     description moving through track sections
//   - VSTP: short-term schedule messages, passed through undecoded
//
// The pipeline classifies each frame, filters it against the configured
// stations/operators/event types, rate-limits and batches the TD stream, and
// applies surviving events to an in-memory berth and platform state machine.
// Observers subscribe to typed signals (connection state, movements, TD
// batches, VSTP) instead of polling.
//
//	broker → hub (classify, filter) → ratelimit (window + batch)
//	       → berth state (step/cancel/interpose) → signals → observers
//
// The SMART reference dataset maps berths to stations and platforms. It is
// fetched over HTTP with basic auth, cached on disk for its expiry window,
// and indexed into an immutable adjacency graph that is rebuilt and swapped
// atomically on refresh.
//
// # Packages
//
// Pipeline:
//   - feed: wire-format decoding and frame classification
//   - hub: broker connection, reconnect policy, dispatch loop, signals
//   - ratelimit: sliding-window ceiling and TD batcher
//   - berth: berth/platform occupancy state machine and event history
//   - tracksection: corridor monitoring and class-based alerting
//
// Reference data:
//   - topology: SMART dataset fetch, cache, graph, and station queries
//   - refdata: STANOX/TD-area/TOC code tables and station search
//
// Infrastructure:
//   - config: YAML configuration with validation and live-update wrapper
//   - errors: classified errors (transient, invalid, fatal)
//   - metric: Prometheus registry and exposition server
//   - pkg/retry, pkg/ring: backoff and fixed-size ring utilities
//
// The nrfeed binary under cmd/nrfeed wires these together.
package networkrail
