// Package topology builds and queries the berth-connectivity graph derived
// from the SMART reference dataset.
//
// The dataset is a flat list of berth-step records, each tying a from/to
// berth pair in a TD area to an optional station (STANOX), platform, and line
// name. Load accepts the raw download in any of the shapes the publisher has
// used over time (gzip or plain; JSON array, a BERTHDATA wrapper object, a
// single object, or newline-delimited objects) and builds three indices:
// berth adjacency, station to berth records, and berth to station.
//
// Graphs are immutable once built. The Manager refreshes by building a new
// graph and swapping it in atomically, so concurrent readers never observe a
// partially-built graph. A CacheStore keeps the raw dataset locally; entries
// older than the configured expiry trigger a re-fetch.
//
// Adjacency and route queries are breadth-first searches over berth hops.
// The berth-number proximity fallback and the up/down direction labels are
// acknowledged approximations carried over from operational experience: the
// dataset has no ground-truth directionality, so treat those results as
// hints, not facts.
package topology
