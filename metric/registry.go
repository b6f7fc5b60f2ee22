// Package metric owns the process-wide Prometheus registry and the HTTP
// server that exposes it. Components register their own collectors against
// the injected prometheus.Registerer; this package never knows their names.
package metric

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// NewRegistry creates a private registry preloaded with the Go runtime and
// process collectors. A private registry keeps test processes from colliding
// on the global default.
func NewRegistry() *prometheus.Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return registry
}
