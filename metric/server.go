package metric

import (
	"context"
	stderrors "errors"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tombanbury-cyber/network-rail-integration/errors"
)

const (
	defaultListen      = ":9090"
	defaultMetricsPath = "/metrics"
	readHeaderTimeout  = 5 * time.Second
)

// Server exposes a registry over HTTP at /metrics, with a /health endpoint
// alongside for load-balancer checks.
type Server struct {
	listen   string
	registry *prometheus.Registry

	mu     sync.Mutex
	server *http.Server
}

// NewServer creates a metrics server listening on listen (host:port). An
// empty listen address uses :9090.
func NewServer(listen string, registry *prometheus.Registry) *Server {
	if listen == "" {
		listen = defaultListen
	}
	return &Server{listen: listen, registry: registry}
}

// Start serves until Shutdown is called. Blocks; run it on its own
// goroutine. Returns nil after a clean shutdown.
func (s *Server) Start() error {
	s.mu.Lock()
	if s.server != nil {
		s.mu.Unlock()
		return errors.WrapInvalid(errors.ErrAlreadyStarted, "Server", "Start", "start metrics server")
	}

	mux := http.NewServeMux()
	mux.Handle(defaultMetricsPath, promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	}))
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	s.server = &http.Server{
		Addr:              s.listen,
		Handler:           mux,
		ReadHeaderTimeout: readHeaderTimeout,
	}
	server := s.server
	s.mu.Unlock()

	if err := server.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return errors.WrapFatal(err, "Server", "Start", "serve metrics on "+s.listen)
	}
	return nil
}

// Shutdown stops the server, allowing in-flight scrapes to finish.
func (s *Server) Shutdown(timeout time.Duration) error {
	s.mu.Lock()
	server := s.server
	s.server = nil
	s.mu.Unlock()

	if server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return errors.WrapTransient(err, "Server", "Shutdown", "stop metrics server")
	}
	return nil
}
