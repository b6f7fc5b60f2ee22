package hub

import (
	"context"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/tombanbury-cyber/network-rail-integration/errors"
)

// EventKind labels a transport lifecycle event.
type EventKind int

// Transport lifecycle events
const (
	EventConnected EventKind = iota
	EventDisconnected
	EventClosed
)

// TransportEvent reports a change in the broker connection.
type TransportEvent struct {
	Kind EventKind
	Err  error
}

// Transport abstracts the feed broker so the hub can be driven by a fake in
// tests. Subscribe handlers run on transport goroutines and must not block.
type Transport interface {
	Connect(ctx context.Context) error
	Subscribe(topic string, handler func(payload []byte)) error
	IsConnected() bool
	// Events delivers connection lifecycle changes. The channel is buffered;
	// the transport never blocks on it.
	Events() <-chan TransportEvent
	Close(ctx context.Context) error
}

const (
	defaultConnectTimeout = 10 * time.Second
	defaultDrainTimeout   = 5 * time.Second
)

// NATSTransport is the production Transport. Automatic client-side
// reconnection is disabled; the hub owns the reconnect policy and expects a
// disconnect to surface as an event.
type NATSTransport struct {
	url        string
	username   string
	password   string
	clientName string

	mu     sync.Mutex
	conn   *nats.Conn
	subs   []*nats.Subscription
	events chan TransportEvent
}

// NATSOption customizes a NATSTransport.
type NATSOption func(*NATSTransport)

// WithClientName sets the connection name reported to the broker.
func WithClientName(name string) NATSOption {
	return func(t *NATSTransport) { t.clientName = name }
}

// NewNATSTransport builds a transport for the given broker URL and
// credentials.
func NewNATSTransport(url, username, password string, opts ...NATSOption) *NATSTransport {
	t := &NATSTransport{
		url:        url,
		username:   username,
		password:   password,
		clientName: "nrfeed",
		events:     make(chan TransportEvent, 16),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Connect dials the broker. Any previous connection is discarded first.
func (t *NATSTransport) Connect(ctx context.Context) error {
	t.mu.Lock()
	if t.conn != nil {
		t.conn.Close()
		t.conn = nil
		t.subs = nil
	}
	t.mu.Unlock()

	timeout := defaultConnectTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}

	opts := []nats.Option{
		nats.Name(t.clientName),
		nats.Timeout(timeout),
		nats.NoReconnect(),
		nats.ClosedHandler(func(c *nats.Conn) {
			t.emit(TransportEvent{Kind: EventDisconnected, Err: c.LastError()})
		}),
	}
	if t.username != "" {
		opts = append(opts, nats.UserInfo(t.username, t.password))
	}

	conn, err := nats.Connect(t.url, opts...)
	if err != nil {
		return errors.WrapTransient(err, "NATSTransport", "Connect", "dial broker")
	}

	t.mu.Lock()
	t.conn = conn
	t.mu.Unlock()

	t.emit(TransportEvent{Kind: EventConnected})
	return nil
}

// Subscribe registers a handler for one topic on the current connection.
func (t *NATSTransport) Subscribe(topic string, handler func(payload []byte)) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn == nil || !t.conn.IsConnected() {
		return errors.ErrNotConnected
	}

	sub, err := t.conn.Subscribe(topic, func(msg *nats.Msg) {
		handler(msg.Data)
	})
	if err != nil {
		return errors.WrapTransient(err, "NATSTransport", "Subscribe", "subscribe to "+topic)
	}
	t.subs = append(t.subs, sub)
	return nil
}

// IsConnected reports whether the broker connection is up.
func (t *NATSTransport) IsConnected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.conn != nil && t.conn.IsConnected()
}

// Events returns the lifecycle event channel.
func (t *NATSTransport) Events() <-chan TransportEvent {
	return t.events
}

// Close drains and closes the connection, bounded by the context deadline.
func (t *NATSTransport) Close(ctx context.Context) error {
	t.mu.Lock()
	conn := t.conn
	subs := t.subs
	t.conn = nil
	t.subs = nil
	t.mu.Unlock()

	if conn == nil {
		return nil
	}

	for _, sub := range subs {
		_ = sub.Unsubscribe()
	}

	drainTimeout := defaultDrainTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining > 0 && remaining < drainTimeout {
			drainTimeout = remaining
		}
	}

	drained := make(chan error, 1)
	go func() { drained <- conn.Drain() }()
	select {
	case err := <-drained:
		if err != nil {
			conn.Close()
			t.emit(TransportEvent{Kind: EventClosed})
			return errors.WrapTransient(err, "NATSTransport", "Close", "drain connection")
		}
	case <-time.After(drainTimeout):
		conn.Close()
	case <-ctx.Done():
		conn.Close()
	}

	t.emit(TransportEvent{Kind: EventClosed})
	return nil
}

func (t *NATSTransport) emit(ev TransportEvent) {
	select {
	case t.events <- ev:
	default:
	}
}
