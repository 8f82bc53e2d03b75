// Package channel owns the console's single push-channel connection and
// routes inbound messages to registered topic handlers.
package channel

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/autopeer-io/fleetconsole/internal/pkg/metrics"
	"github.com/autopeer-io/fleetconsole/pkg/log"
	"github.com/autopeer-io/fleetconsole/pkg/mqtt"
	"github.com/autopeer-io/fleetconsole/pkg/mqtt/topic"
)

// Handler receives one well-formed JSON message of a subscribed topic.
type Handler func(ctx context.Context, topic string, payload []byte)

// Transport is the connection the Manager drives. mqtt.Client satisfies it.
type Transport interface {
	Start(ctx context.Context, hooks mqtt.Hooks) error
	Disconnect(ctx context.Context)
	Subscribe(ctx context.Context, qos int, filters ...string) error
	Unsubscribe(ctx context.Context, filters ...string) error
}

// Option configures a Manager.
type Option func(*Manager)

// WithQoS sets the QoS used for every subscription. Defaults to 1.
func WithQoS(qos int) Option {
	return func(m *Manager) { m.qos = qos }
}

type registration struct {
	id      uint64
	handler Handler
}

// Manager keeps a registry of topic filters to ordered handler lists and
// replays it against every connection-established event, so handlers
// survive reconnects without being registered again.
type Manager struct {
	transport Transport
	qos       int
	state     *connectionStateMachine

	mu       sync.RWMutex
	handlers map[string][]registration
	filters  []string // registration order, used for replay
	pending  []string // filters whose immediate SUBSCRIBE failed
	nextID   uint64
	onReady  func(ctx context.Context)
	ctx      context.Context
}

var _ mqtt.Hooks = (*Manager)(nil)

// New creates a Manager over transport.
func New(transport Transport, opts ...Option) *Manager {
	m := &Manager{
		transport: transport,
		qos:       1,
		state:     newConnectionStateMachine(),
		handlers:  make(map[string][]registration),
		ctx:       context.Background(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Connect starts the transport asynchronously. onReady, which may be nil,
// runs once for every connection establishment, reconnects included.
// Start failures are logged and leave the Manager disconnected.
func (m *Manager) Connect(ctx context.Context, onReady func(ctx context.Context)) {
	m.mu.Lock()
	m.onReady = onReady
	m.ctx = ctx
	m.mu.Unlock()

	if !m.state.fire(ctx, EventConnect) {
		log.Warn("Channel connect ignored", "state", m.State())
		return
	}

	if err := m.transport.Start(ctx, m); err != nil {
		log.Error(err, "Failed to start push channel transport")
		m.state.fire(ctx, EventFail)
	}
}

// Close disconnects the transport. The Manager cannot be reconnected afterwards.
func (m *Manager) Close(ctx context.Context) {
	if !m.state.fire(ctx, EventClose) {
		return
	}
	m.transport.Disconnect(ctx)
}

// State returns the current connection state.
func (m *Manager) State() string {
	return m.state.Current()
}

// IsConnected reports whether the channel is currently connected.
func (m *Manager) IsConnected() bool {
	return m.state.Is(StateConnected)
}

// Subscribe adds h to the handlers of filter. Handlers of the same filter
// are additive and run in registration order. When the channel is connected
// and the filter is new, SUBSCRIBE is sent immediately; otherwise the
// registration is replayed on the next connection. A failed SUBSCRIBE
// leaves the filter pending; it is retried with the next new filter or on
// the next connection, whichever comes first.
func (m *Manager) Subscribe(filter string, h Handler) *Subscription {
	m.mu.Lock()
	m.nextID++
	id := m.nextID
	_, known := m.handlers[filter]
	if !known {
		m.filters = append(m.filters, filter)
	}
	m.handlers[filter] = append(m.handlers[filter], registration{id: id, handler: h})
	ctx := m.ctx
	m.mu.Unlock()

	if !known && m.IsConnected() {
		m.subscribeNow(ctx, filter)
	}

	log.Debug("Handler registered", "filter", filter, "id", id)
	return &Subscription{m: m, filter: filter, id: id}
}

// subscribeNow sends SUBSCRIBE for filter together with any pending filters
// that are still registered.
func (m *Manager) subscribeNow(ctx context.Context, filter string) {
	m.mu.Lock()
	filters := make([]string, 0, len(m.pending)+1)
	for _, f := range m.pending {
		if _, ok := m.handlers[f]; ok && f != filter {
			filters = append(filters, f)
		}
	}
	filters = append(filters, filter)
	m.pending = nil
	m.mu.Unlock()

	if err := m.transport.Subscribe(ctx, m.qos, filters...); err != nil {
		m.mu.Lock()
		m.pending = append(m.pending, filters...)
		m.mu.Unlock()
		log.Warn("Subscribe failed, filters pending until retry", "filters", filters, "error", err)
	}
}

// Pending returns the filters whose last SUBSCRIBE failed and has not been
// retried yet.
func (m *Manager) Pending() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.pending...)
}

func (m *Manager) remove(filter string, id uint64) {
	m.mu.Lock()
	regs := m.handlers[filter]
	for i, r := range regs {
		if r.id == id {
			regs = append(regs[:i:i], regs[i+1:]...)
			break
		}
	}

	last := len(regs) == 0
	if last {
		delete(m.handlers, filter)
		for i, f := range m.filters {
			if f == filter {
				m.filters = append(m.filters[:i:i], m.filters[i+1:]...)
				break
			}
		}
	} else {
		m.handlers[filter] = regs
	}
	ctx := m.ctx
	m.mu.Unlock()

	if last && m.IsConnected() {
		if err := m.transport.Unsubscribe(ctx, filter); err != nil {
			log.Error(err, "Failed to unsubscribe", "filter", filter)
		}
	}
}

// OnConnectionUp replays every registered filter and then runs onReady.
func (m *Manager) OnConnectionUp(ctx context.Context) {
	m.state.fire(ctx, EventUp)

	m.mu.Lock()
	filters := append([]string(nil), m.filters...)
	onReady := m.onReady
	m.pending = nil
	m.mu.Unlock()

	if len(filters) > 0 {
		if err := m.transport.Subscribe(ctx, m.qos, filters...); err != nil {
			m.mu.Lock()
			m.pending = append(m.pending, filters...)
			m.mu.Unlock()
			log.Error(err, "Failed to replay subscriptions", "filters", filters)
		} else {
			log.Info("Subscriptions replayed", "count", len(filters))
		}
	}

	if onReady != nil {
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Warn("Recovered from panic in onReady", "panic", r)
				}
			}()
			onReady(ctx)
		}()
	}
}

// OnConnectionDown records a lost connection.
func (m *Manager) OnConnectionDown(err error) {
	log.Warn("Push channel connection lost", "error", err)
	m.state.fire(context.Background(), EventDown)
}

// OnMessage validates the payload and dispatches it, inline and in order,
// to every handler whose filter matches the topic.
func (m *Manager) OnMessage(ctx context.Context, t string, payload []byte) {
	if !json.Valid(payload) {
		metrics.ParseErrors.WithLabelValues("channel").Inc()
		log.Warn("Dropping malformed message", "topic", t, "size", len(payload))
		return
	}

	type match struct {
		filter   string
		handlers []Handler
	}

	m.mu.RLock()
	var matches []match
	for _, f := range m.filters {
		if !topic.Match(f, t) {
			continue
		}
		regs := m.handlers[f]
		hs := make([]Handler, 0, len(regs))
		for _, r := range regs {
			hs = append(hs, r.handler)
		}
		matches = append(matches, match{filter: f, handlers: hs})
	}
	m.mu.RUnlock()

	if len(matches) == 0 {
		log.Debug("No handler for topic", "topic", t)
		return
	}

	for _, mt := range matches {
		metrics.ChannelMessages.WithLabelValues(mt.filter).Inc()
		for _, h := range mt.handlers {
			m.invoke(ctx, h, t, payload)
		}
	}
}

func (m *Manager) invoke(ctx context.Context, h Handler, t string, payload []byte) {
	defer func() {
		if r := recover(); r != nil {
			log.Warn("Recovered from panic in message handler", "topic", t, "panic", r)
		}
	}()
	h(ctx, t, payload)
}

// Subscription is one registered handler.
type Subscription struct {
	m      *Manager
	filter string
	id     uint64
	once   sync.Once
}

// Filter returns the topic filter of the subscription.
func (s *Subscription) Filter() string { return s.filter }

// Cancel removes this handler only. UNSUBSCRIBE is sent when it was the
// last handler of its filter.
func (s *Subscription) Cancel() {
	s.once.Do(func() { s.m.remove(s.filter, s.id) })
}
