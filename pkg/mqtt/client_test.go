package mqtt

import (
	"context"
	"errors"
	"testing"

	"github.com/eclipse/paho.golang/paho"
)

type recordingHooks struct {
	ups    int
	downs  []error
	topics []string
}

func (h *recordingHooks) OnConnectionUp(context.Context) { h.ups++ }
func (h *recordingHooks) OnConnectionDown(err error)     { h.downs = append(h.downs, err) }
func (h *recordingHooks) OnMessage(_ context.Context, topic string, _ []byte) {
	h.topics = append(h.topics, topic)
}

func newTestClient(t *testing.T, hooks Hooks) *pahoClient {
	t.Helper()
	c, err := NewClient(&ClientConfig{BrokerURL: "tcp://localhost:1883", ClientID: "test"})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	pc := c.(*pahoClient)
	pc.hooks = hooks
	pc.ctx = context.Background()
	return pc
}

func TestNewClientValidation(t *testing.T) {
	tests := []struct {
		name string
		cfg  *ClientConfig
	}{
		{"nil config", nil},
		{"missing broker", &ClientConfig{ClientID: "x"}},
		{"bad scheme", &ClientConfig{BrokerURL: "http://localhost", ClientID: "x"}},
		{"missing client id", &ClientConfig{BrokerURL: "tcp://localhost:1883"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewClient(tt.cfg); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestNewClientDefaults(t *testing.T) {
	cfg := &ClientConfig{BrokerURL: "wss://broker/mqtt", ClientID: "x"}
	if _, err := NewClient(cfg); err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if cfg.KeepAlive != 60 || cfg.ConnectTimeout == 0 || cfg.ReconnectBackoff == 0 {
		t.Errorf("defaults not applied: %+v", cfg)
	}
}

func TestRouterPreservesOrder(t *testing.T) {
	hooks := &recordingHooks{}
	c := newTestClient(t, hooks)

	for _, topic := range []string{"telemetry/scout", "detections", "telemetry/delivery"} {
		handled, err := c.router(paho.PublishReceived{Packet: &paho.Publish{Topic: topic}})
		if !handled || err != nil {
			t.Fatalf("router(%s) = %v, %v", topic, handled, err)
		}
	}

	want := []string{"telemetry/scout", "detections", "telemetry/delivery"}
	if len(hooks.topics) != len(want) {
		t.Fatalf("got %v, want %v", hooks.topics, want)
	}
	for i := range want {
		if hooks.topics[i] != want[i] {
			t.Errorf("message %d: got %q, want %q", i, hooks.topics[i], want[i])
		}
	}
}

func TestConnectionLifecycleHooks(t *testing.T) {
	hooks := &recordingHooks{}
	c := newTestClient(t, hooks)

	c.onConnectionUp(nil, nil)
	if !c.IsConnected() || hooks.ups != 1 {
		t.Fatalf("after up: connected=%v ups=%d", c.IsConnected(), hooks.ups)
	}

	c.onClientError(errors.New("read: connection reset"))
	// A second error for the same outage must not report another drop.
	c.onServerDisconnect(&paho.Disconnect{ReasonCode: 0x8E})
	if c.IsConnected() || len(hooks.downs) != 1 {
		t.Fatalf("after down: connected=%v downs=%d", c.IsConnected(), len(hooks.downs))
	}

	c.onConnectionUp(nil, nil)
	if hooks.ups != 2 {
		t.Errorf("ups = %d, want 2", hooks.ups)
	}
}

func TestOperationsBeforeStart(t *testing.T) {
	c := newTestClient(t, &recordingHooks{})
	ctx := context.Background()

	if err := c.Subscribe(ctx, 1, "detections"); !errors.Is(err, ErrNotStarted) {
		t.Errorf("Subscribe: got %v, want ErrNotStarted", err)
	}
	if err := c.Unsubscribe(ctx, "detections"); !errors.Is(err, ErrNotStarted) {
		t.Errorf("Unsubscribe: got %v, want ErrNotStarted", err)
	}
	if err := c.AwaitConnection(ctx); !errors.Is(err, ErrNotStarted) {
		t.Errorf("AwaitConnection: got %v, want ErrNotStarted", err)
	}
}
