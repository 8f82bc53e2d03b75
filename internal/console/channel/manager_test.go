package channel

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"

	"github.com/autopeer-io/fleetconsole/pkg/mqtt"
)

type fakeTransport struct {
	mu           sync.Mutex
	startErr     error
	subErrs      []error // returned by successive Subscribe calls
	started      int
	disconnected int
	subscribes   [][]string
	unsubscribes [][]string
	hooks        mqtt.Hooks
}

func (f *fakeTransport) Start(_ context.Context, hooks mqtt.Hooks) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started++
	f.hooks = hooks
	return f.startErr
}

func (f *fakeTransport) Disconnect(context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disconnected++
}

func (f *fakeTransport) Subscribe(_ context.Context, _ int, filters ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subscribes = append(f.subscribes, filters)
	if len(f.subErrs) > 0 {
		err := f.subErrs[0]
		f.subErrs = f.subErrs[1:]
		return err
	}
	return nil
}

func (f *fakeTransport) Unsubscribe(_ context.Context, filters ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unsubscribes = append(f.unsubscribes, filters)
	return nil
}

type recorder struct {
	mu   sync.Mutex
	msgs []string
}

func (r *recorder) handler(name string) Handler {
	return func(_ context.Context, topic string, payload []byte) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.msgs = append(r.msgs, name+"@"+topic+":"+string(payload))
	}
}

func (r *recorder) got() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.msgs...)
}

func TestReconnectReplaysSubscriptions(t *testing.T) {
	ctx := context.Background()
	tr := &fakeTransport{}
	m := New(tr)
	rec := &recorder{}

	m.Subscribe("telemetry/+", rec.handler("telemetry"))
	m.Subscribe("detections", rec.handler("detections"))

	ready := 0
	m.Connect(ctx, func(context.Context) { ready++ })
	if m.State() != StateConnecting {
		t.Fatalf("state = %s, want %s", m.State(), StateConnecting)
	}

	tr.hooks.OnConnectionUp(ctx)
	tr.hooks.OnMessage(ctx, "telemetry/scout", []byte(`{"id":"scout"}`))

	tr.hooks.OnConnectionDown(errors.New("network reset"))
	if m.IsConnected() {
		t.Fatal("still connected after connection loss")
	}
	tr.hooks.OnConnectionUp(ctx)
	tr.hooks.OnMessage(ctx, "telemetry/scout", []byte(`{"id":"scout","battery":80}`))
	tr.hooks.OnMessage(ctx, "detections", []byte(`[]`))

	if ready != 2 {
		t.Errorf("onReady ran %d times, want 2", ready)
	}
	wantSubs := [][]string{{"telemetry/+", "detections"}, {"telemetry/+", "detections"}}
	if !reflect.DeepEqual(tr.subscribes, wantSubs) {
		t.Errorf("subscribes = %v, want %v", tr.subscribes, wantSubs)
	}
	want := []string{
		`telemetry@telemetry/scout:{"id":"scout"}`,
		`telemetry@telemetry/scout:{"id":"scout","battery":80}`,
		`detections@detections:[]`,
	}
	if got := rec.got(); !reflect.DeepEqual(got, want) {
		t.Errorf("messages = %v, want %v", got, want)
	}
}

func TestSubscribeFanOut(t *testing.T) {
	ctx := context.Background()
	m := New(&fakeTransport{})
	rec := &recorder{}

	m.Subscribe("detections", rec.handler("first"))
	m.Subscribe("detections", rec.handler("second"))
	m.OnMessage(ctx, "detections", []byte(`{"id":"d1"}`))

	want := []string{`first@detections:{"id":"d1"}`, `second@detections:{"id":"d1"}`}
	if got := rec.got(); !reflect.DeepEqual(got, want) {
		t.Errorf("messages = %v, want %v", got, want)
	}
}

func TestSubscribeWhileConnectedSendsImmediately(t *testing.T) {
	ctx := context.Background()
	tr := &fakeTransport{}
	m := New(tr)
	m.Connect(ctx, nil)
	tr.hooks.OnConnectionUp(ctx)

	m.Subscribe("missions/+", func(context.Context, string, []byte) {})
	// A second handler on a known filter needs no new SUBSCRIBE.
	m.Subscribe("missions/+", func(context.Context, string, []byte) {})

	if !reflect.DeepEqual(tr.subscribes, [][]string{{"missions/+"}}) {
		t.Errorf("subscribes = %v", tr.subscribes)
	}
}

func TestFailedSubscribeIsRetried(t *testing.T) {
	noop := func(context.Context, string, []byte) {}
	tests := []struct {
		name     string
		next     func(ctx context.Context, m *Manager, tr *fakeTransport)
		cancel   bool
		wantLast []string
	}{
		{
			name: "with the next new filter",
			next: func(_ context.Context, m *Manager, _ *fakeTransport) {
				m.Subscribe("detections", noop)
			},
			wantLast: []string{"missions/+", "detections"},
		},
		{
			name: "on reconnect",
			next: func(ctx context.Context, _ *Manager, tr *fakeTransport) {
				tr.hooks.OnConnectionUp(ctx)
			},
			wantLast: []string{"missions/+"},
		},
		{
			name:   "dropped once unsubscribed",
			cancel: true,
			next: func(_ context.Context, m *Manager, _ *fakeTransport) {
				m.Subscribe("detections", noop)
			},
			wantLast: []string{"detections"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			tr := &fakeTransport{}
			m := New(tr)
			m.Connect(ctx, nil)
			tr.hooks.OnConnectionUp(ctx)

			tr.subErrs = []error{errors.New("broker busy")}
			sub := m.Subscribe("missions/+", noop)
			if got := m.Pending(); !reflect.DeepEqual(got, []string{"missions/+"}) {
				t.Fatalf("pending after failure = %v", got)
			}
			if tt.cancel {
				sub.Cancel()
			}

			tt.next(ctx, m, tr)

			last := tr.subscribes[len(tr.subscribes)-1]
			if !reflect.DeepEqual(last, tt.wantLast) {
				t.Errorf("last SUBSCRIBE = %v, want %v", last, tt.wantLast)
			}
			if got := m.Pending(); len(got) != 0 {
				t.Errorf("pending = %v, want none", got)
			}
		})
	}
}

func TestMalformedPayloadDropped(t *testing.T) {
	ctx := context.Background()
	m := New(&fakeTransport{})
	rec := &recorder{}
	m.Subscribe("telemetry/+", rec.handler("t"))

	m.OnMessage(ctx, "telemetry/scout", []byte(`{"id":`))
	m.OnMessage(ctx, "telemetry/scout", []byte(`not json`))
	m.OnMessage(ctx, "telemetry/scout", []byte(`{"id":"ok"}`))

	want := []string{`t@telemetry/scout:{"id":"ok"}`}
	if got := rec.got(); !reflect.DeepEqual(got, want) {
		t.Errorf("messages = %v, want %v", got, want)
	}
}

func TestHandlerPanicDoesNotStopDelivery(t *testing.T) {
	ctx := context.Background()
	m := New(&fakeTransport{})
	rec := &recorder{}

	m.Subscribe("detections", func(context.Context, string, []byte) { panic("boom") })
	m.Subscribe("detections", rec.handler("after"))
	m.OnMessage(ctx, "detections", []byte(`{}`))

	if got := rec.got(); len(got) != 1 {
		t.Errorf("messages = %v, want one delivery", got)
	}
}

func TestCancelRemovesOnlyThatHandler(t *testing.T) {
	ctx := context.Background()
	tr := &fakeTransport{}
	m := New(tr)
	m.Connect(ctx, nil)
	tr.hooks.OnConnectionUp(ctx)
	rec := &recorder{}

	a := m.Subscribe("detections", rec.handler("a"))
	b := m.Subscribe("detections", rec.handler("b"))

	a.Cancel()
	a.Cancel()
	m.OnMessage(ctx, "detections", []byte(`1`))
	if got := rec.got(); !reflect.DeepEqual(got, []string{"b@detections:1"}) {
		t.Errorf("messages = %v", got)
	}
	if len(tr.unsubscribes) != 0 {
		t.Errorf("unexpected unsubscribe: %v", tr.unsubscribes)
	}

	b.Cancel()
	if !reflect.DeepEqual(tr.unsubscribes, [][]string{{"detections"}}) {
		t.Errorf("unsubscribes = %v", tr.unsubscribes)
	}
}

func TestStartFailureIsNotFatal(t *testing.T) {
	ctx := context.Background()
	tr := &fakeTransport{startErr: errors.New("dial tcp: refused")}
	m := New(tr)

	m.Connect(ctx, func(context.Context) { t.Error("onReady must not run") })
	if m.State() != StateDisconnected {
		t.Errorf("state = %s, want %s", m.State(), StateDisconnected)
	}
}

func TestCloseDisconnectsOnce(t *testing.T) {
	ctx := context.Background()
	tr := &fakeTransport{}
	m := New(tr)
	m.Connect(ctx, nil)
	tr.hooks.OnConnectionUp(ctx)

	m.Close(ctx)
	m.Close(ctx)
	if tr.disconnected != 1 || m.State() != StateClosed {
		t.Errorf("disconnected=%d state=%s", tr.disconnected, m.State())
	}
}
