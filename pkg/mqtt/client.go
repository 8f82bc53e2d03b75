package mqtt

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"sync/atomic"

	"github.com/eclipse/paho.golang/autopaho"
	"github.com/eclipse/paho.golang/paho"

	"github.com/autopeer-io/fleetconsole/pkg/log"
)

// ErrNotStarted is returned by operations that need a running connection manager.
var ErrNotStarted = errors.New("mqtt client not started")

type pahoClient struct {
	cfg *ClientConfig

	mu    sync.RWMutex
	cm    *autopaho.ConnectionManager
	hooks Hooks
	ctx   context.Context

	connected atomic.Bool
}

// NewClient creates a new MQTT client implementing the Client interface.
func NewClient(cfg *ClientConfig) (Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("mqtt config is required")
	}

	setDefaultConfig(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid mqtt config: %w", err)
	}

	return &pahoClient{cfg: cfg}, nil
}

func (c *pahoClient) Start(ctx context.Context, hooks Hooks) error {
	brokerURL, _ := url.Parse(c.cfg.BrokerURL) // Already validated

	c.mu.Lock()
	c.hooks = hooks
	c.ctx = ctx
	c.mu.Unlock()

	pahoCfg := autopaho.ClientConfig{
		ServerUrls:                    []*url.URL{brokerURL},
		KeepAlive:                     c.cfg.KeepAlive,
		CleanStartOnInitialConnection: c.cfg.CleanStart,
		SessionExpiryInterval:         c.cfg.SessionExpiry,
		ReconnectBackoff:              autopaho.NewConstantBackoff(c.cfg.ReconnectBackoff),
		ConnectTimeout:                c.cfg.ConnectTimeout,
		ConnectUsername:               c.cfg.Username,
		ConnectPassword:               []byte(c.cfg.Password),
		TlsCfg: &tls.Config{
			InsecureSkipVerify: c.cfg.InsecureSkipVerify,
		},
		ClientConfig: paho.ClientConfig{
			ClientID:           c.cfg.ClientID,
			OnClientError:      c.onClientError,
			OnServerDisconnect: c.onServerDisconnect,
			OnPublishReceived: []func(paho.PublishReceived) (bool, error){
				c.router,
			},
		},
		OnConnectionUp: c.onConnectionUp,
		OnConnectError: c.onConnectError,
	}

	if c.cfg.Debug {
		pahoCfg.Debug = pahoLogger{prefix: "autopaho"}
		pahoCfg.PahoDebug = pahoLogger{prefix: "paho"}
	}

	log.Info("Starting MQTT client", "broker", c.cfg.BrokerURL, "clientID", c.cfg.ClientID)

	cm, err := autopaho.NewConnection(ctx, pahoCfg)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.cm = cm
	c.mu.Unlock()
	return nil
}

func (c *pahoClient) manager() *autopaho.ConnectionManager {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cm
}

func (c *pahoClient) Disconnect(ctx context.Context) {
	if cm := c.manager(); cm != nil {
		_ = cm.Disconnect(ctx)
		c.connected.Store(false)
		log.Info("MQTT client disconnected")
	}
}

func (c *pahoClient) Subscribe(ctx context.Context, qos int, filters ...string) error {
	cm := c.manager()
	if cm == nil {
		return ErrNotStarted
	}
	if len(filters) == 0 {
		return nil
	}

	opts := make([]paho.SubscribeOptions, 0, len(filters))
	for _, f := range filters {
		opts = append(opts, paho.SubscribeOptions{Topic: f, QoS: byte(qos)})
	}

	if _, err := cm.Subscribe(ctx, &paho.Subscribe{Subscriptions: opts}); err != nil {
		return fmt.Errorf("failed to send subscription packet: %w", err)
	}

	log.Debug("Subscribed", "filters", filters)
	return nil
}

func (c *pahoClient) Unsubscribe(ctx context.Context, filters ...string) error {
	cm := c.manager()
	if cm == nil {
		return ErrNotStarted
	}
	if len(filters) == 0 {
		return nil
	}

	_, err := cm.Unsubscribe(ctx, &paho.Unsubscribe{Topics: filters})
	return err
}

func (c *pahoClient) AwaitConnection(ctx context.Context) error {
	cm := c.manager()
	if cm == nil {
		return ErrNotStarted
	}
	return cm.AwaitConnection(ctx)
}

func (c *pahoClient) IsConnected() bool {
	return c.connected.Load()
}

func (c *pahoClient) currentHooks() (Hooks, context.Context) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hooks, c.ctx
}

// onConnectionUp is called when the connection is established or re-established.
func (c *pahoClient) onConnectionUp(_ *autopaho.ConnectionManager, _ *paho.Connack) {
	c.connected.Store(true)
	log.Info("MQTT connection established", "broker", c.cfg.BrokerURL)

	if hooks, ctx := c.currentHooks(); hooks != nil {
		hooks.OnConnectionUp(ctx)
	}
}

func (c *pahoClient) onConnectError(err error) {
	log.Error(err, "MQTT connection attempt failed, retrying", "backoff", c.cfg.ReconnectBackoff)
}

func (c *pahoClient) onClientError(err error) {
	log.Error(err, "MQTT client error")
	c.connectionLost(err)
}

func (c *pahoClient) onServerDisconnect(d *paho.Disconnect) {
	reason := ""
	if d.Properties != nil {
		reason = d.Properties.ReasonString
	}
	log.Warn("MQTT server requested disconnect", "reasonCode", int(d.ReasonCode), "reason", reason)
	c.connectionLost(fmt.Errorf("server disconnect: reason code %d", d.ReasonCode))
}

func (c *pahoClient) connectionLost(err error) {
	if !c.connected.Swap(false) {
		return
	}
	if hooks, _ := c.currentHooks(); hooks != nil {
		hooks.OnConnectionDown(err)
	}
}

// router hands every inbound publish to the hooks inline, preserving delivery order.
func (c *pahoClient) router(p paho.PublishReceived) (bool, error) {
	hooks, ctx := c.currentHooks()
	if hooks == nil || p.Packet == nil {
		return true, nil
	}

	hooks.OnMessage(ctx, p.Packet.Topic, p.Packet.Payload)
	return true, nil // Always acknowledge reception
}
