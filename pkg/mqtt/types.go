package mqtt

import (
	"context"
)

// MessageHandler processes one inbound publish.
type MessageHandler func(ctx context.Context, topic string, payload []byte)

// Hooks receives connection lifecycle and message events from a Client.
// All methods are invoked from the client's delivery goroutine, so messages
// reach OnMessage in the order the broker delivered them.
type Hooks interface {
	// OnConnectionUp is called after every successful (re)connection.
	OnConnectionUp(ctx context.Context)

	// OnConnectionDown is called when an established connection is lost.
	OnConnectionDown(err error)

	// OnMessage is called for every received publish.
	OnMessage(ctx context.Context, topic string, payload []byte)
}

// Client abstracts the underlying paho connection manager.
type Client interface {
	// Start initiates the connection to the broker.
	// It is non-blocking; reconnection is handled in the background.
	Start(ctx context.Context, hooks Hooks) error

	// Disconnect cleanly closes the connection.
	Disconnect(ctx context.Context)

	// Subscribe sends a SUBSCRIBE packet for the given topic filters.
	// It does not remember the filters; callers replay them on reconnect.
	Subscribe(ctx context.Context, qos int, filters ...string) error

	// Unsubscribe sends an UNSUBSCRIBE packet for the given topic filters.
	Unsubscribe(ctx context.Context, filters ...string) error

	// AwaitConnection blocks until the client is connected to the broker.
	AwaitConnection(ctx context.Context) error

	// IsConnected reports whether a connection is currently established.
	IsConnected() bool
}
