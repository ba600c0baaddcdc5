package pubsub

import (
	"fmt"
	"sync"

	"github.com/nats-io/nats.go"
)

// NATS carries events through a NATS server. Reconnects are handled by the
// client library; subscriptions survive reconnects, and status changes fan
// out to every registered lifecycle listener.
type NATS struct {
	conn *nats.Conn

	mu        sync.Mutex
	listeners map[int]func(Status)
	nextID    int
}

func NewNATS(url string) (*NATS, error) {
	n := &NATS{
		listeners: map[int]func(Status){},
	}

	conn, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, _ error) {
			n.notify(StatusDisconnected)
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			n.notify(StatusConnected)
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			n.notify(StatusClosed)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}

	n.conn = conn
	return n, nil
}

func (n *NATS) Pub(topic string, data []byte) error {
	if err := n.conn.Publish(topic, data); err != nil {
		return fmt.Errorf("nats publish to %s: %w", topic, err)
	}
	return nil
}

func (n *NATS) Sub(topic string, fn Handler) (Unsubscribe, error) {
	sub, err := n.conn.Subscribe(topic, func(m *nats.Msg) {
		fn(m.Data)
	})
	if err != nil {
		return nil, fmt.Errorf("nats subscribe to %s: %w", topic, err)
	}

	return func() error {
		if err := sub.Unsubscribe(); err != nil {
			return fmt.Errorf("nats unsubscribe from %s: %w", topic, err)
		}
		return nil
	}, nil
}

func (n *NATS) OnStatusChange(fn func(Status)) Unsubscribe {
	n.mu.Lock()
	defer n.mu.Unlock()

	listenerID := n.nextID
	n.nextID++
	n.listeners[listenerID] = fn

	return func() error {
		n.mu.Lock()
		defer n.mu.Unlock()
		delete(n.listeners, listenerID)
		return nil
	}
}

func (n *NATS) Close() {
	n.conn.Close()
}

func (n *NATS) notify(s Status) {
	n.mu.Lock()
	listeners := make([]func(Status), 0, len(n.listeners))
	for _, fn := range n.listeners {
		listeners = append(listeners, fn)
	}
	n.mu.Unlock()

	for _, fn := range listeners {
		fn(s)
	}
}
