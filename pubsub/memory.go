package pubsub

import (
	"errors"
	"sync"
)

// Memory is an in-process PubSub for single-node deployments and tests.
// Delivery is synchronous: Pub returns after every current subscriber's
// handler has run, which keeps tests deterministic.
type Memory struct {
	mu        sync.Mutex
	subs      map[string]map[int]Handler
	listeners map[int]func(Status)
	nextID    int
	closed    bool
}

func NewMemory() *Memory {
	return &Memory{
		subs:      map[string]map[int]Handler{},
		listeners: map[int]func(Status){},
	}
}

func (m *Memory) Pub(topic string, data []byte) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return errors.New("pubsub closed")
	}
	handlers := make([]Handler, 0, len(m.subs[topic]))
	for _, fn := range m.subs[topic] {
		handlers = append(handlers, fn)
	}
	m.mu.Unlock()

	for _, fn := range handlers {
		fn(data)
	}

	return nil
}

func (m *Memory) Sub(topic string, fn Handler) (Unsubscribe, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, errors.New("pubsub closed")
	}

	if m.subs[topic] == nil {
		m.subs[topic] = map[int]Handler{}
	}

	subID := m.nextID
	m.nextID++
	m.subs[topic][subID] = fn

	return func() error {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.subs[topic], subID)
		if len(m.subs[topic]) == 0 {
			delete(m.subs, topic)
		}
		return nil
	}, nil
}

func (m *Memory) OnStatusChange(fn func(Status)) Unsubscribe {
	m.mu.Lock()
	defer m.mu.Unlock()

	listenerID := m.nextID
	m.nextID++
	m.listeners[listenerID] = fn

	return func() error {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.listeners, listenerID)
		return nil
	}
}

// SetStatus simulates a transport lifecycle change. Tests use it to drive
// sessions through disconnect and recovery.
func (m *Memory) SetStatus(s Status) {
	m.mu.Lock()
	listeners := make([]func(Status), 0, len(m.listeners))
	for _, fn := range m.listeners {
		listeners = append(listeners, fn)
	}
	m.mu.Unlock()

	for _, fn := range listeners {
		fn(s)
	}
}

// Subscribers reports the current subscription count for a topic.
func (m *Memory) Subscribers(topic string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.subs[topic])
}

func (m *Memory) Close() {
	m.mu.Lock()
	m.closed = true
	m.subs = map[string]map[int]Handler{}
	listeners := make([]func(Status), 0, len(m.listeners))
	for _, fn := range m.listeners {
		listeners = append(listeners, fn)
	}
	m.mu.Unlock()

	for _, fn := range listeners {
		fn(StatusClosed)
	}
}
