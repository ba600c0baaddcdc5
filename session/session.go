// Package session owns a client's realtime state: the subscription set,
// connection liveness, the typing indicator machine and the optimistic
// send reconciler. One Session per logical client, created on login and
// Closed on logout. There is no ambient singleton.
package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/parleyhq/parley/pubsub"
	"github.com/parleyhq/parley/types"
)

type State string

const (
	StateUninitialized State = "uninitialized"
	StateConnecting    State = "connecting"
	StateConnected     State = "connected"
	StateDisconnected  State = "disconnected"
	StateTerminated    State = "terminated"
)

// Channel is the client's active view: a conversation or a room, never
// both. The zero Channel means no active view.
type Channel struct {
	ConversationID string
	RoomCode       string
}

func (c Channel) IsZero() bool {
	return c.ConversationID == "" && c.RoomCode == ""
}

func (c Channel) topic() string {
	if c.RoomCode != "" {
		return pubsub.RoomTopic(c.RoomCode)
	}
	return pubsub.ConversationTopic(c.ConversationID)
}

// Backend is the request/response surface the session needs. Satisfied by
// *service.Service in-process; a remote client would satisfy it over HTTP.
type Backend interface {
	CreateMessage(ctx context.Context, in types.CreateMessage) (types.Message, error)
	CreateRoomMessage(ctx context.Context, in types.CreateRoomMessage) (types.RoomMessage, error)
	BroadcastTyping(ctx context.Context, in types.BroadcastTyping) error
}

type Config struct {
	User    types.User
	PubSub  pubsub.PubSub
	Backend Backend
	Logger  *slog.Logger

	// TypingTimeout is the inactivity delay before a local typing
	// indicator auto-stops. Defaults to one second.
	TypingTimeout time.Duration

	// OnReconnect fires after transport recovery, once the subscription
	// set is restored. Missed events are never replayed; the UI is
	// expected to trigger a full reload from here.
	OnReconnect func()

	// OnEvent receives events from the user's private topic that the
	// session does not consume itself (friend requests, acceptances, and
	// messages for non-active conversations).
	OnEvent func(types.Event)
}

// Session serializes every transport callback, timer callback and user
// action through one mutex: processing order is acquisition order, and
// view state never needs finer locking.
type Session struct {
	user    types.User
	ps      pubsub.PubSub
	backend Backend
	logger  *slog.Logger

	typingTimeout time.Duration
	onReconnect   func()
	onEvent       func(types.Event)

	mu          sync.Mutex
	state       State
	active      Channel
	epoch       int
	userUnsub   pubsub.Unsubscribe
	chanUnsub   pubsub.Unsubscribe
	statusUnsub pubsub.Unsubscribe

	messages     []types.Message
	roomMessages []types.RoomMessage
	seen         map[string]struct{}

	typingPeers []string
	typist      typistState
	typingGen   int
	typingTimer *time.Timer
}

func New(cfg Config) *Session {
	timeout := cfg.TypingTimeout
	if timeout <= 0 {
		timeout = time.Second
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Session{
		user:    cfg.User,
		ps:      cfg.PubSub,
		backend: cfg.Backend,
		logger:  logger,

		typingTimeout: timeout,
		onReconnect:   cfg.OnReconnect,
		onEvent:       cfg.OnEvent,

		state: StateUninitialized,
		seen:  map[string]struct{}{},
	}
}

// Connect acquires the transport: subscribes the user's private topic and
// registers for lifecycle signals. No events flow until it returns.
func (s *Session) Connect() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateUninitialized {
		return errAlreadyConnected(s.state)
	}

	s.state = StateConnecting

	unsub, err := s.ps.Sub(pubsub.UserTopic(s.user.ID), s.onUserTopic)
	if err != nil {
		s.state = StateUninitialized
		return err
	}
	s.userUnsub = unsub

	if lc, ok := s.ps.(pubsub.Lifecycle); ok {
		s.statusUnsub = lc.OnStatusChange(s.onStatus)
	}

	s.state = StateConnected
	return nil
}

// SetActiveChannel swaps the channel subscription atomically with respect
// to the session's view of "current channel": the old topic is dropped and
// the epoch bumped before the new subscription exists, so an event from a
// stale channel can never be attributed to the new one.
func (s *Session) SetActiveChannel(ch Channel) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateTerminated {
		return errTerminated
	}

	s.dropChannelLocked()
	s.active = ch

	if ch.IsZero() {
		return nil
	}

	epoch := s.epoch
	unsub, err := s.ps.Sub(ch.topic(), func(data []byte) {
		s.onChannelTopic(epoch, data)
	})
	if err != nil {
		s.active = Channel{}
		return err
	}
	s.chanUnsub = unsub

	return nil
}

// dropChannelLocked unsubscribes the active channel and clears every piece
// of channel-scoped state. Callers hold s.mu.
func (s *Session) dropChannelLocked() {
	s.epoch++
	if s.chanUnsub != nil {
		if err := s.chanUnsub(); err != nil {
			s.logger.Error("unsubscribe channel topic", "err", err)
		}
		s.chanUnsub = nil
	}
	s.active = Channel{}
	s.messages = nil
	s.roomMessages = nil
	s.seen = map[string]struct{}{}
	s.typingPeers = nil
	s.stopTypistLocked(false)
}

// Close releases everything: subscriptions, timers, lifecycle listener.
// It is idempotent and must run on every exit path, not only the happy
// one.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateTerminated {
		return
	}

	s.dropChannelLocked()

	if s.userUnsub != nil {
		if err := s.userUnsub(); err != nil {
			s.logger.Error("unsubscribe user topic", "err", err)
		}
		s.userUnsub = nil
	}
	if s.statusUnsub != nil {
		if err := s.statusUnsub(); err != nil {
			s.logger.Error("unsubscribe status listener", "err", err)
		}
		s.statusUnsub = nil
	}

	s.state = StateTerminated
}

func (s *Session) onStatus(status pubsub.Status) {
	s.mu.Lock()

	if s.state == StateTerminated {
		s.mu.Unlock()
		return
	}

	var reconnected bool
	switch status {
	case pubsub.StatusDisconnected:
		if s.state == StateConnected {
			s.state = StateDisconnected
		}
	case pubsub.StatusConnected:
		if s.state == StateDisconnected {
			s.resubscribeLocked()
			s.state = StateConnected
			reconnected = true
		}
	case pubsub.StatusClosed:
		s.state = StateDisconnected
	}

	onReconnect := s.onReconnect
	s.mu.Unlock()

	// Recovery does not replay missed events: the reload the UI triggers
	// here is the only catch-up mechanism.
	if reconnected && onReconnect != nil {
		onReconnect()
	}
}

// resubscribeLocked rebuilds exactly the subscription set implied by the
// current state: the user's private topic plus the active channel, if any.
func (s *Session) resubscribeLocked() {
	if s.userUnsub != nil {
		_ = s.userUnsub()
	}
	unsub, err := s.ps.Sub(pubsub.UserTopic(s.user.ID), s.onUserTopic)
	if err != nil {
		s.logger.Error("resubscribe user topic", "err", err)
		s.userUnsub = nil
	} else {
		s.userUnsub = unsub
	}

	if s.active.IsZero() {
		return
	}

	if s.chanUnsub != nil {
		_ = s.chanUnsub()
	}
	epoch := s.epoch
	chanUnsub, err := s.ps.Sub(s.active.topic(), func(data []byte) {
		s.onChannelTopic(epoch, data)
	})
	if err != nil {
		s.logger.Error("resubscribe channel topic", "err", err)
		s.chanUnsub = nil
	} else {
		s.chanUnsub = chanUnsub
	}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) ActiveChannel() Channel {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Messages is the conversation view, confirmed echoes and local
// placeholders interleaved in arrival order.
func (s *Session) Messages() []types.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

func (s *Session) RoomMessages() []types.RoomMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.RoomMessage, len(s.roomMessages))
	copy(out, s.roomMessages)
	return out
}

// TypingPeers lists who is currently typing in the active channel,
// excluding the session's own user.
func (s *Session) TypingPeers() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.typingPeers))
	copy(out, s.typingPeers)
	return out
}

// onUserTopic handles everything addressed to this user's private topic.
func (s *Session) onUserTopic(data []byte) {
	ev, err := types.DecodeEvent(data)
	if err != nil {
		s.logger.Error("decode user topic event", "err", err)
		return
	}

	if ev.Name == types.EventNewMessage {
		var payload types.NewMessageEvent
		if err := ev.Payload(&payload); err != nil {
			s.logger.Error("decode new message event", "err", err)
			return
		}

		if s.applyConversationMessage(payload) {
			return
		}
	}

	s.mu.Lock()
	terminated := s.state == StateTerminated
	onEvent := s.onEvent
	s.mu.Unlock()

	if !terminated && onEvent != nil {
		onEvent(ev)
	}
}

// onChannelTopic handles the active channel's topic. epoch is the channel
// generation captured at subscribe time; anything arriving after a switch
// is dropped on the floor.
func (s *Session) onChannelTopic(epoch int, data []byte) {
	ev, err := types.DecodeEvent(data)
	if err != nil {
		s.logger.Error("decode channel topic event", "err", err)
		return
	}

	switch ev.Name {
	case types.EventTyping:
		var payload types.TypingEvent
		if err := ev.Payload(&payload); err != nil {
			s.logger.Error("decode typing event", "err", err)
			return
		}
		s.applyPeerTyping(epoch, payload)
	case types.EventNewMessage:
		var payload types.RoomMessageEvent
		if err := ev.Payload(&payload); err != nil {
			s.logger.Error("decode room message event", "err", err)
			return
		}
		s.applyRoomMessage(epoch, payload)
	}
}

type sessionError string

func (e sessionError) Error() string { return string(e) }

const errTerminated = sessionError("session terminated")

func errAlreadyConnected(s State) error {
	return sessionError("connect from state " + string(s))
}
