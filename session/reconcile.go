package session

import (
	"context"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/parleyhq/parley/id"
	"github.com/parleyhq/parley/types"
)

// Send is the optimistic path: the typing indicator stops immediately, the
// persist+publish request goes out, and on success nothing is appended
// locally. The fanout echo arriving on the session's own subscription is
// the confirmation that appends it, so the message can never show up
// twice. On failure a locally-tagged placeholder is appended instead, with
// no retry: the user sees their content either way, but the placeholder
// never reaches anyone else.
func (s *Session) Send(ctx context.Context, content string) error {
	s.mu.Lock()

	if s.state == StateTerminated {
		s.mu.Unlock()
		return errTerminated
	}
	if s.active.IsZero() {
		s.mu.Unlock()
		return sessionError("no active channel")
	}

	ch := s.active
	epoch := s.epoch
	s.stopTypistLocked(true)
	s.mu.Unlock()

	var sendErr error
	if ch.RoomCode != "" {
		_, sendErr = s.backend.CreateRoomMessage(ctx, types.CreateRoomMessage{
			Code:    ch.RoomCode,
			Sender:  s.user.Username,
			Content: content,
		})
	} else {
		_, sendErr = s.backend.CreateMessage(ctx, types.CreateMessage{
			ConversationID: ch.ConversationID,
			UserID:         s.user.ID,
			Content:        content,
		})
	}

	if sendErr == nil {
		return nil
	}

	s.appendFallback(epoch, ch, content)
	return sendErr
}

// appendFallback degrades a failed send to a local-only placeholder, if
// the channel it was written for is still the active one.
func (s *Session) appendFallback(epoch int, ch Channel, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if epoch != s.epoch || s.state == StateTerminated {
		return
	}

	if ch.RoomCode != "" {
		msg := types.RoomMessage{
			ID:        gonanoid.Must(10),
			Sender:    s.user.Username,
			Content:   content,
			CreatedAt: time.Now(),
			Local:     true,
		}
		s.seen[msg.ID] = struct{}{}
		s.roomMessages = append(s.roomMessages, msg)
		return
	}

	sender := s.user
	msg := types.Message{
		ID:             id.Generate(),
		ConversationID: ch.ConversationID,
		UserID:         s.user.ID,
		Content:        content,
		CreatedAt:      time.Now(),
		Sender:         &sender,
		Local:          true,
	}
	s.seen[msg.ID] = struct{}{}
	s.messages = append(s.messages, msg)
}

// applyConversationMessage appends an inbound conversation message to the
// view if it belongs to the active conversation. Reports whether the
// event was consumed. An identity already present is never appended
// again; the sender's own publish echoes back to itself.
func (s *Session) applyConversationMessage(ev types.NewMessageEvent) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateTerminated {
		return true
	}
	if s.active.ConversationID == "" || ev.ConversationID != s.active.ConversationID {
		return false
	}

	if _, dup := s.seen[ev.Message.ID]; dup {
		return true
	}
	s.seen[ev.Message.ID] = struct{}{}
	s.messages = append(s.messages, ev.Message)
	return true
}

func (s *Session) applyRoomMessage(epoch int, ev types.RoomMessageEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if epoch != s.epoch || s.state == StateTerminated {
		return
	}

	if _, dup := s.seen[ev.Message.ID]; dup {
		return
	}
	s.seen[ev.Message.ID] = struct{}{}
	s.roomMessages = append(s.roomMessages, ev.Message)
}

// LoadMessages replaces the conversation view with server truth, typically
// after the full reload that follows a channel switch or a reconnect.
// Local placeholders do not survive a reload; the server never had them.
func (s *Session) LoadMessages(history []types.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateTerminated {
		return
	}

	s.messages = make([]types.Message, len(history))
	copy(s.messages, history)
	s.seen = map[string]struct{}{}
	for _, msg := range history {
		s.seen[msg.ID] = struct{}{}
	}
}

func (s *Session) LoadRoomMessages(history []types.RoomMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateTerminated {
		return
	}

	s.roomMessages = make([]types.RoomMessage, len(history))
	copy(s.roomMessages, history)
	s.seen = map[string]struct{}{}
	for _, msg := range history {
		s.seen[msg.ID] = struct{}{}
	}
}
