package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/parleyhq/parley/pubsub"
	"github.com/parleyhq/parley/types"
)

func TestSend_EchoConfirms(t *testing.T) {
	ps := pubsub.NewMemory()
	backend := newFakeBackend()

	convo := Channel{ConversationID: "c2l6p3kg0brs7d9nq8eg"}

	// The backend persists and fans out: the sender hears about its own
	// message only through the echo on its private topic.
	backend.createMessage = func(in types.CreateMessage) (types.Message, error) {
		msg := types.Message{
			ID:             "m1",
			ConversationID: in.ConversationID,
			UserID:         in.UserID,
			Content:        in.Content,
			CreatedAt:      time.Now(),
		}
		publishEvent(t, ps, pubsub.UserTopic(in.UserID), types.EventNewMessage, types.NewMessageEvent{
			ConversationID: in.ConversationID,
			Message:        msg,
		})
		return msg, nil
	}

	s := newTestSession(t, ps, backend, Config{})
	if err := s.Connect(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.SetActiveChannel(convo); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := s.Send(context.Background(), "hello"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mm := s.Messages()
	if len(mm) != 1 {
		t.Fatalf("want exactly 1 message, got %d", len(mm))
	}
	if mm[0].ID != "m1" || mm[0].Content != "hello" {
		t.Errorf("unexpected message: %+v", mm[0])
	}
	if mm[0].Local {
		t.Error("a confirmed message must not be marked local")
	}

	// A redelivered echo is dropped on identity.
	publishEvent(t, ps, pubsub.UserTopic(testUser.ID), types.EventNewMessage, types.NewMessageEvent{
		ConversationID: convo.ConversationID,
		Message:        mm[0],
	})
	if got := s.Messages(); len(got) != 1 {
		t.Errorf("want duplicate echo dropped, got %d messages", len(got))
	}
}

func TestSend_FallbackOnFailure(t *testing.T) {
	ps := pubsub.NewMemory()
	backend := newFakeBackend()

	wantErr := errors.New("backend down")
	backend.createMessage = func(types.CreateMessage) (types.Message, error) {
		return types.Message{}, wantErr
	}

	convo := Channel{ConversationID: "c2l6p3kg0brs7d9nq8eg"}
	s := newTestSession(t, ps, backend, Config{})
	if err := s.Connect(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.SetActiveChannel(convo); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := s.Send(context.Background(), "lost words"); !errors.Is(err, wantErr) {
		t.Fatalf("want %v, got %v", wantErr, err)
	}

	mm := s.Messages()
	if len(mm) != 1 {
		t.Fatalf("want 1 placeholder, got %d messages", len(mm))
	}
	if !mm[0].Local {
		t.Error("want the placeholder marked local")
	}
	if mm[0].Content != "lost words" {
		t.Errorf("want content preserved, got %q", mm[0].Content)
	}
	if mm[0].Sender == nil || mm[0].Sender.Username != testUser.Username {
		t.Errorf("want the placeholder attributed to the sender, got %+v", mm[0].Sender)
	}

	// Reloading from server truth discards the placeholder.
	s.LoadMessages([]types.Message{{ID: "m1", ConversationID: convo.ConversationID, Content: "real"}})
	mm = s.Messages()
	if len(mm) != 1 || mm[0].ID != "m1" {
		t.Errorf("want the placeholder gone after reload, got %+v", mm)
	}
}

func TestSend_RoomEcho(t *testing.T) {
	ps := pubsub.NewMemory()
	backend := newFakeBackend()

	room := Channel{RoomCode: "game-night"}
	backend.createRoomMessage = func(in types.CreateRoomMessage) (types.RoomMessage, error) {
		msg := types.RoomMessage{
			ID:        "rm1",
			Sender:    in.Sender,
			Content:   in.Content,
			CreatedAt: time.Now(),
		}
		publishEvent(t, ps, pubsub.RoomTopic(in.Code), types.EventNewMessage, types.RoomMessageEvent{
			Code:    in.Code,
			Message: msg,
		})
		return msg, nil
	}

	s := newTestSession(t, ps, backend, Config{})
	if err := s.Connect(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.SetActiveChannel(room); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := s.Send(context.Background(), "hi room"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mm := s.RoomMessages()
	if len(mm) != 1 {
		t.Fatalf("want exactly 1 room message, got %d", len(mm))
	}
	if mm[0].ID != "rm1" || mm[0].Sender != testUser.Username {
		t.Errorf("unexpected room message: %+v", mm[0])
	}
}

func TestSend_RoomFallbackOnFailure(t *testing.T) {
	ps := pubsub.NewMemory()
	backend := newFakeBackend()

	backend.createRoomMessage = func(types.CreateRoomMessage) (types.RoomMessage, error) {
		return types.RoomMessage{}, errors.New("backend down")
	}

	s := newTestSession(t, ps, backend, Config{})
	if err := s.Connect(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.SetActiveChannel(Channel{RoomCode: "game-night"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := s.Send(context.Background(), "lost words"); err == nil {
		t.Fatal("want an error")
	}

	mm := s.RoomMessages()
	if len(mm) != 1 {
		t.Fatalf("want 1 placeholder, got %d messages", len(mm))
	}
	if !mm[0].Local || mm[0].Sender != testUser.Username || mm[0].Content != "lost words" {
		t.Errorf("unexpected placeholder: %+v", mm[0])
	}
	if mm[0].ID == "" {
		t.Error("want a generated placeholder ID")
	}
}

func TestSend_RequiresActiveChannel(t *testing.T) {
	ps := pubsub.NewMemory()
	s := newTestSession(t, ps, newFakeBackend(), Config{})
	if err := s.Connect(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := s.Send(context.Background(), "into the void"); err == nil {
		t.Fatal("want an error with no active channel")
	}
}

func TestSend_FallbackDroppedAfterChannelSwitch(t *testing.T) {
	ps := pubsub.NewMemory()
	backend := newFakeBackend()

	// The failing request switches the channel out from under the send
	// before it returns. The stale fallback must not land in the new view.
	s := newTestSession(t, ps, backend, Config{})
	backend.createMessage = func(types.CreateMessage) (types.Message, error) {
		if err := s.SetActiveChannel(Channel{ConversationID: "c2l6p3kg0brs7d9nq8f0"}); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		return types.Message{}, errors.New("backend down")
	}

	if err := s.Connect(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.SetActiveChannel(Channel{ConversationID: "c2l6p3kg0brs7d9nq8eg"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := s.Send(context.Background(), "stale"); err == nil {
		t.Fatal("want an error")
	}
	if got := s.Messages(); len(got) != 0 {
		t.Errorf("want no stale placeholder after a channel switch, got %+v", got)
	}
}
