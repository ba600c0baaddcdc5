package service

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/parleyhq/parley/errs"
	"github.com/parleyhq/parley/pubsub"
	"github.com/parleyhq/parley/roomstore"
	"github.com/parleyhq/parley/types"
)

// newRoomTestService builds a service with no database behind it. Room and
// typing paths never touch Postgres, which keeps these tests self-contained.
func newRoomTestService(t *testing.T) (*Service, *pubsub.Memory) {
	t.Helper()

	ps := pubsub.NewMemory()
	svc := New(&Config{
		Rooms:             roomstore.New(),
		PubSub:            ps,
		Logger:            slog.New(slog.DiscardHandler),
		BaseCtx:           context.Background(),
		BackgroundTimeout: time.Second,
	})
	return svc, ps
}

func TestService_JoinOrCreateRoom(t *testing.T) {
	ctx := context.Background()

	t.Run("validates_input", func(t *testing.T) {
		svc, _ := newRoomTestService(t)
		defer svc.Close()

		_, err := svc.JoinOrCreateRoom(ctx, types.JoinRoom{Code: " ", Password: "", Username: ""})
		if err == nil {
			t.Fatal("want a validation error")
		}
	})

	t.Run("create_then_join_then_reject", func(t *testing.T) {
		svc, _ := newRoomTestService(t)
		defer svc.Close()

		joined, err := svc.JoinOrCreateRoom(ctx, types.JoinRoom{Code: "game-night", Password: "pw", Username: "alice"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !joined.Created {
			t.Error("want first join to create the room")
		}

		joined, err = svc.JoinOrCreateRoom(ctx, types.JoinRoom{Code: "game-night", Password: "pw", Username: "bob"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if joined.Created {
			t.Error("want second join to find the room")
		}

		_, err = svc.JoinOrCreateRoom(ctx, types.JoinRoom{Code: "game-night", Password: "nope", Username: "mallory"})
		if !errs.IsUnauthenticated(err) {
			t.Errorf("want unauthenticated error, got %v", err)
		}
	})
}

func TestService_CreateRoomMessage(t *testing.T) {
	ctx := context.Background()

	t.Run("requires_existing_room", func(t *testing.T) {
		svc, _ := newRoomTestService(t)
		defer svc.Close()

		_, err := svc.CreateRoomMessage(ctx, types.CreateRoomMessage{Code: "ghost", Sender: "alice", Content: "hi"})
		if !errs.IsNotFound(err) {
			t.Errorf("want not found, got %v", err)
		}
	})

	t.Run("broadcasts_to_room_subscribers", func(t *testing.T) {
		svc, ps := newRoomTestService(t)

		if _, err := svc.JoinOrCreateRoom(ctx, types.JoinRoom{Code: "game-night", Password: "pw", Username: "alice"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var got []types.Event
		unsub, err := ps.Sub(pubsub.RoomTopic("game-night"), func(data []byte) {
			ev, err := types.DecodeEvent(data)
			if err != nil {
				t.Errorf("decode event: %v", err)
				return
			}
			got = append(got, ev)
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer unsub()

		sent, err := svc.CreateRoomMessage(ctx, types.CreateRoomMessage{Code: "game-night", Sender: "alice", Content: "hello :tada:"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		// Close waits for the background publish.
		if err := svc.Close(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(got) != 1 {
			t.Fatalf("want 1 event, got %d", len(got))
		}
		if got[0].Name != types.EventNewMessage {
			t.Errorf("want event %q, got %q", types.EventNewMessage, got[0].Name)
		}

		var payload types.RoomMessageEvent
		if err := got[0].Payload(&payload); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if payload.Code != "game-night" {
			t.Errorf("want code %q, got %q", "game-night", payload.Code)
		}
		if payload.Message.ID != sent.ID {
			t.Errorf("want message ID %q, got %q", sent.ID, payload.Message.ID)
		}
		if payload.Message.Content != sent.Content {
			t.Errorf("want content %q, got %q", sent.Content, payload.Message.Content)
		}

		mm, err := svc.RoomMessages(ctx, types.ListRoomMessages{Code: "game-night"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(mm) != 1 || mm[0].ID != sent.ID {
			t.Errorf("want history to hold the sent message, got %+v", mm)
		}
	})
}

func TestService_BroadcastTyping(t *testing.T) {
	ctx := context.Background()

	t.Run("mutually_exclusive_channel", func(t *testing.T) {
		svc, _ := newRoomTestService(t)
		defer svc.Close()

		err := svc.BroadcastTyping(ctx, types.BroadcastTyping{
			ConversationID: "c2l6p3kg0brs7d9nq8e0",
			RoomCode:       "game-night",
			Username:       "alice",
			Typing:         true,
		})
		if err == nil {
			t.Fatal("want a validation error")
		}
	})

	t.Run("relays_to_room_topic", func(t *testing.T) {
		svc, ps := newRoomTestService(t)
		defer svc.Close()

		var got []types.TypingEvent
		unsub, err := ps.Sub(pubsub.RoomTopic("game-night"), func(data []byte) {
			ev, err := types.DecodeEvent(data)
			if err != nil || ev.Name != types.EventTyping {
				t.Errorf("unexpected event: %v %v", ev.Name, err)
				return
			}
			var p types.TypingEvent
			if err := ev.Payload(&p); err != nil {
				t.Errorf("decode payload: %v", err)
				return
			}
			got = append(got, p)
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer unsub()

		err = svc.BroadcastTyping(ctx, types.BroadcastTyping{RoomCode: "game-night", Username: "alice", Typing: true})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		err = svc.BroadcastTyping(ctx, types.BroadcastTyping{RoomCode: "game-night", Username: "alice", Typing: false})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(got) != 2 {
			t.Fatalf("want 2 typing events, got %d", len(got))
		}
		if !got[0].Typing || got[1].Typing {
			t.Errorf("want started then stopped, got %+v", got)
		}
		if got[0].Username != "alice" {
			t.Errorf("want username %q, got %q", "alice", got[0].Username)
		}
	})
}

func TestService_eventStream(t *testing.T) {
	svc, ps := newRoomTestService(t)
	defer svc.Close()

	done := make(chan struct{})
	events, err := svc.eventStream("user.abc", done)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	b, err := types.EncodeEvent(types.EventFriendRequest, types.FriendRequestEvent{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	go func() {
		if err := ps.Pub("user.abc", b); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	}()

	select {
	case ev := <-events:
		if ev.Name != types.EventFriendRequest {
			t.Errorf("want event %q, got %q", types.EventFriendRequest, ev.Name)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}

	close(done)

	// The subscription is torn down once done closes. Publishing afterwards
	// must not block even with nobody reading the stream.
	deadline := time.Now().Add(time.Second)
	for ps.Subscribers("user.abc") != 0 {
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for unsubscribe")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if err := ps.Pub("user.abc", b); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
