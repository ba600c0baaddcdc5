package pubsub

import (
	"reflect"
	"testing"
)

func TestMemory_PubSub(t *testing.T) {
	m := NewMemory()

	var got [][]byte
	unsub, err := m.Sub("user.a", func(data []byte) {
		got = append(got, data)
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := m.Pub("user.a", []byte("one")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := m.Pub("user.b", []byte("other topic")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := m.Pub("user.a", []byte("two")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := [][]byte{[]byte("one"), []byte("two")}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("want %q, got %q", want, got)
	}

	if err := unsub(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := m.Pub("user.a", []byte("after unsub")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("handler ran after unsubscribe: %q", got)
	}
	if n := m.Subscribers("user.a"); n != 0 {
		t.Errorf("want 0 subscribers, got %d", n)
	}
}

func TestMemory_StatusListeners(t *testing.T) {
	m := NewMemory()

	var got []Status
	unsub := m.OnStatusChange(func(s Status) {
		got = append(got, s)
	})

	m.SetStatus(StatusDisconnected)
	m.SetStatus(StatusConnected)

	want := []Status{StatusDisconnected, StatusConnected}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("want %v, got %v", want, got)
	}

	if err := unsub(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m.SetStatus(StatusDisconnected)
	if len(got) != 2 {
		t.Errorf("listener ran after unsubscribe: %v", got)
	}
}

func TestMemory_Close(t *testing.T) {
	m := NewMemory()

	var got []Status
	m.OnStatusChange(func(s Status) {
		got = append(got, s)
	})

	m.Close()

	if !reflect.DeepEqual(got, []Status{StatusClosed}) {
		t.Errorf("want closed notification, got %v", got)
	}
	if err := m.Pub("user.a", nil); err == nil {
		t.Error("want Pub to fail after Close")
	}
	if _, err := m.Sub("user.a", func([]byte) {}); err == nil {
		t.Error("want Sub to fail after Close")
	}
}

func TestTopics(t *testing.T) {
	tt := []struct {
		name string
		got  string
		want string
	}{
		{name: "user", got: UserTopic("c2l6p3kg0brs7d9nq8e0"), want: "user.c2l6p3kg0brs7d9nq8e0"},
		{name: "conversation", got: ConversationTopic("c2l6p3kg0brs7d9nq8eg"), want: "conversation.c2l6p3kg0brs7d9nq8eg"},
		{name: "room_plain", got: RoomTopic("game-night"), want: "room.game-night"},
		{name: "room_unsafe_runes", got: RoomTopic("fun room.*>"), want: "room.fun~room~~~"},
	}
	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			if tc.got != tc.want {
				t.Errorf("want %q, got %q", tc.want, tc.got)
			}
		})
	}
}
