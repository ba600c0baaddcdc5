package roomstore

import (
	"fmt"
	"sync"
	"testing"

	"github.com/parleyhq/parley/errs"
)

func TestStore_JoinOrCreate(t *testing.T) {
	t.Run("creates_unclaimed_code", func(t *testing.T) {
		s := New()

		joined, err := s.JoinOrCreate("lobby", "hunter2", "alice")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !joined.Created {
			t.Error("want Created = true for a fresh code")
		}
		if joined.Room.Code != "lobby" {
			t.Errorf("want code %q, got %q", "lobby", joined.Room.Code)
		}
		if joined.Room.CreatedBy != "alice" {
			t.Errorf("want creator %q, got %q", "alice", joined.Room.CreatedBy)
		}
		if joined.Room.CreatedAt.IsZero() {
			t.Error("want a creation timestamp")
		}
	})

	t.Run("joins_with_matching_password", func(t *testing.T) {
		s := New()

		if _, err := s.JoinOrCreate("lobby", "hunter2", "alice"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		joined, err := s.JoinOrCreate("lobby", "hunter2", "bob")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if joined.Created {
			t.Error("want Created = false for an existing room")
		}
		if joined.Room.CreatedBy != "alice" {
			t.Errorf("creator must stay %q, got %q", "alice", joined.Room.CreatedBy)
		}
	})

	t.Run("rejects_wrong_password_without_mutating", func(t *testing.T) {
		s := New()

		if _, err := s.JoinOrCreate("lobby", "hunter2", "alice"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := s.AddMessage("lobby", "alice", "hi"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		_, err := s.JoinOrCreate("lobby", "wrong", "mallory")
		if !errs.IsUnauthenticated(err) {
			t.Fatalf("want unauthenticated error, got %v", err)
		}

		room, err := s.Room("lobby")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if room.CreatedBy != "alice" {
			t.Error("failed join must not alter the room")
		}
		mm, err := s.Messages("lobby")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(mm) != 1 {
			t.Errorf("failed join must not alter history, got %d messages", len(mm))
		}
	})

	t.Run("concurrent_joins_create_once", func(t *testing.T) {
		s := New()

		const n = 32
		created := make(chan bool, n)
		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				joined, err := s.JoinOrCreate("race", "pw", fmt.Sprintf("user%d", i))
				if err != nil {
					t.Errorf("unexpected error: %v", err)
					return
				}
				created <- joined.Created
			}(i)
		}
		wg.Wait()
		close(created)

		var creations int
		for c := range created {
			if c {
				creations++
			}
		}
		if creations != 1 {
			t.Errorf("want exactly one creation, got %d", creations)
		}
	})
}

func TestStore_Messages(t *testing.T) {
	t.Run("unknown_room", func(t *testing.T) {
		s := New()

		if _, err := s.AddMessage("nope", "alice", "hi"); !errs.IsNotFound(err) {
			t.Errorf("AddMessage: want not found, got %v", err)
		}
		if _, err := s.Messages("nope"); !errs.IsNotFound(err) {
			t.Errorf("Messages: want not found, got %v", err)
		}
		if _, err := s.Room("nope"); !errs.IsNotFound(err) {
			t.Errorf("Room: want not found, got %v", err)
		}
	})

	t.Run("insertion_order_and_unique_ids", func(t *testing.T) {
		s := New()

		if _, err := s.JoinOrCreate("lobby", "pw", "alice"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		want := []string{"one", "two", "three"}
		seen := map[string]struct{}{}
		for _, content := range want {
			msg, err := s.AddMessage("lobby", "alice", content)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if msg.ID == "" {
				t.Fatal("want a generated message ID")
			}
			if _, dup := seen[msg.ID]; dup {
				t.Fatalf("duplicate message ID %q", msg.ID)
			}
			seen[msg.ID] = struct{}{}
		}

		mm, err := s.Messages("lobby")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(mm) != len(want) {
			t.Fatalf("want %d messages, got %d", len(want), len(mm))
		}
		for i, content := range want {
			if mm[i].Content != content {
				t.Errorf("message %d: want %q, got %q", i, content, mm[i].Content)
			}
		}
	})

	t.Run("snapshot_is_detached", func(t *testing.T) {
		s := New()

		if _, err := s.JoinOrCreate("lobby", "pw", "alice"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := s.AddMessage("lobby", "alice", "hi"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		mm, err := s.Messages("lobby")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		mm[0].Content = "tampered"

		again, err := s.Messages("lobby")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if again[0].Content != "hi" {
			t.Error("mutating a snapshot must not reach the store")
		}
	})
}
