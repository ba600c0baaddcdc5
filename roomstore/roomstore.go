// Package roomstore holds ephemeral rooms and their messages in process
// memory. Everything here vanishes on restart; only conversations are
// durable.
package roomstore

import (
	"sync"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/parleyhq/parley/errs"
	"github.com/parleyhq/parley/types"
)

type Store struct {
	mu       sync.Mutex
	rooms    map[string]types.Room
	messages map[string][]types.RoomMessage
}

func New() *Store {
	return &Store{
		rooms:    map[string]types.Room{},
		messages: map[string][]types.RoomMessage{},
	}
}

// JoinOrCreate creates the room if the code is unclaimed, recording username
// as creator. If the room exists the supplied password must match exactly;
// a failed attempt mutates nothing. Create-or-check runs under one lock so
// concurrent joins for the same code cannot both create.
func (s *Store) JoinOrCreate(code, password, username string) (types.JoinedRoom, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if room, exists := s.rooms[code]; exists {
		if room.Password != password {
			return types.JoinedRoom{}, errs.NewUnauthenticatedError("invalid password for this room")
		}
		return types.JoinedRoom{Room: room, Created: false}, nil
	}

	room := types.Room{
		Code:      code,
		Password:  password,
		CreatedBy: username,
		CreatedAt: time.Now(),
	}
	s.rooms[code] = room
	s.messages[code] = []types.RoomMessage{}

	return types.JoinedRoom{Room: room, Created: true}, nil
}

func (s *Store) Room(code string) (types.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, exists := s.rooms[code]
	if !exists {
		return types.Room{}, errs.NewNotFoundError("room not found")
	}
	return room, nil
}

// AddMessage appends to the room's history. Messages are immutable and
// ordered by insertion.
func (s *Store) AddMessage(code, sender, content string) (types.RoomMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.rooms[code]; !exists {
		return types.RoomMessage{}, errs.NewNotFoundError("room not found")
	}

	msg := types.RoomMessage{
		ID:        gonanoid.Must(10),
		Sender:    sender,
		Content:   content,
		CreatedAt: time.Now(),
	}
	s.messages[code] = append(s.messages[code], msg)

	return msg, nil
}

// Messages returns a snapshot of the room's history in insertion order.
func (s *Store) Messages(code string) ([]types.RoomMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.rooms[code]; !exists {
		return nil, errs.NewNotFoundError("room not found")
	}

	out := make([]types.RoomMessage, len(s.messages[code]))
	copy(out, s.messages[code])
	return out, nil
}
