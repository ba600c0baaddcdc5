package session

import (
	"context"
	"slices"
	"time"

	"github.com/parleyhq/parley/types"
)

type typistState int

const (
	typistIdle typistState = iota
	typistActive
)

// Keystroke drives the local typing machine. The first keystroke with a
// non-empty input emits exactly one "started typing" and arms the
// auto-stop timer; further keystrokes only re-arm it. Emptying the input
// stops immediately.
func (s *Session) Keystroke(inputNonEmpty bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateTerminated || s.active.IsZero() {
		return
	}

	if !inputNonEmpty {
		s.stopTypistLocked(true)
		return
	}

	switch s.typist {
	case typistIdle:
		s.typist = typistActive
		s.armTypingTimerLocked()
		s.emitTypingLocked(true)
	case typistActive:
		s.armTypingTimerLocked()
	}
}

// armTypingTimerLocked disarms and rearms the auto-stop timer. The
// generation counter keeps a stale timer that already fired from stopping
// a newer typing run.
func (s *Session) armTypingTimerLocked() {
	s.typingGen++
	gen := s.typingGen

	if s.typingTimer != nil {
		s.typingTimer.Stop()
	}
	s.typingTimer = time.AfterFunc(s.typingTimeout, func() {
		s.typingTimedOut(gen)
	})
}

func (s *Session) typingTimedOut(gen int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.typingGen || s.typist != typistActive {
		return
	}
	s.stopTypistLocked(true)
}

// stopTypistLocked returns the machine to idle. emit controls whether a
// "stopped typing" broadcast goes out; teardown paths pass false since the
// subscription set is going away anyway.
func (s *Session) stopTypistLocked(emit bool) {
	s.typingGen++
	if s.typingTimer != nil {
		s.typingTimer.Stop()
		s.typingTimer = nil
	}

	if s.typist == typistActive {
		s.typist = typistIdle
		if emit {
			s.emitTypingLocked(false)
		}
	}
}

// emitTypingLocked broadcasts a transition. While disconnected the
// broadcast path is down, so transitions are suppressed rather than
// queued: typing state is too transient to be worth replaying.
func (s *Session) emitTypingLocked(typing bool) {
	if s.state != StateConnected {
		return
	}

	in := types.BroadcastTyping{
		ConversationID: s.active.ConversationID,
		RoomCode:       s.active.RoomCode,
		UserID:         s.user.ID,
		Username:       s.user.Username,
		Typing:         typing,
	}

	go func() {
		if err := s.backend.BroadcastTyping(context.Background(), in); err != nil {
			s.logger.Error("broadcast typing", "typing", typing, "err", err)
		}
	}()
}

// applyPeerTyping maintains the set of currently-typing peers. Own events
// are filtered out; "started" adds without duplicating, "stopped" removes.
// There is deliberately no receiver-side expiry: a "stopped" event is
// trusted, and if the transport drops one the indicator sticks until the
// peer's next transition.
func (s *Session) applyPeerTyping(epoch int, ev types.TypingEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if epoch != s.epoch || s.state == StateTerminated {
		return
	}

	if ev.UserID != "" && ev.UserID == s.user.ID {
		return
	}
	if ev.UserID == "" && ev.Username == s.user.Username {
		return
	}

	if ev.Typing {
		if !slices.Contains(s.typingPeers, ev.Username) {
			s.typingPeers = append(s.typingPeers, ev.Username)
		}
		return
	}

	s.typingPeers = slices.DeleteFunc(s.typingPeers, func(name string) bool {
		return name == ev.Username
	})
}
