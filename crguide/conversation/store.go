// Package conversation holds the in-memory message log of one chat session.
package conversation

import (
	"sync"
	"time"

	"crguide/crguide/utils/types"
)

// Store is an append-only message log plus the draft and typing flag that go with it.
// There is no way to edit, remove or reorder a message once appended.
type Store struct {
	mu       sync.RWMutex
	messages []types.Message
	draft    string
	typing   bool
	now      func() time.Time
	subs     map[int]chan struct{}
	nextSub  int
}

// New starts a conversation holding only the assistant greeting.
func New(greeting string, now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{
		messages: []types.Message{types.NewMessage(types.RoleAssistant, greeting, now())},
		now:      now,
		subs:     make(map[int]chan struct{}),
	}
}

// Now is the clock messages are stamped with.
func (s *Store) Now() time.Time { return s.now() }

func (s *Store) Append(msg types.Message) {
	s.mu.Lock()
	s.messages = append(s.messages, msg)
	s.mu.Unlock()
	s.notify()
}

// Messages returns a copy; changing it never touches the store.
func (s *Store) Messages() []types.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}

func (s *Store) Last() (types.Message, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.messages) == 0 {
		return types.Message{}, false
	}
	return s.messages[len(s.messages)-1], true
}

func (s *Store) SetTyping(typing bool) {
	s.mu.Lock()
	changed := s.typing != typing
	s.typing = typing
	s.mu.Unlock()
	if changed {
		s.notify()
	}
}

func (s *Store) Typing() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.typing
}

func (s *Store) SetDraft(draft string) {
	s.mu.Lock()
	changed := s.draft != draft
	s.draft = draft
	s.mu.Unlock()
	if changed {
		s.notify()
	}
}

func (s *Store) Draft() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.draft
}

// Snapshot reads messages, typing and draft under one lock.
func (s *Store) Snapshot() types.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	msgs := make([]types.Message, len(s.messages))
	copy(msgs, s.messages)
	return types.Snapshot{Messages: msgs, Typing: s.typing, Draft: s.draft}
}

// Subscribe returns a channel that receives a tick after every change.
// Ticks coalesce: a slow reader sees one pending tick, not one per change.
func (s *Store) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

func (s *Store) notify() {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
