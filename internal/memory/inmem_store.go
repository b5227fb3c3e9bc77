package memory

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// InMemStore is a Store kept entirely in process memory. It backs tests and
// single-node deployments without Redis. Values are copied through JSON so
// callers never share mutable state with the store.
type InMemStore struct {
	mu       sync.Mutex
	sessions map[string][]byte
	touched  map[string]time.Time
	ttl      time.Duration
}

// NewInMemStore creates an in-memory store with the given idle TTL.
func NewInMemStore(ttl time.Duration) *InMemStore {
	return &InMemStore{
		sessions: make(map[string][]byte),
		touched:  make(map[string]time.Time),
		ttl:      ttl,
	}
}

func (s *InMemStore) LoadSession(_ context.Context, sessionID string) (*SessionData, error) {
	s.mu.Lock()
	raw, ok := s.sessions[sessionID]
	s.mu.Unlock()
	if !ok {
		return NewSessionData(sessionID), nil
	}
	var session SessionData
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *InMemStore) SaveSession(_ context.Context, session *SessionData) error {
	session.Metadata.LastActivity = time.Now()
	session.Metadata.MessageCount = len(session.Messages)
	raw, err := json.Marshal(session)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.sessions[session.SessionID] = raw
	s.touched[session.SessionID] = time.Now()
	s.mu.Unlock()
	return nil
}

func (s *InMemStore) SaveMessage(ctx context.Context, sessionID, userID string, msg Message) error {
	session, err := s.LoadSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if session.UserID == "" {
		session.UserID = userID
	}
	session.Messages = append(session.Messages, msg)
	if len(session.Messages) == 1 {
		session.Metadata.StartedAt = msg.Timestamp
	}
	return s.SaveSession(ctx, session)
}

func (s *InMemStore) ClearSession(_ context.Context, sessionID string) error {
	s.mu.Lock()
	delete(s.sessions, sessionID)
	delete(s.touched, sessionID)
	s.mu.Unlock()
	return nil
}

func (s *InMemStore) SessionExists(_ context.Context, sessionID string) (bool, error) {
	s.mu.Lock()
	_, ok := s.sessions[sessionID]
	s.mu.Unlock()
	return ok, nil
}

func (s *InMemStore) UpdateActivity(_ context.Context, sessionID string) error {
	s.mu.Lock()
	if _, ok := s.sessions[sessionID]; ok {
		s.touched[sessionID] = time.Now()
	}
	s.mu.Unlock()
	return nil
}

// Sweep deletes sessions idle past the TTL and returns how many were
// removed. Deletion only; live sessions are never mutated.
func (s *InMemStore) Sweep() int {
	if s.ttl <= 0 {
		return 0
	}
	cutoff := time.Now().Add(-s.ttl)
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, at := range s.touched {
		if at.Before(cutoff) {
			delete(s.sessions, id)
			delete(s.touched, id)
			removed++
		}
	}
	return removed
}
