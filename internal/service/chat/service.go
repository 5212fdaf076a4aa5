package chat

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/AudreyYZY/ADHD-Timebox/internal/model/chat"
)

var (
	ErrUserRequired    = errors.New("user id is required")
	ErrSessionNotFound = errors.New("session not found")
	ErrEmptyMessage    = errors.New("message content is empty")
)

// Service encapsulates server-side conversation state. The browser
// keeps its own history; this store backs parked thoughts and
// audit/debug transcripts.
type Service struct {
	mu       sync.RWMutex
	sessions map[string]chat.Session
	byUser   map[string]string
	messages map[string][]chat.Message
}

// NewService bootstraps the in-memory chat service.
func NewService() *Service {
	return &Service{
		sessions: make(map[string]chat.Session),
		byUser:   make(map[string]string),
		messages: make(map[string][]chat.Message),
	}
}

// SessionForUser returns the user's session, provisioning one on
// first contact.
func (s *Service) SessionForUser(_ context.Context, userID string) (chat.Session, error) {
	if userID == "" {
		return chat.Session{}, ErrUserRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.byUser[userID]; ok {
		return s.sessions[id], nil
	}

	session := chat.Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
	}
	s.sessions[session.ID] = session
	s.byUser[userID] = session.ID
	s.messages[session.ID] = make([]chat.Message, 0, 16)

	return session, nil
}

// SaveMessage appends a message to its session's history and returns
// the stored copy with id and timestamp assigned.
func (s *Service) SaveMessage(_ context.Context, message chat.Message) (chat.Message, error) {
	if message.SessionID == "" {
		return chat.Message{}, ErrSessionNotFound
	}
	if message.Content == "" {
		return chat.Message{}, ErrEmptyMessage
	}
	if message.Channel == "" {
		message.Channel = chat.ChannelPlanning
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[message.SessionID]; !ok {
		return chat.Message{}, ErrSessionNotFound
	}

	message.ID = uuid.NewString()
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now().UTC()
	}

	s.messages[message.SessionID] = append(s.messages[message.SessionID], message)
	return message, nil
}

// GetSession retrieves a session by identifier.
func (s *Service) GetSession(_ context.Context, sessionID string) (chat.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return chat.Session{}, ErrSessionNotFound
	}
	return session, nil
}

// Transcript returns stored messages for the session, filtered to one
// channel when channel is non-empty.
func (s *Service) Transcript(_ context.Context, sessionID string, channel chat.Channel) ([]chat.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	messages, ok := s.messages[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}

	copied := make([]chat.Message, 0, len(messages))
	for _, m := range messages {
		if channel != "" && m.Channel != channel {
			continue
		}
		copied = append(copied, m)
	}
	return copied, nil
}
