// ABOUTME: Bounded multi-turn conversation state with a summarization trigger
// ABOUTME: Per-session mutation is serialized; different sessions proceed independently
package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/carebridge/clinrag/internal/models"
)

// ErrSummaryAlreadySet signals the one-shot automatic summary was
// already recorded for a session
var ErrSummaryAlreadySet = errors.New("session summary already set")

// ErrSessionNotFound signals an unknown session id
var ErrSessionNotFound = errors.New("session not found")

// Session is the per-conversation state. TurnCount increments exactly
// once per assistant message and never decrements. Mutate only through
// the Manager.
type Session struct {
	ID        string           `json:"id"`
	Messages  []models.Message `json:"messages"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
	TurnCount int              `json:"turn_count"`
	Summary   string           `json:"summary,omitempty"`
}

// Store persists sessions across process restarts. Implementations live
// in internal/storage; a nil store keeps sessions in memory only.
type Store interface {
	UpsertSession(s *Session) error
	AppendMessage(sessionID string, seq int, msg models.Message) error
	LoadSession(id string) (*Session, error) // nil when absent
}

// Manager owns every live session. A short-lived lock per session id
// serializes appends and summary writes; reads of different sessions
// never contend.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	locks    map[string]*sync.Mutex
	store    Store
}

// NewManager creates a session manager. store may be nil for
// memory-only operation.
func NewManager(store Store) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		locks:    make(map[string]*sync.Mutex),
		store:    store,
	}
}

// NewSessionID generates a fresh session identifier
func NewSessionID() string {
	return "sess_" + uuid.New().String()
}

// GetOrCreate returns the session for id, loading it from the store or
// creating it on first use
func (m *Manager) GetOrCreate(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getOrCreateLocked(id)
}

func (m *Manager) getOrCreateLocked(id string) (*Session, error) {
	if s, ok := m.sessions[id]; ok {
		return s, nil
	}

	if m.store != nil {
		s, err := m.store.LoadSession(id)
		if err != nil {
			return nil, fmt.Errorf("loading session %s: %w", id, err)
		}
		if s != nil {
			m.sessions[id] = s
			return s, nil
		}
	}

	now := time.Now().UTC()
	s := &Session{ID: id, CreatedAt: now, UpdatedAt: now}
	m.sessions[id] = s
	if m.store != nil {
		if err := m.store.UpsertSession(s); err != nil {
			return nil, fmt.Errorf("persisting new session %s: %w", id, err)
		}
	}
	return s, nil
}

// lockFor returns the mutex serializing mutation of one session id
func (m *Manager) lockFor(id string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	if l, ok := m.locks[id]; ok {
		return l
	}
	l := &sync.Mutex{}
	m.locks[id] = l
	return l
}

// AddMessage appends an immutable message to the session. TurnCount is
// incremented iff the role is assistant.
func (m *Manager) AddMessage(id string, role models.Role, content string, metadata map[string]string) (models.Message, error) {
	msg, err := models.NewMessage(role, content, metadata)
	if err != nil {
		return models.Message{}, err
	}

	lock := m.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	s, err := m.GetOrCreate(id)
	if err != nil {
		return models.Message{}, err
	}

	seq := len(s.Messages)
	s.Messages = append(s.Messages, msg)
	s.UpdatedAt = msg.Timestamp
	if role == models.RoleAssistant {
		s.TurnCount++
	}

	if m.store != nil {
		if err := m.store.AppendMessage(id, seq, msg); err != nil {
			return models.Message{}, fmt.Errorf("persisting message: %w", err)
		}
		if err := m.store.UpsertSession(s); err != nil {
			return models.Message{}, fmt.Errorf("persisting session: %w", err)
		}
	}
	return msg, nil
}

// RecentMessages returns the last pairCount*2 messages in order, or the
// full history when shorter. Persisted history is never discarded; this
// only bounds the context window handed to generation.
func (m *Manager) RecentMessages(id string, pairCount int) ([]models.Message, error) {
	lock := m.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	s, err := m.GetOrCreate(id)
	if err != nil {
		return nil, err
	}

	limit := pairCount * 2
	if limit >= len(s.Messages) {
		out := make([]models.Message, len(s.Messages))
		copy(out, s.Messages)
		return out, nil
	}
	out := make([]models.Message, limit)
	copy(out, s.Messages[len(s.Messages)-limit:])
	return out, nil
}

// ShouldSummarize reports whether the automatic summarization trigger
// fires: the turn count reached the threshold and no summary exists yet.
// Once a summary is set this stays false even as turns keep growing.
func (m *Manager) ShouldSummarize(id string, threshold int) (bool, error) {
	lock := m.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	s, err := m.GetOrCreate(id)
	if err != nil {
		return false, err
	}
	return s.TurnCount >= threshold && s.Summary == "", nil
}

// SetSummary records the automatic summary exactly once per session
func (m *Manager) SetSummary(id, summary string) error {
	if summary == "" {
		return errors.New("summary cannot be empty")
	}

	lock := m.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	s, err := m.GetOrCreate(id)
	if err != nil {
		return err
	}
	if s.Summary != "" {
		return ErrSummaryAlreadySet
	}

	s.Summary = summary
	s.UpdatedAt = time.Now().UTC()
	if m.store != nil {
		if err := m.store.UpsertSession(s); err != nil {
			return fmt.Errorf("persisting summary: %w", err)
		}
	}
	return nil
}

// Summary returns the session's summary, empty when unset
func (m *Manager) Summary(id string) (string, error) {
	lock := m.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	s, err := m.GetOrCreate(id)
	if err != nil {
		return "", err
	}
	return s.Summary, nil
}

// TurnCount returns the session's assistant-turn count
func (m *Manager) TurnCount(id string) (int, error) {
	lock := m.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	s, err := m.GetOrCreate(id)
	if err != nil {
		return 0, err
	}
	return s.TurnCount, nil
}
