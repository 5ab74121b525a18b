// ABOUTME: Message is a single immutable entry in a conversation session
// ABOUTME: Roles are restricted to user, assistant, and system
package models

import (
	"errors"
	"strings"
	"time"
)

// Role identifies the author of a conversation message
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message is one conversation entry. Immutable once appended to a session.
type Message struct {
	Role      Role              `json:"role"`
	Content   string            `json:"content"`
	Timestamp time.Time         `json:"timestamp"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// NewMessage creates a message with validation
func NewMessage(role Role, content string, metadata map[string]string) (Message, error) {
	switch role {
	case RoleUser, RoleAssistant, RoleSystem:
	default:
		return Message{}, errors.New("role must be user, assistant, or system")
	}
	if strings.TrimSpace(content) == "" {
		return Message{}, errors.New("message content cannot be empty")
	}
	return Message{
		Role:      role,
		Content:   content,
		Timestamp: time.Now().UTC(),
		Metadata:  metadata,
	}, nil
}
