// Package models defines the data structures exchanged with the travel assistant.
package models

import "time"

// Role identifies who authored a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single immutable entry of the conversation history.
// Results are only ever attached to assistant messages and are never empty when present.
type Message struct {
	ID        int64          `json:"id"`
	Role      Role           `json:"role" validate:"required,oneof=user assistant"`
	Content   string         `json:"content"`
	Results   []SearchResult `json:"results,omitempty" validate:"omitempty,min=1,unique=ID,dive"`
	CreatedAt *time.Time     `json:"createdAt,omitempty"`
}

// HasResults reports whether the message carries offers.
func (m Message) HasResults() bool {
	return len(m.Results) > 0
}
