// Package protocol defines the tagged text entries that make up a record's
// message history.
package protocol

import "fmt"

// Role identifies who authored a message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleHuman     Role = "human"
	RoleAssistant Role = "assistant"
)

// ValidRoles returns every recognized role.
func ValidRoles() []Role {
	return []Role{RoleSystem, RoleHuman, RoleAssistant}
}

// IsValid reports whether r is a recognized role.
func (r Role) IsValid() bool {
	switch r {
	case RoleSystem, RoleHuman, RoleAssistant:
		return true
	default:
		return false
	}
}

// ParseRole converts s into a Role. Matching is exact.
func ParseRole(s string) (Role, error) {
	role := Role(s)
	if !role.IsValid() {
		return "", fmt.Errorf("unknown message role: %q", s)
	}
	return role, nil
}

// Message is a single entry in a conversation history.
type Message struct {
	Role    Role   `json:"role" yaml:"role" msgpack:"role"`
	Content string `json:"content" yaml:"content" msgpack:"content"`
}

// NewMessage creates a Message with the given role and content.
//
// Example:
//
//	msg := protocol.NewMessage(protocol.RoleHuman, "Hello, LangGraph!")
func NewMessage(role Role, content string) Message {
	return Message{Role: role, Content: content}
}

// Human creates a human-authored message.
func Human(content string) Message {
	return NewMessage(RoleHuman, content)
}

// Assistant creates an assistant-authored message.
func Assistant(content string) Message {
	return NewMessage(RoleAssistant, content)
}

// InitMessages starts a history from a single message.
func InitMessages(role Role, content string) []Message {
	return []Message{NewMessage(role, content)}
}

// IsHuman reports whether the message was authored by a human.
func (m Message) IsHuman() bool {
	return m.Role == RoleHuman
}

func (m Message) String() string {
	return fmt.Sprintf("%s: %s", m.Role, m.Content)
}
