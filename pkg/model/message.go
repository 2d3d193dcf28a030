package model

import (
	"strings"

	"google.golang.org/genai"
)

// SessionID identifies a logically continuous conversation. It is an
// opaque string supplied by the caller (thread or user key).
type SessionID string

// DefaultSessionID is used when the caller does not supply a session id.
const DefaultSessionID SessionID = "default_user"

// NormalizeSessionID returns the default session id for an empty input
func NormalizeSessionID(id string) SessionID {
	if id == "" {
		return DefaultSessionID
	}
	return SessionID(id)
}

// MessageKind classifies a message in a conversation history
type MessageKind string

const (
	// KindSystem is the system instruction for the session
	KindSystem MessageKind = "system"
	// KindHuman is a user-authored message
	KindHuman MessageKind = "human"
	// KindAgent is a model-generated reply, including intermediate
	// contents that carry function calls
	KindAgent MessageKind = "agent"
	// KindTool is the result of a tool invocation, folded back into
	// the conversation
	KindTool MessageKind = "tool"
)

// Message is one entry of a session history. Messages are immutable
// once appended.
type Message struct {
	Kind    MessageKind
	Content *genai.Content

	// Tool holds the tool name for KindTool messages
	Tool string
}

// NewSystemMessage creates a system instruction message
func NewSystemMessage(text string) Message {
	return Message{
		Kind:    KindSystem,
		Content: genai.NewContentFromText(text, ""),
	}
}

// NewHumanMessage creates a user-authored message
func NewHumanMessage(text string) Message {
	return Message{
		Kind:    KindHuman,
		Content: genai.NewContentFromText(text, genai.RoleUser),
	}
}

// NewAgentMessage wraps a model-generated content
func NewAgentMessage(content *genai.Content) Message {
	return Message{
		Kind:    KindAgent,
		Content: content,
	}
}

// NewToolMessage wraps a function response as a conversation entry
func NewToolMessage(name string, resp *genai.FunctionResponse) Message {
	return Message{
		Kind: KindTool,
		Tool: name,
		Content: &genai.Content{
			Role:  genai.RoleUser,
			Parts: []*genai.Part{{FunctionResponse: resp}},
		},
	}
}

// Text concatenates the text parts of the message content
func (m Message) Text() string {
	if m.Content == nil {
		return ""
	}
	var parts []string
	for _, p := range m.Content.Parts {
		if p.Text != "" {
			parts = append(parts, p.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// HasFunctionCall reports whether the message content requests at
// least one tool invocation
func (m Message) HasFunctionCall() bool {
	if m.Content == nil {
		return false
	}
	for _, p := range m.Content.Parts {
		if p.FunctionCall != nil {
			return true
		}
	}
	return false
}
