package prompt

import (
	"fmt"
	"strings"
)

// Input is anything that can be normalized into the single user-prompt
// string the API expects. Each variant carries its own normalization so
// callers never inspect types at runtime.
type Input interface {
	promptString() string
}

// Role constants for message parts
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// PartKind identifies the payload carried by a Part.
type PartKind int

const (
	// PartText is a plain text fragment.
	PartText PartKind = iota
	// PartToolCall is a tool invocation requested by the model.
	PartToolCall
	// PartToolResult is the output of a previously invoked tool.
	PartToolResult
)

// Part is one fragment of a message: either plain text or a non-text
// payload. Non-text payloads are reduced to a textual placeholder so
// length and token estimates stay approximately meaningful.
type Part struct {
	Kind PartKind
	Text string // set for PartText
	Name string // tool name, set for PartToolCall and PartToolResult
}

func (p Part) promptString() string {
	switch p.Kind {
	case PartText:
		return p.Text
	case PartToolCall:
		return fmt.Sprintf("[tool call: %s]", p.Name)
	case PartToolResult:
		return fmt.Sprintf("[tool result: %s]", p.Name)
	}
	return ""
}

// Text is a plain prompt string; it passes through unchanged.
type Text string

func (t Text) promptString() string {
	return string(t)
}

// Message is a single role-tagged message made of one or more parts.
type Message struct {
	Role  string
	Parts []Part
}

func (m Message) promptString() string {
	parts := make([]string, 0, len(m.Parts))
	for _, p := range m.Parts {
		parts = append(parts, p.promptString())
	}
	return strings.Join(parts, " ")
}

// Messages is a list of messages, reduced element-wise.
type Messages []Message

func (ms Messages) promptString() string {
	parts := make([]string, 0, len(ms))
	for _, m := range ms {
		parts = append(parts, m.promptString())
	}
	return strings.Join(parts, " ")
}

// ToString reduces any Input variant to the prompt string the API expects.
// Empty input yields an empty string; callers must treat that as "nothing
// to send" and skip the remote call entirely.
func ToString(in Input) string {
	if in == nil {
		return ""
	}
	return in.promptString()
}
