package memory

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Sender tags the author of a message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderAI   Sender = "ai"
)

// Label renders the sender for prompt context: first letter upper-cased,
// the rest lower-cased ("user" -> "User", "ai" -> "Ai").
func (s Sender) Label() string {
	if s == "" {
		return ""
	}
	r, size := utf8.DecodeRuneInString(string(s))
	return string(unicode.ToUpper(r)) + strings.ToLower(string(s)[size:])
}

// Message is one immutable chat entry. Content holds rendered HTML.
type Message struct {
	Sender  Sender `json:"sender"`
	Content string `json:"content"`
}

func cloneMessages(msgs []Message) []Message {
	if msgs == nil {
		return []Message{}
	}
	out := make([]Message, len(msgs))
	copy(out, msgs)
	return out
}
