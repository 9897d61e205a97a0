package chat

import (
	"fmt"
	"strings"

	"github.com/fyrsmithlabs/projectchat/internal/memory"
)

// DefaultContextWindow is the number of recent messages included in a prompt.
const DefaultContextWindow = 5

const promptTemplate = `You are an AI assistant helping users with project-related queries. The project details are as follows:

Project Summary:
%s

Previous Conversations:
%s

The user has asked the following question: "%s"
`

// ContextWindow formats the last n messages, oldest first, one
// "<Sender>: <content>" line each.
func ContextWindow(msgs []memory.Message, n int) string {
	if n < 1 {
		n = DefaultContextWindow
	}
	if len(msgs) > n {
		msgs = msgs[len(msgs)-n:]
	}
	lines := make([]string, len(msgs))
	for i, m := range msgs {
		lines[i] = m.Sender.Label() + ": " + m.Content
	}
	return strings.Join(lines, "\n")
}

// BuildPrompt assembles the completion request for one turn.
func BuildPrompt(summary, window, question string) string {
	return fmt.Sprintf(promptTemplate, summary, window, question)
}

// Fallback is the reply used when the completion service returns nothing.
func Fallback(summary string) string {
	return fmt.Sprintf("Here’s a bit more information about the project: %s.", summary)
}
