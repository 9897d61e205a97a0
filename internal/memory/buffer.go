package memory

// DefaultBufferSize is the number of messages kept per project.
const DefaultBufferSize = 40

// Policy bounds a message buffer, evicting oldest entries first.
type Policy struct {
	MaxMessages int
}

// NewPolicy returns a policy capped at max, or DefaultBufferSize when max < 1.
func NewPolicy(max int) Policy {
	if max < 1 {
		max = DefaultBufferSize
	}
	return Policy{MaxMessages: max}
}

// Limit returns the effective cap.
func (p Policy) Limit() int {
	if p.MaxMessages < 1 {
		return DefaultBufferSize
	}
	return p.MaxMessages
}

// Append adds msg to the end of msgs and, if that overflows the cap, drops
// from the front until the cap holds. It never fails and performs no I/O.
func (p Policy) Append(msgs []Message, msg Message) []Message {
	msgs = append(msgs, msg)
	if over := len(msgs) - p.Limit(); over > 0 {
		n := copy(msgs, msgs[over:])
		clear(msgs[n:])
		msgs = msgs[:n]
	}
	return msgs
}
