package memory

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Transcript formats accepted by NewCodec.
const (
	FormatLines = "lines"
	FormatJSONL = "jsonl"
)

// Delimiter separates sender from content in the line format.
const Delimiter = "|"

// MalformedLine describes a transcript line that could not be decoded.
// Decoders skip such lines; callers decide whether to log them.
type MalformedLine struct {
	Number int // 1-based
	Text   string
	Reason string
}

// Codec converts between a message slice and its durable text form.
type Codec interface {
	Encode(msgs []Message) string
	Decode(raw string) ([]Message, []MalformedLine)
	Format() string
}

// NewCodec returns the codec for format. An empty format selects FormatLines.
func NewCodec(format string) (Codec, error) {
	switch format {
	case "", FormatLines:
		return LineCodec{}, nil
	case FormatJSONL:
		return JSONLCodec{}, nil
	default:
		return nil, fmt.Errorf("unknown transcript format %q", format)
	}
}

// LineCodec stores each message as "sender|content", one per line.
//
// No escaping is performed. Decoding splits on the first delimiter, so
// content may contain "|" but must not contain "\n"; a newline inside
// content splits the message and the tail is skipped as malformed. Only a
// missing delimiter makes a line malformed; an empty sender is kept.
type LineCodec struct{}

func (LineCodec) Format() string { return FormatLines }

func (LineCodec) Encode(msgs []Message) string {
	lines := make([]string, len(msgs))
	for i, m := range msgs {
		lines[i] = string(m.Sender) + Delimiter + m.Content
	}
	return strings.Join(lines, "\n")
}

func (LineCodec) Decode(raw string) ([]Message, []MalformedLine) {
	var (
		msgs []Message
		bad  []MalformedLine
	)
	for i, line := range splitLines(raw) {
		if strings.TrimSpace(line) == "" {
			continue
		}
		sender, content, ok := strings.Cut(line, Delimiter)
		if !ok {
			bad = append(bad, MalformedLine{Number: i + 1, Text: line, Reason: "missing delimiter"})
			continue
		}
		msgs = append(msgs, Message{Sender: Sender(sender), Content: content})
	}
	return msgs, bad
}

// JSONLCodec stores each message as a JSON object on its own line.
// It is lossless for any content.
type JSONLCodec struct{}

func (JSONLCodec) Format() string { return FormatJSONL }

func (JSONLCodec) Encode(msgs []Message) string {
	lines := make([]string, 0, len(msgs))
	for _, m := range msgs {
		// Marshaling a struct of two strings cannot fail.
		b, _ := json.Marshal(m)
		lines = append(lines, string(b))
	}
	return strings.Join(lines, "\n")
}

func (JSONLCodec) Decode(raw string) ([]Message, []MalformedLine) {
	var (
		msgs []Message
		bad  []MalformedLine
	)
	for i, line := range splitLines(raw) {
		if strings.TrimSpace(line) == "" {
			continue
		}
		var rec struct {
			Sender  *Sender `json:"sender"`
			Content string  `json:"content"`
		}
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			bad = append(bad, MalformedLine{Number: i + 1, Text: line, Reason: "invalid json"})
			continue
		}
		if rec.Sender == nil {
			bad = append(bad, MalformedLine{Number: i + 1, Text: line, Reason: "missing sender"})
			continue
		}
		msgs = append(msgs, Message{Sender: *rec.Sender, Content: rec.Content})
	}
	return msgs, bad
}

func splitLines(raw string) []string {
	if raw == "" {
		return nil
	}
	lines := strings.Split(raw, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}
