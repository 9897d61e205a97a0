package llm

import "context"

// Static returns the same reply for every prompt. It backs the "static"
// provider and keeps the service usable without credentials.
type Static struct {
	Reply string
}

// NewStatic creates a Static completer.
func NewStatic(reply string) *Static {
	return &Static{Reply: reply}
}

func (s *Static) Complete(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return s.Reply, nil
}

var _ Completer = (*Static)(nil)
