package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/projectchat/internal/logging"
)

// maxLoggedLine bounds the malformed-line excerpt written to logs.
const maxLoggedLine = 64

// Ref identifies a project session and the user that owns its transcript.
type Ref struct {
	ProjectID string
	UserID    string
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithPolicy sets the buffer policy.
func WithPolicy(p Policy) CacheOption {
	return func(c *Cache) { c.policy = p }
}

// WithCodec sets the transcript codec.
func WithCodec(codec Codec) CacheOption {
	return func(c *Cache) { c.codec = codec }
}

// WithLogger sets the logger used for hydration diagnostics.
func WithLogger(l *logging.Logger) CacheOption {
	return func(c *Cache) { c.logger = l }
}

// Cache is the process-wide session tier. It owns one Session per project
// and hydrates each from the Store on first access.
type Cache struct {
	store  Store
	codec  Codec
	policy Policy
	logger *logging.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewCache creates a Cache backed by store.
func NewCache(store Store, opts ...CacheOption) (*Cache, error) {
	if store == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	c := &Cache{
		store:    store,
		codec:    LineCodec{},
		policy:   NewPolicy(DefaultBufferSize),
		logger:   logging.NewNop(),
		sessions: make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Policy returns the buffer policy in use.
func (c *Cache) Policy() Policy { return c.policy }

// Codec returns the transcript codec in use.
func (c *Cache) Codec() Codec { return c.codec }

// Size returns the number of sessions the cache tracks.
func (c *Cache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sessions)
}

func (c *Cache) session(ref Ref) *Session {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.sessions[ref.ProjectID]
	if !ok {
		s = &Session{cache: c, projectID: ref.ProjectID, userID: ref.UserID}
		c.sessions[ref.ProjectID] = s
	}
	return s
}

// Acquire returns the locked session for ref, hydrating it first if needed.
// The caller must call Release. On error the session is left unlocked and
// unhydrated so the next Acquire retries.
func (c *Cache) Acquire(ctx context.Context, ref Ref) (*Session, error) {
	s := c.session(ref)
	s.mu.Lock()
	if ref.UserID != "" && s.userID == "" {
		s.userID = ref.UserID
	}
	if !s.hydrated {
		if err := c.hydrate(ctx, s); err != nil {
			s.mu.Unlock()
			return nil, err
		}
	}
	return s, nil
}

// Get returns a copy of the session buffer for ref, hydrating on first use.
func (c *Cache) Get(ctx context.Context, ref Ref) ([]Message, error) {
	s, err := c.Acquire(ctx, ref)
	if err != nil {
		return nil, err
	}
	defer s.Release()
	return s.Messages(), nil
}

// Peek returns a copy of the buffer for projectID without hydrating.
// The second result reports whether the session is hydrated.
func (c *Cache) Peek(projectID string) ([]Message, bool) {
	c.mu.Lock()
	s, ok := c.sessions[projectID]
	c.mu.Unlock()
	if !ok {
		return []Message{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneMessages(s.msgs), s.hydrated
}

func (c *Cache) hydrate(ctx context.Context, s *Session) error {
	ctx = logging.WithProjectID(ctx, s.projectID)

	rec, err := c.store.Load(ctx, s.projectID)
	switch {
	case errors.Is(err, ErrNoTranscript):
		// Create the empty record now so storage failures surface on first read.
		if err := c.store.Save(ctx, Record{ProjectID: s.projectID, UserID: s.userID}); err != nil {
			return err
		}
		s.msgs = nil
		s.hydrated = true
		c.logger.Debug(ctx, "created empty transcript")
		return nil
	case err != nil:
		return err
	}

	if s.userID == "" {
		s.userID = rec.UserID
	}

	decoded, bad := c.codec.Decode(rec.ChatContent)
	for _, b := range bad {
		c.logger.Warn(ctx, "skipping malformed transcript line",
			zap.Int("line", b.Number),
			zap.String("reason", b.Reason),
			zap.String("text", truncate(b.Text, maxLoggedLine)),
		)
	}

	var msgs []Message
	for _, m := range decoded {
		msgs = c.policy.Append(msgs, m)
	}
	s.msgs = msgs
	s.hydrated = true

	c.logger.Debug(ctx, "hydrated session",
		zap.Int("messages", len(msgs)),
		zap.Int("skipped", len(bad)),
	)
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// Session is one project's bounded message buffer. All methods other than
// Release require the caller to hold the session via Cache.Acquire.
type Session struct {
	cache     *Cache
	projectID string
	userID    string

	mu       sync.Mutex
	msgs     []Message
	hydrated bool
}

// ProjectID returns the project the session belongs to.
func (s *Session) ProjectID() string { return s.projectID }

// Messages returns a copy of the buffer, oldest first.
func (s *Session) Messages() []Message { return cloneMessages(s.msgs) }

// Len returns the number of buffered messages.
func (s *Session) Len() int { return len(s.msgs) }

// Append adds a message, evicting the oldest when the buffer is full.
func (s *Session) Append(sender Sender, content string) {
	s.msgs = s.cache.policy.Append(s.msgs, Message{Sender: sender, Content: content})
}

// Snapshot returns a copy of the buffer for a later Restore.
func (s *Session) Snapshot() []Message { return cloneMessages(s.msgs) }

// Restore replaces the buffer with snap.
func (s *Session) Restore(snap []Message) { s.msgs = cloneMessages(snap) }

// Persist writes the whole buffer to the Store, replacing the transcript.
func (s *Session) Persist(ctx context.Context) error {
	return s.cache.store.Save(ctx, Record{
		ProjectID:   s.projectID,
		UserID:      s.userID,
		ChatContent: s.cache.codec.Encode(s.msgs),
	})
}

// Clear empties the buffer and marks the session for re-hydration. The
// durable transcript is untouched.
func (s *Session) Clear() {
	s.msgs = nil
	s.hydrated = false
}

// Release unlocks the session.
func (s *Session) Release() { s.mu.Unlock() }
