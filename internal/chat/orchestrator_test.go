package chat

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/fyrsmithlabs/projectchat/internal/config"
	"github.com/fyrsmithlabs/projectchat/internal/llm"
	"github.com/fyrsmithlabs/projectchat/internal/logging"
	"github.com/fyrsmithlabs/projectchat/internal/memory"
	"github.com/fyrsmithlabs/projectchat/internal/project"
	"github.com/fyrsmithlabs/projectchat/internal/telemetry"
)

// recordingCompleter returns a fixed reply and keeps every prompt.
type recordingCompleter struct {
	mu      sync.Mutex
	reply   string
	err     error
	prompts []string
}

func (r *recordingCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prompts = append(r.prompts, prompt)
	return r.reply, r.err
}

func (r *recordingCompleter) lastPrompt() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.prompts) == 0 {
		return ""
	}
	return r.prompts[len(r.prompts)-1]
}

// toggleStore fails Save while failSave is set.
type toggleStore struct {
	*memory.MemoryStore

	mu       sync.Mutex
	failSave bool
}

func (s *toggleStore) Save(ctx context.Context, rec memory.Record) error {
	s.mu.Lock()
	fail := s.failSave
	s.mu.Unlock()
	if fail {
		return fmt.Errorf("%w: disk full", memory.ErrStorage)
	}
	return s.MemoryStore.Save(ctx, rec)
}

func (s *toggleStore) setFail(v bool) {
	s.mu.Lock()
	s.failSave = v
	s.mu.Unlock()
}

type fixture struct {
	registry  project.Registry
	store     *toggleStore
	cache     *memory.Cache
	completer *recordingCompleter
	logger    *logging.TestLogger
	orch      *Orchestrator
}

func identity(s string) string { return s }

func newFixture(t *testing.T, bufferSize int, opts ...Option) *fixture {
	t.Helper()
	ctx := context.Background()

	reg := project.NewMemoryRegistry()
	p, err := project.NewProject("1", "Demo", "A demo", "u1")
	require.NoError(t, err)
	_, err = reg.Create(ctx, p)
	require.NoError(t, err)

	store := &toggleStore{MemoryStore: memory.NewMemoryStore()}
	logger := logging.NewTestLogger()
	cache, err := memory.NewCache(store,
		memory.WithPolicy(memory.NewPolicy(bufferSize)),
		memory.WithLogger(logger.Logger),
	)
	require.NoError(t, err)

	completer := &recordingCompleter{reply: "It is a demo."}
	orch, err := NewOrchestrator(reg, cache, completer, logger.Logger, Config{ContextWindow: 5}, opts...)
	require.NoError(t, err)

	return &fixture{
		registry:  reg,
		store:     store,
		cache:     cache,
		completer: completer,
		logger:    logger,
		orch:      orch,
	}
}

func (f *fixture) transcript(t *testing.T) []memory.Message {
	t.Helper()
	rec, err := f.store.Load(context.Background(), "1")
	require.NoError(t, err)
	msgs, bad := memory.LineCodec{}.Decode(rec.ChatContent)
	require.Empty(t, bad)
	return msgs
}

func TestNewOrchestrator_Validation(t *testing.T) {
	cache, err := memory.NewCache(memory.NewMemoryStore())
	require.NoError(t, err)
	reg := project.NewMemoryRegistry()
	c := llm.NewStatic("")

	_, err = NewOrchestrator(nil, cache, c, nil, Config{})
	assert.Error(t, err)
	_, err = NewOrchestrator(reg, nil, c, nil, Config{})
	assert.Error(t, err)
	_, err = NewOrchestrator(reg, cache, nil, nil, Config{})
	assert.Error(t, err)

	o, err := NewOrchestrator(reg, cache, c, nil, Config{})
	require.NoError(t, err)
	assert.Equal(t, DefaultContextWindow, o.window)
}

func TestHandleTurn_FirstTurn(t *testing.T) {
	f := newFixture(t, memory.DefaultBufferSize, WithRenderer(identity))

	msgs, err := f.orch.HandleTurn(context.Background(), "1", "What is this project?")
	require.NoError(t, err)

	want := []memory.Message{
		{Sender: memory.SenderUser, Content: "What is this project?"},
		{Sender: memory.SenderAI, Content: "It is a demo."},
	}
	assert.Equal(t, want, msgs)
	assert.Equal(t, want, f.transcript(t))

	prompt := f.completer.lastPrompt()
	assert.Contains(t, prompt, "A demo")
	assert.Contains(t, prompt, `"What is this project?"`)

	// The window holds only the current message: no prior lines.
	window := between(prompt, "Previous Conversations:\n", "\n\nThe user has asked")
	assert.Equal(t, "User: What is this project?", window)
}

func TestHandleTurn_RendersMarkdown(t *testing.T) {
	f := newFixture(t, memory.DefaultBufferSize)
	f.completer.reply = "**Sure**"

	msgs, err := f.orch.HandleTurn(context.Background(), "1", "Hello")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "<p>Hello</p>", msgs[0].Content)
	assert.Equal(t, "<p><strong>Sure</strong></p>", msgs[1].Content)

	// The question is quoted raw while the window carries rendered HTML.
	prompt := f.completer.lastPrompt()
	assert.Contains(t, prompt, `"Hello"`)
	assert.Contains(t, prompt, "User: <p>Hello</p>")
}

func TestHandleTurn_EmptyReplyUsesFallback(t *testing.T) {
	f := newFixture(t, memory.DefaultBufferSize, WithRenderer(identity))
	f.completer.reply = "   "

	msgs, err := f.orch.HandleTurn(context.Background(), "1", "Tell me more")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "Here’s a bit more information about the project: A demo.", msgs[1].Content)
	assert.Equal(t, memory.SenderAI, msgs[1].Sender)
	f.logger.AssertLogged(t, zapcore.InfoLevel, "fallback")
}

func TestHandleTurn_OpenAINoChoicesUsesFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"chatcmpl-1","object":"chat.completion","model":"gpt-test","choices":[]}`))
	}))
	defer srv.Close()

	f := newFixture(t, memory.DefaultBufferSize)
	provider, err := llm.NewOpenAI(config.LLMConfig{Model: "gpt-test", BaseURL: srv.URL, APIKey: config.Secret("k")})
	require.NoError(t, err)
	orch, err := NewOrchestrator(f.registry, f.cache, provider, f.logger.Logger, Config{},
		WithRenderer(identity))
	require.NoError(t, err)

	msgs, err := orch.HandleTurn(context.Background(), "1", "Tell me more")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, memory.SenderAI, msgs[1].Sender)
	assert.Equal(t, "Here’s a bit more information about the project: A demo.", msgs[1].Content)
	assert.Len(t, f.transcript(t), 2)
}

func TestHandleTurn_LogsPromptAtTrace(t *testing.T) {
	f := newFixture(t, memory.DefaultBufferSize, WithRenderer(identity))

	_, err := f.orch.HandleTurn(context.Background(), "1", "What is this project?")
	require.NoError(t, err)

	f.logger.AssertLogged(t, logging.TraceLevel, "completion prompt")
	f.logger.AssertNotLogged(t, zapcore.InfoLevel, "fallback")
	entries := f.logger.FilterMessage("completion prompt").All()
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].ContextMap()["prompt"], "User: What is this project?")
}

func TestHandleTurn_BlankInputIsNoop(t *testing.T) {
	f := newFixture(t, memory.DefaultBufferSize, WithRenderer(identity))
	ctx := context.Background()

	_, err := f.orch.HandleTurn(ctx, "1", "first")
	require.NoError(t, err)
	before := f.transcript(t)

	for _, blank := range []string{"", "   ", "\n\t"} {
		msgs, err := f.orch.HandleTurn(ctx, "1", blank)
		require.NoError(t, err)
		assert.Equal(t, before, msgs)
	}
	assert.Equal(t, before, f.transcript(t))
	assert.Len(t, f.completer.prompts, 1)
}

func TestHandleTurn_UnknownProject(t *testing.T) {
	f := newFixture(t, memory.DefaultBufferSize)

	_, err := f.orch.HandleTurn(context.Background(), "404", "hi")
	assert.ErrorIs(t, err, project.ErrProjectNotFound)
	assert.Empty(t, f.completer.prompts)
	assert.Equal(t, 0, f.cache.Size())
}

func TestHandleTurn_WindowIsLastFiveMessages(t *testing.T) {
	f := newFixture(t, memory.DefaultBufferSize, WithRenderer(identity))
	ctx := context.Background()

	for _, q := range []string{"q1", "q2", "q3", "q4"} {
		_, err := f.orch.HandleTurn(ctx, "1", q)
		require.NoError(t, err)
	}

	window := between(f.completer.lastPrompt(), "Previous Conversations:\n", "\n\nThe user has asked")
	assert.Equal(t, []string{
		"User: q2",
		"Ai: It is a demo.",
		"User: q3",
		"Ai: It is a demo.",
		"User: q4",
	}, strings.Split(window, "\n"))
}

func TestHandleTurn_BufferBoundKeepsTranscriptInSync(t *testing.T) {
	f := newFixture(t, 2, WithRenderer(identity))
	ctx := context.Background()

	_, err := f.orch.HandleTurn(ctx, "1", "q1")
	require.NoError(t, err)
	msgs, err := f.orch.HandleTurn(ctx, "1", "q2")
	require.NoError(t, err)

	want := []memory.Message{
		{Sender: memory.SenderUser, Content: "q2"},
		{Sender: memory.SenderAI, Content: "It is a demo."},
	}
	assert.Equal(t, want, msgs)
	assert.Equal(t, want, f.transcript(t))
}

func TestHandleTurn_CompletionFailureRollsBack(t *testing.T) {
	f := newFixture(t, memory.DefaultBufferSize, WithRenderer(identity))
	ctx := context.Background()

	_, err := f.orch.HandleTurn(ctx, "1", "q1")
	require.NoError(t, err)

	f.completer.err = errors.New("upstream down")
	_, err = f.orch.HandleTurn(ctx, "1", "q2")
	require.ErrorIs(t, err, llm.ErrCompletion)

	history, err := f.orch.History(ctx, "1")
	require.NoError(t, err)
	assert.Len(t, history, 2)
	assert.Equal(t, history, f.transcript(t))
}

func TestHandleTurn_StorageFailureRollsBack(t *testing.T) {
	f := newFixture(t, memory.DefaultBufferSize, WithRenderer(identity))
	ctx := context.Background()

	_, err := f.orch.HandleTurn(ctx, "1", "q1")
	require.NoError(t, err)

	f.store.setFail(true)
	_, err = f.orch.HandleTurn(ctx, "1", "q2")
	require.ErrorIs(t, err, memory.ErrStorage)
	f.logger.AssertLogged(t, zapcore.ErrorLevel, "persisting transcript failed")

	f.store.setFail(false)
	history, err := f.orch.History(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, []memory.Message{
		{Sender: memory.SenderUser, Content: "q1"},
		{Sender: memory.SenderAI, Content: "It is a demo."},
	}, history)
	assert.Equal(t, history, f.transcript(t))
}

func TestHandleTurn_ConcurrentTurnsSameProject(t *testing.T) {
	f := newFixture(t, 1000, WithRenderer(identity))
	ctx := context.Background()

	const turns = 20
	var wg sync.WaitGroup
	for i := 0; i < turns; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.orch.HandleTurn(ctx, "1", "q")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	history, err := f.orch.History(ctx, "1")
	require.NoError(t, err)
	require.Len(t, history, turns*2)
	for i, m := range history {
		if i%2 == 0 {
			assert.Equal(t, memory.SenderUser, m.Sender)
		} else {
			assert.Equal(t, memory.SenderAI, m.Sender)
		}
	}
	assert.Equal(t, history, f.transcript(t))
}

func TestFlush(t *testing.T) {
	f := newFixture(t, memory.DefaultBufferSize, WithRenderer(identity))
	ctx := context.Background()

	s, err := f.cache.Acquire(ctx, memory.Ref{ProjectID: "1"})
	require.NoError(t, err)
	s.Append(memory.SenderUser, "a")
	s.Append(memory.SenderAI, "b")
	s.Append(memory.SenderUser, "c")
	s.Release()

	n, err := f.orch.Flush(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	peek, _ := f.cache.Peek("1")
	assert.Empty(t, peek)
	assert.Len(t, f.transcript(t), 3)

	history, err := f.orch.History(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, []memory.Message{
		{Sender: memory.SenderUser, Content: "a"},
		{Sender: memory.SenderAI, Content: "b"},
		{Sender: memory.SenderUser, Content: "c"},
	}, history)
}

func TestFlush_EmptySessionIsNoop(t *testing.T) {
	f := newFixture(t, memory.DefaultBufferSize)
	ctx := context.Background()

	_, err := f.orch.History(ctx, "1")
	require.NoError(t, err)

	f.store.setFail(true)
	n, err := f.orch.Flush(ctx, "1")
	require.NoError(t, err, "an empty flush must not write")
	assert.Equal(t, 0, n)
}

func TestFlush_UnknownProject(t *testing.T) {
	f := newFixture(t, memory.DefaultBufferSize)
	_, err := f.orch.Flush(context.Background(), "nope")
	assert.ErrorIs(t, err, project.ErrProjectNotFound)
}

func TestFlush_StorageFailureKeepsSession(t *testing.T) {
	f := newFixture(t, memory.DefaultBufferSize, WithRenderer(identity))
	ctx := context.Background()

	_, err := f.orch.HandleTurn(ctx, "1", "q1")
	require.NoError(t, err)

	f.store.setFail(true)
	_, err = f.orch.Flush(ctx, "1")
	require.ErrorIs(t, err, memory.ErrStorage)

	peek, hydrated := f.cache.Peek("1")
	assert.True(t, hydrated)
	assert.Len(t, peek, 2)
}

func between(s, start, end string) string {
	i := strings.Index(s, start)
	if i < 0 {
		return ""
	}
	s = s[i+len(start):]
	if j := strings.Index(s, end); j >= 0 {
		s = s[:j]
	}
	return s
}

func TestHandleTurn_RecordsSpan(t *testing.T) {
	tel := telemetry.NewTestTelemetry()
	f := newFixture(t, memory.DefaultBufferSize, WithRenderer(identity), WithTracerProvider(tel.Provider))

	_, err := f.orch.HandleTurn(context.Background(), "1", "hello")
	require.NoError(t, err)

	tel.AssertSpanAttribute(t, "chat.HandleTurn", "project.id", "1")
	tel.AssertSpanAttribute(t, "chat.HandleTurn", "chat.messages", int64(2))
}

func TestHandleTurn_SpanRecordsCompletionError(t *testing.T) {
	tel := telemetry.NewTestTelemetry()
	f := newFixture(t, memory.DefaultBufferSize, WithRenderer(identity), WithTracerProvider(tel.Provider))
	f.completer.err = errors.New("upstream down")

	_, err := f.orch.HandleTurn(context.Background(), "1", "hello")
	require.Error(t, err)

	span := tel.SpanByName("chat.HandleTurn")
	require.NotNil(t, span)
	assert.Equal(t, "Error", span.Status().Code.String())
	assert.NotEmpty(t, span.Events())
}

func TestFlush_RecordsSpan(t *testing.T) {
	tel := telemetry.NewTestTelemetry()
	f := newFixture(t, memory.DefaultBufferSize, WithRenderer(identity), WithTracerProvider(tel.Provider))
	ctx := context.Background()

	_, err := f.orch.HandleTurn(ctx, "1", "hello")
	require.NoError(t, err)
	_, err = f.orch.Flush(ctx, "1")
	require.NoError(t, err)

	tel.AssertSpanAttribute(t, "chat.Flush", "chat.flushed", int64(2))
}
