package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/projectchat/internal/llm"
	"github.com/fyrsmithlabs/projectchat/internal/logging"
	"github.com/fyrsmithlabs/projectchat/internal/memory"
	"github.com/fyrsmithlabs/projectchat/internal/project"
	"github.com/fyrsmithlabs/projectchat/internal/render"
)

const instrumentationName = "github.com/fyrsmithlabs/projectchat/internal/chat"

// ProjectGetter resolves projects by ID. project.Registry satisfies it.
type ProjectGetter interface {
	Get(ctx context.Context, id string) (*project.Project, error)
}

// Config holds orchestrator settings.
type Config struct {
	ContextWindow int
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithRenderer replaces the markdown renderer applied to every message.
func WithRenderer(fn render.Func) Option {
	return func(o *Orchestrator) { o.render = fn }
}

// WithTracerProvider sets the provider for turn and flush spans.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *Orchestrator) { o.tracer = tp.Tracer(instrumentationName) }
}

// Orchestrator runs conversation turns and flushes.
type Orchestrator struct {
	projects  ProjectGetter
	cache     *memory.Cache
	completer llm.Completer
	render    render.Func
	window    int
	logger    *logging.Logger
	tracer    trace.Tracer
}

// NewOrchestrator creates an Orchestrator.
func NewOrchestrator(
	projects ProjectGetter,
	cache *memory.Cache,
	completer llm.Completer,
	logger *logging.Logger,
	cfg Config,
	opts ...Option,
) (*Orchestrator, error) {
	if projects == nil {
		return nil, fmt.Errorf("project registry cannot be nil")
	}
	if cache == nil {
		return nil, fmt.Errorf("session cache cannot be nil")
	}
	if completer == nil {
		return nil, fmt.Errorf("completer cannot be nil")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	window := cfg.ContextWindow
	if window < 1 {
		window = DefaultContextWindow
	}

	o := &Orchestrator{
		projects:  projects,
		cache:     cache,
		completer: completer,
		render:    render.Markdown,
		window:    window,
		logger:    logger,
		tracer:    otel.Tracer(instrumentationName),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

func (o *Orchestrator) acquire(ctx context.Context, projectID string) (*project.Project, *memory.Session, error) {
	p, err := o.projects.Get(ctx, projectID)
	if err != nil {
		return nil, nil, err
	}
	s, err := o.cache.Acquire(ctx, memory.Ref{ProjectID: p.ID, UserID: p.UserID})
	if err != nil {
		return nil, nil, err
	}
	return p, s, nil
}

// HandleTurn answers one user message and returns the session buffer.
//
// Blank input changes nothing and returns the current buffer. If the
// completion service fails or the transcript cannot be written, the session
// is restored to its state before the turn and the error is returned.
func (o *Orchestrator) HandleTurn(ctx context.Context, projectID, text string) (_ []memory.Message, err error) {
	start := time.Now()
	ctx = logging.WithProjectID(ctx, projectID)
	ctx, span := o.tracer.Start(ctx, "chat.HandleTurn",
		trace.WithAttributes(attribute.String("project.id", projectID)))
	defer func() { endSpan(span, err) }()

	p, s, err := o.acquire(ctx, projectID)
	if err != nil {
		TurnsTotal.WithLabelValues(acquireResult(err)).Inc()
		return nil, err
	}
	defer s.Release()

	if strings.TrimSpace(text) == "" {
		TurnsTotal.WithLabelValues(resultNoop).Inc()
		return s.Messages(), nil
	}

	snapshot := s.Snapshot()
	s.Append(memory.SenderUser, o.render(text))

	prompt := BuildPrompt(p.Summary, ContextWindow(s.Messages(), o.window), text)
	o.logger.Trace(ctx, "completion prompt", zap.String("prompt", prompt))
	reply, err := o.completer.Complete(ctx, prompt)
	if err != nil {
		s.Restore(snapshot)
		TurnsTotal.WithLabelValues(resultCompletionError).Inc()
		o.logger.Error(ctx, "completion failed", zap.Error(err))
		if !errors.Is(err, llm.ErrCompletion) {
			err = fmt.Errorf("%w: %w", llm.ErrCompletion, err)
		}
		return nil, err
	}
	if strings.TrimSpace(reply) == "" {
		reply = Fallback(p.Summary)
		FallbackRepliesTotal.Inc()
		span.SetAttributes(attribute.Bool("chat.fallback", true))
		o.logger.Info(ctx, "empty completion, using fallback reply")
	}
	s.Append(memory.SenderAI, o.render(reply))

	if err := s.Persist(ctx); err != nil {
		s.Restore(snapshot)
		TurnsTotal.WithLabelValues(resultStorageError).Inc()
		o.logger.Error(ctx, "persisting transcript failed", zap.Error(err))
		return nil, err
	}

	TurnsTotal.WithLabelValues(resultOK).Inc()
	TurnDuration.Observe(time.Since(start).Seconds())
	span.SetAttributes(attribute.Int("chat.messages", s.Len()))
	o.logger.Debug(ctx, "turn complete",
		zap.Int("messages", s.Len()),
		zap.Duration("duration", time.Since(start)),
	)
	return s.Messages(), nil
}

// History returns the session buffer for a project, hydrating it if needed.
func (o *Orchestrator) History(ctx context.Context, projectID string) ([]memory.Message, error) {
	ctx = logging.WithProjectID(ctx, projectID)

	_, s, err := o.acquire(ctx, projectID)
	if err != nil {
		return nil, err
	}
	defer s.Release()
	return s.Messages(), nil
}

// Flush writes the session buffer to the transcript store and empties the
// buffer. An empty buffer is left alone and nothing is written. It returns
// the number of messages flushed.
func (o *Orchestrator) Flush(ctx context.Context, projectID string) (_ int, err error) {
	ctx = logging.WithProjectID(ctx, projectID)
	ctx, span := o.tracer.Start(ctx, "chat.Flush",
		trace.WithAttributes(attribute.String("project.id", projectID)))
	defer func() { endSpan(span, err) }()

	_, s, err := o.acquire(ctx, projectID)
	if err != nil {
		result := acquireResult(err)
		if result == resultStorageError {
			result = "error"
		}
		FlushesTotal.WithLabelValues(result).Inc()
		return 0, err
	}
	defer s.Release()

	n := s.Len()
	if n == 0 {
		FlushesTotal.WithLabelValues(resultNoop).Inc()
		return 0, nil
	}
	if err := s.Persist(ctx); err != nil {
		FlushesTotal.WithLabelValues("error").Inc()
		o.logger.Error(ctx, "flushing transcript failed", zap.Error(err))
		return 0, err
	}
	s.Clear()

	FlushesTotal.WithLabelValues(resultOK).Inc()
	span.SetAttributes(attribute.Int("chat.flushed", n))
	o.logger.Info(ctx, "flushed session", zap.Int("messages", n))
	return n, nil
}

// acquireResult labels a failed project or session lookup.
func acquireResult(err error) string {
	switch {
	case errors.Is(err, project.ErrProjectNotFound):
		return resultNotFound
	case errors.Is(err, project.ErrInvalidProjectID):
		return resultInvalid
	default:
		return resultStorageError
	}
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
