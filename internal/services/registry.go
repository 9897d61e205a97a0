package services

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/projectchat/internal/chat"
	"github.com/fyrsmithlabs/projectchat/internal/config"
	"github.com/fyrsmithlabs/projectchat/internal/llm"
	"github.com/fyrsmithlabs/projectchat/internal/logging"
	"github.com/fyrsmithlabs/projectchat/internal/memory"
	"github.com/fyrsmithlabs/projectchat/internal/project"
	"github.com/fyrsmithlabs/projectchat/internal/storage"
)

// Registry provides access to all projectchat services.
type Registry interface {
	Projects() project.Registry
	Transcripts() memory.Store
	Sessions() *memory.Cache
	Completer() llm.Completer
	Chat() *chat.Orchestrator
	Close() error
}

// Options configures the registry with service instances.
type Options struct {
	Projects    project.Registry
	Transcripts memory.Store
	Sessions    *memory.Cache
	Completer   llm.Completer
	Chat        *chat.Orchestrator
	DB          *sql.DB
}

type registry struct {
	projects    project.Registry
	transcripts memory.Store
	sessions    *memory.Cache
	completer   llm.Completer
	chat        *chat.Orchestrator
	db          *sql.DB
}

// NewRegistry creates a registry from already built services.
func NewRegistry(opts Options) Registry {
	return &registry{
		projects:    opts.Projects,
		transcripts: opts.Transcripts,
		sessions:    opts.Sessions,
		completer:   opts.Completer,
		chat:        opts.Chat,
		db:          opts.DB,
	}
}

func (r *registry) Projects() project.Registry { return r.projects }
func (r *registry) Transcripts() memory.Store  { return r.transcripts }
func (r *registry) Sessions() *memory.Cache    { return r.sessions }
func (r *registry) Completer() llm.Completer   { return r.completer }
func (r *registry) Chat() *chat.Orchestrator   { return r.chat }

// Close releases the database, if any.
func (r *registry) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

// Build creates every service from cfg.
func Build(ctx context.Context, cfg *config.Config, logger *logging.Logger) (Registry, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	opts := Options{}
	switch cfg.Database.Driver {
	case config.DriverMemory:
		opts.Projects = project.NewMemoryRegistry()
		opts.Transcripts = memory.NewMemoryStore()
	case config.DriverSQLite:
		db, err := storage.OpenSQLite(ctx, cfg.Database.Path)
		if err != nil {
			return nil, err
		}
		opts.DB = db
		if opts.Projects, err = project.NewSQLiteRegistry(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
		if opts.Transcripts, err = memory.NewSQLiteStore(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}

	closeDB := func() {
		if opts.DB != nil {
			_ = opts.DB.Close()
		}
	}

	codec, err := memory.NewCodec(cfg.Memory.TranscriptFormat)
	if err != nil {
		closeDB()
		return nil, err
	}
	opts.Sessions, err = memory.NewCache(opts.Transcripts,
		memory.WithPolicy(memory.NewPolicy(cfg.Memory.BufferSize)),
		memory.WithCodec(codec),
		memory.WithLogger(logger.Named("memory")),
	)
	if err != nil {
		closeDB()
		return nil, err
	}

	opts.Completer, err = llm.New(cfg.LLM, logger)
	if err != nil {
		closeDB()
		return nil, fmt.Errorf("creating completion provider: %w", err)
	}

	opts.Chat, err = chat.NewOrchestrator(opts.Projects, opts.Sessions, opts.Completer,
		logger.Named("chat"), chat.Config{ContextWindow: cfg.Memory.ContextWindow})
	if err != nil {
		closeDB()
		return nil, err
	}

	logger.Info(ctx, "services ready",
		zap.String("database", cfg.Database.Driver),
		zap.String("provider", cfg.LLM.Provider),
		zap.String("transcript_format", codec.Format()),
		zap.Int("buffer_size", opts.Sessions.Policy().Limit()),
	)
	return NewRegistry(opts), nil
}
