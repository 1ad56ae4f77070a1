package cli

import (
	"context"
	"fmt"

	"github.com/PabloGalante/noto-agent/internal/adapters/llm"
	firestorestore "github.com/PabloGalante/noto-agent/internal/adapters/storage/firestore"
	memstore "github.com/PabloGalante/noto-agent/internal/adapters/storage/memory"
	sqlitestore "github.com/PabloGalante/noto-agent/internal/adapters/storage/sqlite"
	"github.com/PabloGalante/noto-agent/internal/app/batch"
	"github.com/PabloGalante/noto-agent/internal/app/conversation"
	"github.com/PabloGalante/noto-agent/internal/app/intent"
	"github.com/PabloGalante/noto-agent/internal/app/memories"
	"github.com/PabloGalante/noto-agent/internal/app/persona"
	"github.com/PabloGalante/noto-agent/internal/app/scheduler"
	"github.com/PabloGalante/noto-agent/internal/app/tools"
	"github.com/PabloGalante/noto-agent/internal/config"
	"github.com/PabloGalante/noto-agent/internal/domain"
	"github.com/PabloGalante/noto-agent/internal/observability"
)

// App is the wired application shared by every command.
type App struct {
	Config        *config.Config
	Store         domain.Store
	Conversations *conversation.Service
	Memories      *memories.Service
	Persona       *persona.Service
	Sweeper       *scheduler.Sweeper
	Batcher       *batch.Batcher[*conversation.SendMessageOutput]
}

// Build wires storage, generation backend, resolver and services from cfg.
func Build(ctx context.Context, cfg *config.Config) (*App, error) {
	log := observability.Logger()

	store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	gen, err := newGenerator(ctx, cfg)
	if err != nil {
		store.Close()
		return nil, err
	}

	policy := domain.NewCategoryPolicy(cfg.Policy.Categories)
	personaSvc := persona.NewService(store, gen, cfg.Policy.Persona)
	resolver := newResolver(cfg, gen, store, policy, personaSvc)

	convSvc := conversation.NewService(store, resolver, policy,
		conversation.WithHistoryLimit(cfg.HistoryLimit),
		conversation.WithLocation(cfg.Location),
	)

	var opener scheduler.Opener = scheduler.NewStaticOpener(cfg.Policy.Openers)
	if cfg.LLMBackend == "gemini" {
		opener = scheduler.NewGenerativeOpener(gen, store, personaSvc, opener)
	}
	sweeper := scheduler.NewSweeper(store, opener, scheduler.Proactive{
		Enabled:   cfg.ProactiveEnabled,
		WakeStart: cfg.WakeStartHour,
		WakeEnd:   cfg.WakeEndHour,
		Base:      cfg.ProactiveBase(),
		Jitter:    cfg.ProactiveJitter(),
	}, scheduler.WithLocation(cfg.Location))

	batcher := batch.New(cfg.BatchWindow,
		func(ctx context.Context, key string, texts []string) (*conversation.SendMessageOutput, error) {
			return convSvc.SendMessage(ctx, conversation.SendMessageInput{
				ConversationID: domain.ConversationID(key),
				Texts:          texts,
			})
		})

	log.Info("app wired",
		"mode", cfg.Mode,
		"storage", cfg.StorageBackend,
		"llm", cfg.LLMBackend,
		"resolver", cfg.Resolver,
	)

	return &App{
		Config:        cfg,
		Store:         store,
		Conversations: convSvc,
		Memories:      memories.NewService(store, store),
		Persona:       personaSvc,
		Sweeper:       sweeper,
		Batcher:       batcher,
	}, nil
}

// Close waits for in-flight batches and releases the store.
func (a *App) Close() error {
	a.Batcher.Wait()
	return a.Store.Close()
}

func openStore(ctx context.Context, cfg *config.Config) (domain.Store, error) {
	log := observability.Logger()

	switch cfg.StorageBackend {
	case "firestore":
		log.Info("using firestore storage", "project", cfg.GCPProjectID, "suffix", cfg.CollectionSuffix)
		s, err := firestorestore.NewStore(ctx, cfg.GCPProjectID, cfg.CollectionSuffix)
		if err != nil {
			return nil, fmt.Errorf("initializing firestore store: %w", err)
		}
		return s, nil
	case "sqlite":
		log.Info("using sqlite storage", "path", cfg.SQLitePath)
		s, err := sqlitestore.Open(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("initializing sqlite store: %w", err)
		}
		return s, nil
	default:
		log.Info("using in-memory storage")
		return memstore.NewStore(), nil
	}
}

func newGenerator(ctx context.Context, cfg *config.Config) (domain.Generator, error) {
	if cfg.LLMBackend == "mock" {
		observability.Logger().Info("using mock generator")
		return llm.NewMockGenerator(), nil
	}
	g, err := llm.NewGeminiClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("initializing gemini client: %w", err)
	}
	return g, nil
}

func newResolver(cfg *config.Config, gen domain.Generator, store domain.Store, policy domain.CategoryPolicy, persona intent.PersonaSource) intent.Resolver {
	if cfg.Resolver == "generative" {
		set := tools.NewSet(
			tools.NewSaveNote(store, policy),
			tools.NewSearchNotes(store, cfg.Location),
			tools.NewSearchReminders(store, cfg.Location),
		)
		return intent.NewGenerativeResolver(gen, set, policy, cfg.Location,
			intent.WithPersona(persona))
	}

	var opts []intent.RuleOption
	if cfg.LLMBackend == "gemini" {
		opts = append(opts, intent.WithReplier(intent.NewGenerativeReplier(gen, persona)))
	}
	return intent.NewRuleResolver(policy, cfg.Location, opts...)
}
