package cmd

import (
	"context"
	"fmt"

	"roster-sync/core/armory"
	"roster-sync/core/config"
	"roster-sync/core/database"
	"roster-sync/core/logger"
	"roster-sync/core/storage"
	"roster-sync/feature/character"
	"roster-sync/feature/guild"
	"roster-sync/feature/models"
	"roster-sync/feature/scheduler"
	"roster-sync/feature/store"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// engine holds the wired sync engine shared by every command.
type engine struct {
	cfg          *config.Config
	logger       *zap.Logger
	db           *gorm.DB
	store        *store.Store
	guilds       *guild.Syncer
	characters   *character.Syncer
	orchestrator *scheduler.Orchestrator
}

// orchestratorQueue breaks the construction cycle between the character
// syncer and the orchestrator that drives it.
type orchestratorQueue struct {
	orchestrator *scheduler.Orchestrator
}

func (q *orchestratorQueue) Enqueue(ctx context.Context, guildID uint) error {
	return q.orchestrator.Enqueue(ctx, guildID)
}

// bootstrap loads configuration and wires the database, remote API,
// optional archive, syncers and orchestrator.
func bootstrap(ctx context.Context) (*engine, error) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	l, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	zap.ReplaceGlobals(l)

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, err
	}
	l.Info("Connected to database", zap.String("driver", cfg.Database.Driver))

	if cfg.Database.AutoMigrate {
		if err := models.Migrate(db); err != nil {
			return nil, fmt.Errorf("failed to migrate schema: %w", err)
		}
		l.Info("Schema migrated")
	}

	var archive guild.Archiver
	if cfg.Storage.Enabled {
		client, err := storage.NewClient(cfg.Storage)
		if err != nil {
			return nil, fmt.Errorf("failed to create storage client: %w", err)
		}
		a := storage.NewArchive(client, cfg.Storage.Bucket)
		if err := a.EnsureBucket(ctx); err != nil {
			return nil, fmt.Errorf("failed to prepare archive bucket: %w", err)
		}
		archive = a
		l.Info("Roster archive enabled", zap.String("bucket", cfg.Storage.Bucket))
	}

	s := store.New(db)
	api := armory.NewClient(cfg.Armory, l)

	queue := &orchestratorQueue{}
	guilds := guild.NewSyncer(s, api, archive, cfg.Sync.BatchSize, l)
	characters := character.NewSyncer(s, api, queue, l)
	o := scheduler.NewOrchestrator(s, guilds, characters, cfg.Sync, l)
	queue.orchestrator = o

	return &engine{
		cfg:          cfg,
		logger:       l,
		db:           db,
		store:        s,
		guilds:       guilds,
		characters:   characters,
		orchestrator: o,
	}, nil
}

// close flushes the logger and releases the database pool.
func (r *engine) close() {
	if sqlDB, err := r.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	_ = r.logger.Sync()
}
