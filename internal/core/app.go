package core

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/vrsandeep/vnshelf/internal/catalog"
	"github.com/vrsandeep/vnshelf/internal/config"
	"github.com/vrsandeep/vnshelf/internal/db"
	"github.com/vrsandeep/vnshelf/internal/indexer"
	"github.com/vrsandeep/vnshelf/internal/jobs"
	"github.com/vrsandeep/vnshelf/internal/kv"
	"github.com/vrsandeep/vnshelf/internal/models"
	"github.com/vrsandeep/vnshelf/internal/queue"
	"github.com/vrsandeep/vnshelf/internal/store"
	"github.com/vrsandeep/vnshelf/internal/vndb"
	"github.com/vrsandeep/vnshelf/internal/websocket"
)

// Version is overridden at build time with -ldflags.
var Version = "dev"

// App holds the core components of the application that are shared
// between the server and the CLI.
type App struct {
	config     *config.Config
	db         *sql.DB
	kv         kv.Store
	store      *store.Store
	aggregator *catalog.Aggregator
	catalog    *catalog.Service
	queue      *queue.SQLiteQueue
	indexer    *indexer.Orchestrator
	wsHub      *websocket.Hub
	jobManager *jobs.JobManager
}

// New sets up and returns a new App instance. It handles loading the
// configuration, initializing the database connection, and running migrations.
func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return NewWithConfig(cfg)
}

// NewWithConfig is New for an already loaded configuration.
func NewWithConfig(cfg *config.Config) (*App, error) {
	database, err := db.InitDB(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// We can't proceed without a valid database schema.
	if err := db.RunMigrations(database, db.MigrationsFS); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to run database migrations: %w", err)
	}

	app, err := Assemble(cfg, database, nil)
	if err != nil {
		database.Close()
		return nil, err
	}
	log.Println("Core application setup complete.")
	return app, nil
}

// Assemble wires the components on top of a migrated database. A nil
// fetcher selects the VNDB client; interactive calls then go through the
// retrying wrapper while queued tasks make a single attempt.
func Assemble(cfg *config.Config, database *sql.DB, fetcher catalog.MetadataFetcher) (*App, error) {
	backend, err := openKV(cfg, database)
	if err != nil {
		return nil, err
	}
	st := store.New(backend)

	interactive, batch := fetcher, fetcher
	if fetcher == nil {
		client := vndb.New(cfg.VNDB.APIURL, cfg.VNDBTimeout(), tokenFromSettings(st, cfg.VNDB.Token))
		interactive = vndb.WithRetry(client, cfg.VNDB.RetryAttempts, cfg.VNDBRetryBaseDelay())
		batch = client
	}

	agg := catalog.NewAggregator(st, cfg.Catalog.RebuildConcurrency)
	q := queue.NewSQLite(database)
	orch := indexer.New(st, q, batch, agg, indexer.Config{
		MaxRetries: cfg.Index.MaxRetries,
		RetryDelay: cfg.IndexRetryDelay(),
	})

	hub := websocket.NewHub()
	go hub.Run()
	orch.OnProgress(func(u models.ProgressUpdate) { hub.BroadcastJSON(u) })

	app := &App{
		config:     cfg,
		db:         database,
		kv:         backend,
		store:      st,
		aggregator: agg,
		catalog:    catalog.NewService(st, agg, interactive),
		queue:      q,
		indexer:    orch,
		wsHub:      hub,
	}
	app.jobManager = jobs.NewManager(app)
	jobs.RegisterAll(app.jobManager)
	return app, nil
}

func openKV(cfg *config.Config, database *sql.DB) (kv.Store, error) {
	switch cfg.Store.Driver {
	case "", "sqlite":
		// The sqlite file is shared with the CLI, so nothing may be cached
		// in process.
		return kv.NewSQLite(database), nil
	case "pebble":
		// pebble locks its directory, so this process is the only writer.
		p, err := kv.OpenPebble(cfg.Store.PebblePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open pebble store: %w", err)
		}
		cached, err := kv.NewCached(p, cfg.Store.CacheSize, store.SingletonKeys()...)
		if err != nil {
			p.Close()
			return nil, fmt.Errorf("failed to create store cache: %w", err)
		}
		return cached, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// tokenFromSettings prefers the token saved through the config API over
// the one from config.yml.
func tokenFromSettings(st *store.Store, fallback string) vndb.TokenFunc {
	return func(ctx context.Context) (string, error) {
		settings, err := st.GetSettings(ctx)
		if err != nil {
			return "", err
		}
		if settings.VNDBAPIToken != "" {
			return settings.VNDBAPIToken, nil
		}
		return fallback, nil
	}
}

// StartIndexWorkers launches the pool consuming index tasks until ctx ends.
func (a *App) StartIndexWorkers(ctx context.Context) *queue.WorkerPool {
	pool := queue.NewWorkerPool(a.queue, a.indexer.HandleTask, queue.WorkerConfig{
		Workers:      a.config.Index.Workers,
		PollInterval: a.config.IndexPollInterval(),
		Lease:        a.config.IndexLease(),
	})
	pool.Start(ctx)
	return pool
}

// DrainIndexQueue handles every index task that is available right now.
func (a *App) DrainIndexQueue(ctx context.Context) (int, error) {
	return queue.ProcessAvailable(ctx, a.queue, a.indexer.HandleTask, a.config.IndexLease())
}

func (a *App) Config() *config.Config          { return a.config }
func (a *App) DB() *sql.DB                     { return a.db }
func (a *App) Store() *store.Store             { return a.store }
func (a *App) Aggregator() *catalog.Aggregator { return a.aggregator }
func (a *App) Catalog() *catalog.Service       { return a.catalog }
func (a *App) Queue() *queue.SQLiteQueue       { return a.queue }
func (a *App) Indexer() *indexer.Orchestrator  { return a.indexer }
func (a *App) WsHub() *websocket.Hub           { return a.wsHub }
func (a *App) JobManager() *jobs.JobManager    { return a.jobManager }

// Close gracefully closes the application's resources.
func (a *App) Close() {
	if a.kv != nil {
		if err := a.kv.Close(); err != nil {
			log.Printf("Error closing kv store: %v", err)
		}
	}
	if a.db != nil {
		a.db.Close()
	}
}
