package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/google/wire"
	"go.uber.org/zap"

	"github.com/cory-johannsen/quizboss/internal/admin"
	"github.com/cory-johannsen/quizboss/internal/config"
	"github.com/cory-johannsen/quizboss/internal/content"
	"github.com/cory-johannsen/quizboss/internal/frontend/handlers"
	"github.com/cory-johannsen/quizboss/internal/frontend/telnet"
	"github.com/cory-johannsen/quizboss/internal/game/session"
	"github.com/cory-johannsen/quizboss/internal/scripting"
	"github.com/cory-johannsen/quizboss/internal/server"
	"github.com/cory-johannsen/quizboss/internal/storage/postgres"
)

// providerSet builds the server from a loaded config and logger.
var providerSet = wire.NewSet(
	provideDatabase,
	providePackLoader,
	provideCatalog,
	provideScripts,
	provideSessions,
	provideConsole,
	wire.Bind(new(telnet.SessionHandler), new(*handlers.Console)),
	provideAcceptor,
	provideAdmin,
	provideWatcher,
	newApp,
)

const dbHealthInterval = 30 * time.Second

// provideDatabase connects to postgres when the config needs it. The returned
// pool is nil otherwise.
func provideDatabase(ctx context.Context, cfg config.Config, logger *zap.Logger) (*postgres.Pool, func(), error) {
	if !cfg.NeedsDatabase() {
		return nil, func() {}, nil
	}
	start := time.Now()
	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to database: %w", err)
	}
	if err := pool.CheckSchema(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	logger.Info("database connected",
		zap.String("host", cfg.Database.Host),
		zap.Int("port", cfg.Database.Port),
		zap.String("database", cfg.Database.Name),
		zap.Duration("elapsed", time.Since(start)),
	)
	return pool, pool.Close, nil
}

func providePackLoader(cfg config.Config, pool *postgres.Pool) (content.Loader, error) {
	switch cfg.Content.Source {
	case "database":
		if pool == nil {
			return nil, errors.New("content.source is database but no database is connected")
		}
		return postgres.NewPackRepository(pool.DB()), nil
	default:
		return content.DirLoader{Dir: cfg.Content.PacksDir}, nil
	}
}

// provideCatalog loads every pack once at startup.
func provideCatalog(ctx context.Context, loader content.Loader, logger *zap.Logger) (*content.Catalog, error) {
	catalog := content.NewCatalog(loader, logger)
	if err := catalog.Reload(ctx); err != nil {
		return nil, err
	}
	if catalog.Len() == 0 {
		return nil, errors.New("no question packs found")
	}
	return catalog, nil
}

func provideScripts(cfg config.Config, logger *zap.Logger) (*scripting.Manager, error) {
	scripts := scripting.NewManager(cfg.Content.ScriptInstructionLimit, logger)
	if cfg.Content.ScriptsDir == "" {
		logger.Info("encounter scripting disabled")
		return scripts, nil
	}
	if err := scripts.LoadDir(cfg.Content.ScriptsDir); err != nil {
		return nil, fmt.Errorf("loading scripts: %w", err)
	}
	return scripts, nil
}

func provideSessions(cfg config.Config, catalog *content.Catalog, scripts *scripting.Manager, pool *postgres.Pool, logger *zap.Logger) (*session.Manager, error) {
	if _, err := catalog.Pack(cfg.Content.DefaultPack); err != nil {
		return nil, fmt.Errorf("default pack: %w", err)
	}
	mgr := session.NewManager(cfg, catalog, scripts, logger)
	if cfg.Database.RecordResults && pool != nil {
		mgr.SetRecorder(postgres.NewResultRepository(pool.DB()))
	}
	return mgr, nil
}

func provideConsole(cfg config.Config, sessions *session.Manager, catalog *content.Catalog, logger *zap.Logger) *handlers.Console {
	return handlers.NewConsole(sessions, catalog, cfg.Content.DefaultPack, logger)
}

func provideAcceptor(cfg config.Config, handler telnet.SessionHandler, logger *zap.Logger) *telnet.Acceptor {
	return telnet.NewAcceptor(cfg.Telnet, handler, logger)
}

func provideAdmin(cfg config.Config, sessions *session.Manager, catalog *content.Catalog, scripts *scripting.Manager, logger *zap.Logger) *admin.Service {
	return admin.NewService(sessions, catalog, scripts, cfg.Content.ScriptsDir, logger.Named("admin"))
}

// provideWatcher returns nil unless file packs are watched.
func provideWatcher(cfg config.Config, catalog *content.Catalog, scripts *scripting.Manager, logger *zap.Logger) (*content.Watcher, error) {
	if !cfg.Content.Watch {
		return nil, nil
	}
	opts := content.WatchOptions{
		ScriptsDir: cfg.Content.ScriptsDir,
		Scripts:    scripts,
		Logger:     logger.Named("content"),
	}
	if cfg.Content.Source == "files" {
		opts.PacksDir = cfg.Content.PacksDir
		opts.Catalog = catalog
	}
	return content.NewWatcher(opts)
}

// app is the assembled server.
type app struct {
	lifecycle *server.Lifecycle
	telnet    *telnet.Acceptor
	sessions  *session.Manager
}

// newApp registers every long-running component with a lifecycle. Services
// stop in reverse order: telnet clients leave before sessions are drained,
// and sessions drain before the database pool closes.
func newApp(
	cfg config.Config,
	logger *zap.Logger,
	pool *postgres.Pool,
	sessions *session.Manager,
	acceptor *telnet.Acceptor,
	adminSvc *admin.Service,
	watcher *content.Watcher,
) *app {
	lc := server.NewLifecycle(logger, cfg.Server.ShutdownTimeout)

	drained := make(chan struct{})
	lc.Add("sessions", &server.FuncService{
		StartFn: func() error {
			<-drained
			return nil
		},
		StopFn: func(ctx context.Context) error {
			defer close(drained)
			return sessions.Shutdown(ctx)
		},
	})

	if pool != nil {
		lc.Add("postgres", server.NewRunService(func(ctx context.Context) error {
			ticker := time.NewTicker(dbHealthInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return nil
				case <-ticker.C:
					if err := pool.Health(ctx, 5*time.Second); err != nil && ctx.Err() == nil {
						logger.Warn("database health check failed", zap.Error(err))
					}
				}
			}
		}))
	}

	if watcher != nil {
		lc.Add("content-watch", server.NewRunService(watcher.Run))
	}

	if cfg.Admin.Enabled {
		grpcServer, health := admin.NewGRPCServer(adminSvc, logger.Named("admin"))
		lc.Add("admin", &server.FuncService{
			StartFn: func() error {
				lis, err := net.Listen("tcp", cfg.Admin.Addr())
				if err != nil {
					return fmt.Errorf("listening on %s: %w", cfg.Admin.Addr(), err)
				}
				logger.Info("admin listening", zap.String("addr", lis.Addr().String()))
				return grpcServer.Serve(lis)
			},
			StopFn: func(ctx context.Context) error {
				health.Shutdown()
				stopped := make(chan struct{})
				go func() {
					grpcServer.GracefulStop()
					close(stopped)
				}()
				select {
				case <-stopped:
					return nil
				case <-ctx.Done():
					grpcServer.Stop()
					return ctx.Err()
				}
			},
		})
	}

	lc.Add("telnet", &server.FuncService{
		StartFn: acceptor.ListenAndServe,
		StopFn:  acceptor.Stop,
	})

	return &app{lifecycle: lc, telnet: acceptor, sessions: sessions}
}

func (a *app) run(ctx context.Context) error {
	return a.lifecycle.Run(ctx)
}
