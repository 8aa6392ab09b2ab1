// Package main provides the headless player: it runs a game from a data
// directory with replayed input and optionally serves the debug console.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/cory-johannsen/cardstack/internal/config"
	"github.com/cory-johannsen/cardstack/internal/console"
	"github.com/cory-johannsen/cardstack/internal/game/engine"
	"github.com/cory-johannsen/cardstack/internal/game/stack"
	"github.com/cory-johannsen/cardstack/internal/game/stacks"
	"github.com/cory-johannsen/cardstack/internal/game/state"
	"github.com/cory-johannsen/cardstack/internal/headless"
	"github.com/cory-johannsen/cardstack/internal/observability"
	"github.com/cory-johannsen/cardstack/internal/resource"
	"github.com/cory-johannsen/cardstack/internal/scripting"
	"github.com/cory-johannsen/cardstack/internal/server"
	"github.com/cory-johannsen/cardstack/internal/storage/postgres"
	"github.com/cory-johannsen/cardstack/internal/storage/sqlite"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/player.yaml", "path to configuration file")
	replayPath := flag.String("replay", "", "input replay file; overrides headless.replay")
	loadSlot := flag.Int("load", -2, "save slot to start from; -1 starts a new game")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	if *replayPath != "" {
		cfg.Headless.Replay = *replayPath
	}
	if *loadSlot >= -1 {
		cfg.Engine.LoadSlot = *loadSlot
	}

	logger, err := observability.NewLogger(cfg.Logging, "player")
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting player",
		zap.String("data_dir", cfg.Engine.DataDir),
		zap.String("storage", cfg.Storage.Driver),
		zap.Bool("console", cfg.Console.Enabled),
	)

	catalog, err := loadCatalog(cfg)
	if err != nil {
		logger.Fatal("loading stack catalog", zap.Error(err))
	}

	lifecycle := server.NewLifecycle(logger)

	repo, err := openSaveStore(ctx, cfg, lifecycle, logger)
	if err != nil {
		logger.Fatal("opening save store", zap.Error(err))
	}

	settings, err := config.OpenSettings(cfg.Storage.SettingsFile, cfg.Engine)
	if err != nil {
		logger.Fatal("opening runtime settings", zap.Error(err))
	}
	zipMode, transitions := settings.RuntimeSettings()
	saves := state.NewManager(repo, state.NewGameState(zipMode, transitions), logger)

	var scripts *scripting.Manager
	if cfg.Scripting.Enabled {
		scripts = scripting.NewManager(logger.Named("lua"))
	}

	replay := &headless.Replay{QuitAfterMS: uint32(cfg.Headless.QuitAfter.Milliseconds())}
	if cfg.Headless.Replay != "" {
		if replay, err = headless.LoadReplay(cfg.Headless.Replay); err != nil {
			logger.Fatal("loading replay", zap.Error(err))
		}
	}
	platform, err := headless.NewPlatform(headless.Config{
		MovieDurationMS:  uint32(cfg.Headless.MovieDuration.Milliseconds()),
		EffectDurationMS: uint32(cfg.Headless.EffectDuration.Milliseconds()),
		CharWidth:        cfg.Headless.CharWidth,
		LineHeight:       cfg.Headless.LineHeight,
		DataDir:          cfg.Engine.DataDir,
	}, replay, logger.Named("headless"))
	if err != nil {
		logger.Fatal("building headless platform", zap.Error(err))
	}

	eng, err := engine.New(engineConfig(cfg.Engine), engine.Deps{
		Media:     platform.Media(),
		Resources: resource.NewSet(resource.DirOpener{Root: cfg.Engine.DataDir}, resource.NewCache(cfg.Engine.CacheEnabled), logger),
		Catalog:   catalog,
		Registry:  stacks.NewRegistry(),
		Saves:     saves,
		Scripts:   scripts,
		Settings:  settings,
		Logger:    logger,
	})
	if err != nil {
		logger.Fatal("creating engine", zap.Error(err))
	}

	engineCtx, stopEngine := context.WithCancel(ctx)
	defer stopEngine()
	lifecycle.AddPrimary("engine", &server.FuncService{
		StartFn: func() error {
			defer func() {
				if scripts != nil {
					scripts.Close()
				}
			}()
			err := eng.Run(engineCtx)
			logger.Info("engine stopped",
				zap.Uint32("game_ms", platform.Clock.Millis()),
				zap.Int("screen_updates", platform.Graphics.Updates()),
			)
			return err
		},
		StopFn: stopEngine,
	})

	if cfg.Console.Enabled {
		grpcServer := grpc.NewServer()
		console.NewServer(eng, logger.Named("console"), cfg.Console.RequestTimeout).Register(grpcServer)
		lifecycle.Add("console", &server.FuncService{
			StartFn: func() error {
				lis, err := net.Listen("tcp", cfg.Console.Addr())
				if err != nil {
					return fmt.Errorf("listening on %s: %w", cfg.Console.Addr(), err)
				}
				logger.Info("console listening",
					zap.String("addr", lis.Addr().String()),
				)
				return grpcServer.Serve(lis)
			},
			StopFn: func() {
				grpcServer.GracefulStop()
			},
		})
	}

	logger.Info("player initialized",
		zap.Duration("startup", time.Since(start)),
		zap.Int("stacks", len(catalog.All())),
	)

	if err := lifecycle.Run(ctx); err != nil {
		logger.Fatal("player error", zap.Error(err))
	}
}

// loadCatalog merges the configured catalog file over the built-in stacks
// and applies the default Lua instruction limit.
func loadCatalog(cfg config.Config) (*stack.Catalog, error) {
	catalog, err := stack.LoadCatalog(cfg.Engine.Catalog)
	if err != nil {
		return nil, err
	}
	if cfg.Scripting.InstructionLimit > 0 {
		for _, d := range catalog.All() {
			if d.InstructionLimit == 0 {
				d.InstructionLimit = cfg.Scripting.InstructionLimit
			}
		}
	}
	return catalog, nil
}

// openSaveStore opens the configured save repository. Stores holding
// connections are registered with lifecycle so they close on shutdown.
func openSaveStore(ctx context.Context, cfg config.Config, lifecycle *server.Lifecycle, logger *zap.Logger) (state.Repository, error) {
	switch cfg.Storage.Driver {
	case config.DriverMemory:
		return state.NewMemoryRepository(), nil
	case config.DriverSQLite:
		store, err := sqlite.Open(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, err
		}
		done := make(chan struct{})
		lifecycle.Add("sqlite", &server.FuncService{
			StartFn: func() error {
				<-done
				return nil
			},
			StopFn: func() {
				close(done)
				if err := store.Close(); err != nil {
					logger.Warn("closing save database", zap.Error(err))
				}
			},
		})
		return store, nil
	case config.DriverPostgres:
		pool, err := postgres.Connect(ctx, cfg.Database, logger.Named("postgres"))
		if err != nil {
			return nil, err
		}
		stop := make(chan struct{})
		lifecycle.Add("postgres", &server.FuncService{
			StartFn: func() error {
				pool.Watch(stop, 30*time.Second, 5*time.Second)
				return nil
			},
			StopFn: func() {
				close(stop)
				pool.Close()
			},
		})
		return pool.Saves(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

func engineConfig(c config.EngineConfig) engine.Config {
	ecfg := engine.DefaultConfig()
	ecfg.Features = engine.Features{
		ME:       c.Features.ME,
		Menu:     c.Features.Menu,
		Demo:     c.Features.Demo,
		MakingOf: c.Features.MakingOf,
	}
	ecfg.Language = c.Language
	ecfg.FrameDelayMS = uint32(c.FrameDelay.Milliseconds())
	ecfg.AutosavePeriodMS = uint32(c.AutosavePeriod.Milliseconds())
	ecfg.PlayMystFlyby = c.PlayMystFlyby
	ecfg.LoadSlot = c.LoadSlot
	ecfg.QueueSize = c.QueueSize
	if c.StartCard != 0 {
		ecfg.Start = &state.Location{Stack: c.StartStack, Card: c.StartCard}
	}
	return ecfg
}
