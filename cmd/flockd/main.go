package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/flockgo/flockd/internal/config"
	"github.com/flockgo/flockd/internal/core/event"
	coresys "github.com/flockgo/flockd/internal/core/system"
	"github.com/flockgo/flockd/internal/core/timer"
	"github.com/flockgo/flockd/internal/data"
	"github.com/flockgo/flockd/internal/formation"
	"github.com/flockgo/flockd/internal/persist"
	"github.com/flockgo/flockd/internal/scripting"
	"github.com/flockgo/flockd/internal/spawn"
	"github.com/flockgo/flockd/internal/system"
	"github.com/flockgo/flockd/internal/world"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner() {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m               flockd  v0.1.0              \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  │\033[0m     staggered boid spawner · formations   \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
}

func printSection(title string) {
	lineLen := 46 - len(title) - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := 42 - len(label) - len(numStr)
	if dotsLen < 3 {
		dotsLen = 3
	}
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[32m▶\033[0m %s\n", msg)
}

// ── Main loop ─────────────────────────────────────────────────────

func run() error {
	// 1. Load config
	cfgPath := "config/server.toml"
	if p := os.Getenv("FLOCKD_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner()

	// 3. Data tables and scripts
	printSection("data")
	templates, err := data.LoadTemplateTable(cfg.Data.Templates)
	if err != nil {
		return fmt.Errorf("load boid templates: %w", err)
	}
	printStat("boid templates", templates.Count())

	var placer world.Placer
	if cfg.Scripting.Enabled {
		engine, err := scripting.NewEngine(cfg.Scripting.Dir, log.Named("lua"))
		if err != nil {
			return fmt.Errorf("init scripting: %w", err)
		}
		defer engine.Close()
		if engine.HasSpawnPosition() {
			placer = engine
			printOK("lua spawn_position loaded")
		} else {
			printOK("lua loaded, default placement")
		}
	}

	// 4. Optional journal store
	printSection("journal")
	var journal system.JournalStore
	db, err := openJournal(cfg, log)
	switch {
	case errors.Is(err, persist.ErrDisabled):
		printOK("disabled (no database.dsn)")
	case err != nil:
		return err
	default:
		defer db.Close()
		journal = persist.NewJournalRepo(db)
		printOK("postgres connected, migrations applied")
	}

	// 5. Simulation context
	queue := timer.NewQueue()
	bus := event.NewBus()
	ctx := world.NewContext(world.Deps{
		Config:    cfg,
		Templates: templates,
		Placer:    placer,
		Timers:    queue,
		Bus:       bus,
		Log:       log,
	})

	printSection("scene")
	if cfg.Formation.Enabled {
		set, err := formation.SphereFormation(cfg.Formation.Points, cfg.Formation.Radius, cfg.Formation.Meridians)
		if err != nil {
			return fmt.Errorf("build formation: %w", err)
		}
		ctx.PlaceFormation(set)
		printStat("formation markers", set.Len())
	}

	// 6. Systems
	runner := coresys.NewRunner()
	runner.Register(system.NewTimerSystem(queue))
	runner.Register(system.NewEventDispatchSystem(bus))
	runner.Register(system.NewFlockSystem(ctx))
	runner.Register(system.NewTransformSystem(ctx))
	var journalSys *system.JournalSystem
	if journal != nil {
		journalSys = system.NewJournalSystem(bus, journal, log.Named("journal"), cfg.Journal.FlushInterval)
		runner.Register(journalSys)
	}
	runner.Register(system.NewCleanupSystem(ctx.ECS(), log))

	event.Subscribe(bus, func(e event.SpawnCompleted) {
		printReady(fmt.Sprintf("fully spawned: %d boids in %s", e.Count, e.At))
	})
	event.Subscribe(bus, func(e event.SpawnFailed) {
		fmt.Printf("  \033[31m✗\033[0m spawn halted at #%d: %v\n", e.Seq, e.Err)
	})

	// 7. Start spawning. The first boid exists before the loop runs.
	if err := ctx.StartSpawning(); err != nil {
		var ce *spawn.CreationError
		if !errors.As(err, &ce) {
			return fmt.Errorf("start spawning: %w", err)
		}
		log.Warn("spawn run failed on its first tick", zap.Error(err))
	}

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.Loop.TickRate)
	defer ticker.Stop()

	printSection("running")
	printReady(fmt.Sprintf("spawning %d x %q every %s", cfg.Spawn.NumBoids, cfg.Spawn.Template, cfg.Spawn.SpawnDelay))
	printReady(fmt.Sprintf("loop started (tick: %s)", cfg.Loop.TickRate))
	fmt.Println()

	for {
		select {
		case <-ticker.C:
			runner.Tick(cfg.Loop.TickRate)
		case sig := <-shutdownCh:
			log.Info("shutdown signal received", zap.String("signal", sig.String()))
			ctx.Scheduler().Stop()
			// Deliver the final events, then write them out.
			runner.TickPhase(coresys.PhaseEvents, 0)
			if journalSys != nil {
				journalSys.Flush()
			}
			log.Info("stopped",
				zap.String("state", ctx.Scheduler().State().String()),
				zap.Int("boids", ctx.Registry().Len()),
				zap.Uint64("ticks", runner.Ticks()),
			)
			return nil
		}
	}
}

// openJournal connects and migrates the journal database. It returns
// persist.ErrDisabled when no DSN is configured.
func openJournal(cfg *config.Config, log *zap.Logger) (*persist.DB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := persist.Open(ctx, cfg.Database, log)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate journal: %w", err)
	}
	return db, nil
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
