package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/arenashooter/arena/internal/ai"
	"github.com/arenashooter/arena/internal/config"
	"github.com/arenashooter/arena/internal/core/event"
	coresys "github.com/arenashooter/arena/internal/core/system"
	"github.com/arenashooter/arena/internal/data"
	"github.com/arenashooter/arena/internal/handler"
	gonet "github.com/arenashooter/arena/internal/net"
	"github.com/arenashooter/arena/internal/net/packet"
	"github.com/arenashooter/arena/internal/persist"
	"github.com/arenashooter/arena/internal/scripting"
	"github.com/arenashooter/arena/internal/system"
	"github.com/arenashooter/arena/internal/world"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner(name string) {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m               arena  v0.1.0               \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1mserver:\033[0m %s\n\n", name)
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

// ── Main server logic ─────────────────────────────────────────────

func run() error {
	// 1. Load config
	cfgPath := "config/arena.toml"
	if p := os.Getenv("ARENA_CONFIG"); p != "" {
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

	printBanner(cfg.Server.Name)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 3. Load data
	printSection("data")

	cat, err := data.LoadCatalog(cfg.Data.ObjectsFile)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	printStat("object configs", cat.Count())

	m, err := data.LoadMap(cfg.Data.MapFile)
	if err != nil {
		return fmt.Errorf("load map: %w", err)
	}
	printStat("map placements", len(m.Objects)+1)

	engine, err := scripting.NewEngine(cfg.Data.ScriptsDir, log)
	if err != nil {
		return fmt.Errorf("scripting: %w", err)
	}
	defer engine.Close()
	if err := checkScripts(cat, engine); err != nil {
		return fmt.Errorf("scripting: %w", err)
	}
	printOK("AI scripts loaded")
	fmt.Println()

	// 4. Build the world. The AI controller attaches before placements spawn.
	seed := cfg.Sim.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	opts := world.Options{
		CellSize:       cfg.Sim.CellSize,
		WindowWidth:    cfg.Viewport.WindowWidth,
		WindowHeight:   cfg.Viewport.WindowHeight,
		WindowExt:      cfg.Viewport.WindowExtSize,
		MaxCollideSpan: cfg.Sim.MaxCollideSpan,
		Seed:           seed,
	}
	w, err := world.NewForMap(m, cat, opts, event.NewBus(), log)
	if err != nil {
		return fmt.Errorf("world: %w", err)
	}
	ctl := ai.NewController(w, engine, log)
	if err := w.Populate(m); err != nil {
		return fmt.Errorf("world: %w", err)
	}

	reg := packet.NewRegistry(log)
	handler.RegisterAll(reg, &handler.Deps{World: w, Log: log})

	// 5. Optional result storage
	var results *persist.ResultRepo
	if cfg.Database.DSN != "" {
		printSection("database")
		dbCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		db, err := persist.NewDB(dbCtx, cfg.Database, log)
		if err != nil {
			cancel()
			return fmt.Errorf("database: %w", err)
		}
		defer db.Close()
		printOK("PostgreSQL connected")

		_, err = persist.RunMigrations(dbCtx, db)
		cancel()
		if err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
		printOK("migrations applied")
		fmt.Println()
		results = persist.NewResultRepo(db)
	}

	// 6. Optional spectator feed
	var (
		feed system.Broadcaster
		srv  *gonet.Server
		cmds <-chan packet.Command
	)
	if cfg.Feed.BindAddress != "" {
		srv, err = gonet.NewServer(cfg.Feed.BindAddress, gonet.Options{
			SendQueue:      cfg.Feed.SendQueue,
			WriteTimeout:   cfg.Feed.WriteTimeout.Duration,
			MaxClients:     cfg.Feed.MaxClients,
			CommandsPerSec: cfg.Feed.CommandsPerSec,
		}, log)
		if err != nil {
			return fmt.Errorf("feed: %w", err)
		}
		feed = srv
		cmds = srv.Commands()
	}

	// 7. Create systems and register with runner
	outcome := system.NewOutcomeSystem(w, log)
	runner := coresys.NewRunner()
	runner.Register(system.NewInputSystem(cmds, reg, cfg.Feed.MaxCommandsPerTick, log))
	runner.Register(system.NewEventSystem(w.Bus))
	runner.Register(outcome)
	runner.Register(system.NewAISystem(w, ctl))
	runner.Register(system.NewMovementSystem(w, ctl))
	runner.Register(system.NewPlayoutSystem(w))
	runner.Register(system.NewOutputSystem(w, feed, log))
	runner.Register(system.NewCleanupSystem(w))

	// 8. Start game loop
	printSection("ready")
	if srv != nil {
		printReady(fmt.Sprintf("feed on ws://%s/ws", srv.Addr().String()))
	}
	printReady(fmt.Sprintf("game loop (tick: %s, match: %s)", cfg.Sim.TickRate.Duration, outcome.Match()))
	fmt.Println()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	if srv != nil {
		g.Go(srv.Serve)
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	g.Go(func() error {
		defer cancel()
		return gameLoop(gctx, runner, outcome, results, cfg.Sim, log)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("server stopped")
	return nil
}

// gameLoop ticks the runner until the match ends, max_ticks is reached or
// ctx is cancelled.
func gameLoop(ctx context.Context, runner *coresys.Runner, outcome *system.OutcomeSystem, results *persist.ResultRepo, cfg config.SimConfig, log *zap.Logger) error {
	dt := cfg.TickRate.Duration
	ticker := time.NewTicker(dt)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("shutdown requested", zap.Uint64("ticks", runner.Ticks()))
			return nil
		case <-ticker.C:
			runner.Tick(dt)
		}

		select {
		case ev := <-outcome.Done():
			return saveResult(results, ev, log)
		default:
		}

		if cfg.MaxTicks > 0 && runner.Ticks() >= cfg.MaxTicks {
			log.Info("tick limit reached", zap.Uint64("ticks", runner.Ticks()))
			return nil
		}
	}
}

func saveResult(results *persist.ResultRepo, ev event.MatchEnded, log *zap.Logger) error {
	if results == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := results.Save(ctx, ev); err != nil {
		return fmt.Errorf("save match %s: %w", ev.Match, err)
	}
	log.Info("match result saved", zap.String("match", ev.Match.String()))
	return nil
}

// checkScripts verifies every scripted AI config names a loaded function.
func checkScripts(cat *data.Catalog, engine *scripting.Engine) error {
	var errs error
	for ref := 0; ref < cat.Count(); ref++ {
		cfg := cat.Get(ref)
		if cfg.AI == nil || cfg.AI.Kind != data.AIScripted {
			continue
		}
		if !engine.Has(cfg.AI.Script) {
			errs = multierr.Append(errs, fmt.Errorf("object %q: %s: %w", cfg.Name, cfg.AI.Script, scripting.ErrNoFunction))
		}
	}
	return errs
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
