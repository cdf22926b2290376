package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cory-johannsen/idleparty/internal/automation"
	"github.com/cory-johannsen/idleparty/internal/clock"
	"github.com/cory-johannsen/idleparty/internal/config"
	"github.com/cory-johannsen/idleparty/internal/game/dice"
	"github.com/cory-johannsen/idleparty/internal/game/engine"
	"github.com/cory-johannsen/idleparty/internal/game/eventlog"
	"github.com/cory-johannsen/idleparty/internal/gameloop"
	"github.com/cory-johannsen/idleparty/internal/observability"
	"github.com/cory-johannsen/idleparty/internal/server"
)

var quiet bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the game until interrupted",
	Long: `Run loads the configured save slot (or starts a new game), drives the
party in real time and prints the battle log. Progress is saved periodically,
at checkpoints and on exit.`,
	RunE: runGame,
}

func init() {
	runCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "do not print the battle log")
}

func runGame(cmd *cobra.Command, _ []string) error {
	start := time.Now()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	b, roster, err := loadContent(cfg.Game)
	if err != nil {
		return fmt.Errorf("loading game content: %w", err)
	}

	ctx := cmd.Context()
	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("closing store", zap.Error(err))
		}
	}()

	src := dice.NewCryptoSource()
	if cfg.Game.Seed != 0 {
		src = dice.NewSeededSource(uint64(cfg.Game.Seed))
	}
	clk := clock.New()
	log := eventlog.New(b.LogCap, eventlog.WithClock(clk.Now), eventlog.WithLogger(logger))
	st := gameloop.Load(ctx, store, cfg.Storage.Slot, b, roster, clk.Now(), log, logger)

	opts := []engine.Option{
		engine.WithLogger(logger),
		engine.WithClock(clk),
		engine.WithSource(src),
		engine.WithEventLog(log),
	}
	if cfg.Game.UpgradeScript != "" {
		script, err := automation.LoadFile(cfg.Game.UpgradeScript, cfg.Game.InstructionLimit,
			dice.NewLoggedRoller(src, logger), logger)
		if err != nil {
			return err
		}
		defer script.Close()
		opts = append(opts, engine.WithUpgradeChooser(script))
		logger.Info("upgrade script loaded", zap.String("path", cfg.Game.UpgradeScript))
	}
	eng := engine.New(b, roster, st, opts...)

	lc := server.NewLifecycle(logger)
	if !quiet {
		lc.Add("narrator", narrator(log, cmd.OutOrStdout()))
	}
	lc.Add("gameloop", gameloop.New(eng, store, cfg.Storage.Slot, clk, logger))

	logger.Info("idleparty started",
		zap.Int("stage", st.Stage),
		zap.Int("ngPlus", st.Party.NGPlusLevel),
		zap.Duration("startup", time.Since(start)),
	)
	return lc.Run(ctx)
}

// narrator prints every log entry until ctx ends. Existing entries, such as
// the load message, are printed first.
func narrator(log *eventlog.Log, w io.Writer) server.Service {
	return server.ServiceFunc(func(ctx context.Context) error {
		ch := make(chan eventlog.Entry, 64)
		log.Subscribe(ch)
		defer log.Unsubscribe(ch)
		for _, e := range log.Entries() {
			printEntry(w, e)
		}
		for {
			select {
			case <-ctx.Done():
				return nil
			case e := <-ch:
				printEntry(w, e)
			}
		}
	})
}

func printEntry(w io.Writer, e eventlog.Entry) {
	fmt.Fprintf(w, "%s [%-6s] %s\n", e.Time.Format(time.TimeOnly), e.Kind, e.Text)
}
