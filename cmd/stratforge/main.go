package main

import (
	"context"
	"fmt"
	"log"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/stratforge-lab/stratforge/internal/engine"
	"github.com/stratforge-lab/stratforge/internal/logger"
	"github.com/stratforge-lab/stratforge/internal/market"
	"github.com/stratforge-lab/stratforge/internal/sim"
	"github.com/stratforge-lab/stratforge/internal/store"
	"github.com/stratforge-lab/stratforge/internal/strategy"
	"github.com/stratforge-lab/stratforge/internal/types"
	"github.com/stratforge-lab/stratforge/pkg/errors"
)

// sessionSpec is one entry of the run config's session list.
type sessionSpec struct {
	ID                      string          `yaml:"id" validate:"required"`
	Profile                 string          `yaml:"profile" validate:"required"`
	Symbol                  string          `yaml:"symbol" validate:"required"`
	Timeframe               types.Timeframe `yaml:"timeframe" validate:"required"`
	StartMs                 int64           `yaml:"start_ms" validate:"required,gt=0"`
	TargetMonthlyDriftBps   float64         `yaml:"target_monthly_drift_bps"`
	EquitySnapshotEveryBars int64           `yaml:"equity_snapshot_every_bars" validate:"gt=0"`
	MinCandles              int             `yaml:"min_candles" validate:"gte=0"`
}

// runConfig is the YAML file consumed by the run command. TickInterval
// uses Go duration syntax, e.g. "1s" or "500ms".
type runConfig struct {
	Database     string        `yaml:"database" validate:"required"`
	Data         string        `yaml:"data" validate:"required"`
	TickInterval string        `yaml:"tick_interval"`
	Engine       engine.Config `yaml:"engine"`
	Sessions     []sessionSpec `yaml:"sessions" validate:"required,min=1,dive"`
}

func loadRunConfig(path string) (runConfig, time.Duration, error) {
	cfg := runConfig{
		TickInterval: "1s",
		Engine:       engine.DefaultConfig(),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return runConfig{}, 0, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to read run config %s", path)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return runConfig{}, 0, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to parse run config %s", path)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return runConfig{}, 0, errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid run config", err)
	}

	if err := cfg.Engine.Validate(); err != nil {
		return runConfig{}, 0, err
	}

	tickInterval, err := time.ParseDuration(cfg.TickInterval)
	if err != nil || tickInterval <= 0 {
		return runConfig{}, 0, errors.Newf(errors.ErrCodeInvalidConfiguration, "invalid tick interval %q", cfg.TickInterval)
	}

	return cfg, tickInterval, nil
}

func runAction(ctx context.Context, cmd *cli.Command) error {
	cfg, tickInterval, err := loadRunConfig(cmd.String("config"))
	if err != nil {
		return err
	}

	logg, err := logger.NewLogger()
	if err != nil {
		return err
	}

	st, err := store.NewDuckDBStore(cfg.Database, logg)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.Initialize(); err != nil {
		return err
	}

	provider, err := market.NewDuckDBProvider(logg)
	if err != nil {
		return err
	}
	defer provider.Close()

	if err := provider.Initialize(cfg.Data); err != nil {
		return err
	}

	runner := sim.NewRunner(st, sim.SystemClock(), logg)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	for _, spec := range cfg.Sessions {
		strat, err := strategy.New(spec.Profile)
		if err != nil {
			return err
		}

		exec, err := engine.NewExecutor(spec.ID, cfg.Engine, strat, logg)
		if err != nil {
			return err
		}

		record := store.StrategyRecord{
			ID:          spec.ID,
			Profile:     spec.Profile,
			Symbol:      spec.Symbol,
			Timeframe:   spec.Timeframe,
			InitialCash: cfg.Engine.InitialCash,
		}
		if err := st.UpsertStrategy(record); err != nil {
			return err
		}

		sessionCfg := sim.SessionConfig{
			Driver: sim.DriverConfig{
				Symbol:                  spec.Symbol,
				Timeframe:               spec.Timeframe,
				StartMs:                 spec.StartMs,
				TargetMonthlyDriftBps:   spec.TargetMonthlyDriftBps,
				EquitySnapshotEveryBars: spec.EquitySnapshotEveryBars,
			},
			TickInterval: tickInterval,
			MinCandles:   spec.MinCandles,
		}

		if err := runner.StartSession(runCtx, spec.ID, sessionCfg, exec, provider); err != nil {
			return err
		}

		fmt.Printf("Session %s started (%s on %s %s)\n", spec.ID, spec.Profile, spec.Symbol, spec.Timeframe)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigChan:
		fmt.Println("\nReceived interrupt signal, stopping...")
	case <-runCtx.Done():
	}

	runner.StopAll()
	fmt.Println("All sessions stopped")

	return nil
}

func replayAction(ctx context.Context, cmd *cli.Command) error {
	strategyID := cmd.String("id")
	profile := cmd.String("profile")
	symbol := cmd.String("symbol")
	timeframe := types.Timeframe(cmd.String("timeframe"))

	cfg := engine.DefaultConfig()
	if path := cmd.String("config"); path != "" {
		var err error
		cfg, err = engine.LoadConfig(path)
		if err != nil {
			return err
		}
	}

	logg, err := logger.NewLogger()
	if err != nil {
		return err
	}

	provider, err := market.NewDuckDBProvider(logg)
	if err != nil {
		return err
	}
	defer provider.Close()

	if err := provider.Initialize(cmd.String("data")); err != nil {
		return err
	}

	batch, err := provider.LoadCandles(ctx, symbol, timeframe, 0, math.MaxInt64)
	if err != nil {
		return err
	}

	if len(batch.Gaps) > 0 {
		g := batch.Gaps[0]

		return errors.Newf(errors.ErrCodeGappedData, "candle data has %d gap(s), first %d..%d", len(batch.Gaps), g.FromMs, g.ToMs)
	}

	if len(batch.Candles) == 0 {
		return errors.New(errors.ErrCodeInsufficientData, "candle data is empty")
	}

	strat, err := strategy.New(profile)
	if err != nil {
		return err
	}

	exec, err := engine.NewExecutor(strategyID, cfg, strat, logg)
	if err != nil {
		return err
	}

	st, err := store.NewDuckDBStore(cmd.String("database"), logg)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.Initialize(); err != nil {
		return err
	}

	record := store.StrategyRecord{
		ID:          strategyID,
		Profile:     profile,
		Symbol:      symbol,
		Timeframe:   timeframe,
		InitialCash: cfg.InitialCash,
	}
	if err := st.UpsertStrategy(record); err != nil {
		return err
	}

	candles := batch.Candles
	bar := progressbar.Default(int64(len(candles)))
	maxDrawdownBps := 0.0

	for i, candle := range candles {
		// The lookahead window is only consumed when the oracle exit is
		// enabled; replay is the one place it is legitimately available.
		end := i + 1 + cfg.Oracle.HorizonBars
		if end > len(candles) {
			end = len(candles)
		}

		events, err := exec.ProcessBar(candle, candles[i+1:end])
		if err != nil {
			return err
		}

		for _, event := range events {
			if err := st.InsertEvent(strategyID, event); err != nil {
				return err
			}

			switch p := event.Payload.(type) {
			case types.TradePayload:
				if err := st.InsertTrade(p.Trade); err != nil {
					return err
				}
			case types.EquityPayload:
				if p.DrawdownBps > maxDrawdownBps {
					maxDrawdownBps = p.DrawdownBps
				}

				if err := st.InsertEquitySnapshot(strategyID, event.Ts, p); err != nil {
					return err
				}
			}
		}

		if err := bar.Add(1); err != nil {
			return err
		}
	}

	state := exec.State()
	report := types.SessionReport{
		StrategyID:   strategyID,
		Profile:      profile,
		Symbol:       symbol,
		Timeframe:    timeframe,
		Bars:         state.BarIndex,
		FinalCash:    state.Cash,
		FinalEquity:  state.Equity,
		PeakEquity:   state.PeakEquity,
		DrawdownBps:  maxDrawdownBps,
		WinRatePct:   state.Stats.WinRatePct(),
		ProfitFactor: state.Stats.ProfitFactor(),
		Stats:        state.Stats,
	}

	if out := cmd.String("out"); out != "" {
		if err := types.WriteSessionReport(out, report); err != nil {
			return err
		}

		fmt.Printf("Report written to %s\n", out)
	}

	if dir := cmd.String("export"); dir != "" {
		if err := st.ExportParquet(dir); err != nil {
			return err
		}

		fmt.Printf("Parquet export written to %s\n", dir)
	}

	fmt.Printf("Replayed %d bars: %d trades, win rate %.1f%%, net PnL %.2f\n",
		state.BarIndex, state.Stats.TotalTrades, report.WinRatePct, state.Stats.NetPnl)

	return nil
}

func schemaAction(ctx context.Context, cmd *cli.Command) error {
	cfg := engine.DefaultConfig()

	schema, err := cfg.GenerateSchemaJSON()
	if err != nil {
		return err
	}

	fmt.Println(schema)

	return nil
}

func main() {
	cmd := &cli.Command{
		Name:  "stratforge",
		Usage: "Deterministic strategy execution and simulation",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Run simulated sessions from a config file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "config",
						Aliases:  []string{"c"},
						Usage:    "Path to the run config YAML",
						Required: true,
					},
				},
				Action: runAction,
			},
			{
				Name:  "replay",
				Usage: "Replay a candle file through one executor",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "data",
						Aliases:  []string{"d"},
						Usage:    "Path to the candle Parquet or CSV file",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "profile",
						Aliases:  []string{"p"},
						Usage:    "Strategy profile slug",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "symbol",
						Usage:    "Symbol the candle data belongs to",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "timeframe",
						Usage: "Candle timeframe (1m, 5m, 15m, 1h, 4h, 1d)",
						Value: string(types.Timeframe1m),
					},
					&cli.StringFlag{
						Name:  "id",
						Usage: "Strategy instance identifier",
						Value: "replay",
					},
					&cli.StringFlag{
						Name:  "config",
						Usage: "Optional engine config YAML",
					},
					&cli.StringFlag{
						Name:  "database",
						Usage: "DuckDB database path for persisted results",
						Value: "replay.db",
					},
					&cli.StringFlag{
						Name:    "out",
						Aliases: []string{"o"},
						Usage:   "Path for the session report YAML",
						Value:   "report.yaml",
					},
					&cli.StringFlag{
						Name:  "export",
						Usage: "Directory for Parquet export, skipped when empty",
					},
				},
				Action: replayAction,
			},
			{
				Name:   "schema",
				Usage:  "Print the engine config JSON schema",
				Action: schemaAction,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
