package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/voltmark/intraday/internal/agent"
	"github.com/voltmark/intraday/internal/database"
	"github.com/voltmark/intraday/internal/sim"
	"github.com/voltmark/intraday/internal/store"
)

// init configures the logger for the simulation with pretty printing and timestamp
func init() {
	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}
	log.Logger = zerolog.New(output).With().Timestamp().Logger()

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if os.Getenv("DEBUG") == "true" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
}

func main() {
	var (
		seed       = flag.Int64("seed", 42, "seed for all random sources")
		hours      = flag.Int("hours", 6, "number of delivery hours (quarter-hourly products)")
		dispatch   = flag.Int("dispatch", 8, "number of dispatchable producer agents")
		liquidity  = flag.Int("liquidity", 4, "number of random liquidity agents")
		stochastic = flag.Bool("stochastic-settlement", false, "perturb imbalance prices randomly")
		dbPath     = flag.String("db", "intraday.db", "SQLite database for results, empty to skip persistence")
	)
	flag.Parse()

	runID := uuid.New().String()
	logger := log.With().Str("run_id", runID).Logger()

	scenario := sim.Scenario{
		Seed:             *seed,
		Hours:            *hours,
		DispatchTraders:  *dispatch,
		LiquidityTraders: *liquidity,
		Stochastic:       *stochastic,
	}

	op, engine, traders, steps, err := scenario.Build(logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to build scenario")
	}

	cfg := sim.Config{RunID: runID, Seed: *seed, Steps: steps}
	simulation, err := sim.New(cfg, op, engine, traders, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to build simulation")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Info().
		Int64("seed", *seed).
		Int64("steps", steps).
		Int("products", len(op.Products())).
		Int("agents", len(traders)).
		Msg("Starting simulation")

	startedAt := time.Now()
	summary, err := simulation.Run(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("Simulation failed")
	}
	finishedAt := time.Now()

	printSummary(summary, traders)

	if *dbPath != "" {
		db, err := database.NewDatabase(*dbPath)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to open results database")
		}
		st := store.NewStore(db)
		if err := sim.Persist(st, cfg, summary, op.Products(), len(traders), startedAt, finishedAt); err != nil {
			logger.Fatal().Err(err).Msg("Failed to persist results")
		}
		logger.Info().Str("db", *dbPath).Msg("Results persisted")
	}
}

func printSummary(summary *sim.Summary, traders []agent.Trader) {
	fmt.Println()
	fmt.Println("=== Simulation Summary ===")
	fmt.Printf("Ticks:             %d\n", summary.Steps)
	fmt.Printf("Orders submitted:  %d\n", summary.OrdersSubmitted)
	fmt.Printf("Orders rejected:   %d\n", summary.OrdersRejected)
	fmt.Printf("Orders cancelled:  %d\n", summary.OrdersCancelled)
	fmt.Printf("Trades executed:   %d\n", len(summary.Trades))
	fmt.Printf("Traded volume:     %.2f MWh\n", summary.TradedVolume)
	fmt.Printf("Settlements:       %d\n", len(summary.Settlements))

	var totalCost float64
	for _, r := range summary.Settlements {
		totalCost += r.Cost
	}
	fmt.Printf("Imbalance cost:    %.2f EUR\n", totalCost)

	fmt.Println()
	fmt.Println("=== Agent Results ===")
	for _, tr := range traders {
		pf := tr.Portfolio()
		fmt.Printf("Agent %3d: revenue=%10.2f position=%8.2f imbalance=%8.2f\n",
			tr.ID(), pf.TotalRevenue(), pf.TotalPosition(), pf.TotalImbalance())
	}
	fmt.Println()
}
