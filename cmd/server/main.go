package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/voltmark/intraday/internal/auth"
	"github.com/voltmark/intraday/internal/database"
	"github.com/voltmark/intraday/internal/sim"
	"github.com/voltmark/intraday/internal/store"
	"github.com/voltmark/intraday/internal/types"
	"github.com/voltmark/intraday/pkg/middleware"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// init configures the application logging based on environment settings
// Debug logging can be enabled via DEBUG environment variable
func init() {
	if os.Getenv("ENV") != "production" {
		output := zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}
		zlog.Logger = zerolog.New(output).With().Timestamp().Logger()
	}

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if os.Getenv("DEBUG") == "true" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
}

// main runs the results API: queries over persisted runs plus a live trade
// stream fed by a continuously repeating background simulation.
func main() {
	dbPath := getEnv("DB_PATH", "intraday.db")
	db, err := database.NewDatabase(dbPath)
	if err != nil {
		zlog.Fatal().Err(err).Msg("Failed to initialize database")
	}

	router := gin.Default()

	authService := auth.NewService(getEnv("JWT_SECRET", "intraday-secret-key"))
	authHandlers := auth.NewGinHandlers(authService)
	authService.RegisterAPICredentials(
		getEnv("API_KEY", "demo-api-key"),
		getEnv("API_SECRET", "demo-api-secret"),
	)

	resultsStore := store.NewStore(db)
	storeHandlers := store.NewGinHandlers(resultsStore)

	liveHub := sim.NewHub[types.Trade]()
	liveCtx, liveCancel := context.WithCancel(context.Background())
	defer liveCancel()

	if getEnv("LIVE", "true") == "true" {
		go runLiveSimulations(liveCtx, resultsStore, liveHub)
	}

	router.Use(middleware.RateLimit())

	setupRoutes(router, authService, authHandlers, storeHandlers, liveHub)

	port := getEnv("PORT", "8080")
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal().Err(err).Msg("listen")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zlog.Info().Msg("Shutting down server...")
	liveCancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	zlog.Info().Msg("Server exiting")
}

// setupRoutes configures all API endpoints and their handlers:
// - Auth routes: public endpoints for token generation
// - Run routes: persisted results, protected by JWT authentication
// - Stream routes: live trade websocket, protected by JWT authentication
func setupRoutes(
	router *gin.Engine,
	authService *auth.Service,
	authHandlers *auth.GinHandlers,
	storeHandlers *store.GinHandlers,
	liveHub *sim.Hub[types.Trade],
) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")
	{
		authRoutes := v1.Group("/auth")
		{
			authRoutes.POST("/token", authHandlers.GenerateTokenHandler())
		}

		runs := v1.Group("/runs")
		runs.Use(middleware.JWTAuth(authService.Secret()))
		{
			runs.GET("", storeHandlers.ListRunsHandler())
			runs.GET("/:run_id", storeHandlers.GetRunHandler())
			runs.GET("/:run_id/trades", storeHandlers.GetTradesHandler())
			runs.GET("/:run_id/settlements", storeHandlers.GetSettlementsHandler())
			runs.GET("/:run_id/products", storeHandlers.GetProductsHandler())
		}

		stream := v1.Group("/stream")
		stream.Use(middleware.JWTAuth(authService.Secret()))
		{
			stream.GET("/trades", tradeStreamHandler(liveHub))
		}
	}
}

// runLiveSimulations runs paced simulations back to back until the context
// is cancelled, bridging their trades onto the shared hub and persisting
// each completed run.
func runLiveSimulations(ctx context.Context, st *store.Store, liveHub *sim.Hub[types.Trade]) {
	seed := parseInt64Env("LIVE_SEED", time.Now().UnixNano())
	tickMS := parseInt64Env("LIVE_TICK_MS", 250)

	for iteration := int64(0); ctx.Err() == nil; iteration++ {
		runID := uuid.New().String()
		logger := zlog.With().Str("run_id", runID).Logger()

		scenario := sim.DefaultScenario(seed + iteration)
		op, engine, traders, steps, err := scenario.Build(logger)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to build live scenario")
			return
		}

		cfg := sim.Config{
			RunID:        runID,
			Seed:         scenario.Seed,
			Steps:        steps,
			TickInterval: time.Duration(tickMS) * time.Millisecond,
		}
		simulation, err := sim.New(cfg, op, engine, traders, logger)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to build live simulation")
			return
		}

		sub := simulation.TradeHub().Subscribe(256)
		go func() {
			for trade := range sub.C() {
				liveHub.Broadcast(trade)
			}
		}()

		startedAt := time.Now()
		summary, err := simulation.Run(ctx)
		simulation.TradeHub().Unsubscribe(sub)
		if err != nil {
			logger.Info().Err(err).Msg("Live simulation stopped")
			return
		}

		if err := sim.Persist(st, cfg, summary, op.Products(), len(traders), startedAt, time.Now()); err != nil {
			logger.Error().Err(err).Msg("Failed to persist live run")
			return
		}
		logger.Info().Int("trades", len(summary.Trades)).Msg("Live run persisted")
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func parseInt64Env(key string, fallback int64) int64 {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fallback
	}
	return value
}
