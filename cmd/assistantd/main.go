// assistantd is the travel assistant backend: it accepts chat messages,
// resolves them on a worker pool and serves task status polling.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/ascendtravel/concierge/internal/assistant"
	"github.com/ascendtravel/concierge/internal/config"
	"github.com/ascendtravel/concierge/internal/handlers"
	"github.com/ascendtravel/concierge/internal/infrastructure/amadeus"
	"github.com/ascendtravel/concierge/internal/infrastructure/openai"
	"github.com/ascendtravel/concierge/internal/infrastructure/redis"
	"github.com/ascendtravel/concierge/internal/infrastructure/tavily"
	"github.com/ascendtravel/concierge/internal/middleware"
	"github.com/ascendtravel/concierge/internal/tasks"
	"github.com/ascendtravel/concierge/pkg/ratelimit"
)

var rootCmd = &cobra.Command{
	Use:   "assistantd",
	Short: "Astra travel assistant backend",
	Long:  "assistantd serves the chat submission and task status polling API used by the concierge widget.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return run()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found, using environment variables")
	}

	zerolog.SetGlobalLevel(config.GetLogLevel())
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	openAIService := openai.NewService()
	if openAIService == nil {
		return errors.New("OPENAI_KEY is required")
	}

	amadeusService := amadeus.NewService()
	if amadeusService == nil {
		log.Warn().Msg("Amadeus not configured, flight search disabled")
	}
	tavilyService := tavily.NewService()
	if tavilyService == nil {
		log.Warn().Msg("Tavily not configured, web search disabled")
	}

	agent, err := assistant.NewService(openAIService, assistant.NewToolExecutor(amadeusService, tavilyService))
	if err != nil {
		return err
	}

	store := tasks.NewStore(redis.NewService())
	queue := tasks.NewQueue(store, agent, config.GetWorkerCount(), config.GetTaskTimeout())
	queue.Start()
	defer queue.Stop()

	var limiter *ratelimit.Limiter
	if maxHits := config.GetChatRateLimit(); maxHits > 0 {
		limiter = ratelimit.NewLimiter(time.Minute, maxHits)
	}

	router := handlers.NewRouter(queue, store, limiter)
	handler := middleware.CORS(config.GetAllowedOrigins())(router)

	srv := &http.Server{
		Addr:         ":" + config.GetServerPort(),
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("assistantd listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	log.Info().Msg("Server stopped")
	return nil
}
