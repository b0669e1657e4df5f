// concierge is the terminal travel-assistant widget. It talks to an
// assistantd backend over the submit-then-poll chat API.
package main

import (
	"fmt"
	"io"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/ascendtravel/concierge/internal/backend"
	"github.com/ascendtravel/concierge/internal/config"
	"github.com/ascendtravel/concierge/internal/conversation"
	"github.com/ascendtravel/concierge/internal/widget"
)

var (
	baseURL       string
	pollInterval  time.Duration
	plain         bool
	noSuggestions bool
	noForm        bool
)

var defaultSuggestions = []string{
	"Find me flights to Lisbon",
	"Weekend trip ideas",
	"What's on in Tokyo next month?",
}

var rootCmd = &cobra.Command{
	Use:   "concierge",
	Short: "Astra travel assistant chat widget",
	Long:  "concierge opens a terminal chat session with the Astra travel assistant.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return run()
	},
}

func init() {
	rootCmd.Flags().StringVar(&baseURL, "base-url", "", "assistant backend base URL (default from CONCIERGE_BACKEND_URL)")
	rootCmd.Flags().DurationVar(&pollInterval, "poll-interval", 0, "task status poll interval (default from CONCIERGE_POLL_INTERVAL)")
	rootCmd.Flags().BoolVar(&plain, "plain", false, "disable markdown rendering of replies")
	rootCmd.Flags().BoolVar(&noSuggestions, "no-suggestions", false, "start without quick-reply suggestions")
	rootCmd.Flags().BoolVar(&noForm, "no-form", false, "never show the contact form")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setupLogging points zerolog at a file, since the TUI owns the
// terminal. Without a log file, logs are discarded.
func setupLogging() func() {
	path := config.GetWidgetLogFile()
	if path == "" {
		log.Logger = zerolog.New(io.Discard)
		return func() {}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		log.Logger = zerolog.New(io.Discard)
		return func() {}
	}
	zerolog.SetGlobalLevel(config.GetLogLevel())
	log.Logger = zerolog.New(f).With().Timestamp().Logger()
	return func() { _ = f.Close() }
}

func run() error {
	if err := godotenv.Load(); err == nil {
		log.Debug().Msg("Loaded .env")
	}

	closeLog := setupLogging()
	defer closeLog()

	if baseURL == "" {
		baseURL = config.GetBackendBaseURL()
	}
	if pollInterval <= 0 {
		pollInterval = config.GetPollInterval()
	}

	var suggestions []string
	if !noSuggestions {
		suggestions = defaultSuggestions
	}

	feed := widget.NewFeed()
	ctrl := conversation.NewController(backend.NewClient(baseURL), conversation.Options{
		Suggestions:  suggestions,
		EnableForm:   !noForm,
		PollInterval: pollInterval,
		OnUpdate:     feed.Push,
	})
	defer ctrl.Close()

	program := tea.NewProgram(
		widget.NewModel(ctrl, feed, plain),
		tea.WithAltScreen(),
	)
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("widget exited: %w", err)
	}
	return nil
}
