// Package cli provides the command-line interface for the order bridge.
package cli

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"brokerbridge/internal/broker"
	"brokerbridge/internal/config"
	"brokerbridge/internal/engine"
	"brokerbridge/internal/journal"
	"brokerbridge/internal/logging"
	"brokerbridge/internal/models"
)

// Version information
const (
	Version = "0.1.0"
)

// App holds the application dependencies.
type App struct {
	Config   *config.Config
	Logger   zerolog.Logger
	Registry *broker.Registry
	Switcher *broker.Switcher
	Router   *engine.StrategyRouter
	Failover *engine.FailoverController
	Journal  *journal.Journal
}

// NewApp wires the broker adapters, registry, switcher, engine and
// journal from configuration.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	app := &App{Config: cfg, Logger: logger}

	app.Registry = broker.NewRegistry(
		broker.NewZerodhaAdapter(cfg.BrokerCredentials(models.BrokerZerodha)),
		broker.NewFyersAdapter(cfg.BrokerCredentials(models.BrokerFyers)),
		broker.NewStoxkartAdapter(cfg.BrokerCredentials(models.BrokerStoxkart)),
	)

	active, _ := models.ParseBrokerID(cfg.Trading.DefaultBroker)
	app.Switcher = broker.NewSwitcher(app.Registry, active, cfg.PriorityList())

	app.Router = engine.NewStrategyRouter(models.ProductType(cfg.Trading.DefaultProduct))
	execEngine := engine.NewExecutionEngine(app.Registry, logger)
	app.Failover = engine.NewFailoverController(execEngine, logger)

	jrnl, err := journal.New(cfg.Journal.DBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to open trade journal, journaling disabled")
	} else {
		app.Journal = jrnl
		logger.Debug().Str("path", cfg.Journal.DBPath).Msg("Trade journal opened")
	}

	return app
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	app := NewApp(cfg, logger)

	rootCmd := &cobra.Command{
		Use:   "brokerbridge",
		Short: "Multi-broker order bridge for Indian options trading",
		Long: `Brokerbridge routes option orders and multi-leg strategies across
Zerodha, Fyers and Stoxkart with automatic broker failover.

Use 'brokerbridge serve' to start the HTTP API.
Use 'brokerbridge help <command>' for more information about a command.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				logging.SetDebugLevel()
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}
			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/brokerbridge)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newServeCmd(app))
	rootCmd.AddCommand(newStatusCmd(app))
	rootCmd.AddCommand(newTOTPCmd(app))
	rootCmd.AddCommand(newJournalCmd(app))

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{"version": Version})
			} else {
				output.Printf("brokerbridge v%s\n", Version)
			}
		},
	}
}
