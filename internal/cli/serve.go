package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"brokerbridge/internal/api"
)

// newServeCmd creates the serve command that runs the HTTP API.
func newServeCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP order bridge server",
		Long: `Start the HTTP server exposing broker management, order execution,
webhooks and the trade journal.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, _ := cmd.Flags().GetString("addr")
			if addr != "" {
				app.Config.Server.Addr = addr
			}

			srv := api.NewServer(app.Config, app.Logger, app.Registry, app.Switcher, app.Router, app.Failover, app.Journal)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if app.Journal != nil {
				defer app.Journal.Close()
			}
			return srv.ListenAndServe(ctx)
		},
	}

	cmd.Flags().String("addr", "", "listen address (default from config, e.g. :8080)")
	return cmd
}
