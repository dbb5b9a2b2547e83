package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// newJournalCmd creates the journal command group.
func newJournalCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Inspect and export the trade journal",
	}
	cmd.AddCommand(newJournalShowCmd(app))
	cmd.AddCommand(newJournalAnalyticsCmd(app))
	cmd.AddCommand(newJournalExportCmd(app))
	return cmd
}

func requireJournal(app *App) error {
	if app.Journal == nil {
		return fmt.Errorf("trade journal unavailable (failed to open %s)", app.Config.Journal.DBPath)
	}
	return nil
}

func newJournalShowCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show recent journaled trades",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireJournal(app); err != nil {
				return err
			}
			output := NewOutput(cmd)
			limit, _ := cmd.Flags().GetInt("limit")

			trades, err := app.Journal.RecentTrades(cmd.Context(), limit)
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(trades)
			}
			if len(trades) == 0 {
				output.Dim("No journaled trades")
				return nil
			}

			table := tablewriter.NewWriter(output.Writer())
			table.SetHeader([]string{"Time", "Broker", "Strategy", "Symbol", "Side", "Qty", "Status", "PnL"})
			for _, t := range trades {
				table.Append([]string{
					t.Timestamp,
					t.Broker,
					t.Strategy,
					t.Symbol,
					t.Side,
					strconv.Itoa(t.Quantity),
					t.Status,
					fmt.Sprintf("%.2f", t.PnL),
				})
			}
			table.Render()
			return nil
		},
	}
	cmd.Flags().Int("limit", 20, "maximum number of trades to show")
	return cmd
}

func newJournalAnalyticsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "analytics",
		Short: "Show trade analytics",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireJournal(app); err != nil {
				return err
			}
			output := NewOutput(cmd)

			analytics, err := app.Journal.Analytics(cmd.Context())
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(analytics)
			}
			output.Printf("Executed trades: %d\n", analytics.ExecutedTrades)
			output.Printf("Accepted trades: %d\n", analytics.AcceptedTrades)
			output.Printf("Win rate:        %.1f%%\n", analytics.WinRate)
			output.Printf("Avg profit:      %.2f\n", analytics.AvgProfit)
			output.Printf("Avg loss:        %.2f\n", analytics.AvgLoss)
			output.Printf("Calls / Puts:    %d / %d\n", analytics.CallTrades, analytics.PutTrades)
			if analytics.NetPnL >= 0 {
				output.Success("Net PnL:         %.2f", analytics.NetPnL)
			} else {
				output.Error("Net PnL:         %.2f", analytics.NetPnL)
			}
			return nil
		},
	}
}

func newJournalExportCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the trade journal as CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireJournal(app); err != nil {
				return err
			}
			output := NewOutput(cmd)
			path, _ := cmd.Flags().GetString("output")

			if path == "" {
				return app.Journal.ExportCSV(cmd.Context(), output.Writer())
			}

			f, err := os.Create(path)
			if err != nil {
				return fmt.Errorf("creating export file: %w", err)
			}
			defer f.Close()
			if err := app.Journal.ExportCSV(cmd.Context(), f); err != nil {
				return err
			}
			output.Success("Journal exported to %s", path)
			return nil
		},
	}
	cmd.Flags().StringP("output", "o", "", "output file (default: stdout)")
	return cmd
}
