package cli

import (
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// newStatusCmd creates the status command showing broker readiness.
func newStatusCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show broker configuration and connection status",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			statuses := app.Registry.Status()
			active := app.Switcher.Active()

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{
					"active":   active,
					"priority": app.Switcher.Priority(),
					"brokers":  statuses,
				})
			}

			table := tablewriter.NewWriter(output.Writer())
			table.SetHeader([]string{"Broker", "Configured", "Connected", "Active"})
			for _, id := range app.Registry.IDs() {
				status := statuses[id]
				activeMark := ""
				if id == active {
					activeMark = "*"
				}
				table.Append([]string{
					string(id),
					yesNo(status.Configured),
					yesNo(status.Connected),
					activeMark,
				})
			}
			table.Render()

			output.Dim("Failover priority: %v", app.Switcher.Priority())
			return nil
		},
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
