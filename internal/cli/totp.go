package cli

import (
	"github.com/spf13/cobra"

	"brokerbridge/internal/broker"
)

// newTOTPCmd creates the totp command that prints the current 2FA code
// for the Zerodha login flow.
func newTOTPCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "totp",
		Short: "Print the current Zerodha 2FA code",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			code, err := broker.TOTPCode(app.Config.Credentials.Zerodha.TOTPSecret)
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(map[string]string{"code": code})
			}
			output.Println(code)
			return nil
		},
	}
}
