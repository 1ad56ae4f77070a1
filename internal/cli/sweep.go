package cli

import (
	"os"

	"github.com/spf13/cobra"
)

func init() {
	RootCmd.AddCommand(&cobra.Command{
		Use:   "sweep",
		Short: "Deliver due reminders and maybe send a proactive opener, once",
		Long:  "Runs a single scheduler pass, the same one GET /api/cron triggers, and prints its summary as JSON.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(cmd.Context(), os.Stderr)
			if err != nil {
				return err
			}
			defer app.Close()

			res, err := app.Sweeper.Sweep(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	})
}
