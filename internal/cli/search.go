package cli

import (
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search saved notes",
		Long:  "Lists saved notes whose summary contains the query, newest first. Without a query, lists the most recent notes.",
		RunE:  runSearch,
	}

	cmd.Flags().StringP("category", "c", "", "Filter by category")
	cmd.Flags().IntP("limit", "l", 20, "Max results")
	cmd.Flags().Bool("reminders", false, "List pending reminders instead of notes")

	RootCmd.AddCommand(cmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	category, _ := cmd.Flags().GetString("category")
	limit, _ := cmd.Flags().GetInt("limit")
	reminders, _ := cmd.Flags().GetBool("reminders")

	app, err := loadApp(cmd.Context(), os.Stderr)
	if err != nil {
		return err
	}
	defer app.Close()

	if reminders {
		rems, err := app.Memories.UpcomingReminders(cmd.Context(), limit)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), rems)
	}

	mems, err := app.Memories.Search(cmd.Context(), strings.Join(args, " "), category, limit)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), mems)
}
