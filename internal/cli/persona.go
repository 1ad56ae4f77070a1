package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "persona",
		Short: "Show or personalize the assistant's persona",
		Long:  "Without examples, prints the persona in effect. With one or more --example texts, rewrites the persona to mimic that writing style and stores it.",
		Args:  cobra.NoArgs,
		RunE:  runPersona,
	}

	cmd.Flags().StringArrayP("example", "e", nil, "Sample of your writing (repeatable)")
	cmd.Flags().String("current", "", "Persona to start from instead of the stored one")

	RootCmd.AddCommand(cmd)
}

func runPersona(cmd *cobra.Command, _ []string) error {
	examples, _ := cmd.Flags().GetStringArray("example")
	current, _ := cmd.Flags().GetString("current")

	app, err := loadApp(cmd.Context(), os.Stderr)
	if err != nil {
		return err
	}
	defer app.Close()

	if len(examples) == 0 {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), app.Persona.Current(cmd.Context()))
		return err
	}

	updated, err := app.Persona.Personalize(cmd.Context(), examples, current)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), updated)
	return err
}
