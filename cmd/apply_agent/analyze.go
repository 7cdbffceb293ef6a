package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/apply-assistant/internal/api"
	"github.com/jonathan/apply-assistant/internal/forms"
	"github.com/jonathan/apply-assistant/internal/session"
)

var analyzeStrict bool

var analyzeCmd = &cobra.Command{
	Use:   "analyze <form-url>",
	Short: "Detect the application form on a page without filling it",
	Long: `Asks the backend to detect the form at the URL and prints the normalized field list.
With --strict the payload is also checked against the form structure schema.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		if err := a.requireSession(cmd.Context(), session.RouteHome); err != nil {
			return err
		}

		raw, err := a.client.Analyze(cmd.Context(), args[0])
		if err != nil {
			return errors.New(api.Message(err, "Error analyzing form"))
		}
		if analyzeStrict {
			if err := forms.Validate(raw); err != nil {
				return fmt.Errorf("form structure does not match schema: %w", err)
			}
		}
		fs, err := forms.Decode(raw)
		if err != nil {
			return err
		}

		a.printer.PrintStructure(fs)
		if dups := forms.DuplicateLabels(fs); len(dups) > 0 {
			_, _ = fmt.Fprintf(a.errOut, "warning: labels used by more than one field (the later field wins): %v\n", dups)
		}
		return nil
	},
}

func init() {
	analyzeCmd.Flags().BoolVar(&analyzeStrict, "strict", false, "Validate the payload against the form structure schema")
	rootCmd.AddCommand(analyzeCmd)
}
