package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/apply-assistant/internal/api"
	"github.com/jonathan/apply-assistant/internal/ledger"
	"github.com/jonathan/apply-assistant/internal/session"
	"github.com/jonathan/apply-assistant/internal/types"
)

var (
	appsStatusFilter string
	appsForce        bool
)

var applicationsCmd = &cobra.Command{
	Use:     "applications",
	Aliases: []string{"apps"},
	Short:   "List and manage tracked applications",
}

var applicationsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tracked applications",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := ledgerApp(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		apps, err := a.ledger.List(cmd.Context())
		if err != nil {
			return errors.New(api.Message(err, "Failed to load applications"))
		}
		a.printer.PrintApplications(filterByStatus(apps, types.ApplicationStatus(appsStatusFilter)))
		return nil
	},
}

var applicationsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one application",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := ledgerApp(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		app, err := a.ledger.Get(cmd.Context(), args[0])
		if errors.Is(err, api.ErrNotFound) {
			return fmt.Errorf("application %s not found", args[0])
		}
		if err != nil {
			return errors.New(api.Message(err, "Failed to load application"))
		}
		a.printer.PrintApplications([]types.Application{*app})
		return nil
	},
}

var applicationsStatusCmd = &cobra.Command{
	Use:   "status <id> <pending|submitted|completed>",
	Short: "Change the status of an application",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := ledgerApp(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		apps, err := a.ledger.UpdateStatus(cmd.Context(), args[0], types.ApplicationStatus(args[1]))
		var statusErr *ledger.InvalidStatusError
		if errors.As(err, &statusErr) {
			return statusErr
		}
		if err != nil {
			return errors.New(api.Message(err, "Failed to update"))
		}
		a.printer.PrintApplications(apps)
		return nil
	},
}

var applicationsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an application after confirmation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := ledgerApp(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		confirm := ledger.ConfirmFunc(a.confirm)
		if appsForce {
			confirm = func(string) bool { return true }
		}
		apps, err := a.ledger.Delete(cmd.Context(), args[0], confirm)
		if errors.Is(err, ledger.ErrDeclined) {
			_, _ = fmt.Fprintln(a.out, "Not deleted.")
			return nil
		}
		if err != nil {
			return errors.New(api.Message(err, "Failed to delete"))
		}
		a.printer.PrintApplications(apps)
		return nil
	},
}

func init() {
	applicationsListCmd.Flags().StringVar(&appsStatusFilter, "status", "", "Only show applications with this status")
	applicationsDeleteCmd.Flags().BoolVarP(&appsForce, "force", "f", false, "Delete without asking")

	applicationsCmd.AddCommand(applicationsListCmd, applicationsShowCmd, applicationsStatusCmd, applicationsDeleteCmd)
	rootCmd.AddCommand(applicationsCmd)
}

func ledgerApp(cmd *cobra.Command) (*app, error) {
	a, err := newApp(cmd)
	if err != nil {
		return nil, err
	}
	if err := a.requireSession(cmd.Context(), session.RouteApplications); err != nil {
		a.close()
		return nil, err
	}
	return a, nil
}

func filterByStatus(apps []types.Application, status types.ApplicationStatus) []types.Application {
	if status == "" {
		return apps
	}
	var out []types.Application
	for _, a := range apps {
		if a.Status == status {
			out = append(out, a)
		}
	}
	return out
}
