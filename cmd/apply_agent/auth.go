package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/apply-assistant/internal/api"
	"github.com/jonathan/apply-assistant/internal/session"
)

var (
	authEmail    string
	authPassword string
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check that the backend is reachable",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		h, err := a.client.Health(cmd.Context())
		if err != nil {
			return fmt.Errorf("backend at %s is not reachable: %s", a.client.BaseURL(), api.Message(err, "health check failed"))
		}
		_, _ = fmt.Fprintf(a.out, "%s: %s (%s)\n", a.client.BaseURL(), h.Status, h.Service)
		return nil
	},
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		email, password, err := credentials(a)
		if err != nil {
			return err
		}
		user, err := a.session.Register(cmd.Context(), email, password)
		if err != nil {
			return errors.New(api.Message(err, "Registration failed"))
		}
		_, _ = fmt.Fprintf(a.out, "Account created for %s. Run `apply_agent login` to sign in.\n", user.Email)
		return nil
	},
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and store the credential in the system keyring",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		email, password, err := credentials(a)
		if err != nil {
			return err
		}
		user, err := a.session.Login(cmd.Context(), email, password)
		if err != nil {
			return errors.New(api.Message(err, "Login failed"))
		}
		_, _ = fmt.Fprintf(a.out, "Logged in as %s\n", user.Email)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored credential",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		a.session.Logout()
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in identity",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		if err := a.requireSession(cmd.Context(), session.RouteHome); err != nil {
			return err
		}
		user := a.session.State().Identity
		_, _ = fmt.Fprintf(a.out, "%s (%s)\n", user.Email, user.ID)
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{registerCmd, loginCmd} {
		c.Flags().StringVar(&authEmail, "email", "", "Account email (prompted if omitted)")
		c.Flags().StringVar(&authPassword, "password", "", "Account password (prompted if omitted)")
	}
	rootCmd.AddCommand(healthCmd, registerCmd, loginCmd, logoutCmd, whoamiCmd)
}

// credentials returns the email and password from flags, prompting for what is missing.
func credentials(a *app) (string, string, error) {
	email, password := authEmail, authPassword
	var err error
	if email == "" {
		if email, err = a.prompt("Email"); err != nil {
			return "", "", err
		}
	}
	if password == "" {
		if password, err = a.prompt("Password"); err != nil {
			return "", "", err
		}
	}
	return email, password, nil
}
