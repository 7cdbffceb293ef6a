package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/apply-assistant/internal/api"
	"github.com/jonathan/apply-assistant/internal/profile"
	"github.com/jonathan/apply-assistant/internal/session"
	"github.com/jonathan/apply-assistant/internal/types"
)

var (
	profileName  string
	profileEmail string
	profilePhone string
	profileForce bool
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage the applicant profile used to fill forms",
}

var profileShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the stored profile",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := profileApp(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		prof, err := a.profiles.Get(cmd.Context())
		if errors.Is(err, profile.ErrNoProfile) {
			_, _ = fmt.Fprintln(a.out, "No profile yet. Create one with `apply_agent profile create`.")
			return nil
		}
		if err != nil {
			return errors.New(api.Message(err, "Failed to load profile"))
		}
		a.printer.PrintProfile(prof)
		return nil
	},
}

var profileCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create the profile",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := profileApp(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		prof, err := a.profiles.Create(cmd.Context(), &types.ProfileInput{
			Name:  profileName,
			Email: profileEmail,
			Phone: profilePhone,
		})
		if err != nil {
			return errors.New(api.Message(err, "Failed to create profile"))
		}
		a.printer.PrintProfile(prof)
		return nil
	},
}

var profileUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Change fields of the profile",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := profileApp(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		current, err := a.profiles.Get(cmd.Context())
		if err != nil {
			return errors.New(api.Message(err, "Failed to load profile"))
		}
		in := profileInputFrom(current)
		flags := cmd.Flags()
		if flags.Changed("name") {
			in.Name = profileName
		}
		if flags.Changed("email") {
			in.Email = profileEmail
		}
		if flags.Changed("phone") {
			in.Phone = profilePhone
		}

		prof, err := a.profiles.Update(cmd.Context(), in)
		if err != nil {
			return errors.New(api.Message(err, "Failed to update profile"))
		}
		a.printer.PrintProfile(prof)
		return nil
	},
}

var profileDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete the profile",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := profileApp(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		if !profileForce && !a.confirm("Delete your profile?") {
			_, _ = fmt.Fprintln(a.out, "Not deleted.")
			return nil
		}
		if err := a.profiles.Delete(cmd.Context()); err != nil {
			return errors.New(api.Message(err, "Failed to delete profile"))
		}
		_, _ = fmt.Fprintln(a.out, "Profile deleted.")
		return nil
	},
}

var resumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Manage the resume used for scoring",
}

var resumeUploadCmd = &cobra.Command{
	Use:   "upload <file>",
	Short: "Upload a PDF or DOCX resume",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := profileApp(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		prof, err := a.profiles.UploadResume(cmd.Context(), args[0])
		if errors.Is(err, profile.ErrUnsupportedResume) {
			return err
		}
		if err != nil {
			return errors.New(api.Message(err, "Failed to upload resume"))
		}
		a.printer.PrintProfile(prof)
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{profileCreateCmd, profileUpdateCmd} {
		c.Flags().StringVar(&profileName, "name", "", "Full name")
		c.Flags().StringVar(&profileEmail, "email", "", "Contact email")
		c.Flags().StringVar(&profilePhone, "phone", "", "Contact phone")
	}
	profileDeleteCmd.Flags().BoolVarP(&profileForce, "force", "f", false, "Delete without asking")

	profileCmd.AddCommand(profileShowCmd, profileCreateCmd, profileUpdateCmd, profileDeleteCmd)
	resumeCmd.AddCommand(resumeUploadCmd)
	rootCmd.AddCommand(profileCmd, resumeCmd)
}

func profileApp(cmd *cobra.Command) (*app, error) {
	a, err := newApp(cmd)
	if err != nil {
		return nil, err
	}
	if err := a.requireSession(cmd.Context(), session.RouteProfile); err != nil {
		a.close()
		return nil, err
	}
	return a, nil
}

// profileInputFrom carries the editable fields of prof into an update body.
func profileInputFrom(prof *types.Profile) *types.ProfileInput {
	return &types.ProfileInput{
		Name:           prof.Name,
		Email:          prof.Email,
		Phone:          prof.Phone,
		Address:        prof.Address,
		QuickApplyData: prof.QuickApplyData,
	}
}
