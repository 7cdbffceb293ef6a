// Package main provides the command-line entry point for the job application assistant.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "apply_agent",
	Short: "Job application assistant",
	Long: `apply_agent scores your resume against a job posting, detects the application form,
fills it through the automation backend and records the application in your ledger.

Configuration is read from --config (JSON or YAML), then APPLY_* environment variables,
then command-line flags. Later sources win.`,
	SilenceUsage: true,
}

var (
	rootConfigPath  string
	rootAPIURL      string
	rootLogLevel    string
	rootDatabaseURL string
	rootDataDir     string
	rootVerbose     bool
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&rootConfigPath, "config", "", "Path to a JSON or YAML config file")
	flags.StringVar(&rootAPIURL, "api-url", "", "Backend base URL (defaults to http://localhost:8000)")
	flags.StringVar(&rootLogLevel, "log-level", "", "Log level: debug, info, warn, error")
	flags.StringVar(&rootDatabaseURL, "db-url", "", "PostgreSQL URL for the local run journal (optional)")
	flags.StringVar(&rootDataDir, "data-dir", "", "Directory for local state such as the run lock")
	flags.BoolVarP(&rootVerbose, "verbose", "v", false, "Print detailed progress")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
