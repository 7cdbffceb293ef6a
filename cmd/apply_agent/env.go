package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/apply-assistant/internal/api"
	"github.com/jonathan/apply-assistant/internal/config"
	"github.com/jonathan/apply-assistant/internal/db"
	"github.com/jonathan/apply-assistant/internal/ledger"
	"github.com/jonathan/apply-assistant/internal/logging"
	"github.com/jonathan/apply-assistant/internal/observability"
	"github.com/jonathan/apply-assistant/internal/pipeline"
	"github.com/jonathan/apply-assistant/internal/profile"
	"github.com/jonathan/apply-assistant/internal/session"
)

var errNotLoggedIn = errors.New("not logged in; run `apply_agent login` first")

// resolveConfig layers the config file, APPLY_* variables and explicitly set flags, then applies defaults.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	var cfg config.Config
	if rootConfigPath != "" {
		loaded, err := config.LoadConfig(rootConfigPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = *loaded
	}

	env, err := config.FromEnv()
	if err != nil {
		return nil, err
	}
	cfg = cfg.Overlay(*env)

	// Only override if the flag was explicitly set
	flags := cmd.Flags()
	if flags.Changed("api-url") {
		cfg.APIURL = rootAPIURL
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = rootLogLevel
	}
	if flags.Changed("db-url") {
		cfg.DatabaseURL = rootDatabaseURL
	}
	if flags.Changed("data-dir") {
		cfg.DataDir = rootDataDir
	}
	if flags.Changed("verbose") {
		cfg.Verbose = rootVerbose
	}
	if cfg.Verbose && cfg.LogLevel == "" {
		cfg.LogLevel = "debug"
	}

	cfg = cfg.MergeWithDefaults(config.Defaults())
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// app holds the collaborators shared by the commands.
type app struct {
	cfg      *config.Config
	client   *api.Client
	session  *session.Controller
	profiles *profile.Provider
	ledger   *ledger.Sync
	printer  *observability.Printer
	out      io.Writer
	errOut   io.Writer
	in       *bufio.Reader
	log      *zap.SugaredLogger

	closers []func()
}

func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return nil, err
	}

	_, restore, err := logging.Install(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	client, err := api.New(api.Options{
		BaseURL:           cfg.APIURL,
		Timeout:           cfg.Timeout(),
		RequestsPerSecond: cfg.RequestsPerSecond,
		Burst:             cfg.Burst,
	})
	if err != nil {
		restore()
		return nil, err
	}

	a := &app{
		cfg:     cfg,
		client:  client,
		out:     cmd.OutOrStdout(),
		errOut:  cmd.ErrOrStderr(),
		in:      bufio.NewReader(cmd.InOrStdin()),
		log:     zap.S().Named("cli"),
		closers: []func(){restore},
	}
	a.printer = observability.NewPrinter(a.out)

	nav := session.NavigatorFunc(func(route session.Route) {
		if route == session.RouteLogin {
			fmt.Fprintln(a.errOut, "Signed out. Run `apply_agent login` to sign in again.") //nolint:errcheck
		}
	})
	a.session = session.NewController(client, session.NewKeyringStore(cfg.KeyringService), nav)
	client.SetTokenSource(a.session)
	client.OnUnauthorized(a.session.HandleUnauthorized)

	a.profiles = profile.NewProvider(client)
	a.ledger = ledger.New(client)
	return a, nil
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// requireSession restores the persisted credential and applies the route guard.
func (a *app) requireSession(ctx context.Context, route session.Route) error {
	a.session.Initialize(ctx)
	switch a.session.Guard(route) {
	case session.Allow:
		return nil
	case session.RedirectLogin:
		return errNotLoggedIn
	default:
		return fmt.Errorf("session not ready for %s", route)
	}
}

// journal opens the local run journal when a database is configured. A nil
// journal is valid: runs are then not recorded locally.
func (a *app) journal(ctx context.Context) pipeline.Journal {
	if a.cfg.DatabaseURL == "" {
		return nil
	}
	database, err := db.Connect(ctx, a.cfg.DatabaseURL)
	if err != nil {
		a.log.Warnw("run journal unavailable", "error", err)
		return nil
	}
	a.closers = append(a.closers, database.Close)
	return database
}

// confirm asks a yes/no question and defaults to no.
func (a *app) confirm(prompt string) bool {
	fmt.Fprintf(a.out, "%s [y/N]: ", prompt) //nolint:errcheck
	line, err := a.in.ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

// prompt reads one line of input.
func (a *app) prompt(label string) (string, error) {
	fmt.Fprintf(a.out, "%s: ", label) //nolint:errcheck
	line, err := a.in.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read %s: %w", strings.ToLower(label), err)
	}
	return strings.TrimSpace(line), nil
}

// progressWriter prints progress events; fillability events arrive from a background goroutine.
func progressWriter(w io.Writer) pipeline.ProgressCallback {
	var mu sync.Mutex
	return func(e pipeline.ProgressEvent) {
		if e.Message == "" {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintf(w, "→ [%s] %s\n", e.Step, e.Message) //nolint:errcheck
	}
}
