package main

import (
	"bufio"
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/apply-assistant/internal/config"
	"github.com/jonathan/apply-assistant/internal/pipeline"
)

// flagCommand defines fresh root flags bound to the package variables and parses args.
func flagCommand(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "test"}
	f := cmd.Flags()
	f.StringVar(&rootConfigPath, "config", "", "")
	f.StringVar(&rootAPIURL, "api-url", "", "")
	f.StringVar(&rootLogLevel, "log-level", "", "")
	f.StringVar(&rootDatabaseURL, "db-url", "", "")
	f.StringVar(&rootDataDir, "data-dir", "", "")
	f.BoolVarP(&rootVerbose, "verbose", "v", false, "")
	require.NoError(t, cmd.ParseFlags(args))
	return cmd
}

func clearApplyEnv(t *testing.T) {
	t.Helper()
	for _, kv := range os.Environ() {
		if name, _, _ := strings.Cut(kv, "="); strings.HasPrefix(name, config.EnvPrefix+"_") {
			t.Setenv(name, "")
			require.NoError(t, os.Unsetenv(name))
		}
	}
}

func TestResolveConfig_Defaults(t *testing.T) {
	clearApplyEnv(t)

	cfg, err := resolveConfig(flagCommand(t))
	require.NoError(t, err)

	assert.Equal(t, config.DefaultAPIURL, cfg.APIURL)
	assert.Equal(t, config.DefaultLogLevel, cfg.LogLevel)
	assert.Equal(t, config.DefaultKeyringService, cfg.KeyringService)
	assert.Equal(t, config.DefaultTimeoutSeconds, cfg.TimeoutSeconds)
	assert.NotEmpty(t, cfg.DataDir)
	assert.Empty(t, cfg.DatabaseURL)
}

func TestResolveConfig_Precedence(t *testing.T) {
	clearApplyEnv(t)

	path := filepath.Join(t.TempDir(), "apply.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api_url: http://file.example:1\ntimeout_seconds: 30\nlog_level: warn\n"), 0o600))
	t.Setenv("APPLY_API_URL", "http://env.example:2")
	t.Setenv("APPLY_LOG_LEVEL", "error")

	cfg, err := resolveConfig(flagCommand(t, "--config", path, "--api-url", "http://flag.example:3"))
	require.NoError(t, err)

	assert.Equal(t, "http://flag.example:3", cfg.APIURL, "flag beats env and file")
	assert.Equal(t, "error", cfg.LogLevel, "env beats file")
	assert.Equal(t, 30, cfg.TimeoutSeconds, "file beats defaults")
}

func TestResolveConfig_VerboseImpliesDebug(t *testing.T) {
	clearApplyEnv(t)

	cfg, err := resolveConfig(flagCommand(t, "-v"))
	require.NoError(t, err)
	assert.True(t, cfg.Verbose)
	assert.Equal(t, "debug", cfg.LogLevel)

	cfg, err = resolveConfig(flagCommand(t, "-v", "--log-level", "warn"))
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestResolveConfig_Invalid(t *testing.T) {
	clearApplyEnv(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"bad api url", []string{"--api-url", "ftp://backend"}, "api_url"},
		{"bad db url", []string{"--db-url", "mysql://localhost/x"}, "database_url"},
		{"bad log level", []string{"--log-level", "loud"}, "log_level"},
		{"missing config file", []string{"--config", "does-not-exist.json"}, "failed to load config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := resolveConfig(flagCommand(t, tt.args...))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"yes", true},
		{"n\n", false},
		{"\n", false},
		{"", false},
	}

	for _, tt := range tests {
		var out bytes.Buffer
		a := &app{out: &out, in: bufio.NewReader(strings.NewReader(tt.input))}
		assert.Equal(t, tt.want, a.confirm("Continue?"), "input %q", tt.input)
		assert.Contains(t, out.String(), "Continue? [y/N]")
	}
}

func TestPrompt(t *testing.T) {
	var out bytes.Buffer
	a := &app{out: &out, in: bufio.NewReader(strings.NewReader("  ada@example.com \n"))}

	got, err := a.prompt("Email")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", got)

	_, err = a.prompt("Password")
	assert.Error(t, err)
}

func TestProgressWriter(t *testing.T) {
	var buf bytes.Buffer
	cb := progressWriter(&buf)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cb(pipeline.ProgressEvent{Step: "check_fillable", Message: "Form can be filled"})
		}()
	}
	wg.Wait()
	cb(pipeline.ProgressEvent{Step: "ats_score"})

	assert.Equal(t, 4, strings.Count(buf.String(), "→ [check_fillable] Form can be filled\n"))
	assert.NotContains(t, buf.String(), "ats_score")
}
