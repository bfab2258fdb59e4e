// Package cli implements the adaptsim command line.
package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sprite-ai/adaptsim/internal/adapter"
	"github.com/sprite-ai/adaptsim/internal/config"
	"github.com/sprite-ai/adaptsim/internal/logging"
	"github.com/sprite-ai/adaptsim/internal/registry"
	"github.com/sprite-ai/adaptsim/internal/review"
	"github.com/sprite-ai/adaptsim/internal/session"
)

var (
	cfgFile string
	cfg    = config.Default()
	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "adaptsim",
	Short: "Role and level adapted workplace simulation",
	Long: `adaptsim composes the learner-facing adapters of a workplace
simulation for a role, seniority level and planning tier, and drives the
simulated pull-request review for the learner's submissions.

Configuration is read from --config, then ADAPTSIM_* environment
variables, then flags.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "path to a YAML config file")
	pf.String("log-level", "", "log level: debug, info, warn, error")
	pf.Bool("log-dev", false, "human-readable log output")
	pf.String("registry-dir", "", "directory of <domain>.yaml registry overrides")

	rootCmd.AddCommand(adapterCmd, reviewCmd, checkCmd, serveCmd, versionCmd)
}

// Execute runs the root command.
func Execute() error {
	defer func() { _ = logger.Sync() }()
	return rootCmd.Execute()
}

// ExitError carries a process exit code out of a command.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string { return fmt.Sprintf("exit status %d", e.Code) }

// ExitCode maps an Execute error to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var ee *ExitError
	if errors.As(err, &ee) {
		return ee.Code
	}
	return 1
}

func setup(cmd *cobra.Command, args []string) error {
	c, err := config.LoadFile(cfgFile)
	if err != nil {
		return err
	}
	if err := c.ApplyEnv(); err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		c.Log.Level, _ = flags.GetString("log-level")
	}
	if flags.Changed("log-dev") {
		c.Log.Development, _ = flags.GetBool("log-dev")
	}
	if flags.Changed("registry-dir") {
		c.RegistryDir, _ = flags.GetString("registry-dir")
	}
	if err := c.Validate(); err != nil {
		return err
	}

	l, _, err := logging.New(c.Log.Level, c.Log.Development)
	if err != nil {
		return err
	}
	cfg, logger = c, l
	return nil
}

// loadAdapters builds the adapter service over the embedded registries,
// overlaid with the configured registry directory.
func loadAdapters() (*adapter.Service, error) {
	var (
		cat *registry.Catalog
		err error
	)
	if cfg.RegistryDir != "" {
		cat, err = registry.LoadDir(cfg.RegistryDir)
	} else {
		cat, err = registry.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("loading registries: %w", err)
	}
	return adapter.NewService(cat, logger.Named("adapter"))
}

func newSessions(adapters *adapter.Service) *session.Service {
	return session.NewService(adapters, review.New(), session.NewStore(logger.Named("store")),
		session.WithSeed(cfg.Review.Seed),
		session.WithMaxAnchors(cfg.Review.MaxAnchors),
		session.WithLogger(logger.Named("session")),
	)
}
