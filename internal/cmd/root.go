// Package cmd wires the sessionizer CLI. The root command is the whole
// surface: positional arguments are extra search directories (a `--`
// terminator forces flag-looking tokens to be treated as directories) and
// --validate switches to a dry-run configuration report.
package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Iron-Ham/sessionizer/internal/config"
	"github.com/Iron-Ham/sessionizer/internal/errors"
	"github.com/Iron-Ham/sessionizer/internal/index"
	"github.com/Iron-Ham/sessionizer/internal/logging"
	"github.com/Iron-Ham/sessionizer/internal/orchestrator"
	"github.com/Iron-Ham/sessionizer/internal/picker"
	"github.com/Iron-Ham/sessionizer/internal/tmux"
	"github.com/Iron-Ham/sessionizer/internal/ui"
)

// Version is stamped at build time via -ldflags.
var Version = "dev"

var (
	flagVersion  bool
	flagValidate bool
)

var rootCmd = &cobra.Command{
	Use:   "sessionizer [flags] [--] [directory...]",
	Short: "Map a project directory to a uniquely named tmux session",
	Long: `Sessionizer resolves a set of search directories, lets you pick a project
with fzf, derives a unique tmux session name for it, and creates or
reattaches the session rooted there.

Positional arguments override all other directory sources (the
SESSIONIZER_SEARCH_DIRS environment variable, the directories config
file, and the built-in defaults).`,
	Args:          cobra.ArbitraryArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

// Execute runs the root command and returns the error for exit-code mapping.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.Flags().BoolVarP(&flagVersion, "version", "v", false, "print version and exit")
	rootCmd.Flags().BoolVar(&flagValidate, "validate", false, "validate configuration and report issues without starting a session")

	// Unknown flags are usage errors, not general failures.
	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return errors.NewUsageError("invalid usage", err)
	})
}

func initConfig() {
	config.SetDefaults()

	viper.SetConfigFile(config.SettingsFile())
	viper.SetConfigType("yaml")

	viper.AutomaticEnv()
	viper.SetEnvPrefix("SESSIONIZER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Missing settings file is fine; defaults cover everything.
	_ = viper.ReadInConfig()
}

func run(cmd *cobra.Command, args []string) error {
	if flagVersion {
		fmt.Fprintf(cmd.OutOrStdout(), "sessionizer %s\n", Version)
		return nil
	}

	settings := config.GetSettings()

	logger, err := newLogger(settings)
	if err != nil {
		return errors.Wrap(err, "failed to initialize logging")
	}
	defer func() { _ = logger.Close() }()

	// Cobra stops flag parsing at a `--` terminator, so tokens after it
	// land in args even when they look like flags. Every positional
	// argument is a search directory.
	dirs := args

	if flagValidate {
		return runValidate(dirs, logger)
	}

	return runSession(cmd.Context(), dirs, settings, logger)
}

func newLogger(settings *config.Settings) (*logging.Logger, error) {
	if !settings.Logging.Enabled {
		return logging.NopLogger(), nil
	}
	level := logging.ParseLevel(settings.Logging.Level)
	if !strings.EqualFold(level, settings.Logging.Level) {
		ui.Warn("unknown log level %q, using %s (valid: %s)",
			settings.Logging.Level, level, strings.Join(logging.ValidLevels(), ", "))
	}
	return logging.NewLogger(settings.Logging.File, level)
}

func runValidate(dirs []string, logger *logging.Logger) error {
	report := config.Validate(dirs, config.ListFile(), config.DefaultSearchDirs(), logger)
	fmt.Fprint(ui.Out, ui.ValidationReport(report.Source.String(), report.Resolved, report.Issues.Strings()))
	ui.DimMsg("directories file: %s", config.ListFile())
	ui.DimMsg("settings file: %s", config.SettingsFile())
	ui.BlankLine()
	if len(report.Issues) > 0 {
		return errors.NewConfigError("configuration validation failed", report.Issues).
			WithSource(report.Source.String())
	}
	ui.Success("configuration OK")
	return nil
}

func runSession(ctx context.Context, dirs []string, settings *config.Settings, logger *logging.Logger) error {
	backend, err := tmux.NewClient(logger.WithSource("tmux"))
	if err != nil {
		return err
	}
	if err := backend.EnsureAvailable(ctx); err != nil {
		return err
	}

	pick, err := picker.New(picker.Options{
		Height:  settings.Picker.Height,
		Preview: settings.Picker.Preview,
	}, logger.WithSource("fzf"))
	if err != nil {
		return err
	}

	discovery, err := index.NewExecBackend()
	if err != nil {
		return err
	}

	orch := orchestrator.New(orchestrator.Options{
		CLIArgs:      dirs,
		ListFile:     config.ListFile(),
		Defaults:     config.DefaultSearchDirs(),
		TemplatesDir: settings.Templates.ResolveTemplatesDir(),
		Indexer:      index.NewIndexer(discovery, settings.Scan.ScanTimeout(), logger.WithStage("indexing")),
		Picker:       pick,
		Backend:      backend,
		Logger:       logger,
	})
	return orch.Run(ctx)
}
