package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roach88/iql/internal/logger"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigFile string

	cfg *Config
	log *zap.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// Config loads the configuration on first use.
func (o *RootOptions) Config() (*Config, error) {
	if o.cfg != nil {
		return o.cfg, nil
	}
	cfg, err := LoadConfig(o.ConfigFile)
	if err != nil {
		return nil, err
	}
	o.cfg = cfg
	return cfg, nil
}

// Logger builds the zap logger from the configuration on first use.
// --verbose forces debug level.
func (o *RootOptions) Logger() (*zap.Logger, error) {
	if o.log != nil {
		return o.log, nil
	}
	cfg, err := o.Config()
	if err != nil {
		return nil, err
	}
	level := cfg.Log.Level
	if o.Verbose {
		level = "debug"
	}
	l, err := logger.New(cfg.Log.Env, level)
	if err != nil {
		return nil, err
	}
	o.log = l
	return l, nil
}

// formatter builds the output formatter for cmd.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   o.Verbose,
	}
}

// NewRootCommand creates the root command for the iql CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "iql",
		Short: "IQL - Intermediate Query Language tools",
		Long: `Parse, validate and evaluate IQL queries against operation signatures.

Configuration is read from iql.yaml in the working directory (or --config)
and IQL_* environment variables, e.g. IQL_POLICY=strict or IQL_LOG_LEVEL=debug.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				err := fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
				fmt.Fprintln(cmd.ErrOrStderr(), "Error:", err)
				return WrapExitError(ExitCommandError, "format", err)
			}
			if _, err := opts.Config(); err != nil {
				return opts.formatter(cmd).fail(ErrCodeConfig, "load config", err)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigFile, "config", "", "config file (default ./iql.yaml)")

	cmd.AddCommand(NewParseCommand(opts))
	cmd.AddCommand(NewCheckCommand(opts))
	cmd.AddCommand(NewSignaturesCommand(opts))
	cmd.AddCommand(NewEvalCommand(opts))
	cmd.AddCommand(NewRunsCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
