package cli

import (
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/morph/internal/catalog"
)

// RootOptions holds settings shared by every command. They are resolved
// from flags, MORPH_* environment variables and morph.yaml before any
// command runs.
type RootOptions struct {
	Verbose   bool
	Format    string // "json" | "text"
	Config    string
	Database  string
	Pipelines string
	Workers   int

	// Registry is the primitive catalog; tests may replace it.
	Registry *catalog.Registry

	logger *slog.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the morph command tree.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{Registry: catalog.Default()}

	cmd := &cobra.Command{
		Use:   "morph",
		Short: "morph - composable pipelines with checked category laws",
		Long: `morph compiles pipelines of primitive stages from CUE, evaluates them,
and checks the category laws (identity, associativity, composition aliases)
against them. Every evaluation and check is recorded in a SQLite run log.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.resolve(cmd)
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, cfgKeyVerbose, "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, cfgKeyFormat, "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Config, "config", "", "config file (default: ./morph.yaml, then $XDG_CONFIG_HOME/morph/morph.yaml)")
	cmd.PersistentFlags().StringVar(&opts.Database, cfgKeyDB, "", "path to the SQLite run log")
	cmd.PersistentFlags().StringVar(&opts.Pipelines, cfgKeyPipelines, "", "default pipelines directory")
	cmd.PersistentFlags().IntVar(&opts.Workers, cfgKeyWorkers, 8, "batch evaluation workers")

	cmd.AddCommand(NewVersionCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewCompileCommand(opts))
	cmd.AddCommand(NewEvalCommand(opts))
	cmd.AddCommand(NewCheckCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))
	cmd.AddCommand(NewReplayCommand(opts))
	cmd.AddCommand(NewPrimitivesCommand(opts))

	return cmd
}

func (o *RootOptions) resolve(cmd *cobra.Command) error {
	v, err := loadConfig(o.Config, cmd.Flags())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}
	o.Format = v.GetString(cfgKeyFormat)
	o.Verbose = v.GetBool(cfgKeyVerbose)
	o.Database = v.GetString(cfgKeyDB)
	o.Pipelines = v.GetString(cfgKeyPipelines)
	o.Workers = v.GetInt(cfgKeyWorkers)

	if !isValidFormat(o.Format) {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", o.Format, ValidFormats))
	}
	o.logger = newLogger(cmd.ErrOrStderr(), o.Verbose)
	return nil
}

// Logger returns the command logger: warnings and above on stderr, debug
// with --verbose.
func (o *RootOptions) Logger() *slog.Logger {
	if o.logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return o.logger
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

// pipelinesDir picks the positional directory, falling back to config.
func (o *RootOptions) pipelinesDir(args []string) (string, error) {
	if len(args) > 0 && args[0] != "" {
		return args[0], nil
	}
	if o.Pipelines != "" {
		return o.Pipelines, nil
	}
	return "", NewExitError(ExitCommandError, "no pipelines directory: pass one or set pipelines in morph.yaml")
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
