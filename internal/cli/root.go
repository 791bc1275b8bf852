package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	LogLevel string
	Format   string // "json" | "text"
	Env      EnvConfig

	// LogOutput receives logs. Nil means stderr.
	LogOutput io.Writer
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the reqstream CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{Env: LoadEnv()}

	cmd := &cobra.Command{
		Use:   "reqstream",
		Short: "Run requests concurrently, print results in order",
		Long: `reqstream starts every request at once and prints the results in the
order the requests were given, no matter which finishes first.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", opts.Env.LogLevel,
		"log level (debug|info|warn|error), default from "+envLogLevel)
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewFetchCommand(opts))
	cmd.AddCommand(NewRedisCommand(opts))
	cmd.AddCommand(NewWatchCommand(opts))

	return cmd
}

func (o *RootOptions) logOutput() io.Writer {
	if o.LogOutput != nil {
		return o.LogOutput
	}
	return os.Stderr
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
