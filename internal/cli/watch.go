package cli

import (
	"github.com/spf13/cobra"

	"github.com/vnykmshr/reqstream/pkg/producer/httpfetch"
	"github.com/vnykmshr/reqstream/pkg/scheduling/feeder"
	"github.com/vnykmshr/reqstream/pkg/streaming/reqstream"
)

// WatchOptions holds flags for the watch command.
type WatchOptions struct {
	*RootOptions
	StreamOptions

	File      string
	Schedule  string
	RequireOK bool
}

// NewWatchCommand creates the watch command.
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "watch [url...]",
		Short: "Fetch URLs on a cron schedule and print responses in order",
		Long: `Fetch every URL each time the schedule fires and print the responses in
schedule order until --max results are printed or the process is
interrupted. Schedules accept an optional seconds field.

Example:
  reqstream watch --schedule "@every 30s" https://example.com/health
  reqstream watch --schedule "0 */5 * * * *" --max 12 --file checks.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, opts, args)
		},
	}

	opts.StreamOptions.register(cmd, rootOpts.Env)
	cmd.Flags().StringVarP(&opts.File, "file", "f", "", "YAML request file")
	cmd.Flags().StringVar(&opts.Schedule, "schedule", "@every 10s", "cron schedule")
	cmd.Flags().BoolVar(&opts.RequireOK, "require-ok", false, "treat non-2xx responses as failures")

	return cmd
}

func runWatch(cmd *cobra.Command, opts *WatchOptions, targets []string) error {
	reqs, err := collectRequests(opts.File, targets)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid input", err)
	}

	sess, err := newSession(opts.RootOptions, opts.MetricsAddr)
	if err != nil {
		return err
	}
	defer sess.close()

	config := httpfetch.DefaultConfig()
	config.RequireOK = opts.RequireOK
	config.Metrics = sess.metrics
	client, err := httpfetch.NewWithConfig(config)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid fetch configuration", err)
	}

	s := reqstream.NewWithConfig[*httpfetch.Response](client.Fetch, sess.streamConfig("watch"))
	if opts.TerminateOnError {
		s.TerminateOnError()
	}

	f, err := feeder.New(s, feeder.Config{Name: "watch", Logger: sess.log, Metrics: sess.metrics})
	if err != nil {
		return WrapExitError(ExitCommandError, "feeder setup failed", err)
	}
	for _, req := range reqs {
		if _, err := f.Schedule(opts.Schedule, req); err != nil {
			return WrapExitError(ExitCommandError, "invalid schedule", err)
		}
	}
	f.Start()
	defer func() { <-f.Stop().Done() }()

	ctx, cancel := signalContext(cmd)
	defer cancel()

	printer := &Printer{Format: opts.Format, Writer: cmd.OutOrStdout()}
	delivered, failed, err := drive(ctx, s, opts.Max, printer, renderResponse)
	if err != nil {
		return WrapExitError(ExitCommandError, "output failed", err)
	}
	return summarize(delivered, failed)
}
