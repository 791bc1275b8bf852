package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vnykmshr/reqstream/pkg/producer/httpfetch"
	"github.com/vnykmshr/reqstream/pkg/producer/throttle"
	"github.com/vnykmshr/reqstream/pkg/streaming/reqstream"
)

// FetchOptions holds flags for the fetch command.
type FetchOptions struct {
	*RootOptions
	StreamOptions

	File          string
	RequireOK     bool
	Timeout       time.Duration
	Rate          float64
	Burst         int
	MaxConcurrent int
}

// NewFetchCommand creates the fetch command.
func NewFetchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FetchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "fetch [url...]",
		Short: "Fetch URLs concurrently and print responses in order",
		Long: `Fetch every URL at once and print one line per response, in the order
the URLs were given.

Example:
  reqstream fetch https://example.com/a https://example.com/b
  reqstream fetch --file requests.yaml --require-ok --terminate-on-error
  reqstream fetch --rate 5 --concurrency 2 --metrics-addr :9090 $(cat urls.txt)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFetch(cmd, opts, args)
		},
	}

	opts.StreamOptions.register(cmd, rootOpts.Env)
	cmd.Flags().StringVarP(&opts.File, "file", "f", "", "YAML request file")
	cmd.Flags().BoolVar(&opts.RequireOK, "require-ok", false, "treat non-2xx responses as failures")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", httpfetch.DefaultConfig().Timeout, "per-request timeout")
	cmd.Flags().Float64Var(&opts.Rate, "rate", 0, "maximum requests started per second (0 = unlimited)")
	cmd.Flags().IntVar(&opts.Burst, "burst", 1, "requests allowed to start at once under --rate")
	cmd.Flags().IntVar(&opts.MaxConcurrent, "concurrency", 0, "maximum requests in flight (0 = unlimited)")

	return cmd
}

func runFetch(cmd *cobra.Command, opts *FetchOptions, targets []string) error {
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
	config.Timeout = opts.Timeout
	config.RequireOK = opts.RequireOK
	config.Metrics = sess.metrics
	client, err := httpfetch.NewWithConfig(config)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid fetch configuration", err)
	}

	producer, err := throttle.Wrap[*httpfetch.Response](client.Fetch, throttle.Config{
		Name:          "httpfetch",
		Rate:          opts.Rate,
		Burst:         opts.Burst,
		MaxConcurrent: opts.MaxConcurrent,
		Metrics:       sess.metrics,
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid throttle configuration", err)
	}

	s := reqstream.NewWithConfig[*httpfetch.Response](producer, sess.streamConfig("fetch"))
	if opts.TerminateOnError {
		s.TerminateOnError()
	}
	return admitAndDrive(cmd, s, reqs, opts.StreamOptions, opts.Format, renderResponse)
}

// admitAndDrive admits reqs and prints results until all of them (or
// --max of them) are delivered.
func admitAndDrive[T any](cmd *cobra.Command, s *reqstream.Stream[T], reqs []reqstream.Request, opts StreamOptions, format string, render func(T) string) error {
	for _, req := range reqs {
		if err := s.Admit(req); err != nil {
			return WrapExitError(ExitCommandError, "admission failed", err)
		}
	}

	budget := len(reqs)
	if opts.Max > 0 && opts.Max < budget {
		budget = opts.Max
	}

	ctx, cancel := signalContext(cmd)
	defer cancel()

	printer := &Printer{Format: format, Writer: cmd.OutOrStdout()}
	delivered, failed, err := drive(ctx, s, budget, printer, render)
	if err != nil {
		return WrapExitError(ExitCommandError, "output failed", err)
	}
	return summarize(delivered, failed)
}

func renderResponse(resp *httpfetch.Response) string {
	return fmt.Sprintf("%d %dB", resp.StatusCode, len(resp.Body))
}
