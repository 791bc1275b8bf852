package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/vnykmshr/reqstream/pkg/producer/redisop"
	"github.com/vnykmshr/reqstream/pkg/streaming/reqstream"
)

// RedisOptions holds flags for the redis command.
type RedisOptions struct {
	*RootOptions
	StreamOptions

	File    string
	Addr    string
	DB      int
	Command string
	Field   string
}

// NewRedisCommand creates the redis command.
func NewRedisCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RedisOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "redis [key...]",
		Short: "Look up Redis keys concurrently and print results in order",
		Long: `Issue one read command per key at once and print the replies in the
order the keys were given.

Example:
  reqstream redis user:1 user:2 user:3
  reqstream redis --command hget --field name user:1 user:2
  reqstream redis --addr redis:6379 --file keys.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRedis(cmd, opts, args)
		},
	}

	opts.StreamOptions.register(cmd, rootOpts.Env)
	cmd.Flags().StringVarP(&opts.File, "file", "f", "", "YAML request file")
	cmd.Flags().StringVar(&opts.Addr, "addr", rootOpts.Env.RedisAddr, "Redis address, default from "+envRedisAddr)
	cmd.Flags().IntVar(&opts.DB, "db", 0, "Redis database number")
	cmd.Flags().StringVar(&opts.Command, "command", redisop.CommandGet, "command to run per key (get|hget|hgetall|exists|ttl)")
	cmd.Flags().StringVar(&opts.Field, "field", "", "hash field for hget")

	return cmd
}

func runRedis(cmd *cobra.Command, opts *RedisOptions, keys []string) error {
	reqs, err := collectRequests(opts.File, keys)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid input", err)
	}
	if opts.Field != "" {
		for i := range reqs {
			reqs[i].Options = withDefault(reqs[i].Options, redisop.OptionField, opts.Field)
		}
	}

	sess, err := newSession(opts.RootOptions, opts.MetricsAddr)
	if err != nil {
		return err
	}
	defer sess.close()

	rdb := redis.NewClient(&redis.Options{Addr: opts.Addr, DB: opts.DB})
	defer func() {
		if err := rdb.Close(); err != nil {
			sess.log.WithError(err).Warn("closing redis client")
		}
	}()

	config := redisop.DefaultConfig()
	config.DefaultCommand = opts.Command
	config.Metrics = sess.metrics
	client, err := redisop.NewWithConfig(rdb, config)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid redis configuration", err)
	}

	s := reqstream.NewWithConfig[*redisop.Reply](client.Do, sess.streamConfig("redis"))
	if opts.TerminateOnError {
		s.TerminateOnError()
	}
	return admitAndDrive(cmd, s, reqs, opts.StreamOptions, opts.Format, renderReply)
}

func withDefault(opts map[string]any, key string, value any) map[string]any {
	if _, ok := opts[key]; ok {
		return opts
	}
	merged := make(map[string]any, len(opts)+1)
	for k, v := range opts {
		merged[k] = v
	}
	merged[key] = value
	return merged
}

func renderReply(r *redisop.Reply) string {
	if !r.Found {
		return "(nil)"
	}
	switch r.Command {
	case redisop.CommandHGetAll:
		fields := make([]string, 0, len(r.Fields))
		for k, v := range r.Fields {
			fields = append(fields, k+"="+v)
		}
		sort.Strings(fields)
		return strings.Join(fields, " ")
	case redisop.CommandExists:
		return "1"
	case redisop.CommandTTL:
		return r.TTL.String()
	default:
		return fmt.Sprintf("%q", r.Value)
	}
}
