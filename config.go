package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	bind       string
	metrics    bool
	pingPeriod time.Duration
	port       int
	prefix     string
	profile    bool
	readLimit  int64
	sendBuffer int
	tlsCert    string
	tlsKey     string
	verbose    bool
	version    bool
}

func (c *Config) validate() error {
	if (c.tlsCert == "") != (c.tlsKey == "") {
		return errors.New("both --tls-cert and --tls-key must be provided together")
	}
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	if c.readLimit < 1 {
		return fmt.Errorf("invalid read limit (must be positive): %d", c.readLimit)
	}
	if c.pingPeriod <= 0 {
		return fmt.Errorf("invalid ping period (must be positive): %s", c.pingPeriod)
	}
	if c.sendBuffer < 1 {
		return fmt.Errorf("invalid send buffer (must be positive): %d", c.sendBuffer)
	}
	return nil
}

func (c *Config) scheme() string {
	if c.tlsCert != "" && c.tlsKey != "" {
		return "https"
	}
	return "http"
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("REMAINDER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "remainder",
		Short:         "A real-time number guessing party game where the remainder picks the winner.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		Version:       releaseVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return ServePage(cmd.Context(), cfg)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: REMAINDER_BIND)")
	fs.BoolVar(&cfg.metrics, "metrics", true, "expose prometheus metrics at /metrics (env: REMAINDER_METRICS)")
	fs.DurationVar(&cfg.pingPeriod, "ping-period", 30*time.Second, "interval between websocket keepalive pings (env: REMAINDER_PING_PERIOD)")
	fs.IntVarP(&cfg.port, "port", "p", 3000, "port to listen on (env: REMAINDER_PORT or PORT)")
	fs.StringVar(&cfg.prefix, "prefix", "", "path to prepend to all URLs, for use behind reverse proxy (env: REMAINDER_PREFIX)")
	fs.BoolVar(&cfg.profile, "profile", false, "register net/http/pprof handlers (env: REMAINDER_PROFILE)")
	fs.Int64Var(&cfg.readLimit, "read-limit", 4096, "maximum size in bytes of a single client message (env: REMAINDER_READ_LIMIT)")
	fs.IntVar(&cfg.sendBuffer, "send-buffer", 16, "outbound messages queued per connection before it is dropped (env: REMAINDER_SEND_BUFFER)")
	fs.StringVar(&cfg.tlsCert, "tls-cert", "", "path to tls certificate (env: REMAINDER_TLS_CERT)")
	fs.StringVar(&cfg.tlsKey, "tls-key", "", "path to tls keyfile (env: REMAINDER_TLS_KEY)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: REMAINDER_VERBOSE)")
	fs.BoolVarP(&cfg.version, "version", "V", false, "display version and exit (env: REMAINDER_VERSION)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		if f.Name == "port" {
			_ = v.BindEnv(f.Name, "REMAINDER_PORT", "PORT")
		} else {
			_ = v.BindEnv(f.Name)
		}
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("remainder v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
