// Package cmd implements the tsprobe commands.
package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/zsiec/tsproto/internal/config"
)

// app carries what every command shares: configuration, logger and the
// standard streams, so commands can be run against buffers in tests.
type app struct {
	v       *viper.Viper
	cfg     *config.Config
	log     *slog.Logger
	cfgFile string

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

// Execute runs tsprobe with the process arguments.
func Execute() error {
	root := newRootCommand(os.Stdin, os.Stdout, os.Stderr)
	if err := root.Execute(); err != nil {
		return fmt.Errorf("executing root command: %w", err)
	}
	return nil
}

func newRootCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	a := &app{v: viper.New(), stdin: stdin, stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:     "tsprobe",
		Short:   "Inspect and build MPEG-2 transport streams",
		Version: version,
		Long: `tsprobe reads MPEG-2 transport streams from files, stdin or SRT and reports
continuity errors and the PAT/PMT tables they carry. It can also packetize
PSI sections, decode descriptor loops and publish files over SRT.

Configuration is read from $HOME/.tsprobe.yaml, ./.tsprobe.yaml or
/etc/tsprobe/.tsprobe.yaml, then from TSPROBE_ environment variables
(inspect.shards -> TSPROBE_INSPECT_SHARDS), then from flags.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd.Root().PersistentFlags())
		},
	}
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	// Flags are not bound to viper: they override env and file values only
	// when set explicitly.
	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is $HOME/.tsprobe.yaml)")
	root.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	root.PersistentFlags().String("log-format", "text", "log format (text, json)")

	root.AddCommand(
		a.inspectCommand(),
		a.listenCommand(),
		a.packetizeCommand(),
		a.pushCommand(),
		a.descriptorsCommand(),
		a.versionCommand(),
	)
	return root
}

// init loads configuration and builds the logger. Priority, highest first:
// explicit flags, environment, config file, defaults.
func (a *app) init(flags *pflag.FlagSet) error {
	home, _ := os.UserHomeDir()
	config.Init(a.v, a.cfgFile, home)

	if flags.Changed("log-level") {
		level, _ := flags.GetString("log-level")
		a.v.Set("logging.level", level)
	}
	if flags.Changed("log-format") {
		format, _ := flags.GetString("log-format")
		a.v.Set("logging.format", format)
	}

	cfg, err := config.Load(a.v)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.log = cfg.Logging.NewLogger(a.stderr).With("app", "tsprobe")
	slog.SetDefault(a.log)
	if used := a.v.ConfigFileUsed(); used != "" {
		a.log.Debug("using config file", "path", used)
	}
	return nil
}

// override copies an explicitly set flag into the configuration.
func override[T any](flags *pflag.FlagSet, name string, get func(string) (T, error), dst *T) {
	if !flags.Changed(name) {
		return
	}
	if v, err := get(name); err == nil {
		*dst = v
	}
}
