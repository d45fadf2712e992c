package main

import (
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/micro-nova/pwsink-go/internal/config"
	"github.com/micro-nova/pwsink-go/internal/logging"
	"github.com/micro-nova/pwsink-go/internal/reconcile"
	"github.com/micro-nova/pwsink-go/internal/report"
)

// mode is the action selected by the root command's flags.
type mode int

const (
	modeStatus mode = iota
	modeList
	modeJSON
	modeSink
	modeDisconnect
	modeConnect
)

func (m mode) String() string {
	switch m {
	case modeList:
		return "list"
	case modeJSON:
		return "json"
	case modeSink:
		return "sink"
	case modeDisconnect:
		return "disconnect"
	case modeConnect:
		return "connect"
	}
	return "status"
}

type options struct {
	list       bool
	sink       string
	connect    string
	disconnect bool
	retry      int
	force      bool
	json       bool
	timeout    time.Duration

	logLevel   string
	configPath string
	mock       bool
}

// mode picks the action. When several are given, connect wins over
// disconnect, then sink, json and list; no action flag prints the status.
func (o options) mode() mode {
	switch {
	case o.connect != "":
		return modeConnect
	case o.disconnect:
		return modeDisconnect
	case o.sink != "":
		return modeSink
	case o.json:
		return modeJSON
	case o.list:
		return modeList
	}
	return modeStatus
}

// cli carries the state shared by the root command and its subcommands.
type cli struct {
	stdout, stderr io.Writer
	opts           options

	// log is set once the configuration has been loaded.
	log *slog.Logger
}

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "pwsink",
		Short: "Set PipeWire sinks, including Bluetooth sinks",
		Long: `pwsink lists PipeWire sinks and paired Bluetooth audio devices and makes
a sink the default output. A label naming a Bluetooth device connects the
device first and waits for its sink to appear.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          c.runRoot,
	}

	f := root.Flags()
	f.BoolVarP(&c.opts.list, "list", "l", false, "list audio sinks")
	f.StringVarP(&c.opts.sink, "sink", "s", "", "id or name of sink, mac-address or alias")
	f.StringVarP(&c.opts.connect, "connect", "c", "", "connect bluetooth audio device by name, mac-address or alias")
	f.BoolVarP(&c.opts.disconnect, "disconnect", "d", false, "disconnect bluetooth audio devices")
	f.IntVarP(&c.opts.retry, "retry", "r", 1, "max. attempts to connect (default from config)")
	f.BoolVarP(&c.opts.force, "force", "f", false, "force reconnect bluetooth audio devices")
	f.BoolVarP(&c.opts.json, "json", "j", false, "list audio sinks in JSON format")
	f.DurationVar(&c.opts.timeout, "timeout", reconcile.DefaultTimeout, "time to wait for a sink per attempt (default from config)")

	pf := root.PersistentFlags()
	pf.StringVar(&c.opts.logLevel, "log", "", "print logging information: DEBUG, INFO, WARN or ERROR")
	pf.StringVar(&c.opts.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/pwsink/config.yaml)")
	pf.BoolVar(&c.opts.mock, "mock", false, "use simulated devices and sinks")
	_ = pf.MarkHidden("mock")

	root.AddCommand(c.serveCmd(), c.versionCmd())
	return root
}

// setup loads the configuration, applies the persistent flags and builds the
// logger.
func (c *cli) setup() (config.Config, string, error) {
	path := c.opts.configPath
	if path == "" {
		p, err := config.DefaultPath()
		if err != nil {
			return config.Config{}, "", err
		}
		path = p
	}
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, "", err
	}

	levelName := cfg.LogLevel
	if c.opts.logLevel != "" {
		levelName = c.opts.logLevel
	}
	if levelName == "" {
		levelName = logging.DefaultLevel
	}
	level, err := logging.ParseLevel(levelName)
	if err != nil {
		return config.Config{}, "", err
	}
	c.log = logging.New(c.stderr, level)
	c.log.Debug("pwsink: configuration loaded", "path", path, "backend", cfg.Backend, "mock", c.opts.mock)
	return cfg, path, nil
}

func (c *cli) runRoot(cmd *cobra.Command, _ []string) error {
	cfg, _, err := c.setup()
	if err != nil {
		return err
	}

	if !cmd.Flags().Changed("retry") {
		c.opts.retry = cfg.Retry
	}
	if !cmd.Flags().Changed("timeout") {
		c.opts.timeout = cfg.Timeout
	}

	eng, _ := newEngine(cfg, c.log, c.opts.mock)
	ctx := cmd.Context()

	m := c.opts.mode()
	c.log.Debug("pwsink: running", "mode", m.String())
	switch m {
	case modeConnect:
		_, err := eng.Connect(ctx, cfg.ResolveAlias(c.opts.connect), false)
		return err
	case modeDisconnect:
		_, err := eng.Disconnect(ctx)
		return err
	case modeSink:
		// A retry below one still makes one attempt.
		if c.opts.timeout <= 0 {
			return errors.New("--timeout must be positive")
		}
		_, err := eng.SetSink(ctx, cfg.ResolveAlias(c.opts.sink), reconcile.Options{
			Retry:     c.opts.retry,
			Timeout:   c.opts.timeout,
			Reconnect: c.opts.force,
		})
		return err
	default:
		st, err := eng.Status(ctx)
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		switch m {
		case modeJSON:
			return report.JSON(w, st)
		case modeList:
			return report.List(w, st)
		}
		return report.Human(w, st)
	}
}
