package main

import (
	"errors"
	"io"

	"github.com/rawbytedev/fixscan/internal/config"
	fixlog "github.com/rawbytedev/fixscan/internal/log"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// flagKeys maps command-line flags to config keys.
var flagKeys = map[string]string{
	"log-level":  "log.level",
	"log-format": "log.format",
	"input":      "input.format",
	"workers":    "input.workers",
	"output":     "output.format",
	"tags":       "output.tags",
	"checksum":   "decoder.checksum",
	"strict":     "decoder.strict_termination",
	"capacity":   "decoder.capacity",
}

type app struct {
	v          *viper.Viper
	configFile string
	logFile    string
	cpuProfile string
	memProfile string

	cfg    *config.Config
	log    *logrus.Logger
	closer io.Closer
	prof   *profiler
}

func newRootCmd() *cobra.Command {
	a := &app{v: config.New()}
	root := &cobra.Command{
		Use:   "fixscan",
		Short: "Decode and verify FIX tag=value messages",
		Long: `fixscan locates every field of a FIX tag=value message in one pass and
decodes values in place. It reads raw SOH streams, '|' delimited message logs
and pcap captures of FIX sessions, optionally zstd compressed.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}
	pf := root.PersistentFlags()
	pf.StringVarP(&a.configFile, "config", "c", "", "config file path (YAML)")
	pf.String("log-level", "info", "log level: trace, debug, info, warn or error")
	pf.String("log-format", "text", "log format: text or json")
	pf.StringVar(&a.logFile, "log-file", "", "also write logs to this rotating file")
	pf.StringVar(&a.cpuProfile, "cpu-profile", "", "write a CPU profile to this file")
	pf.StringVar(&a.memProfile, "mem-profile", "", "write a heap profile to this file on exit")

	root.AddCommand(newDecodeCmd(a), newVerifyCmd(a), newChecksumCmd(a))
	return root
}

// addDecoderFlags registers the flags shared by decode and verify.
func addDecoderFlags(fs *pflag.FlagSet) {
	fs.StringP("input", "i", "pipe", "input format: raw, pipe or pcap")
	fs.IntP("workers", "w", 0, "decoding goroutines, 0 for GOMAXPROCS")
	fs.Bool("checksum", true, "validate tag 10")
	fs.Bool("strict", false, "require SOH after the last field")
	fs.Int("capacity", 200, "maximum distinct tags per message")
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	// bind only the running command's flags; subcommands share keys
	fs := cmd.Flags()
	for name, key := range flagKeys {
		if f := fs.Lookup(name); f != nil {
			if err := a.v.BindPFlag(key, f); err != nil {
				return err
			}
		}
	}
	if a.logFile != "" {
		a.v.Set("log.file.enabled", true)
		a.v.Set("log.file.path", a.logFile)
	}

	cfg, err := config.Load(a.v, a.configFile)
	if err != nil {
		return err
	}
	logger, closer, err := fixlog.New(cfg.Log, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	prof, err := startProfiles(a.cpuProfile, a.memProfile)
	if err != nil {
		return errors.Join(err, closer.Close())
	}
	a.cfg, a.log, a.closer, a.prof = cfg, logger, closer, prof
	a.log.WithFields(logrus.Fields{
		"command": cmd.Name(),
		"config":  a.v.ConfigFileUsed(),
	}).Debug("configuration loaded")
	return nil
}

// command wraps a RunE so profiles and the log file are closed even when
// the command fails.
func (a *app) command(fn func(*cobra.Command, []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		defer func() {
			if cerr := a.teardown(); err == nil {
				err = cerr
			}
		}()
		return fn(cmd, args)
	}
}

func (a *app) teardown() error {
	var err error
	if a.prof != nil {
		err = a.prof.stop()
	}
	if a.closer != nil {
		if cerr := a.closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
