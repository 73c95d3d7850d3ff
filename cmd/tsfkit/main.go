// Command tsfkit encodes CSV time series into chunk files and inspects them.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var version = "0.1.0"

// app carries the state shared by the subcommands of one invocation.
type app struct {
	v       *viper.Viper
	cfgFile string
	cfg     Config
	logger  *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New(), logger: zap.NewNop()}

	root := &cobra.Command{
		Use:   "tsfkit",
		Short: "Columnar time-series chunk encoder",
		Long: `tsfkit encodes (timestamp, value) series into self-describing chunks using
delta-binary, run-length and decimal-scaled floating-point codecs, and inspects
the resulting chunk files.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.load,
		PersistentPostRun: func(*cobra.Command, []string) {
			_ = a.logger.Sync()
		},
	}

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "Path to a YAML configuration file")
	root.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	_ = a.v.BindPFlag("log.level", root.PersistentFlags().Lookup("log-level"))

	root.AddCommand(newEncodeCmd(a), newInspectCmd(a), newVersionCmd())

	return root
}

func (a *app) load(*cobra.Command, []string) error {
	cfg, err := loadConfig(a.v, a.cfgFile)
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.Log)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = logger

	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "tsfkit v%s\n", version)
		},
	}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
