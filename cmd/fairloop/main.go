// Package main provides the fairloop binary entry point.
// fairloop scores DAO vote distributions with the Gini coefficient and runs
// the quadratic-voting reflection loop over them.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "fairloop"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app is the state shared by every subcommand once the root has loaded
// configuration and logging.
type app struct {
	v      *viper.Viper
	logger *slog.Logger
	out    io.Writer
}

func rootCmd() *cobra.Command {
	var (
		configPath string
		logLevel   string
		noColor    bool
	)

	a := &app{v: newViper()}

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Measure and reduce voting-power inequality in DAO governance",
		Long: `fairloop scores vote distributions with the Gini coefficient and
drives a reflection loop that caps votes quadratically until the
distribution falls below a fairness target.

Commands:
- gini:    Gini coefficient and concentration statistics
- qv:      apply quadratic voting to a distribution
- reflect: run the reflection loop
- sweep:   compare reflection runs across alpha values

Configuration is read from fairloop.yaml (in . or $HOME/.config/fairloop),
FAIRLOOP_* environment variables, and flags, in increasing precedence.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if noColor {
				color.NoColor = true
			}

			if err := loadConfig(a.v, configPath); err != nil {
				return err
			}

			if cmd.Flags().Changed("log-level") {
				a.v.Set("log_level", logLevel)
			}
			logger, err := newLogger(cmd.ErrOrStderr(), a.v.GetString("log_level"))
			if err != nil {
				return err
			}
			a.logger = logger
			a.out = cmd.OutOrStdout()
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file path (YAML)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	cmd.AddCommand(
		giniCmd(a),
		qvCmd(a),
		reflectCmd(a),
		sweepCmd(a),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s version %s (build: %s)\n", appName, Version, BuildTime)
			},
		},
	)

	return cmd
}
