package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	perrors "github.com/stevehiehn/mlprov/internal/errors"
)

var (
	jsonOutput bool
	configFile string
	settings   []string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "mlprov",
	Short: "Provision a ComfyUI inference environment",
	Long: "mlprov fetches ComfyUI, builds its Python environment with a pinned torch stack\n" +
		"and installs ComfyUI-Manager, stopping at the first failing step.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging(logLevel)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output raw JSON")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "YAML file with provisioning parameters")
	rootCmd.PersistentFlags().StringArrayVar(&settings, "set", nil, "Parameter override (key=value), repeatable")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error (default $LOG_LEVEL or info)")
}

// setupLogging writes human-readable logs to stderr so stdout only carries
// command results.
func setupLogging(level string) {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if level == "" {
		level = os.Getenv("LOG_LEVEL")
	}
	switch strings.ToLower(level) {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// Execute runs the root command and exits with the status of the run:
// 0 on success, 1 for configuration problems, otherwise the exit code of
// the collaborator that failed.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(exitStatus(err, os.Stderr))
	}
}

// exitStatus prints err unless the command already reported it and
// returns the process exit code.
func exitStatus(err error, w io.Writer) int {
	if err == nil {
		return 0
	}
	var rep reportedError
	if !errors.As(err, &rep) {
		fmt.Fprintln(w, "Error:", err)
	}
	return perrors.ExitCode(err)
}

// reportedError marks a failure whose details were already written by the
// command, either as text or as JSON.
type reportedError struct{ err error }

func (e reportedError) Error() string { return e.err.Error() }

func (e reportedError) Unwrap() error { return e.err }

func reported(err error) error {
	if err == nil {
		return nil
	}
	return reportedError{err: err}
}
