package cmd

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/stevehiehn/mlprov/internal/engine"
	"github.com/stevehiehn/mlprov/internal/toolchain"
)

var (
	metricsFile  string
	runPreflight bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Provision the environment",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if runPreflight {
			if err := toolchain.Preflight(nil); err != nil {
				return err
			}
		}

		rc := engine.NewRunContext(cfg)
		rc.Metrics = engine.NewMetrics()
		if jsonOutput {
			rc.Stdout = os.Stderr
		}
		result, err := engine.Execute(cmd.Context(), rc, engine.ModeRun)
		if err != nil {
			return err
		}
		if metricsFile != "" {
			if err := rc.Metrics.WriteToTextfile(metricsFile); err != nil {
				log.Warn().Err(err).Str("path", metricsFile).Msg("could not write metrics")
			}
		}

		out := cmd.OutOrStdout()
		if jsonOutput {
			if err := writeJSON(out, result); err != nil {
				return err
			}
			return reported(result.Err())
		}

		if result.Success {
			fmt.Fprintf(out, "Provisioned %s successfully.\n", cfg.Layout().Root)
		} else {
			fmt.Fprintf(cmd.ErrOrStderr(), "Provisioning failed at step %q.\n", result.FailedStepID)
			printErrors(cmd.ErrOrStderr(), result)
		}
		fmt.Fprintf(out, "Run ID: %s\n", result.RunID)
		return reported(result.Err())
	},
}

func init() {
	runCmd.Flags().StringVar(&metricsFile, "metrics-file", "", "Write Prometheus textfile metrics to this path")
	runCmd.Flags().BoolVar(&runPreflight, "preflight", false, "Check that git and python3 are on PATH before starting")
	rootCmd.AddCommand(runCmd)
}
