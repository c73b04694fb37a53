package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stevehiehn/mlprov/internal/engine"
)

var dryRunCmd = &cobra.Command{
	Use:   "dry-run",
	Short: "Show the commands a run would execute without running them",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		rc := engine.NewRunContext(cfg)
		result, err := engine.Execute(cmd.Context(), rc, engine.ModeDryRun)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if jsonOutput {
			if err := writeJSON(out, result); err != nil {
				return err
			}
			return reported(result.Err())
		}
		if !result.Success {
			printErrors(cmd.ErrOrStderr(), result)
			return reported(result.Err())
		}

		fmt.Fprintf(out, "Dry-run: %s\n\n", cfg.Layout().Root)
		for _, sr := range result.Steps {
			fmt.Fprintf(out, "Step: %s [%s]\n", sr.ID, sr.Status)
			if sr.DryRunInfo != "" {
				fmt.Fprintf(out, "  %s\n", sr.DryRunInfo)
			}
			fmt.Fprintln(out)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dryRunCmd)
}
