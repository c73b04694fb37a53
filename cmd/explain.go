package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stevehiehn/mlprov/internal/engine"
)

var explainCmd = &cobra.Command{
	Use:   "explain",
	Short: "List the provisioning steps for the current configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		rc := engine.NewRunContext(cfg)
		result, err := engine.Execute(cmd.Context(), rc, engine.ModeExplain)
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

		layout := cfg.Layout()
		fmt.Fprintf(out, "Target: %s\n", layout.Root)
		fmt.Fprintf(out, "Environment: %s\n\n", layout.EnvDir)
		n := 0
		for _, sr := range result.Steps {
			if sr.Name == "" {
				continue
			}
			if sr.Status == engine.StatusSkipped {
				fmt.Fprintf(out, "   -  %s (skipped)\n", sr.Name)
				continue
			}
			n++
			fmt.Fprintf(out, "%3d. %s\n", n, sr.Name)
			if sr.Description != "" {
				fmt.Fprintf(out, "     %s\n", sr.Description)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(explainCmd)
}
