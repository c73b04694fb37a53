package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stevehiehn/mlprov/internal/config"
	perrors "github.com/stevehiehn/mlprov/internal/errors"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check that every required parameter is set",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		verr := cfg.Validate()

		out := cmd.OutOrStdout()
		if jsonOutput {
			resp := map[string]any{"valid": verr == nil, "parameters": config.Keys()}
			var re *perrors.RunError
			if errors.As(verr, &re) {
				resp["error"] = re
			}
			if err := writeJSON(out, resp); err != nil {
				return err
			}
			return reported(verr)
		}
		if verr != nil {
			return verr
		}

		fmt.Fprintln(out, "Configuration is valid.")
		for _, k := range config.Keys() {
			req := ""
			if k.Required {
				req = " (required)"
			}
			fmt.Fprintf(out, "  %-20s $%-18s%s\n", k.Name, k.Env, req)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
