package main

import (
	"fmt"

	"github.com/aretw0/mortar/internal/validator"
	"github.com/aretw0/mortar/pkg/adapters/file"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [program...]",
	Short: "Check programs for broken references",
	Long:  `Reports unknown node, event and timeline targets, undeclared variables and unreachable nodes.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		loader := file.NewLoader(cfg.Assets)
		paths := args
		if len(paths) == 0 {
			if paths, err = loader.List(cmd.Context()); err != nil {
				return err
			}
		}
		if len(paths) == 0 {
			return fmt.Errorf("no programs found in %s", cfg.Assets)
		}

		out := cmd.OutOrStdout()
		reports, err := validator.ValidateAll(cmd.Context(), loader, paths)
		for _, r := range reports {
			if len(r.Issues) == 0 {
				fmt.Fprintf(out, "%s: ok\n", r.Path)
				continue
			}
			fmt.Fprintf(out, "%s:\n", r.Path)
			for _, issue := range r.Issues {
				fmt.Fprintf(out, "  %s\n", issue)
			}
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
