package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/mortar"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of mortar",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "mortar version %s\n", strings.TrimSpace(mortar.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
