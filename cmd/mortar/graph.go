package main

import (
	"errors"
	"fmt"

	"github.com/aretw0/mortar/internal/cli"
	"github.com/aretw0/mortar/internal/presentation/graph"
	"github.com/aretw0/mortar/pkg/adapters/file"
	"github.com/spf13/cobra"
)

var graphCmd = &cobra.Command{
	Use:   "graph <program>",
	Short: "Export the program graph as Mermaid",
	Long:  `Outputs a Mermaid flowchart (graph TD) of the nodes and their transitions.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		program, err := file.NewLoader(cfg.Assets).Load(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		var overlay *graph.GraphOverlay
		if id, _ := cmd.Flags().GetString("session"); id != "" {
			snap, err := cli.LoadSession(cmd.Context(), cfg, id)
			if err != nil {
				return err
			}
			if snap.Path != program.Path {
				return errors.New("session " + id + " belongs to " + snap.Path)
			}
			overlay = &graph.GraphOverlay{CurrentNode: snap.Node, VisitedNodes: []string{snap.Node}}
		}

		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(program, overlay))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().StringP("session", "s", "", "Highlight the current node of a session")
}
