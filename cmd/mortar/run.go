package main

import (
	"errors"

	"github.com/aretw0/mortar/internal/cli"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run [program]",
	Short: "Play a dialogue program",
	Long: `Plays a program from the assets directory. Without an argument the
entry from the config file is used, then start, main or index.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		opts := cli.RunOptions{Config: cfg, Debug: debugEnabled(cmd)}
		if len(args) > 0 {
			opts.Path = args[0]
		}
		opts.Node, _ = cmd.Flags().GetString("node")
		opts.JSON, _ = cmd.Flags().GetBool("json")
		opts.Watch, _ = cmd.Flags().GetBool("watch")
		opts.SessionID, _ = cmd.Flags().GetString("session")
		opts.Fresh, _ = cmd.Flags().GetBool("fresh")
		if cmd.Flags().Changed("cps") {
			cfg.Typewriter.CPS, _ = cmd.Flags().GetFloat64("cps")
			if cfg.Typewriter.CPS < 0 {
				return errors.New("--cps must not be negative")
			}
		}
		return cli.Execute(cmd.Context(), opts)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("node", "n", "", "Node to start at (default: first node)")
	runCmd.Flags().Bool("json", false, "Run in JSON mode (NDJSON input/output)")
	runCmd.Flags().Float64("cps", 0, "Typewriter speed in characters per second (0 shows text at once)")
	runCmd.Flags().StringP("session", "s", "", "Session ID to resume and save")
	runCmd.Flags().Bool("fresh", false, "Discard the stored session before starting")
	runCmd.Flags().BoolP("watch", "w", false, "Reload the program when it changes")
}
