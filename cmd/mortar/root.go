package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/aretw0/mortar/internal/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "mortar",
	Short: "Mortar runs branching dialogue programs",
	Long: `Mortar plays compiled dialogue programs (.mortared) in the terminal,
as NDJSON for other processes, or over HTTP.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("dir", "", "Directory containing the compiled programs")
	rootCmd.PersistentFlags().String("config", "", "Config file (default <dir>/"+config.DefaultFile+")")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
}

// loadConfig reads the config file and applies --dir. Without --config a
// missing file falls back to the defaults.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	dir, _ := cmd.Flags().GetString("dir")
	path, _ := cmd.Flags().GetString("config")

	var (
		cfg *config.Config
		err error
	)
	if path != "" {
		cfg, err = config.Load(path)
	} else {
		base := dir
		if base == "" {
			base = "."
		}
		cfg, err = config.LoadOptional(filepath.Join(base, config.DefaultFile))
	}
	if err != nil {
		return nil, err
	}
	if dir != "" {
		cfg.Assets = dir
	}
	return cfg, nil
}

func debugEnabled(cmd *cobra.Command) bool {
	debug, _ := cmd.Flags().GetBool("debug")
	return debug
}
