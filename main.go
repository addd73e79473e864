package main

import (
	"fmt"
	"os"

	"github.com/ansher/agreementtracker/config"
	"github.com/ansher/agreementtracker/pkg/logger"
	"github.com/spf13/cobra"
)

var (
	configPath string
	cfg        *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "agreement-tracker",
	Short: "Track agreements, their expiry dates and reminder emails",
	Long: `agreement-tracker stores agreements extracted from uploaded PDFs,
evaluates how close each one is to expiry and prepares reminder emails.

Run "serve" for the HTTP API or use the other commands directly.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config %s: %w", configPath, err)
		}

		// Commands print their results on stdout, so logs go to stderr
		logger.Init(&logger.Config{
			Level:  loaded.Log.Level,
			Format: loaded.Log.Format,
			Output: os.Stderr,
		})
		cfg = loaded
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "Path to the YAML config file")

	listCmd.Flags().String("company", "all", `Company name, "all" or "expired"`)
	importCmd.Flags().String("company", "", "Owning company; empty lets the document decide")
	sweepCmd.Flags().String("outbox", "", "Directory for .eml drafts (default from config)")
	deleteCmd.Flags().BoolP("yes", "y", false, "Delete without asking for confirmation")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(sweepCmd)
	rootCmd.AddCommand(deleteCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
