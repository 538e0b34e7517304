package main

import (
	"log/slog"
	"os"

	"github.com/kirinyoku/tix-ledger/internal/app"
	"github.com/kirinyoku/tix-ledger/internal/config"
	"github.com/spf13/cobra"
)

var (
	logger      *slog.Logger
	application *app.App
)

var rootCmd = &cobra.Command{
	Use:           "tixledger",
	Short:         "Event and membership ledger",
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

		cfg, err := config.New()
		if err != nil {
			return err
		}

		application, err = app.New(cmd.Context(), cfg, logger)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if application != nil {
			application.Close()
		}
	},
}

func init() {
	rootCmd.AddCommand(eventCmd)
	rootCmd.AddCommand(ticketCmd)
	rootCmd.AddCommand(membershipCmd)
	rootCmd.AddCommand(journalCmd)
	rootCmd.AddCommand(watchCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
