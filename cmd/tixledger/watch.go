package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/kirinyoku/tix-ledger/internal/notify"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream ledger change notifications until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		if application.Notifier == nil {
			return errors.New("watch requires REDIS_ADDR to be set")
		}

		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		g, gCtx := errgroup.WithContext(ctx)

		g.Go(func() error {
			return application.Notifier.Subscribe(gCtx, func(ctx context.Context, c notify.Change) {
				fmt.Printf("%s\tevent=%d\taccount=%s\n", c.Kind, c.EventID, c.Account)
			})
		})

		if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}
