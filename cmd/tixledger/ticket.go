package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var ticketCmd = &cobra.Command{
	Use:   "ticket",
	Short: "Buy, transfer, and inspect tickets",
}

var ticketPriceCmd = &cobra.Command{
	Use:   "price",
	Short: "Quote the effective ticket price for a buyer",
	RunE: func(cmd *cobra.Command, args []string) error {
		eventID, _ := cmd.Flags().GetInt64("event")
		buyer, err := accountFlag(cmd, "buyer")
		if err != nil {
			return err
		}

		price, err := application.Ledger.Events.TicketPrice(eventID, buyer)
		if err != nil {
			return err
		}

		fmt.Println(price)
		return nil
	},
}

var ticketBuyCmd = &cobra.Command{
	Use:   "buy",
	Short: "Buy one ticket",
	RunE: func(cmd *cobra.Command, args []string) error {
		eventID, _ := cmd.Flags().GetInt64("event")
		buyer, err := accountFlag(cmd, "buyer")
		if err != nil {
			return err
		}

		reg := application.Ledger.Events

		// The ledger takes exact payment only; default to the quoted
		// price when no amount is given.
		amount, _ := cmd.Flags().GetUint64("amount")
		if !cmd.Flags().Changed("amount") {
			amount, err = reg.TicketPrice(eventID, buyer)
			if err != nil {
				return err
			}
		}

		if err := reg.BuyTicket(cmd.Context(), buyer, eventID, amount); err != nil {
			return err
		}

		fmt.Printf("ticket sold: event %d, buyer %s, paid %d\n", eventID, buyer, amount)
		return nil
	},
}

var ticketHasCmd = &cobra.Command{
	Use:   "has",
	Short: "Check whether an account holds a ticket",
	RunE: func(cmd *cobra.Command, args []string) error {
		eventID, _ := cmd.Flags().GetInt64("event")
		account, err := accountFlag(cmd, "account")
		if err != nil {
			return err
		}

		fmt.Println(application.Ledger.Events.HasTicket(eventID, account))
		return nil
	},
}

var ticketTransferCmd = &cobra.Command{
	Use:   "transfer",
	Short: "Transfer a held ticket to another account",
	RunE: func(cmd *cobra.Command, args []string) error {
		eventID, _ := cmd.Flags().GetInt64("event")
		from, err := accountFlag(cmd, "from")
		if err != nil {
			return err
		}
		to, err := accountFlag(cmd, "to")
		if err != nil {
			return err
		}

		if err := application.Ledger.Events.TransferTicket(cmd.Context(), from, eventID, to); err != nil {
			return err
		}

		fmt.Printf("ticket transferred: event %d, %s -> %s\n", eventID, from, to)
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{ticketPriceCmd, ticketBuyCmd, ticketHasCmd, ticketTransferCmd} {
		c.Flags().Int64("event", 0, "event id")
		_ = c.MarkFlagRequired("event")
	}

	ticketPriceCmd.Flags().String("buyer", "", "buyer account")
	_ = ticketPriceCmd.MarkFlagRequired("buyer")

	ticketBuyCmd.Flags().String("buyer", "", "buyer account")
	ticketBuyCmd.Flags().Uint64("amount", 0, "payment amount (defaults to the quoted price)")
	_ = ticketBuyCmd.MarkFlagRequired("buyer")

	ticketHasCmd.Flags().String("account", "", "account to check")
	_ = ticketHasCmd.MarkFlagRequired("account")

	ticketTransferCmd.Flags().String("from", "", "current holder")
	ticketTransferCmd.Flags().String("to", "", "recipient account")
	_ = ticketTransferCmd.MarkFlagRequired("from")
	_ = ticketTransferCmd.MarkFlagRequired("to")

	ticketCmd.AddCommand(ticketPriceCmd)
	ticketCmd.AddCommand(ticketBuyCmd)
	ticketCmd.AddCommand(ticketHasCmd)
	ticketCmd.AddCommand(ticketTransferCmd)
}
