package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/kirinyoku/tix-ledger/internal/journal"
	"github.com/spf13/cobra"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Inspect the settlement journal",
}

var journalListCmd = &cobra.Command{
	Use:   "list",
	Short: "List journal entries in append order",
	RunE: func(cmd *cobra.Command, args []string) error {
		entries, err := application.Journal.List(cmd.Context())
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "AT\tKIND\tACCOUNT\tEVENT\tTIER\tAMOUNT\tDETAIL")
		for _, e := range entries {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%d\t%s\n",
				e.At.Format("2006-01-02 15:04:05"),
				e.Kind,
				e.Account,
				e.EventID,
				e.Tier,
				e.Amount,
				entryDetail(e),
			)
		}
		return w.Flush()
	},
}

func entryDetail(e journal.Entry) string {
	switch e.Kind {
	case journal.KindEventCreated:
		return fmt.Sprintf("%s (%s, %d tickets)", e.Name, e.Date, e.Tickets)
	case journal.KindTicketTransferred:
		return fmt.Sprintf("to %s", e.Counterparty)
	default:
		return ""
	}
}

func init() {
	journalCmd.AddCommand(journalListCmd)
}
