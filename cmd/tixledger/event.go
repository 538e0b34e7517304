package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/kirinyoku/tix-ledger/internal/admin"
	"github.com/spf13/cobra"
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Manage ledger events",
}

var eventCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an event (admin only)",
	RunE: func(cmd *cobra.Command, args []string) error {
		caller, err := callerFlag(cmd, "caller", application.Config.Admin)
		if err != nil {
			return err
		}

		name, _ := cmd.Flags().GetString("name")
		date, _ := cmd.Flags().GetString("date")
		location, _ := cmd.Flags().GetString("location")
		about, _ := cmd.Flags().GetString("about")
		price, _ := cmd.Flags().GetUint64("price")
		tickets, _ := cmd.Flags().GetUint64("tickets")

		id, err := application.Admin.CreateEvent(cmd.Context(), caller, admin.CreateEventInput{
			Name:      name,
			Date:      date,
			Location:  location,
			About:     about,
			BasePrice: price,
			Tickets:   tickets,
		})
		if err != nil {
			return err
		}

		fmt.Println(id)
		return nil
	},
}

var eventListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all events in creation order",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := application.Ledger.Events

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tDATE\tLOCATION\tBASE_PRICE\tAVAILABLE\tSOLD")
		for _, id := range reg.EventIDs() {
			e, err := reg.Event(id)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\t%d\t%d\n",
				e.ID, e.Name, e.Date, e.Location, e.BasePrice, e.TicketsAvailable, e.TicketsSold)
		}
		return w.Flush()
	},
}

var eventShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show one event",
	RunE: func(cmd *cobra.Command, args []string) error {
		id, _ := cmd.Flags().GetInt64("id")

		e, err := application.Ledger.Events.Event(id)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "ID\t%d\n", e.ID)
		fmt.Fprintf(w, "Name\t%s\n", e.Name)
		fmt.Fprintf(w, "Date\t%s\n", e.Date)
		fmt.Fprintf(w, "Location\t%s\n", e.Location)
		fmt.Fprintf(w, "About\t%s\n", e.About)
		fmt.Fprintf(w, "Base price\t%d\n", e.BasePrice)
		fmt.Fprintf(w, "Available\t%d\n", e.TicketsAvailable)
		fmt.Fprintf(w, "Sold\t%d\n", e.TicketsSold)
		return w.Flush()
	},
}

// callerFlag parses an account flag, falling back to def when unset.
func callerFlag(cmd *cobra.Command, name string, def uuid.UUID) (uuid.UUID, error) {
	s, _ := cmd.Flags().GetString(name)
	if s == "" {
		return def, nil
	}

	account, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid --%s: %w", name, err)
	}

	return account, nil
}

// accountFlag parses a required account flag.
func accountFlag(cmd *cobra.Command, name string) (uuid.UUID, error) {
	s, _ := cmd.Flags().GetString(name)
	if s == "" {
		return uuid.Nil, fmt.Errorf("--%s is required", name)
	}

	account, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid --%s: %w", name, err)
	}

	return account, nil
}

func init() {
	eventCreateCmd.Flags().String("caller", "", "calling account (defaults to the configured admin)")
	eventCreateCmd.Flags().String("name", "", "event name")
	eventCreateCmd.Flags().String("date", "", "event date, YYYY-MM-DD")
	eventCreateCmd.Flags().String("location", "", "event location")
	eventCreateCmd.Flags().String("about", "", "event description")
	eventCreateCmd.Flags().Uint64("price", 0, "base ticket price in base currency units")
	eventCreateCmd.Flags().Uint64("tickets", 0, "tickets available")
	_ = eventCreateCmd.MarkFlagRequired("name")
	_ = eventCreateCmd.MarkFlagRequired("date")

	eventShowCmd.Flags().Int64("id", 0, "event id")
	_ = eventShowCmd.MarkFlagRequired("id")

	eventCmd.AddCommand(eventCreateCmd)
	eventCmd.AddCommand(eventListCmd)
	eventCmd.AddCommand(eventShowCmd)
}
