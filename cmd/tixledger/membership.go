package main

import (
	"fmt"

	"github.com/kirinyoku/tix-ledger/internal/domain"
	"github.com/spf13/cobra"
)

var membershipCmd = &cobra.Command{
	Use:   "membership",
	Short: "Buy and inspect membership tiers",
}

var membershipPriceCmd = &cobra.Command{
	Use:   "price",
	Short: "Show the fixed price of a paid tier",
	RunE: func(cmd *cobra.Command, args []string) error {
		tier, err := tierFlag(cmd)
		if err != nil {
			return err
		}

		price, err := application.Ledger.Membership.PriceForTier(tier)
		if err != nil {
			return err
		}

		fmt.Println(price)
		return nil
	},
}

var membershipBuyCmd = &cobra.Command{
	Use:   "buy",
	Short: "Buy a membership tier",
	RunE: func(cmd *cobra.Command, args []string) error {
		account, err := accountFlag(cmd, "account")
		if err != nil {
			return err
		}

		tier, err := tierFlag(cmd)
		if err != nil {
			return err
		}

		reg := application.Ledger.Membership

		amount, _ := cmd.Flags().GetUint64("amount")
		if !cmd.Flags().Changed("amount") {
			amount, err = reg.PriceForTier(tier)
			if err != nil {
				return err
			}
		}

		if err := reg.BuyMembership(cmd.Context(), account, tier, amount); err != nil {
			return err
		}

		fmt.Printf("membership purchased: %s is now %s\n", account, tier)
		return nil
	},
}

var membershipTierCmd = &cobra.Command{
	Use:   "tier",
	Short: "Show an account's current tier",
	RunE: func(cmd *cobra.Command, args []string) error {
		account, err := accountFlag(cmd, "account")
		if err != nil {
			return err
		}

		fmt.Println(application.Ledger.Membership.Tier(account))
		return nil
	},
}

func tierFlag(cmd *cobra.Command) (domain.Tier, error) {
	s, _ := cmd.Flags().GetString("tier")
	return domain.ParseTier(s)
}

func init() {
	membershipPriceCmd.Flags().String("tier", "", "tier name: bronze, silver, gold")
	_ = membershipPriceCmd.MarkFlagRequired("tier")

	membershipBuyCmd.Flags().String("account", "", "buying account")
	membershipBuyCmd.Flags().String("tier", "", "tier name: bronze, silver, gold")
	membershipBuyCmd.Flags().Uint64("amount", 0, "payment amount (defaults to the tier price)")
	_ = membershipBuyCmd.MarkFlagRequired("account")
	_ = membershipBuyCmd.MarkFlagRequired("tier")

	membershipTierCmd.Flags().String("account", "", "account to inspect")
	_ = membershipTierCmd.MarkFlagRequired("account")

	membershipCmd.AddCommand(membershipPriceCmd)
	membershipCmd.AddCommand(membershipBuyCmd)
	membershipCmd.AddCommand(membershipTierCmd)
}
