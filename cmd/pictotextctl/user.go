package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/pictotext/pictotext/app/repository"
	"github.com/pictotext/pictotext/internal/pkg/quota"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Inspect premium accounts",
}

var userInspectCmd = &cobra.Command{
	Use:   "inspect [email]",
	Short: "Show an account with its allow-list entry and monthly usage",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		factory := repository.GetGlobalFactory()

		user, err := factory.GetUserRepository().GetByEmail(args[0])
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				fmt.Printf("No account for %s\n", args[0])
			} else {
				return err
			}
		} else {
			fmt.Printf("ID:            %d\n", user.ID)
			fmt.Printf("Username:      %s\n", user.Username)
			fmt.Printf("Email:         %s\n", user.Email)
			if user.OAuthProvider != "" {
				fmt.Printf("OAuth:         %s (%s)\n", user.OAuthProvider, user.OAuthID)
			}
			fmt.Printf("Monthly usage: %d / %d (since %s)\n", user.MonthlyUsage, quota.PremiumMonthlyLimit, user.LastUsageReset.Format("2006-01-02"))
			if user.LastLoginAt != nil {
				fmt.Printf("Last login:    %s\n", user.LastLoginAt.Format("2006-01-02 15:04"))
			}
		}

		listing, err := factory.GetPremiumListingRepository().GetByEmail(args[0])
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				fmt.Println("Allow-list:    no entry")
				return nil
			}
			return err
		}
		fmt.Printf("Allow-list:    %s (ref %s, since %s)\n", listing.Status, listing.PaymentRef, listing.CreatedAt.Format("2006-01-02"))
		return nil
	},
}

func init() {
	userCmd.AddCommand(userInspectCmd)
	rootCmd.AddCommand(userCmd)
}
