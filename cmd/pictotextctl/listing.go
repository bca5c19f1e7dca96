package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pictotext/pictotext/app/models"
	"github.com/pictotext/pictotext/app/repository"
	"github.com/pictotext/pictotext/internal/pkg/logger"
)

var grantOrderRef string

var listingCmd = &cobra.Command{
	Use:   "listing",
	Short: "Manage the premium allow-list",
}

var listingGrantCmd = &cobra.Command{
	Use:   "grant [email]",
	Short: "Add an email to the premium allow-list",
	Long: `Grant marks an email as paid without going through PayPal. Use it for
support cases such as refund reversals or manually sold seats. A user who
registers with this email afterwards gets a premium account immediately.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		log := logger.WithComponent("listing")

		listing := &models.PremiumListing{
			Email:      args[0],
			PaymentRef: grantOrderRef,
			Status:     models.LISTING_STATUS_ACTIVE,
		}
		if err := listing.Validate(); err != nil {
			return err
		}

		if err := repository.GetGlobalFactory().GetPremiumListingRepository().Upsert(listing); err != nil {
			return err
		}

		log.Info().Str("email", args[0]).Msg("allow-list entry granted")
		fmt.Printf("Granted premium access to %s\n", args[0])
		return nil
	},
}

var listingRevokeCmd = &cobra.Command{
	Use:   "revoke [email]",
	Short: "Cancel an allow-list entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		log := logger.WithComponent("listing")

		repo := repository.GetGlobalFactory().GetPremiumListingRepository()
		if err := repo.SetStatus(args[0], models.LISTING_STATUS_CANCELLED); err != nil {
			return err
		}

		log.Info().Str("email", args[0]).Msg("allow-list entry revoked")
		fmt.Printf("Revoked premium access for %s\n", args[0])
		return nil
	},
}

var listingListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show allow-list entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		repo := repository.GetGlobalFactory().GetPremiumListingRepository()

		total, err := repo.Count()
		if err != nil {
			return err
		}

		listings, err := repo.List(0, 1000)
		if err != nil {
			return err
		}

		fmt.Printf("%-40s %-12s %-20s %s\n", "EMAIL", "STATUS", "PAYMENT REF", "CREATED")
		for _, l := range listings {
			fmt.Printf("%-40s %-12s %-20s %s\n", l.Email, l.Status, l.PaymentRef, l.CreatedAt.Format("2006-01-02 15:04"))
		}
		fmt.Printf("\n%d entries total\n", total)
		return nil
	},
}

func init() {
	listingGrantCmd.Flags().StringVar(&grantOrderRef, "order-ref", "MANUAL", "payment reference to record with the grant")

	listingCmd.AddCommand(listingGrantCmd, listingRevokeCmd, listingListCmd)
	rootCmd.AddCommand(listingCmd)
}
