package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pictotext/pictotext/app/repository"
	"github.com/pictotext/pictotext/internal/pkg/cache"
	"github.com/pictotext/pictotext/internal/pkg/logger"
	"github.com/pictotext/pictotext/internal/pkg/metrics/counter"
	"github.com/pictotext/pictotext/internal/pkg/quota"
)

var purgeRetention time.Duration

var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Maintain usage counters",
}

var usagePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete free-tier counters idle past the retention window",
	RunE: func(cmd *cobra.Command, args []string) error {
		log := logger.WithComponent("usage")

		tracker := quota.NewFreeTracker(repository.GetGlobalFactory().GetFreeUsageRepository())
		removed, err := tracker.PurgeIdle(purgeRetention)
		if err != nil {
			return err
		}

		log.Info().Int64("removed", removed).Dur("retention", purgeRetention).Msg("idle counters purged")
		fmt.Printf("Purged %d idle free usage counters\n", removed)
		return nil
	},
}

var statsFlushCmd = &cobra.Command{
	Use:   "flush-stats",
	Short: "Flush buffered extraction counters into the stats table",
	RunE: func(cmd *cobra.Command, args []string) error {
		log := logger.WithComponent("usage")

		cache.SetupCache()
		if err := counter.FlushAll(); err != nil {
			return err
		}

		log.Info().Msg("extraction counters flushed")
		fmt.Println("Extraction counters flushed")
		return nil
	},
}

func init() {
	usagePurgeCmd.Flags().DurationVar(&purgeRetention, "retention", 30*24*time.Hour, "how long idle counters are kept")

	usageCmd.AddCommand(usagePurgeCmd, statsFlushCmd)
	rootCmd.AddCommand(usageCmd)
}
