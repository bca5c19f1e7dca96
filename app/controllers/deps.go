package controllers

import (
	"context"
	"log"
	"time"

	"github.com/pictotext/pictotext/app/repository"
	"github.com/pictotext/pictotext/internal/pkg/cache"
	"github.com/pictotext/pictotext/internal/pkg/env"
	"github.com/pictotext/pictotext/internal/pkg/metrics/counter"
	"github.com/pictotext/pictotext/internal/pkg/ocr"
	"github.com/pictotext/pictotext/internal/pkg/payment"
	"github.com/pictotext/pictotext/internal/pkg/provisioning"
	"github.com/pictotext/pictotext/internal/pkg/quota"
	"github.com/pictotext/pictotext/internal/pkg/s3archive"
	"github.com/pictotext/pictotext/internal/pkg/security"
)

// Shared controller dependencies, wired once at startup by the router.
var (
	provisioningSvc *provisioning.Service
	freeTracker     *quota.FreeTracker
	premiumTracker  *quota.PremiumTracker
	accessGate      *quota.Gate
	ocrService      ocr.Service
	paypalClient    *payment.PayPalClient
	archiveClient   *s3archive.Client
	tokenService    *security.TokenService
)

// InitializeControllers builds the shared services from the repository
// factory and the environment. Optional integrations that are not
// configured stay nil and their endpoints degrade gracefully.
func InitializeControllers() {
	repos := repository.GetGlobalFactory().GetRepositories()

	var pending provisioning.PendingStore
	if cache.GetClient() != nil {
		pending = provisioning.NewRedisPendingStore()
	} else {
		pending = provisioning.NewMemoryPendingStore()
	}
	provisioningSvc = provisioning.NewService(repos, pending)

	freeTracker = quota.NewFreeTracker(repos.FreeUsage)
	premiumTracker = quota.NewPremiumTracker(repos.User)
	accessGate = quota.NewGate(freeTracker, premiumTracker)

	engines := []ocr.Service{ocr.NewOCRSpaceClient()}
	if visionClient, err := ocr.NewVisionClient(context.Background()); err == nil {
		engines = append(engines, visionClient)
	} else {
		log.Printf("Google Vision fallback not available: %v", err)
	}
	ocrService = ocr.NewChain(engines...)

	paypalClient = payment.NewPayPalClientFromEnv()

	if cfg, err := s3archive.LoadConfig(); err == nil && cfg.IsEnabled() {
		if client, err := s3archive.NewClient(cfg); err == nil {
			archiveClient = client
		} else {
			log.Printf("S3 archiving disabled: %v", err)
		}
	}

	if svc, err := security.NewTokenServiceFromEnv(); err == nil {
		tokenService = svc
	} else if env.GetEnv("JWT_SECRET", "") != "" {
		log.Printf("API tokens disabled: %v", err)
	}
}

// StartBackgroundWorkers launches the periodic maintenance loops: purging
// free-tier counters that have been idle past the retention window and
// flushing the buffered extraction counters into the stats table.
func StartBackgroundWorkers(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if removed, err := freeTracker.PurgeIdle(30 * 24 * time.Hour); err != nil {
					log.Printf("free usage purge failed: %v", err)
				} else if removed > 0 {
					log.Printf("purged %d idle free usage counters", removed)
				}
			}
		}
	}()

	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := counter.FlushAll(); err != nil {
					log.Printf("extraction counter flush failed: %v", err)
				}
			}
		}
	}()
}

// TokenService exposes the configured token service to the router for the
// bearer middleware. Nil when JWT_SECRET is not set.
func TokenService() *security.TokenService {
	return tokenService
}

func userRepo() repository.UserRepository {
	return repository.GetGlobalFactory().GetUserRepository()
}

func extractionLogRepo() repository.ExtractionLogRepository {
	return repository.GetGlobalFactory().GetExtractionLogRepository()
}

func securityTokenTTLSeconds() float64 {
	return security.DefaultTokenTTL.Seconds()
}
