package controllers

import (
	"errors"
	"io"
	"log"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/pictotext/pictotext/app/models"
	"github.com/pictotext/pictotext/internal/pkg/imageprep"
	"github.com/pictotext/pictotext/internal/pkg/metrics/counter"
	"github.com/pictotext/pictotext/internal/pkg/ocr"
	"github.com/pictotext/pictotext/internal/pkg/quota"
	"github.com/pictotext/pictotext/internal/pkg/usercontext"
)

// HandleExtractText runs OCR on an uploaded image for both anonymous and
// premium callers. The quota gate decides admission before any OCR work, the
// counter is incremented only after a successful extraction.
func HandleExtractText(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	useFiltering := c.FormValue("useFiltering") == "true"

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "No image file provided"})
	}
	if fileHeader.Size > imageprep.MaxUploadBytes {
		return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{"error": "File size exceeds the maximum size limit"})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "No image file provided"})
	}
	defer file.Close()

	image, err := io.ReadAll(file)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Could not read the uploaded file"})
	}

	if !imageprep.IsSupported(image) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": imageprep.ErrUnsupportedFormat.Error()})
	}

	// An unconfigured engine refuses before any quota lookup, so exhausted
	// callers see the outage rather than their limit.
	if !ocrService.Available() {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "OCR service is not available. Please check OCR_SPACE_API_KEY configuration.",
		})
	}

	var identity quota.Identity
	if userCtx.IsLoggedIn {
		decision, _ := accessGate.CheckPremium(userCtx.UserID)
		switch decision {
		case quota.DenyUnknownUser:
			endSession(c)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
		case quota.DenyMonthlyLimit:
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":         "Monthly limit of 1500 extractions exceeded",
				"limitExceeded": true,
				"userType":      "premium",
			})
		case quota.DenyNoBackend:
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "Usage tracking is unavailable, please try again shortly",
			})
		}
	} else {
		identity = quota.ResolveIdentity(c)
		decision, _ := accessGate.CheckFree(identity)
		switch decision {
		case quota.DenyDailyLimit:
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":           "Daily limit of 3 free extractions exceeded. Purchase premium for 1500 monthly extractions.",
				"limitExceeded":   true,
				"userType":        "free",
				"requiresPayment": true,
			})
		case quota.DenyNoBackend:
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "Usage tracking is unavailable, please try again shortly",
			})
		}
	}

	result, err := ocrService.ExtractText(c.Context(), image, useFiltering)
	if err != nil {
		if errors.Is(err, ocr.ErrUnavailable) {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "OCR service is not available. Please check OCR_SPACE_API_KEY configuration.",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "OCR processing failed. Please try again with a different image.",
		})
	}

	entry := &models.ExtractionLog{
		Tier:       models.TIER_FREE,
		Engine:     result.Engine,
		WordCount:  result.WordCount,
		Confidence: result.Confidence,
	}

	if userCtx.IsLoggedIn {
		if _, err := premiumTracker.Increment(userCtx.UserID); err != nil {
			log.Printf("usage increment failed for user %d: %v", userCtx.UserID, err)
		}
		userID := userCtx.UserID
		entry.UserID = &userID
		entry.Tier = models.TIER_PREMIUM

		if archiveClient != nil {
			if upload, err := archiveClient.ArchiveImage(c.Context(), userCtx.UserID, image); err == nil {
				entry.ArchiveKey = &upload.ObjectKey
			} else {
				log.Printf("image archive failed: %v", err)
			}
		}
	} else {
		if _, err := freeTracker.Increment(identity); err != nil {
			log.Printf("usage increment failed for %s: %v", identity.IPAddress, err)
		}
		entry.IPAddress = identity.IPAddress
		entry.CookieID = identity.CookieID
	}

	if err := extractionLogRepo().Create(entry); err != nil {
		log.Printf("extraction log write failed: %v", err)
	}
	if err := counter.AddExtraction(entry.Tier); err != nil {
		log.Printf("extraction counter failed: %v", err)
	}

	return c.JSON(fiber.Map{
		"extractedText": result.Text,
		"rawText":       result.RawText,
		"confidence":    result.Confidence,
		"wordCount":     result.WordCount,
	})
}

// HandleUsage reports the caller's current quota state without consuming
// anything.
func HandleUsage(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	if userCtx.IsLoggedIn {
		decision, snap := accessGate.CheckPremium(userCtx.UserID)
		if decision == quota.DenyUnknownUser {
			endSession(c)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
		}
		return c.JSON(fiber.Map{
			"imageCount":   snap.Count,
			"monthlyLimit": snap.Limit,
			"canProcess":   snap.CanProcess,
			"userType":     "premium",
		})
	}

	identity := quota.ResolveIdentity(c)
	_, snap := accessGate.CheckFree(identity)
	return c.JSON(fiber.Map{
		"imageCount": snap.Count,
		"dailyLimit": snap.Limit,
		"canProcess": snap.CanProcess,
		"userType":   "free",
	})
}

// HandleHistory returns pages of the caller's past extractions, newest
// first.
func HandleHistory(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	limit, err := strconv.Atoi(c.Query("limit", "20"))
	if err != nil || limit < 1 || limit > 100 {
		limit = 20
	}
	offset, err := strconv.Atoi(c.Query("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}

	logs, err := extractionLogRepo().ListByUserID(userCtx.UserID, offset, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load history"})
	}
	total, err := extractionLogRepo().CountByUserID(userCtx.UserID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load history"})
	}

	return c.JSON(fiber.Map{
		"total":   total,
		"offset":  offset,
		"limit":   limit,
		"entries": logs,
	})
}
