package counter

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/pictotext/pictotext/internal/pkg/cache"
	"github.com/pictotext/pictotext/internal/pkg/database"
)

const extractionsKey = "extraction:counters:daily"

// AddExtraction increments the pending counter for today's extractions of a
// tier in Redis. The hash field is "YYYY-MM-DD|tier".
func AddExtraction(tier string) error {
	rdb := cache.GetClient()
	if rdb == nil {
		return nil
	}
	ctx := context.Background()
	field := fmt.Sprintf("%s|%s", time.Now().UTC().Format("2006-01-02"), tier)
	return rdb.HIncrBy(ctx, extractionsKey, field, 1).Err()
}

// FlushAll flushes pending extraction counters to the database
func FlushAll() error {
	return flushExtractionCounters()
}

// flushExtractionCounters drains the Redis hash atomically and upserts the
// batched increments into daily_extraction_stats.
// Uses RENAME to a temporary key for atomic drain without losing in-flight increments.
func flushExtractionCounters() error {
	ctx := context.Background()
	rdb := cache.GetClient()
	if rdb == nil {
		return nil
	}

	tmpKey := fmt.Sprintf("%s:tmp:%d", extractionsKey, time.Now().UnixNano())
	if err := rdb.Do(ctx, "RENAME", extractionsKey, tmpKey).Err(); err != nil {
		// If key does not exist, nothing to flush
		if strings.Contains(strings.ToLower(err.Error()), "no such key") {
			return nil
		}
		if err.Error() == "redis: nil" {
			return nil
		}
		return err
	}

	// Ensure cleanup of tmpKey even if later steps fail
	defer rdb.Del(ctx, tmpKey)

	data, err := rdb.HGetAll(ctx, tmpKey).Result()
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}

	type row struct {
		day  string
		tier string
		inc  string
	}
	rows := make([]row, 0, len(data))
	for field, value := range data {
		parts := strings.SplitN(field, "|", 2)
		if len(parts) != 2 || value == "0" {
			continue
		}
		rows = append(rows, row{day: parts[0], tier: parts[1], inc: value})
	}
	if len(rows) == 0 {
		return nil
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].day != rows[j].day {
			return rows[i].day < rows[j].day
		}
		return rows[i].tier < rows[j].tier
	})

	// INSERT ... ON DUPLICATE KEY UPDATE keeps one round trip per flush.
	var builder strings.Builder
	args := make([]interface{}, 0, len(rows)*3)
	builder.WriteString("INSERT INTO daily_extraction_stats (day, tier, extractions, updated_at) VALUES ")
	for i, r := range rows {
		if i > 0 {
			builder.WriteString(",")
		}
		builder.WriteString("(?, ?, ?, NOW())")
		args = append(args, r.day, r.tier, r.inc)
	}
	builder.WriteString(" ON DUPLICATE KEY UPDATE extractions = extractions + VALUES(extractions), updated_at = NOW()")

	db := database.GetDB()
	if db == nil {
		return nil
	}
	return db.Exec(builder.String(), args...).Error
}
