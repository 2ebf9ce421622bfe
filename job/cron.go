package job

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// ReportPruner deletes analysis reports created before cutoff.
type ReportPruner interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// StartCronJob schedules report retention. spec has a seconds field,
// e.g. "0 0 2 * * *" for 02:00 every day. The returned cron is running.
func StartCronJob(repo ReportPruner, spec string, retentionDays int) (*cron.Cron, error) {
	c := cron.New(cron.WithSeconds())
	_, err := c.AddFunc(spec, func() {
		PruneReports(context.Background(), repo, retentionDays, time.Now())
	})
	if err != nil {
		return nil, err
	}
	c.Start()
	log.Printf(">>> [Cron] report retention scheduled (%s, keep %d days)", spec, retentionDays)
	return c, nil
}

// PruneReports runs one retention pass. Non-positive retention disables it.
func PruneReports(ctx context.Context, repo ReportPruner, retentionDays int, now time.Time) int64 {
	if retentionDays <= 0 {
		return 0
	}
	cutoff := now.AddDate(0, 0, -retentionDays)
	rows, err := repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		log.Println("[Cron] Error:", err)
		return 0
	}
	log.Printf("[Cron] pruned %d analysis reports older than %s", rows, cutoff.Format(time.DateOnly))
	return rows
}
