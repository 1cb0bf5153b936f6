package jobs

import (
	"log/slog"
	"time"

	"dealview/internal/config"
	"dealview/internal/database"
	"dealview/internal/tracking"
)

// CleanupJob purges raw interaction events past the retention window. The
// deduplicated views and all derived analytics inputs survive; only the
// append-only event log is trimmed for data minimization and storage.
type CleanupJob struct {
	dbManager *database.DBManager
	logger    *slog.Logger
	cfg       *config.Config
}

func NewCleanupJob(dbManager *database.DBManager, logger *slog.Logger, cfg *config.Config) *CleanupJob {
	return &CleanupJob{
		dbManager: dbManager,
		logger:    logger,
		cfg:       cfg,
	}
}

// Run removes raw events older than the retention period.
func (j *CleanupJob) Run() error {
	retentionDays := j.cfg.EventRetentionDays
	db := j.dbManager.GetConnection()
	cutoffDate := time.Now().UTC().AddDate(0, 0, -retentionDays)

	j.logger.Info("Starting cleanup of old proposal events",
		slog.Int("retention_days", retentionDays),
		slog.Time("cutoff_date", cutoffDate))

	deleted, err := tracking.PurgeEventsOlderThan(j.logger, db, cutoffDate)
	if err != nil {
		j.logger.Error("Failed to purge old proposal events", slog.Any("error", err))
		return err
	}

	if deleted == 0 {
		j.logger.Debug("No old proposal events to clean up")
		return nil
	}

	j.logger.Info("Cleaned up old proposal events",
		slog.Int64("deleted_count", deleted),
		slog.Int("retention_days", retentionDays))

	return nil
}
