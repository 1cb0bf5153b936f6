package jobs

import (
	"log/slog"

	"dealview/internal/database"
)

// MaintenanceJob periodically checkpoints the WAL so the write-ahead log
// does not grow unbounded under sustained event traffic.
type MaintenanceJob struct {
	dbManager *database.DBManager
	logger    *slog.Logger
}

func NewMaintenanceJob(dbManager *database.DBManager, logger *slog.Logger) *MaintenanceJob {
	return &MaintenanceJob{
		dbManager: dbManager,
		logger:    logger,
	}
}

// Run performs one maintenance pass.
func (j *MaintenanceJob) Run() error {
	if err := j.dbManager.CheckpointWAL("PASSIVE"); err != nil {
		j.logger.Warn("WAL checkpoint failed", slog.Any("error", err))
		return err
	}
	return nil
}
