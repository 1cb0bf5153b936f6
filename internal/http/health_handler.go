package http

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/karloscodes/cartridge"
)

var startedAt = time.Now().UTC()

const dbPingTimeout = 2 * time.Second

type healthResponse struct {
	Status        string    `json:"status"`
	Database      string    `json:"database"`
	UptimeSeconds int64     `json:"uptime_seconds"`
	CheckedAt     time.Time `json:"checked_at"`
}

// HealthIndexAction reports process and storage health. A failing database
// ping degrades the status instead of erroring so load balancers still get a
// parseable body.
func HealthIndexAction(ctx *cartridge.Context) error {
	resp := healthResponse{
		Status:        "ok",
		Database:      "ok",
		UptimeSeconds: int64(time.Since(startedAt).Seconds()),
		CheckedAt:     time.Now().UTC(),
	}

	if err := pingDatabase(ctx); err != nil {
		ctx.Logger.Error("Health check database ping failed", slog.Any("error", err))
		resp.Status = "degraded"
		resp.Database = "error"
	}

	return ctx.JSON(resp)
}

func pingDatabase(ctx *cartridge.Context) error {
	db := ctx.DBManager.GetConnection()
	if db == nil {
		return errors.New("database connection unavailable")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	pingCtx, cancel := context.WithTimeout(ctx.Ctx.UserContext(), dbPingTimeout)
	defer cancel()
	return sqlDB.PingContext(pingCtx)
}
