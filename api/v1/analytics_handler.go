package v1

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"

	"dealview/internal/analytics"
	"dealview/internal/config"
	"dealview/internal/proposals"
	"dealview/internal/timeframe"
	"dealview/internal/workspaces"
)

// GetProposalAnalyticsHandler returns the engagement snapshot for one
// proposal. The requester must be a member of the proposal's workspace.
func GetProposalAnalyticsHandler(ctx *cartridge.Context) error {
	userID, ok := requesterID(ctx)
	if !ok {
		return ctx.Status(http.StatusForbidden).JSON(fiber.Map{
			"error": "Missing or invalid X-User-ID header",
			"code":  "FORBIDDEN",
		})
	}

	proposalID, err := ctx.ParamsInt("id")
	if err != nil || proposalID <= 0 {
		return ctx.Status(http.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid proposal id",
			"code":  "VALIDATION_ERROR",
		})
	}

	cfg := config.GetConfig()
	db := ctx.DBManager.GetConnection()

	proposal, err := proposals.GetProposalOrNotFound(db, uint(proposalID))
	if err != nil {
		var notFoundErr *proposals.ProposalNotFoundError
		if errors.As(err, &notFoundErr) {
			return ctx.Status(http.StatusNotFound).JSON(fiber.Map{
				"error": "Proposal not found",
				"code":  "PROPOSAL_NOT_FOUND",
			})
		}
		ctx.Logger.Error("Failed to load proposal", slog.Any("error", err))
		return internalError(ctx)
	}

	member, err := workspaces.IsMember(db, proposal.WorkspaceID, userID)
	if err != nil {
		ctx.Logger.Error("Failed to check workspace membership", slog.Any("error", err))
		return internalError(ctx)
	}
	if !member {
		return ctx.Status(http.StatusForbidden).JSON(fiber.Map{
			"error": "Not a member of this workspace",
			"code":  "FORBIDDEN",
		})
	}

	queryCtx, cancel := context.WithTimeout(ctx.Ctx.UserContext(), cfg.GetQueryTimeout())
	defer cancel()

	snapshot, err := analytics.GetProposalSnapshot(queryCtx, db, proposal.ID, analytics.ScoreWeightsFromConfig(cfg))
	if err != nil {
		ctx.Logger.Error("Failed to build proposal snapshot",
			slog.Uint64("proposal_id", uint64(proposal.ID)),
			slog.Any("error", err))
		return internalError(ctx)
	}

	return ctx.Status(http.StatusOK).JSON(snapshot)
}

// GetWorkspaceAnalyticsHandler returns the aggregated workspace report for
// the requested time frame.
func GetWorkspaceAnalyticsHandler(ctx *cartridge.Context) error {
	userID, ok := requesterID(ctx)
	if !ok {
		return ctx.Status(http.StatusForbidden).JSON(fiber.Map{
			"error": "Missing or invalid X-User-ID header",
			"code":  "FORBIDDEN",
		})
	}

	workspaceID, err := ctx.ParamsInt("id")
	if err != nil || workspaceID <= 0 {
		return ctx.Status(http.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid workspace id",
			"code":  "VALIDATION_ERROR",
		})
	}

	cfg := config.GetConfig()
	db := ctx.DBManager.GetConnection()

	if _, err := workspaces.GetWorkspaceOrNotFound(db, uint(workspaceID)); err != nil {
		var notFoundErr *workspaces.WorkspaceNotFoundError
		if errors.As(err, &notFoundErr) {
			return ctx.Status(http.StatusNotFound).JSON(fiber.Map{
				"error": "Workspace not found",
				"code":  "WORKSPACE_NOT_FOUND",
			})
		}
		ctx.Logger.Error("Failed to load workspace", slog.Any("error", err))
		return internalError(ctx)
	}

	member, err := workspaces.IsMember(db, uint(workspaceID), userID)
	if err != nil {
		ctx.Logger.Error("Failed to check workspace membership", slog.Any("error", err))
		return internalError(ctx)
	}
	if !member {
		return ctx.Status(http.StatusForbidden).JSON(fiber.Map{
			"error": "Not a member of this workspace",
			"code":  "FORBIDDEN",
		})
	}

	parser := timeframe.NewParser()
	tf, err := parser.ParseTimeFrame(timeframe.ParserParams{
		StartDate: ctx.Query("start_date", ""),
		EndDate:   ctx.Query("end_date", ""),
		Interval:  ctx.Query("interval", ""),
		Tz:        ctx.Query("tz", "UTC"),
	})
	if err != nil {
		return ctx.Status(http.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
			"code":  "VALIDATION_ERROR",
		})
	}

	queryCtx, cancel := context.WithTimeout(ctx.Ctx.UserContext(), cfg.GetQueryTimeout())
	defer cancel()

	report, err := analytics.GetWorkspaceReport(queryCtx, db, analytics.WorkspaceScopedQueryParams{
		WorkspaceID: uint(workspaceID),
		TimeFrame:   tf,
	}, analytics.ScoreWeightsFromConfig(cfg))
	if err != nil {
		ctx.Logger.Error("Failed to build workspace report",
			slog.Int("workspace_id", workspaceID),
			slog.Any("error", err))
		return internalError(ctx)
	}

	return ctx.Status(http.StatusOK).JSON(report)
}

// requesterID extracts the authenticated user identity forwarded by the
// upstream auth layer.
func requesterID(ctx *cartridge.Context) (uint, bool) {
	raw := ctx.Get("X-User-ID")
	if raw == "" {
		return 0, false
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func internalError(ctx *cartridge.Context) error {
	return ctx.Status(http.StatusInternalServerError).JSON(fiber.Map{
		"error": "Internal error",
		"code":  "INTERNAL_ERROR",
	})
}
