package v1

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"

	"dealview/internal/proposals"
	"dealview/internal/tracking"
)

const errInvalidRequest = "Invalid request"

// TrackEventParams is the public tracking request body.
type TrackEventParams struct {
	ProposalID uint            `json:"proposalId"`
	SessionID  string          `json:"sessionId"`
	EventType  string          `json:"eventType"`
	EventData  json.RawMessage `json:"eventData"`
	UserAgent  string          `json:"userAgent"`
}

// TrackEventPublicAPIHandler records one viewer interaction event.
func TrackEventPublicAPIHandler(ctx *cartridge.Context) error {
	ctx.Logger.Debug("Received track request", slog.String("method", ctx.Method()), slog.String("path", ctx.Path()))

	var params TrackEventParams
	if err := ctx.Ctx.BodyParser(&params); err != nil {
		ctx.Logger.Debug("Failed to parse track request", slog.Any("error", err))
		return ctx.Status(http.StatusBadRequest).JSON(fiber.Map{
			"error": errInvalidRequest,
			"code":  "VALIDATION_ERROR",
		})
	}

	userAgent := params.UserAgent
	if userAgent == "" {
		userAgent = ctx.Get("User-Agent")
	}
	if forwardedUA := ctx.Get("X-Forwarded-User-Agent"); forwardedUA != "" {
		userAgent = forwardedUA
	}

	input := &tracking.RecordEventInput{
		ProposalID: params.ProposalID,
		SessionID:  params.SessionID,
		EventType:  tracking.EventType(params.EventType),
		EventData:  params.EventData,
		UserAgent:  userAgent,
		IPAddress:  getClientIP(ctx.Ctx),
	}

	if err := tracking.RecordEvent(ctx.DBManager, ctx.Logger, input); err != nil {
		if strings.Contains(err.Error(), "database is locked") || strings.Contains(err.Error(), "busy") {
			return ctx.Status(599).JSON(fiber.Map{}) // custom status code
		}

		var validationErr *tracking.ValidationError
		if errors.As(err, &validationErr) {
			return ctx.Status(http.StatusBadRequest).JSON(fiber.Map{
				"error": validationErr.Reason,
				"code":  "VALIDATION_ERROR",
			})
		}

		var notFoundErr *proposals.ProposalNotFoundError
		if errors.As(err, &notFoundErr) {
			return ctx.Status(http.StatusBadRequest).JSON(fiber.Map{
				"error": "Proposal not found",
				"code":  "PROPOSAL_NOT_FOUND",
			})
		}

		ctx.Logger.Error("Failed to record event", slog.Any("error", err))
		return ctx.Status(http.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to record event",
			"code":  "COLLECTION_ERROR",
		})
	}

	return ctx.Status(http.StatusAccepted).JSON(fiber.Map{
		"success": true,
	})
}
