package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/raceline/karting-api/internal/api/handler/v1/request"
	"github.com/raceline/karting-api/internal/api/handler/v1/response"
	"github.com/raceline/karting-api/internal/domain"
	"github.com/raceline/karting-api/internal/service"
)

type SessionService interface {
	Ingest(ctx context.Context, session domain.RaceSession) (domain.RaceSession, error)
	GetSession(ctx context.Context, sessionID string) (domain.RaceSession, error)
	ListSessions(ctx context.Context) ([]domain.RaceSession, error)
	MarkProcessed(ctx context.Context, sessionID string) error
}

type SessionHandler struct {
	svc SessionService
}

func NewSessionHandler(svc SessionService) *SessionHandler {
	return &SessionHandler{
		svc: svc,
	}
}

// HandleIngestSession godoc
// @Summary      Ingest a race session from the timing system
// @Tags         sessions
// @Produce      json
// @Param        request  body       request.IngestSessionRequest true "request body"
// @Success      201      {object}   domain.RaceSession
// @Failure      400      {object}   response.Err
// @Failure      409      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Security     BearerAuth
// @Router       /admin/sessions [post]
func (h *SessionHandler) HandleIngestSession(ctx *gin.Context) {
	var req request.IngestSessionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	session := domain.RaceSession{
		SessionID:   req.SessionID,
		SessionName: req.SessionName,
		SessionDate: req.SessionDate,
		SessionType: req.SessionType,
	}
	for _, result := range req.Results {
		driverResult := domain.DriverResult{
			DriverName:    result.DriverName,
			KartNumber:    result.KartNumber,
			FinalPosition: result.FinalPosition,
			BestTimeMS:    result.BestTimeMS,
			LastTimeMS:    result.LastTimeMS,
			TotalLaps:     result.TotalLaps,
		}
		for _, lap := range result.Laps {
			driverResult.Laps = append(driverResult.Laps, domain.Lap{
				LapNumber: lap.LapNumber,
				TimeMS:    lap.TimeMS,
				Position:  lap.Position,
			})
		}
		session.Results = append(session.Results, driverResult)
	}

	created, err := h.svc.Ingest(ctx.Request.Context(), session)
	if err != nil {
		if errors.Is(err, service.ErrDuplicateSessionID) {
			response.RenderErr(ctx, response.ErrConflict(service.ErrDuplicateSessionID))
			return
		}

		err = fmt.Errorf("v1.HandleIngestSession -> h.svc.Ingest -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusCreated, created)
}

// HandleGetSession godoc
// @Summary      Get a session by its timing-system ID
// @Tags         sessions
// @Produce      json
// @Param        sessionID   path       string  true "session ID"
// @Success      200      {object}   domain.RaceSession
// @Failure      404      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Security     BearerAuth
// @Router       /sessions/{sessionID} [get]
func (h *SessionHandler) HandleGetSession(ctx *gin.Context) {
	sessionID := ctx.Param("sessionID")

	session, err := h.svc.GetSession(ctx.Request.Context(), sessionID)
	if err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			response.RenderErr(ctx, response.ErrNotFound("session", "sessionID", sessionID))
			return
		}

		err = fmt.Errorf("v1.HandleGetSession -> h.svc.GetSession -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, session)
}

// HandleListSessions godoc
// @Summary      List race sessions, newest first
// @Tags         sessions
// @Produce      json
// @Success      200      {array}    domain.RaceSession
// @Failure      500      {object}   response.Err
// @Security     BearerAuth
// @Router       /sessions [get]
func (h *SessionHandler) HandleListSessions(ctx *gin.Context) {
	sessions, err := h.svc.ListSessions(ctx.Request.Context())
	if err != nil {
		err = fmt.Errorf("v1.HandleListSessions -> h.svc.ListSessions -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, sessions)
}

// HandleMarkProcessed godoc
// @Summary      Mark a session as processed
// @Tags         sessions
// @Produce      json
// @Param        sessionID   path       string  true "session ID"
// @Success      204
// @Failure      404      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Security     BearerAuth
// @Router       /admin/sessions/{sessionID}/processed [post]
func (h *SessionHandler) HandleMarkProcessed(ctx *gin.Context) {
	sessionID := ctx.Param("sessionID")

	if err := h.svc.MarkProcessed(ctx.Request.Context(), sessionID); err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			response.RenderErr(ctx, response.ErrNotFound("session", "sessionID", sessionID))
			return
		}

		err = fmt.Errorf("v1.HandleMarkProcessed -> h.svc.MarkProcessed -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.Status(http.StatusNoContent)
}
