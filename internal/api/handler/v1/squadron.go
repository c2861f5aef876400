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

type SquadronService interface {
	Create(ctx context.Context, name string, captainID uint) (domain.Squadron, error)
	Get(ctx context.Context, id uint) (domain.Squadron, error)
	GetForUser(ctx context.Context, userID uint) (domain.Squadron, error)
	Join(ctx context.Context, squadronID, userID uint) error
	Leave(ctx context.Context, squadronID, userID uint) error
	RemoveMember(ctx context.Context, squadronID, captainID, targetID uint) error
	TransferCaptaincy(ctx context.Context, squadronID, captainID, newCaptainID uint) error
	Invite(ctx context.Context, squadronID, inviterID, inviteeID uint) (domain.SquadronInvite, error)
	ListInvites(ctx context.Context, userID uint) ([]domain.SquadronInvite, error)
	AcceptInvite(ctx context.Context, inviteID, userID uint) (domain.SquadronInvite, error)
	DeclineInvite(ctx context.Context, inviteID, userID uint) (domain.SquadronInvite, error)
	ApplyDelta(ctx context.Context, actorID uint, entry domain.SquadronPointsEntry) (domain.SquadronPointsEntry, error)
	CurrentTotal(ctx context.Context, squadronID uint) (int, error)
	PointsHistory(ctx context.Context, squadronID uint) ([]domain.SquadronPointsEntry, error)
	Rankings(ctx context.Context) ([]domain.SquadronRanking, error)
}

type SquadronHandler struct {
	svc SquadronService
}

func NewSquadronHandler(svc SquadronService) *SquadronHandler {
	return &SquadronHandler{
		svc: svc,
	}
}

// renderMembershipErr maps the shared squadron error set. Returns false
// when the error was not one of the membership sentinels.
func renderMembershipErr(ctx *gin.Context, err error) bool {
	switch {
	case errors.Is(err, service.ErrSquadronNotFound):
		response.RenderErr(ctx, response.ErrNotFound("squadron", "ID", ctx.Param("squadronID")))
	case errors.Is(err, service.ErrSquadronInactive):
		response.RenderErr(ctx, response.ErrConflict(service.ErrSquadronInactive))
	case errors.Is(err, service.ErrSquadronFull):
		response.RenderErr(ctx, response.ErrConflict(service.ErrSquadronFull))
	case errors.Is(err, service.ErrAlreadyInSquadron):
		response.RenderErr(ctx, response.ErrConflict(service.ErrAlreadyInSquadron))
	case errors.Is(err, service.ErrNotMember):
		response.RenderErr(ctx, response.ErrUnprocessableEntity(service.ErrNotMember))
	case errors.Is(err, service.ErrNotCaptain):
		response.RenderErr(ctx, response.ErrPermissionDenied(service.ErrNotCaptain))
	case errors.Is(err, service.ErrCaptainMustTransferFirst):
		response.RenderErr(ctx, response.ErrConflict(service.ErrCaptainMustTransferFirst))
	case errors.Is(err, service.ErrAccountNotLinked):
		response.RenderErr(ctx, response.ErrUnprocessableEntity(service.ErrAccountNotLinked))
	default:
		return false
	}

	return true
}

// HandleCreate godoc
// @Summary      Create a squadron with the caller as captain
// @Tags         squadrons
// @Produce      json
// @Param        request  body       request.CreateSquadronRequest true "request body"
// @Success      201      {object}   domain.Squadron
// @Failure      400      {object}   response.Err
// @Failure      409      {object}   response.Err
// @Failure      422      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Security     BearerAuth
// @Router       /squadrons [post]
func (h *SquadronHandler) HandleCreate(ctx *gin.Context) {
	userID, respErr := currentUserID(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var req request.CreateSquadronRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	created, err := h.svc.Create(ctx.Request.Context(), req.Name, userID)
	if err != nil {
		if errors.Is(err, service.ErrSquadronNameExists) {
			response.RenderErr(ctx, response.ErrConflict(service.ErrSquadronNameExists))
			return
		}
		if renderMembershipErr(ctx, err) {
			return
		}

		err = fmt.Errorf("v1.HandleCreate -> h.svc.Create -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusCreated, created)
}

// HandleGet godoc
// @Summary      Get a squadron with its roster
// @Tags         squadrons
// @Produce      json
// @Param        squadronID   path       int  true "squadron ID"
// @Success      200      {object}   domain.Squadron
// @Failure      404      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Security     BearerAuth
// @Router       /squadrons/{squadronID} [get]
func (h *SquadronHandler) HandleGet(ctx *gin.Context) {
	squadronID, respErr := parseUintParam(ctx, "squadronID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	squadron, err := h.svc.Get(ctx.Request.Context(), squadronID)
	if err != nil {
		if errors.Is(err, service.ErrSquadronNotFound) {
			response.RenderErr(ctx, response.ErrNotFound("squadron", "ID", squadronID))
			return
		}

		err = fmt.Errorf("v1.HandleGet -> h.svc.Get -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, squadron)
}

// HandleGetMine godoc
// @Summary      Get the caller's squadron
// @Tags         squadrons
// @Produce      json
// @Success      200      {object}   domain.Squadron
// @Failure      404      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Security     BearerAuth
// @Router       /squadrons/me [get]
func (h *SquadronHandler) HandleGetMine(ctx *gin.Context) {
	userID, respErr := currentUserID(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	squadron, err := h.svc.GetForUser(ctx.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrSquadronNotFound) {
			response.RenderErr(ctx, response.ErrNotFound("squadron", "member", userID))
			return
		}

		err = fmt.Errorf("v1.HandleGetMine -> h.svc.GetForUser -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, squadron)
}

// HandleJoin godoc
// @Summary      Join a squadron
// @Tags         squadrons
// @Produce      json
// @Param        squadronID   path       int  true "squadron ID"
// @Success      200      {object}   domain.Squadron
// @Failure      404      {object}   response.Err
// @Failure      409      {object}   response.Err
// @Failure      422      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Security     BearerAuth
// @Router       /squadrons/{squadronID}/join [post]
func (h *SquadronHandler) HandleJoin(ctx *gin.Context) {
	userID, respErr := currentUserID(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	squadronID, respErr := parseUintParam(ctx, "squadronID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	if err := h.svc.Join(ctx.Request.Context(), squadronID, userID); err != nil {
		if renderMembershipErr(ctx, err) {
			return
		}

		err = fmt.Errorf("v1.HandleJoin -> h.svc.Join -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	h.respondWithSquadron(ctx, squadronID)
}

// HandleLeave godoc
// @Summary      Leave a squadron
// @Description  A captain must transfer captaincy first unless they are the last member.
// @Tags         squadrons
// @Produce      json
// @Param        squadronID   path       int  true "squadron ID"
// @Success      204      "no content"
// @Failure      404      {object}   response.Err
// @Failure      409      {object}   response.Err
// @Failure      422      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Security     BearerAuth
// @Router       /squadrons/{squadronID}/leave [post]
func (h *SquadronHandler) HandleLeave(ctx *gin.Context) {
	userID, respErr := currentUserID(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	squadronID, respErr := parseUintParam(ctx, "squadronID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	if err := h.svc.Leave(ctx.Request.Context(), squadronID, userID); err != nil {
		if renderMembershipErr(ctx, err) {
			return
		}

		err = fmt.Errorf("v1.HandleLeave -> h.svc.Leave -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.Status(http.StatusNoContent)
}

// HandleRemoveMember godoc
// @Summary      Remove a member from the caller's squadron (captain only)
// @Tags         squadrons
// @Produce      json
// @Param        squadronID   path       int  true "squadron ID"
// @Param        userID       path       int  true "member user ID"
// @Success      204      "no content"
// @Failure      403      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Failure      422      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Security     BearerAuth
// @Router       /squadrons/{squadronID}/members/{userID} [delete]
func (h *SquadronHandler) HandleRemoveMember(ctx *gin.Context) {
	captainID, respErr := currentUserID(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	squadronID, respErr := parseUintParam(ctx, "squadronID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	targetID, respErr := parseUintParam(ctx, "userID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	if err := h.svc.RemoveMember(ctx.Request.Context(), squadronID, captainID, targetID); err != nil {
		if renderMembershipErr(ctx, err) {
			return
		}

		err = fmt.Errorf("v1.HandleRemoveMember -> h.svc.RemoveMember -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.Status(http.StatusNoContent)
}

// HandleTransferCaptaincy godoc
// @Summary      Transfer captaincy to another member (captain only)
// @Tags         squadrons
// @Produce      json
// @Param        squadronID   path       int  true "squadron ID"
// @Param        request      body       request.TransferCaptaincyRequest true "request body"
// @Success      200      {object}   domain.Squadron
// @Failure      400      {object}   response.Err
// @Failure      403      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Failure      422      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Security     BearerAuth
// @Router       /squadrons/{squadronID}/captain [put]
func (h *SquadronHandler) HandleTransferCaptaincy(ctx *gin.Context) {
	captainID, respErr := currentUserID(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	squadronID, respErr := parseUintParam(ctx, "squadronID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var req request.TransferCaptaincyRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := h.svc.TransferCaptaincy(ctx.Request.Context(), squadronID, captainID, req.NewCaptainID); err != nil {
		if renderMembershipErr(ctx, err) {
			return
		}

		err = fmt.Errorf("v1.HandleTransferCaptaincy -> h.svc.TransferCaptaincy -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	h.respondWithSquadron(ctx, squadronID)
}

// HandleInvite godoc
// @Summary      Invite a user to the caller's squadron
// @Tags         squadrons
// @Produce      json
// @Param        squadronID   path       int  true "squadron ID"
// @Param        request      body       request.InviteRequest true "request body"
// @Success      201      {object}   domain.SquadronInvite
// @Failure      400      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Failure      409      {object}   response.Err
// @Failure      422      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Security     BearerAuth
// @Router       /squadrons/{squadronID}/invites [post]
func (h *SquadronHandler) HandleInvite(ctx *gin.Context) {
	inviterID, respErr := currentUserID(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	squadronID, respErr := parseUintParam(ctx, "squadronID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var req request.InviteRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	invite, err := h.svc.Invite(ctx.Request.Context(), squadronID, inviterID, req.InviteeID)
	if err != nil {
		if errors.Is(err, service.ErrDuplicateInvite) {
			response.RenderErr(ctx, response.ErrConflict(service.ErrDuplicateInvite))
			return
		}
		if renderMembershipErr(ctx, err) {
			return
		}

		err = fmt.Errorf("v1.HandleInvite -> h.svc.Invite -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusCreated, invite)
}

// HandleListInvites godoc
// @Summary      List the caller's pending squadron invites
// @Tags         squadrons
// @Produce      json
// @Success      200      {array}    domain.SquadronInvite
// @Failure      401      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Security     BearerAuth
// @Router       /squadrons/invites [get]
func (h *SquadronHandler) HandleListInvites(ctx *gin.Context) {
	userID, respErr := currentUserID(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	invites, err := h.svc.ListInvites(ctx.Request.Context(), userID)
	if err != nil {
		err = fmt.Errorf("v1.HandleListInvites -> h.svc.ListInvites -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, invites)
}

// HandleAcceptInvite godoc
// @Summary      Accept a squadron invite
// @Tags         squadrons
// @Produce      json
// @Param        inviteID   path       int  true "invite ID"
// @Success      200      {object}   domain.SquadronInvite
// @Failure      404      {object}   response.Err
// @Failure      409      {object}   response.Err
// @Failure      422      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Security     BearerAuth
// @Router       /squadrons/invites/{inviteID}/accept [post]
func (h *SquadronHandler) HandleAcceptInvite(ctx *gin.Context) {
	userID, respErr := currentUserID(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	inviteID, respErr := parseUintParam(ctx, "inviteID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	invite, err := h.svc.AcceptInvite(ctx.Request.Context(), inviteID, userID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInviteNotFound):
			response.RenderErr(ctx, response.ErrNotFound("invite", "ID", inviteID))
		case errors.Is(err, service.ErrInviteNotPending):
			response.RenderErr(ctx, response.ErrConflict(service.ErrInviteNotPending))
		default:
			if renderMembershipErr(ctx, err) {
				return
			}
			err = fmt.Errorf("v1.HandleAcceptInvite -> h.svc.AcceptInvite -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}
		return
	}

	ctx.JSON(http.StatusOK, invite)
}

// HandleDeclineInvite godoc
// @Summary      Decline a squadron invite
// @Tags         squadrons
// @Produce      json
// @Param        inviteID   path       int  true "invite ID"
// @Success      200      {object}   domain.SquadronInvite
// @Failure      404      {object}   response.Err
// @Failure      409      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Security     BearerAuth
// @Router       /squadrons/invites/{inviteID}/decline [post]
func (h *SquadronHandler) HandleDeclineInvite(ctx *gin.Context) {
	userID, respErr := currentUserID(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	inviteID, respErr := parseUintParam(ctx, "inviteID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	invite, err := h.svc.DeclineInvite(ctx.Request.Context(), inviteID, userID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInviteNotFound):
			response.RenderErr(ctx, response.ErrNotFound("invite", "ID", inviteID))
		case errors.Is(err, service.ErrInviteNotPending):
			response.RenderErr(ctx, response.ErrConflict(service.ErrInviteNotPending))
		default:
			err = fmt.Errorf("v1.HandleDeclineInvite -> h.svc.DeclineInvite -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}
		return
	}

	ctx.JSON(http.StatusOK, invite)
}

// HandleApplyPoints godoc
// @Summary      Apply a points change to a squadron's ledger (admin)
// @Tags         admin
// @Produce      json
// @Param        squadronID   path       int  true "squadron ID"
// @Param        request      body       request.ApplyPointsRequest true "request body"
// @Success      201      {object}   domain.SquadronPointsEntry
// @Failure      400      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Security     BearerAuth
// @Router       /admin/squadrons/{squadronID}/points [post]
func (h *SquadronHandler) HandleApplyPoints(ctx *gin.Context) {
	adminID, respErr := currentUserID(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	squadronID, respErr := parseUintParam(ctx, "squadronID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var req request.ApplyPointsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	entry, err := h.svc.ApplyDelta(ctx.Request.Context(), adminID, domain.SquadronPointsEntry{
		SquadronID:   squadronID,
		RaceEventID:  req.RaceEventID,
		PointsChange: req.PointsChange,
		ChangeType:   req.ChangeType,
		Reason:       req.Reason,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSquadronNotFound):
			response.RenderErr(ctx, response.ErrNotFound("squadron", "ID", squadronID))
		case errors.Is(err, service.ErrInvalidPointsChange):
			response.RenderErr(ctx, response.ErrBadRequest(service.ErrInvalidPointsChange))
		case errors.Is(err, service.ErrInvalidChangeType):
			response.RenderErr(ctx, response.ErrBadRequest(service.ErrInvalidChangeType))
		default:
			err = fmt.Errorf("v1.HandleApplyPoints -> h.svc.ApplyDelta -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}
		return
	}

	ctx.JSON(http.StatusCreated, entry)
}

// HandlePointsHistory godoc
// @Summary      List a squadron's points ledger, newest first
// @Tags         squadrons
// @Produce      json
// @Param        squadronID   path       int  true "squadron ID"
// @Success      200      {array}    domain.SquadronPointsEntry
// @Failure      404      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Security     BearerAuth
// @Router       /squadrons/{squadronID}/points [get]
func (h *SquadronHandler) HandlePointsHistory(ctx *gin.Context) {
	squadronID, respErr := parseUintParam(ctx, "squadronID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	history, err := h.svc.PointsHistory(ctx.Request.Context(), squadronID)
	if err != nil {
		if errors.Is(err, service.ErrSquadronNotFound) {
			response.RenderErr(ctx, response.ErrNotFound("squadron", "ID", squadronID))
			return
		}

		err = fmt.Errorf("v1.HandlePointsHistory -> h.svc.PointsHistory -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, history)
}

// HandleRankings godoc
// @Summary      Venue-wide squadron standings
// @Tags         squadrons
// @Produce      json
// @Success      200      {array}    domain.SquadronRanking
// @Failure      500      {object}   response.Err
// @Router       /squadrons/rankings [get]
func (h *SquadronHandler) HandleRankings(ctx *gin.Context) {
	rankings, err := h.svc.Rankings(ctx.Request.Context())
	if err != nil {
		err = fmt.Errorf("v1.HandleRankings -> h.svc.Rankings -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, rankings)
}

func (h *SquadronHandler) respondWithSquadron(ctx *gin.Context, squadronID uint) {
	squadron, err := h.svc.Get(ctx.Request.Context(), squadronID)
	if err != nil {
		err = fmt.Errorf("v1.respondWithSquadron -> h.svc.Get -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, squadron)
}
