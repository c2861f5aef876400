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

type LinkageService interface {
	Submit(ctx context.Context, req domain.LinkageRequest) (domain.LinkageRequest, error)
	Cancel(ctx context.Context, id, userID uint) (domain.LinkageRequest, error)
	ListForUser(ctx context.Context, userID uint) ([]domain.LinkageRequest, error)
	ListPending(ctx context.Context) ([]domain.LinkageRequest, error)
	Approve(ctx context.Context, id, adminID uint) (domain.LinkageRequest, error)
	Reject(ctx context.Context, id, adminID uint, reason string) (domain.LinkageRequest, error)
}

type ResolverService interface {
	ResolveCandidates(ctx context.Context, driverName string) ([]domain.MatchCandidate, error)
}

type LinkageHandler struct {
	svc      LinkageService
	resolver ResolverService
}

func NewLinkageHandler(svc LinkageService, resolver ResolverService) *LinkageHandler {
	return &LinkageHandler{
		svc:      svc,
		resolver: resolver,
	}
}

// HandleSubmit godoc
// @Summary      Submit a driver-name linkage request
// @Tags         linkage
// @Produce      json
// @Param        request  body       request.SubmitLinkageRequest true "request body"
// @Success      201      {object}   domain.LinkageRequest
// @Failure      400      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Failure      409      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Security     BearerAuth
// @Router       /linkage-requests [post]
func (h *LinkageHandler) HandleSubmit(ctx *gin.Context) {
	userID, respErr := currentUserID(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var req request.SubmitLinkageRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	created, err := h.svc.Submit(ctx.Request.Context(), domain.LinkageRequest{
		WebUserID:          userID,
		SearchedName:       req.SearchedName,
		SelectedDriverName: req.SelectedDriverName,
		SelectedSessionID:  req.SelectedSessionID,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrDuplicatePendingRequest):
			response.RenderErr(ctx, response.ErrConflict(service.ErrDuplicatePendingRequest))
		case errors.Is(err, service.ErrSessionNotFound):
			response.RenderErr(ctx, response.ErrNotFound("session", "sessionID", req.SelectedSessionID))
		case errors.Is(err, service.ErrProofSessionMismatch):
			response.RenderErr(ctx, response.ErrUnprocessableEntity(service.ErrProofSessionMismatch))
		default:
			err = fmt.Errorf("v1.HandleSubmit -> h.svc.Submit -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}
		return
	}

	ctx.JSON(http.StatusCreated, created)
}

// HandleCancel godoc
// @Summary      Cancel the caller's pending linkage request
// @Tags         linkage
// @Produce      json
// @Param        requestID   path       int  true "linkage request ID"
// @Success      200      {object}   domain.LinkageRequest
// @Failure      400      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Failure      409      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Security     BearerAuth
// @Router       /linkage-requests/{requestID} [delete]
func (h *LinkageHandler) HandleCancel(ctx *gin.Context) {
	userID, respErr := currentUserID(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	requestID, respErr := parseUintParam(ctx, "requestID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	cancelled, err := h.svc.Cancel(ctx.Request.Context(), requestID, userID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRequestNotFound):
			response.RenderErr(ctx, response.ErrNotFound("linkage request", "ID", requestID))
		case errors.Is(err, service.ErrRequestNotPending):
			response.RenderErr(ctx, response.ErrConflict(service.ErrRequestNotPending))
		default:
			err = fmt.Errorf("v1.HandleCancel -> h.svc.Cancel -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}
		return
	}

	ctx.JSON(http.StatusOK, cancelled)
}

// HandleListMine godoc
// @Summary      List the caller's linkage requests
// @Tags         linkage
// @Produce      json
// @Success      200      {array}    domain.LinkageRequest
// @Failure      401      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Security     BearerAuth
// @Router       /linkage-requests [get]
func (h *LinkageHandler) HandleListMine(ctx *gin.Context) {
	userID, respErr := currentUserID(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	reqs, err := h.svc.ListForUser(ctx.Request.Context(), userID)
	if err != nil {
		err = fmt.Errorf("v1.HandleListMine -> h.svc.ListForUser -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, reqs)
}

// HandleListPending godoc
// @Summary      List pending linkage requests (admin)
// @Tags         admin
// @Produce      json
// @Success      200      {array}    domain.LinkageRequest
// @Failure      500      {object}   response.Err
// @Security     BearerAuth
// @Router       /admin/linkage-requests [get]
func (h *LinkageHandler) HandleListPending(ctx *gin.Context) {
	reqs, err := h.svc.ListPending(ctx.Request.Context())
	if err != nil {
		err = fmt.Errorf("v1.HandleListPending -> h.svc.ListPending -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, reqs)
}

// HandleApprove godoc
// @Summary      Approve a linkage request (admin)
// @Description  Fails with 409 if another account already holds the driver name.
// @Tags         admin
// @Produce      json
// @Param        requestID   path       int  true "linkage request ID"
// @Success      200      {object}   domain.LinkageRequest
// @Failure      400      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Failure      409      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Security     BearerAuth
// @Router       /admin/linkage-requests/{requestID}/approve [post]
func (h *LinkageHandler) HandleApprove(ctx *gin.Context) {
	adminID, respErr := currentUserID(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	requestID, respErr := parseUintParam(ctx, "requestID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	approved, err := h.svc.Approve(ctx.Request.Context(), requestID, adminID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRequestNotFound):
			response.RenderErr(ctx, response.ErrNotFound("linkage request", "ID", requestID))
		case errors.Is(err, service.ErrRequestNotPending):
			response.RenderErr(ctx, response.ErrConflict(service.ErrRequestNotPending))
		case errors.Is(err, service.ErrConflictingLink):
			response.RenderErr(ctx, response.ErrConflict(err))
		default:
			err = fmt.Errorf("v1.HandleApprove -> h.svc.Approve -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}
		return
	}

	ctx.JSON(http.StatusOK, approved)
}

// HandleReject godoc
// @Summary      Reject a linkage request (admin)
// @Tags         admin
// @Produce      json
// @Param        requestID   path       int  true "linkage request ID"
// @Param        request     body       request.RejectLinkageRequest true "request body"
// @Success      200      {object}   domain.LinkageRequest
// @Failure      400      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Failure      409      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Security     BearerAuth
// @Router       /admin/linkage-requests/{requestID}/reject [post]
func (h *LinkageHandler) HandleReject(ctx *gin.Context) {
	adminID, respErr := currentUserID(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	requestID, respErr := parseUintParam(ctx, "requestID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var req request.RejectLinkageRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	rejected, err := h.svc.Reject(ctx.Request.Context(), requestID, adminID, req.Reason)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRequestNotFound):
			response.RenderErr(ctx, response.ErrNotFound("linkage request", "ID", requestID))
		case errors.Is(err, service.ErrRequestNotPending):
			response.RenderErr(ctx, response.ErrConflict(service.ErrRequestNotPending))
		case errors.Is(err, service.ErrEmptyRejectReason):
			response.RenderErr(ctx, response.ErrBadRequest(service.ErrEmptyRejectReason))
		default:
			err = fmt.Errorf("v1.HandleReject -> h.svc.Reject -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}
		return
	}

	ctx.JSON(http.StatusOK, rejected)
}

// HandleResolve godoc
// @Summary      Resolve a free-text driver name to account candidates (admin)
// @Tags         admin
// @Produce      json
// @Param        name   query      string  true "driver name"
// @Success      200      {array}    domain.MatchCandidate
// @Failure      400      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Security     BearerAuth
// @Router       /admin/drivers/resolve [get]
func (h *LinkageHandler) HandleResolve(ctx *gin.Context) {
	candidates, err := h.resolver.ResolveCandidates(ctx.Request.Context(), ctx.Query("name"))
	if err != nil {
		if errors.Is(err, service.ErrEmptyDriverName) {
			response.RenderErr(ctx, response.ErrBadRequest(service.ErrEmptyDriverName))
			return
		}

		err = fmt.Errorf("v1.HandleResolve -> h.resolver.ResolveCandidates -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, candidates)
}
