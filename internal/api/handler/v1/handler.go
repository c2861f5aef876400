package v1

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/raceline/karting-api/internal/api/handler/v1/response"
	"github.com/raceline/karting-api/internal/api/middleware"
)

var errNotAuthenticated = errors.New("request is not authenticated")

// currentUserID pulls the authenticated account id the JWT middleware
// stored on the context.
func currentUserID(ctx *gin.Context) (uint, *response.Err) {
	value, exists := ctx.Get(middleware.ContextKeyUserID)
	if !exists {
		return 0, response.ErrUnauthorized(errNotAuthenticated)
	}

	userID, ok := value.(uint)
	if !ok {
		return 0, response.ErrUnauthorized(errNotAuthenticated)
	}

	return userID, nil
}

func parseUintParam(ctx *gin.Context, name string) (uint, *response.Err) {
	raw := ctx.Param(name)

	parsed, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, response.ErrBadRequest(errors.New(name + " must be a positive integer"))
	}

	return uint(parsed), nil
}

// HandleHealthcheck godoc
// @Summary      Healthcheck endpoint
// @Produce      json
// @Success      200 {object} map[string]string
// @Router       / [get]
func HandleHealthcheck(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}
