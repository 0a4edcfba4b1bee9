package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/seat-desk-api/internal/models"
	appErrors "github.com/noah-isme/seat-desk-api/pkg/errors"
	"github.com/noah-isme/seat-desk-api/pkg/response"
)

type portalService interface {
	View(ctx context.Context, studentID string) (*models.PortalView, error)
}

// PortalHandler serves the signed-in member's own view.
type PortalHandler struct {
	portal portalService
}

// NewPortalHandler constructs PortalHandler.
func NewPortalHandler(portal portalService) *PortalHandler {
	return &PortalHandler{portal: portal}
}

// Me godoc
// @Summary Member portal
// @Description Own record, slot windows, WiFi networks, active announcement and payments
// @Tags Portal
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /me [get]
func (h *PortalHandler) Me(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if claims.Role != models.RoleStudent {
		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "portal is only available to members"))
		return
	}
	view, err := h.portal.View(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}
