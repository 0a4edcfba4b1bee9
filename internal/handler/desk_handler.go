package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/seat-desk-api/internal/models"
	"github.com/noah-isme/seat-desk-api/internal/service"
	appErrors "github.com/noah-isme/seat-desk-api/pkg/errors"
	"github.com/noah-isme/seat-desk-api/pkg/response"
)

type wifiService interface {
	List(ctx context.Context) ([]models.WifiNetwork, error)
	Create(ctx context.Context, req service.CreateWifiRequest) (*models.WifiNetwork, error)
	Delete(ctx context.Context, id string) error
}

type announcementService interface {
	Get(ctx context.Context) (*models.Announcement, error)
	Set(ctx context.Context, req service.SetAnnouncementRequest) (*models.Announcement, error)
}

// DeskHandler serves the shared desk content: WiFi credentials and the banner.
type DeskHandler struct {
	wifi          wifiService
	announcements announcementService
}

// NewDeskHandler constructs DeskHandler.
func NewDeskHandler(wifi wifiService, announcements announcementService) *DeskHandler {
	return &DeskHandler{wifi: wifi, announcements: announcements}
}

// ListWifi godoc
// @Summary List WiFi networks
// @Tags Desk
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /wifi [get]
func (h *DeskHandler) ListWifi(c *gin.Context) {
	networks, err := h.wifi.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, networks)
}

// CreateWifi godoc
// @Summary Add a WiFi network
// @Tags Desk
// @Accept json
// @Produce json
// @Param payload body service.CreateWifiRequest true "Network"
// @Success 201 {object} response.Envelope
// @Router /wifi [post]
func (h *DeskHandler) CreateWifi(c *gin.Context) {
	var req service.CreateWifiRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid wifi payload"))
		return
	}
	network, err := h.wifi.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, network)
}

// DeleteWifi godoc
// @Summary Remove a WiFi network
// @Tags Desk
// @Param id path string true "Network ID"
// @Success 204
// @Router /wifi/{id} [delete]
func (h *DeskHandler) DeleteWifi(c *gin.Context) {
	if err := h.wifi.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// GetAnnouncement godoc
// @Summary Current banner announcement
// @Tags Desk
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /announcement [get]
func (h *DeskHandler) GetAnnouncement(c *gin.Context) {
	announcement, err := h.announcements.Get(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, announcement)
}

// SetAnnouncement godoc
// @Summary Replace the banner announcement
// @Tags Desk
// @Accept json
// @Produce json
// @Param payload body service.SetAnnouncementRequest true "Announcement"
// @Success 200 {object} response.Envelope
// @Router /announcement [put]
func (h *DeskHandler) SetAnnouncement(c *gin.Context) {
	var req service.SetAnnouncementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid announcement payload"))
		return
	}
	announcement, err := h.announcements.Set(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, announcement)
}
