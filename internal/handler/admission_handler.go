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

type admissionService interface {
	Submit(ctx context.Context, payload service.AdmissionRequestPayload) (*models.AdmissionRequest, error)
	List(ctx context.Context, status string) ([]models.AdmissionRequest, error)
	Approve(ctx context.Context, id string, approval service.ApproveAdmissionRequest) (*models.Student, error)
	Reject(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

// AdmissionHandler serves the public application form and its review queue.
type AdmissionHandler struct {
	admissions admissionService
}

// NewAdmissionHandler constructs AdmissionHandler.
func NewAdmissionHandler(admissions admissionService) *AdmissionHandler {
	return &AdmissionHandler{admissions: admissions}
}

// Submit godoc
// @Summary Apply for a seat
// @Tags Admissions
// @Accept json
// @Produce json
// @Param payload body service.AdmissionRequestPayload true "Application"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /admissions [post]
func (h *AdmissionHandler) Submit(c *gin.Context) {
	var payload service.AdmissionRequestPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid admission payload"))
		return
	}
	req, err := h.admissions.Submit(c.Request.Context(), payload)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, req)
}

// List godoc
// @Summary List admission requests
// @Tags Admissions
// @Produce json
// @Param status query string false "PENDING, APPROVED or REJECTED"
// @Success 200 {object} response.Envelope
// @Router /admissions [get]
func (h *AdmissionHandler) List(c *gin.Context) {
	items, err := h.admissions.List(c.Request.Context(), c.Query("status"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil, map[string]interface{}{"count": len(items)})
}

// Approve godoc
// @Summary Admit an applicant to a seat
// @Tags Admissions
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param payload body service.ApproveAdmissionRequest true "Seat assignment"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /admissions/{id}/approve [post]
func (h *AdmissionHandler) Approve(c *gin.Context) {
	var approval service.ApproveAdmissionRequest
	if err := c.ShouldBindJSON(&approval); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid approval payload"))
		return
	}
	student, err := h.admissions.Approve(c.Request.Context(), c.Param("id"), approval)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, student)
}

// Reject godoc
// @Summary Reject an application
// @Tags Admissions
// @Param id path string true "Request ID"
// @Success 204
// @Router /admissions/{id}/reject [post]
func (h *AdmissionHandler) Reject(c *gin.Context) {
	if err := h.admissions.Reject(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Delete godoc
// @Summary Remove an application
// @Tags Admissions
// @Param id path string true "Request ID"
// @Success 204
// @Router /admissions/{id} [delete]
func (h *AdmissionHandler) Delete(c *gin.Context) {
	if err := h.admissions.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
