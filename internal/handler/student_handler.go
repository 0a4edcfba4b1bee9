package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/seat-desk-api/internal/models"
	"github.com/noah-isme/seat-desk-api/internal/service"
	appErrors "github.com/noah-isme/seat-desk-api/pkg/errors"
	"github.com/noah-isme/seat-desk-api/pkg/response"
)

type studentService interface {
	ListStudents(ctx context.Context, filter models.StudentFilter) ([]models.Student, *models.Pagination, error)
	GetStudent(ctx context.Context, id string) (*models.Student, error)
	AddStudent(ctx context.Context, req service.StudentRequest) (*models.Student, error)
	UpdateStudent(ctx context.Context, id string, req service.StudentRequest) (*models.Student, error)
	SetActive(ctx context.Context, id string, active bool) (*models.Student, error)
	DeleteStudent(ctx context.Context, id string) error
	GetExpiringStudents(ctx context.Context) ([]models.Student, error)
}

type studentDecorator interface {
	Decorate(ctx context.Context, student *models.Student)
}

// SetActiveRequest toggles a membership without touching its seat data.
type SetActiveRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

// StudentHandler exposes roster endpoints.
type StudentHandler struct {
	students    studentService
	attachments studentDecorator
}

// NewStudentHandler constructs StudentHandler. attachments may be nil.
func NewStudentHandler(students studentService, attachments studentDecorator) *StudentHandler {
	return &StudentHandler{students: students, attachments: attachments}
}

func (h *StudentHandler) decorate(c *gin.Context, student *models.Student) {
	if h.attachments == nil || student == nil {
		return
	}
	h.attachments.Decorate(c.Request.Context(), student)
}

// List godoc
// @Summary List members
// @Tags Students
// @Produce json
// @Param search query string false "Search by name or mobile"
// @Param seat query int false "Filter by seat"
// @Param active query bool false "Filter by active state"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /students [get]
func (h *StudentHandler) List(c *gin.Context) {
	var filter models.StudentFilter
	filter.Search = strings.TrimSpace(c.Query("search"))
	filter.Active = boolQuery(c, "active")
	if seat, err := strconv.Atoi(c.Query("seat")); err == nil {
		filter.Seat = seat
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "50")); err == nil {
		filter.PageSize = size
	}

	students, pagination, err := h.students.ListStudents(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students, pagination)
}

// Expiring godoc
// @Summary List active members ending within the reminder window
// @Tags Students
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /students/expiring [get]
func (h *StudentHandler) Expiring(c *gin.Context) {
	students, err := h.students.GetExpiringStudents(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students, nil, map[string]interface{}{"count": len(students)})
}

// Get godoc
// @Summary Get member detail
// @Tags Students
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/{id} [get]
func (h *StudentHandler) Get(c *gin.Context) {
	student, err := h.students.GetStudent(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	h.decorate(c, student)
	response.JSON(c, http.StatusOK, student, nil)
}

// Create godoc
// @Summary Admit a member to a seat
// @Tags Students
// @Accept json
// @Produce json
// @Param payload body service.StudentRequest true "Student payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /students [post]
func (h *StudentHandler) Create(c *gin.Context) {
	var req service.StudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid student payload"))
		return
	}
	student, err := h.students.AddStudent(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.decorate(c, student)
	response.Created(c, student)
}

// Update godoc
// @Summary Edit, renew or move a member
// @Tags Students
// @Accept json
// @Produce json
// @Param id path string true "Student ID"
// @Param payload body service.StudentRequest true "Student payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /students/{id} [put]
func (h *StudentHandler) Update(c *gin.Context) {
	var req service.StudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid student payload"))
		return
	}
	student, err := h.students.UpdateStudent(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.decorate(c, student)
	response.JSON(c, http.StatusOK, student, nil)
}

// SetActive godoc
// @Summary Activate or deactivate a member
// @Tags Students
// @Accept json
// @Produce json
// @Param id path string true "Student ID"
// @Param payload body SetActiveRequest true "Active flag"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /students/{id}/status [patch]
func (h *StudentHandler) SetActive(c *gin.Context) {
	var req SetActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "is_active is required"))
		return
	}
	student, err := h.students.SetActive(c.Request.Context(), c.Param("id"), *req.IsActive)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student, nil)
}

// Delete godoc
// @Summary Remove a member and free their seat
// @Tags Students
// @Param id path string true "Student ID"
// @Success 204
// @Router /students/{id} [delete]
func (h *StudentHandler) Delete(c *gin.Context) {
	if err := h.students.DeleteStudent(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
