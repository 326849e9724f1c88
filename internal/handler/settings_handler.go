package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
	"github.com/noah-isme/sma-timetable-api/pkg/response"
	"github.com/noah-isme/sma-timetable-api/pkg/timetable"
)

type timetableSettingsService interface {
	Get(ctx context.Context, schoolID string, classID *string) (*dto.TimetableSettingsResponse, error)
	Save(ctx context.Context, schoolID, userID string, classID *string, req dto.TimetableSettingsRequest) (*dto.TimetableSettingsResponse, error)
	Slots(ctx context.Context, schoolID, classID string) ([]timetable.TimeSlot, error)
}

// TimetableSettingsHandler manages lesson day settings.
type TimetableSettingsHandler struct {
	service timetableSettingsService
}

// NewTimetableSettingsHandler constructs the handler.
func NewTimetableSettingsHandler(svc timetableSettingsService) *TimetableSettingsHandler {
	return &TimetableSettingsHandler{service: svc}
}

// GetClass godoc
// @Summary Lesson settings that apply to a class
// @Tags Timetable Settings
// @Produce json
// @Param classId path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Router /classes/{classId}/timetable/settings [get]
func (h *TimetableSettingsHandler) GetClass(c *gin.Context) {
	classID := c.Param("classId")
	h.get(c, &classID)
}

// PutClass godoc
// @Summary Configure lesson settings for a class
// @Tags Timetable Settings
// @Accept json
// @Produce json
// @Param classId path string true "Class ID"
// @Param payload body dto.TimetableSettingsRequest true "Settings"
// @Success 200 {object} response.Envelope
// @Router /classes/{classId}/timetable/settings [put]
func (h *TimetableSettingsHandler) PutClass(c *gin.Context) {
	classID := c.Param("classId")
	h.put(c, &classID)
}

// GetDefault godoc
// @Summary School default lesson settings
// @Tags Timetable Settings
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /timetable/settings/default [get]
func (h *TimetableSettingsHandler) GetDefault(c *gin.Context) {
	h.get(c, nil)
}

// PutDefault godoc
// @Summary Configure school default lesson settings
// @Tags Timetable Settings
// @Accept json
// @Produce json
// @Param payload body dto.TimetableSettingsRequest true "Settings"
// @Success 200 {object} response.Envelope
// @Router /timetable/settings/default [put]
func (h *TimetableSettingsHandler) PutDefault(c *gin.Context) {
	h.put(c, nil)
}

// Slots godoc
// @Summary Lesson slots derived from the class settings
// @Tags Timetable Settings
// @Produce json
// @Param classId path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Router /classes/{classId}/timetable/slots [get]
func (h *TimetableSettingsHandler) Slots(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	slots, err := h.service.Slots(c.Request.Context(), claims.SchoolID, c.Param("classId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slots)
}

func (h *TimetableSettingsHandler) get(c *gin.Context, classID *string) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	result, err := h.service.Get(c.Request.Context(), claims.SchoolID, classID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

func (h *TimetableSettingsHandler) put(c *gin.Context, classID *string) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	var req dto.TimetableSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid settings payload"))
		return
	}
	result, err := h.service.Save(c.Request.Context(), claims.SchoolID, claims.UserID, classID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}
