package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/prperemyshlev/outreach-service/internal/dto"
	"github.com/prperemyshlev/outreach-service/internal/service"
)

// ProfileHandler handles sender profile requests
type ProfileHandler struct {
	profileService service.ProfileService
	maxUpload      int64
}

// NewProfileHandler creates a new profile handler. maxUpload bounds resume uploads in bytes.
func NewProfileHandler(profileService service.ProfileService, maxUpload int64) *ProfileHandler {
	return &ProfileHandler{
		profileService: profileService,
		maxUpload:      maxUpload,
	}
}

// Save stores the resume text and details of the current user
// @Summary Save profile
// @Tags profile
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.SaveProfileRequest true "Profile"
// @Success 200 {object} domain.Profile
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Router /profile [put]
func (h *ProfileHandler) Save(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req dto.SaveProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	profile, err := h.profileService.Save(c.Request.Context(), userID, req.ResumeText, req.AdditionalDetails)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

// UploadResume stores the profile from an uploaded PDF resume
// @Summary Upload resume
// @Description Extracts the text of a PDF resume and saves it as the profile
// @Tags profile
// @Security BearerAuth
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Resume PDF"
// @Param additional_details formData string false "Additional details"
// @Success 200 {object} domain.Profile
// @Failure 400 {object} dto.ErrorResponse
// @Failure 413 {object} dto.ErrorResponse
// @Failure 422 {object} dto.ErrorResponse
// @Router /profile/resume [post]
func (h *ProfileHandler) UploadResume(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload)

	file, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, dto.ErrorResponse{
				Error:   "Payload too large",
				Message: fmt.Sprintf("resume must be at most %d bytes", h.maxUpload),
			})
			return
		}
		respondValidation(c, fmt.Errorf("file is required: %w", err))
		return
	}

	f, err := file.Open()
	if err != nil {
		respondError(c, fmt.Errorf("failed to open upload: %w", err))
		return
	}
	defer f.Close()

	pdf, err := io.ReadAll(f)
	if err != nil {
		respondError(c, fmt.Errorf("failed to read upload: %w", err))
		return
	}

	profile, err := h.profileService.SaveResume(c.Request.Context(), userID, pdf, c.PostForm("additional_details"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

// Get returns the profile of the current user
// @Summary Get profile
// @Tags profile
// @Security BearerAuth
// @Produce json
// @Success 200 {object} domain.Profile
// @Failure 401 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /profile [get]
func (h *ProfileHandler) Get(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	profile, err := h.profileService.Get(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}
