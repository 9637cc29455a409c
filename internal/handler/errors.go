package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/prperemyshlev/outreach-service/internal/domain"
	"github.com/prperemyshlev/outreach-service/internal/dto"
	"github.com/prperemyshlev/outreach-service/internal/service"
)

// errorStatus maps the error taxonomy to an HTTP status and a short title
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, "Validation failed"
	case errors.Is(err, domain.ErrInvalidState):
		return http.StatusBadRequest, "Invalid state"
	case errors.Is(err, domain.ErrAuthorizationFailed):
		return http.StatusBadRequest, "Authorization failed"
	case errors.Is(err, domain.ErrNoCredential):
		return http.StatusForbidden, "Mailbox not connected"
	case errors.Is(err, domain.ErrIncompleteCredential):
		return http.StatusConflict, "Mailbox connection incomplete"
	case errors.Is(err, domain.ErrRefreshRejected):
		return http.StatusUnauthorized, "Mailbox authorization revoked"
	case errors.Is(err, domain.ErrProfileMissing):
		return http.StatusNotFound, "Profile not found"
	case errors.Is(err, domain.ErrNoCandidates):
		return http.StatusNotFound, "No candidates"
	case errors.Is(err, domain.ErrExtractionFailed):
		return http.StatusUnprocessableEntity, "Extraction failed"
	case errors.Is(err, domain.ErrNoneContacted),
		errors.Is(err, domain.ErrRefreshUnavailable),
		errors.Is(err, domain.ErrGenerationFailed),
		errors.Is(err, domain.ErrSearchFailed),
		errors.Is(err, domain.ErrSendFailed),
		errors.Is(err, domain.ErrMailboxFailed),
		errors.Is(err, domain.ErrWebSearchFailed),
		errors.Is(err, domain.ErrAutomationFailed):
		return http.StatusBadGateway, "Upstream failure"
	}

	var upstream *domain.UpstreamError
	if errors.As(err, &upstream) {
		return http.StatusBadGateway, "Upstream failure"
	}
	return http.StatusInternalServerError, "Internal server error"
}

// errorResponse builds the body for err; the stage is the pipeline stage or the
// collaborator that failed
func errorResponse(err error) (int, dto.ErrorResponse) {
	status, title := errorStatus(err)
	resp := dto.ErrorResponse{Error: title, Message: err.Error()}

	var se *service.StageError
	var upstream *domain.UpstreamError
	switch {
	case errors.As(err, &se):
		resp.Stage = se.Stage
	case errors.As(err, &upstream):
		resp.Stage = upstream.Collaborator
	}

	return status, resp
}

func respondError(c *gin.Context, err error) {
	status, resp := errorResponse(err)
	c.JSON(status, resp)
}

func respondValidation(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, dto.ErrorResponse{
		Error:   "Validation failed",
		Message: err.Error(),
	})
}

// currentUserID returns the user set by AuthMiddleware, answering 401 when absent
func currentUserID(c *gin.Context) (string, bool) {
	userID := c.GetString(contextUserID)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{
			Error:   "Unauthorized",
			Message: "User ID not found in context",
		})
		return "", false
	}
	return userID, true
}
