package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/prperemyshlev/outreach-service/internal/dto"
	"github.com/prperemyshlev/outreach-service/internal/service"
)

// AuthHandler handles the mailbox authorization flow
type AuthHandler struct {
	authService service.AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// Login starts the authorization flow
// @Summary Start mailbox authorization
// @Description Redirects to the identity provider consent page. Clients asking for JSON get the URL instead.
// @Tags auth
// @Produce json
// @Param user_id query string true "User ID"
// @Success 302
// @Success 200 {object} dto.LoginResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /auth/google/login [get]
func (h *AuthHandler) Login(c *gin.Context) {
	authURL, err := h.authService.BeginAuthorization(c.Request.Context(), c.Query("user_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	if wantsJSON(c) {
		c.JSON(http.StatusOK, dto.LoginResponse{AuthURL: authURL})
		return
	}

	c.Redirect(http.StatusFound, authURL)
}

// Callback completes the authorization flow
// @Summary Complete mailbox authorization
// @Description Exchanges the authorization code, stores the credential and issues an API session token
// @Tags auth
// @Produce json
// @Param code query string true "Authorization code"
// @Param state query string true "State returned by login"
// @Success 200 {object} dto.AuthResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /auth/google/callback [get]
func (h *AuthHandler) Callback(c *gin.Context) {
	if reason := c.Query("error"); reason != "" {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "Authorization denied",
			Message: reason,
		})
		return
	}

	response, err := h.authService.CompleteAuthorization(c.Request.Context(), c.Query("code"), c.Query("state"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// Status reports the mailbox connection of the current user
// @Summary Mailbox connection status
// @Tags auth
// @Security BearerAuth
// @Produce json
// @Success 200 {object} domain.CredentialStatus
// @Failure 401 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /auth/status [get]
func (h *AuthHandler) Status(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	status, err := h.authService.CredentialStatus(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, status)
}

func wantsJSON(c *gin.Context) bool {
	return c.Query("format") == "json" || strings.Contains(c.GetHeader("Accept"), "application/json")
}
