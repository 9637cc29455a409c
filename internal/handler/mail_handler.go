package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/prperemyshlev/outreach-service/internal/dto"
	"github.com/prperemyshlev/outreach-service/internal/service"
)

// MailHandler handles mail requests sent as the current user
type MailHandler struct {
	mailService service.MailService
}

// NewMailHandler creates a new mail handler
func NewMailHandler(mailService service.MailService) *MailHandler {
	return &MailHandler{mailService: mailService}
}

// Send sends one email from the user's mailbox
// @Summary Send email
// @Tags mail
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.SendEmailRequest true "Message"
// @Success 200 {object} dto.SendEmailResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 502 {object} dto.ErrorResponse
// @Router /mail/send [post]
func (h *MailHandler) Send(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req dto.SendEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	messageID, err := h.mailService.Send(c.Request.Context(), userID, req.To, req.Subject, req.Body)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.SendEmailResponse{MessageID: messageID})
}

// Conversation lists recent messages exchanged with a contact
// @Summary Read conversation
// @Tags mail
// @Security BearerAuth
// @Produce json
// @Param contact query string true "Contact email"
// @Success 200 {object} dto.ConversationResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 502 {object} dto.ErrorResponse
// @Router /mail/conversation [get]
func (h *MailHandler) Conversation(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	contact := c.Query("contact")
	messages, err := h.mailService.Conversation(c.Request.Context(), userID, contact)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ConversationResponse{Contact: contact, Messages: messages})
}
