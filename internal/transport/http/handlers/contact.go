package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/adolfbenedict/bytehub/internal/usecase"
)

// ContactHandler relays contact-form submissions.
type ContactHandler struct {
	contact *usecase.ContactService
}

// NewContactHandler constructs ContactHandler.
func NewContactHandler(contact *usecase.ContactService) *ContactHandler {
	return &ContactHandler{contact: contact}
}

// RegisterRoutes binds the contact route, applying optional middleware ahead of the handler.
func (h *ContactHandler) RegisterRoutes(r *gin.RouterGroup, middlewares ...gin.HandlerFunc) {
	chain := append([]gin.HandlerFunc{}, middlewares...)
	chain = append(chain, h.relay)
	r.POST("/contact", chain...)
}

func (h *ContactHandler) relay(c *gin.Context) {
	if h.contact == nil {
		c.JSON(http.StatusServiceUnavailable, NewErrorResponse(c, "contact service unavailable"))
		return
	}

	var req ContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "email and message are required"))
		return
	}

	if err := h.contact.Relay(c.Request.Context(), req.Email, req.Message); err != nil {
		if errors.Is(err, usecase.ErrContactDeliveryFailed) {
			c.JSON(http.StatusBadGateway, NewErrorResponse(c, "message could not be delivered"))
			return
		}
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid contact payload"))
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "message sent"})
}
