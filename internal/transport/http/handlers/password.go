package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/adolfbenedict/bytehub/internal/usecase"
)

// PasswordHandler exposes the forgot-password and reset-password endpoints.
type PasswordHandler struct {
	reset *usecase.PasswordResetService
}

// NewPasswordHandler constructs PasswordHandler.
func NewPasswordHandler(reset *usecase.PasswordResetService) *PasswordHandler {
	return &PasswordHandler{reset: reset}
}

// RegisterRoutes binds password routes, applying optional middleware ahead of handlers.
func (h *PasswordHandler) RegisterRoutes(r *gin.RouterGroup, middlewares ...gin.HandlerFunc) {
	forgot := append([]gin.HandlerFunc{}, middlewares...)
	forgot = append(forgot, h.forgotPassword)
	r.POST("/forgot-password", forgot...)

	reset := append([]gin.HandlerFunc{}, middlewares...)
	reset = append(reset, h.resetPassword)
	r.POST("/reset-password", reset...)
}

// ForgotPassword starts a reset. The response is the same whether or not
// the email is registered.
func (h *PasswordHandler) forgotPassword(c *gin.Context) {
	if h.reset == nil {
		c.JSON(http.StatusServiceUnavailable, NewErrorResponse(c, "password reset service unavailable"))
		return
	}

	var req ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "email is required"))
		return
	}

	if err := h.reset.RequestReset(c.Request.Context(), req.Email); err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to process request"))
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "if the email is registered, a reset link has been sent"})
}

// ResetPassword consumes an emailed token and sets a new password.
func (h *PasswordHandler) resetPassword(c *gin.Context) {
	if h.reset == nil {
		c.JSON(http.StatusServiceUnavailable, NewErrorResponse(c, "password reset service unavailable"))
		return
	}

	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "token and new_password are required"))
		return
	}

	if err := h.reset.ResetPassword(c.Request.Context(), req.Token, req.NewPassword); err != nil {
		switch {
		case errors.Is(err, usecase.ErrResetTokenExpired):
			c.JSON(http.StatusBadRequest, NewErrorResponse(c, "reset token expired"))
		case errors.Is(err, usecase.ErrResetTokenInvalid):
			c.JSON(http.StatusBadRequest, NewErrorResponse(c, "reset token invalid"))
		case errors.Is(err, usecase.ErrPasswordPolicyViolation):
			c.JSON(http.StatusBadRequest, NewErrorResponse(c, "password does not meet requirements"))
		default:
			c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to reset password"))
		}
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "password updated"})
}
