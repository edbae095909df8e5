package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/adolfbenedict/bytehub/internal/usecase"
)

// RegistrationHandler exposes signup and email verification endpoints.
type RegistrationHandler struct {
	registration *usecase.RegistrationService
}

// NewRegistrationHandler constructs RegistrationHandler.
func NewRegistrationHandler(registration *usecase.RegistrationService) *RegistrationHandler {
	return &RegistrationHandler{registration: registration}
}

// RegisterRoutes binds registration routes, applying optional middleware ahead of handlers.
func (h *RegistrationHandler) RegisterRoutes(r *gin.RouterGroup, middlewares ...gin.HandlerFunc) {
	signup := append([]gin.HandlerFunc{}, middlewares...)
	signup = append(signup, h.signup)
	r.POST("/signup", signup...)

	verify := append([]gin.HandlerFunc{}, middlewares...)
	verify = append(verify, h.verify)
	r.POST("/verification", verify...)

	resend := append([]gin.HandlerFunc{}, middlewares...)
	resend = append(resend, h.resendCode)
	r.POST("/resend-code", resend...)
}

// Signup creates a pending account; the verification code goes out by email.
func (h *RegistrationHandler) signup(c *gin.Context) {
	if h.registration == nil {
		c.JSON(http.StatusServiceUnavailable, NewErrorResponse(c, "registration service unavailable"))
		return
	}

	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "username, email, and password are required"))
		return
	}

	account, err := h.registration.Register(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrAccountExists):
			c.JSON(http.StatusConflict, NewErrorResponse(c, "username or email already registered"))
		case errors.Is(err, usecase.ErrPasswordPolicyViolation):
			c.JSON(http.StatusBadRequest, NewErrorResponse(c, "password does not meet requirements"))
		default:
			c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to create account"))
		}
		return
	}

	c.JSON(http.StatusCreated, SignupResponse{
		Account: newAccountSummary(account),
		Message: "verification code sent",
	})
}

// Verify activates a pending account with an emailed code.
func (h *RegistrationHandler) verify(c *gin.Context) {
	if h.registration == nil {
		c.JSON(http.StatusServiceUnavailable, NewErrorResponse(c, "registration service unavailable"))
		return
	}

	var req VerificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "email and code are required"))
		return
	}

	account, err := h.registration.VerifyCode(c.Request.Context(), req.Email, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrAlreadyVerified):
			c.JSON(http.StatusOK, MessageResponse{Message: "account already verified"})
		case errors.Is(err, usecase.ErrVerificationCodeExpired):
			c.JSON(http.StatusBadRequest, NewErrorResponse(c, "verification code expired"))
		case errors.Is(err, usecase.ErrVerificationCodeInvalid):
			c.JSON(http.StatusBadRequest, NewErrorResponse(c, "verification code invalid"))
		default:
			c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to verify account"))
		}
		return
	}

	c.JSON(http.StatusOK, VerificationResponse{
		Message: "account verified",
		Account: newAccountSummary(account),
	})
}

// ResendCode re-issues the verification code for a pending account.
func (h *RegistrationHandler) resendCode(c *gin.Context) {
	if h.registration == nil {
		c.JSON(http.StatusServiceUnavailable, NewErrorResponse(c, "registration service unavailable"))
		return
	}

	var req ResendCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "email is required"))
		return
	}

	if err := h.registration.ResendCode(c.Request.Context(), req.Email); err != nil {
		switch {
		case errors.Is(err, usecase.ErrAlreadyVerified):
			c.JSON(http.StatusOK, MessageResponse{Message: "account already verified"})
		case errors.Is(err, usecase.ErrAccountNotFound):
			c.JSON(http.StatusBadRequest, NewErrorResponse(c, "no account registered for this email"))
		default:
			c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to resend verification code"))
		}
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "verification code sent"})
}
