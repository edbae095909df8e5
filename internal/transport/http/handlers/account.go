package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/adolfbenedict/bytehub/internal/transport/http/middleware"
	"github.com/adolfbenedict/bytehub/internal/usecase"
)

// AccountHandler exposes authenticated account endpoints.
type AccountHandler struct {
	accounts *usecase.AccountService
	auth     *usecase.AuthService
	cookie   CookieSettings
}

// NewAccountHandler constructs AccountHandler.
func NewAccountHandler(accounts *usecase.AccountService, auth *usecase.AuthService, cookie CookieSettings) *AccountHandler {
	return &AccountHandler{accounts: accounts, auth: auth, cookie: cookie}
}

// RegisterRoutes binds account routes behind the bearer-token middleware.
func (h *AccountHandler) RegisterRoutes(r *gin.RouterGroup) {
	authRequired := middleware.RequireAuth(h.auth)
	r.GET("/protected-data", authRequired, h.protectedData)
	r.DELETE("/delete-account", authRequired, h.deleteAccount)
}

// ProtectedData returns the authenticated caller's profile.
func (h *AccountHandler) protectedData(c *gin.Context) {
	accountID, ok := middleware.GetAuthenticatedAccountID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	account, err := h.accounts.Profile(c.Request.Context(), accountID)
	if err != nil {
		if errors.Is(err, usecase.ErrAccountNotFound) {
			c.JSON(http.StatusNotFound, NewErrorResponse(c, "account not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to load profile"))
		return
	}

	c.JSON(http.StatusOK, newAccountSummary(account))
}

// DeleteAccount removes the caller's account and clears the refresh cookie.
func (h *AccountHandler) deleteAccount(c *gin.Context) {
	accountID, ok := middleware.GetAuthenticatedAccountID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	if err := h.accounts.Delete(c.Request.Context(), accountID); err != nil {
		if errors.Is(err, usecase.ErrAccountNotFound) {
			c.JSON(http.StatusNotFound, NewErrorResponse(c, "account not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to delete account"))
		return
	}

	h.clearRefreshCookie(c)
	c.JSON(http.StatusOK, MessageResponse{Message: "account deleted"})
}

func (h *AccountHandler) clearRefreshCookie(c *gin.Context) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     RefreshCookieName,
		Value:    "",
		Path:     "/",
		Domain:   h.cookie.Domain,
		MaxAge:   -1,
		Secure:   h.cookie.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteNoneMode,
	})
}
