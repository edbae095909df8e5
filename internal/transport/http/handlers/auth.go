package handlers

import (
	"errors"
	"math"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/adolfbenedict/bytehub/internal/infra/security"
	"github.com/adolfbenedict/bytehub/internal/transport/http/middleware"
	"github.com/adolfbenedict/bytehub/internal/usecase"
)

// RefreshCookieName is the cookie carrying the refresh token.
const RefreshCookieName = "refresh_token"

// CookieSettings configures the refresh token cookie.
type CookieSettings struct {
	Domain string
	Secure bool
}

// AuthHandler exposes login, token refresh, and logout endpoints.
type AuthHandler struct {
	auth   *usecase.AuthService
	cookie CookieSettings
}

// NewAuthHandler constructs AuthHandler.
func NewAuthHandler(auth *usecase.AuthService, cookie CookieSettings) *AuthHandler {
	return &AuthHandler{auth: auth, cookie: cookie}
}

// RegisterRoutes binds authentication routes, applying optional per-route
// middleware ahead of the handlers.
func (h *AuthHandler) RegisterRoutes(r *gin.RouterGroup, loginMiddlewares, tokenMiddlewares []gin.HandlerFunc) {
	login := append([]gin.HandlerFunc{}, loginMiddlewares...)
	login = append(login, h.login)
	r.POST("/login", login...)

	token := append([]gin.HandlerFunc{}, tokenMiddlewares...)
	token = append(token, h.token)
	r.POST("/token", token...)

	r.POST("/logout", middleware.RequireAuth(h.auth), h.logout)
}

// Login validates credentials, returns the access token in the body, and
// sets the refresh token as an http-only cross-site cookie.
func (h *AuthHandler) login(c *gin.Context) {
	if h.auth == nil {
		c.JSON(http.StatusServiceUnavailable, NewErrorResponse(c, "authentication service unavailable"))
		return
	}

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "identifier and password are required"))
		return
	}

	result, err := h.auth.Login(c.Request.Context(), req.Identifier, req.Password)
	if err != nil {
		h.respondLoginError(c, err)
		return
	}

	h.setRefreshCookie(c, result.RefreshToken, result.RefreshExpiresAt)

	c.JSON(http.StatusOK, LoginResponse{
		AccessToken: result.AccessToken,
		TokenType:   "Bearer",
		ExpiresIn:   int(h.auth.AccessTokenTTL().Seconds()),
		Account:     newAccountSummary(result.Account),
	})
}

func (h *AuthHandler) respondLoginError(c *gin.Context, err error) {
	var lockedErr *usecase.AccountLockedError
	if errors.As(err, &lockedErr) {
		c.JSON(http.StatusForbidden, LockedResponse{
			Error:      "account locked",
			RetryAfter: int(math.Ceil(lockedErr.RetryAfter.Seconds())),
			TraceID:    middleware.GetTraceID(c),
		})
		return
	}

	var credErr *usecase.InvalidCredentialsError
	if errors.As(err, &credErr) {
		remaining := credErr.AttemptsRemaining
		c.JSON(http.StatusUnauthorized, LoginFailedResponse{
			Error:             "invalid credentials",
			AttemptsRemaining: &remaining,
			TraceID:           middleware.GetTraceID(c),
		})
		return
	}

	switch {
	case errors.Is(err, usecase.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, LoginFailedResponse{
			Error:   "invalid credentials",
			TraceID: middleware.GetTraceID(c),
		})
	case errors.Is(err, usecase.ErrVerificationRequired):
		c.JSON(http.StatusForbidden, NewErrorResponse(c, "account pending verification, a new code was emailed"))
	default:
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to authenticate"))
	}
}

// Token mints a new access token from the refresh cookie. The refresh
// token is not rotated.
func (h *AuthHandler) token(c *gin.Context) {
	if h.auth == nil {
		c.JSON(http.StatusServiceUnavailable, NewErrorResponse(c, "authentication service unavailable"))
		return
	}

	refreshToken, err := c.Cookie(RefreshCookieName)
	if err != nil || refreshToken == "" {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "refresh token missing"))
		return
	}

	accessToken, err := h.auth.RefreshAccessToken(c.Request.Context(), refreshToken)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrExpiredRefreshToken):
			h.clearRefreshCookie(c)
			c.JSON(http.StatusForbidden, NewErrorResponse(c, "refresh token expired"))
		case errors.Is(err, usecase.ErrInvalidRefreshToken):
			h.clearRefreshCookie(c)
			c.JSON(http.StatusForbidden, NewErrorResponse(c, "invalid refresh token"))
		default:
			c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to refresh token"))
		}
		return
	}

	c.JSON(http.StatusOK, TokenResponse{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		ExpiresIn:   int(h.auth.AccessTokenTTL().Seconds()),
	})
}

// Logout revokes the refresh token and clears its cookie. Repeating the
// call is harmless.
func (h *AuthHandler) logout(c *gin.Context) {
	claims := getAccessTokenClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	refreshToken, _ := c.Cookie(RefreshCookieName)
	if refreshToken != "" {
		if err := h.auth.Logout(c.Request.Context(), claims.AccountID, refreshToken); err != nil {
			c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to log out"))
			return
		}
	}

	h.clearRefreshCookie(c)
	c.JSON(http.StatusOK, MessageResponse{Message: "logged out"})
}

func (h *AuthHandler) setRefreshCookie(c *gin.Context, token string, expiresAt time.Time) {
	maxAge := int(time.Until(expiresAt).Seconds())
	if maxAge < 0 {
		maxAge = 0
	}
	h.writeRefreshCookie(c, token, maxAge)
}

func (h *AuthHandler) clearRefreshCookie(c *gin.Context) {
	h.writeRefreshCookie(c, "", -1)
}

// writeRefreshCookie sets SameSite=None because the frontend lives on a
// different site than the API; that combination requires Secure.
func (h *AuthHandler) writeRefreshCookie(c *gin.Context, value string, maxAge int) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     RefreshCookieName,
		Value:    value,
		Path:     "/",
		Domain:   h.cookie.Domain,
		MaxAge:   maxAge,
		Secure:   h.cookie.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteNoneMode,
	})
}

func getAccessTokenClaims(c *gin.Context) *security.AccessTokenClaims {
	raw, exists := c.Get("claims")
	if !exists {
		return nil
	}

	claims, ok := raw.(*security.AccessTokenClaims)
	if !ok {
		return nil
	}

	return claims
}
