package apple

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	sessionCookieName = "session_id"
	cookieMaxAge      = 86400 // 24 hours
)

// requestValue reads a request parameter from the POST form first
// (Apple uses response_mode=form_post), then from the query string.
func requestValue(c *gin.Context, key string) string {
	if v := c.PostForm(key); v != "" {
		return v
	}
	return c.Query(key)
}

func requestOptions(c *gin.Context) RequestOptions {
	return RequestOptions{
		Scope:        requestValue(c, "scope"),
		Prompt:       requestValue(c, "prompt"),
		AccessType:   requestValue(c, "access_type"),
		ResponseMode: requestValue(c, "response_mode"),
	}
}

// AuthHandler starts the Sign In with Apple flow
// @Summary Start Sign In with Apple
// @Description Redirects the user-agent to Apple's authorization endpoint
// @Tags auth
// @Param scope query string false "Scope override"
// @Param prompt query string false "Prompt override"
// @Param access_type query string false "Access type override"
// @Param response_mode query string false "Response mode override"
// @Success 307 {string} string "Redirect"
// @Router /auth/apple [get]
func AuthHandler(manager *Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authURL, err := manager.AuthURL(c.Request.Context(), requestOptions(c))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.Redirect(http.StatusTemporaryRedirect, authURL)
	}
}

// CallbackHandler handles the Apple callback
// @Summary Sign In with Apple callback
// @Description Exchanges the authorization code, decodes the identity token and creates a session
// @Tags auth
// @Produce json
// @Param code formData string false "Authorization code"
// @Param state formData string false "Anti-forgery state"
// @Param user formData string false "User JSON blob (first consent only)"
// @Param error formData string false "Provider error"
// @Success 200 {object} map[string]interface{} "Authenticated"
// @Failure 400 {object} map[string]string "Malformed callback"
// @Failure 401 {object} map[string]string "Denied"
// @Failure 502 {object} map[string]string "Exchange failed"
// @Router /auth/apple/callback [post]
func CallbackHandler(manager *Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		params := CallbackParams{
			Code:             requestValue(c, "code"),
			State:            requestValue(c, "state"),
			User:             requestValue(c, "user"),
			Error:            requestValue(c, "error"),
			ErrorDescription: requestValue(c, "error_description"),
		}

		sessionID, result, err := manager.HandleCallback(c.Request.Context(), params, requestOptions(c))
		if err != nil {
			var aerr *AuthError
			if errors.As(err, &aerr) {
				c.JSON(statusForKind(aerr.Kind), gin.H{
					"error":             aerr.Code,
					"error_description": aerr.Description,
				})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		// Set session cookie
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(
			sessionCookieName,
			sessionID,
			cookieMaxAge,
			"/",
			"",
			true, // Secure: only HTTPS
			true, // HttpOnly: not accessible via JavaScript
		)

		c.JSON(http.StatusOK, gin.H{
			"uid":   result.UID,
			"email": result.Info.Email,
		})
	}
}

func statusForKind(kind ErrorKind) int {
	switch kind {
	case KindProviderDenied, KindStateMismatch:
		return http.StatusUnauthorized
	case KindMalformedCallback:
		return http.StatusBadRequest
	case KindTokenExchangeFailed, KindIdentityDecodeFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// MeHandler returns the authenticated user's auth result
// @Summary Get authenticated user info
// @Description Returns the normalized auth result from the session
// @Tags auth
// @Produce json
// @Success 200 {object} map[string]interface{} "User info"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Router /auth/me [get]
func MeHandler(manager *Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID, err := c.Cookie(sessionCookieName)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "no session found"})
			return
		}

		session, err := manager.GetSession(sessionID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired session"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"uid":        session.Result.UID,
			"info":       session.Result.Info,
			"created_at": session.CreatedAt,
			"expires_at": session.ExpiresAt,
		})
	}
}

// LogoutHandler logs out the user by deleting the session
// @Summary Logout
// @Description Deletes the user session and clears the cookie
// @Tags auth
// @Produce json
// @Success 200 {object} map[string]string "Logged out"
// @Router /auth/logout [post]
func LogoutHandler(manager *Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID, err := c.Cookie(sessionCookieName)
		if err == nil {
			_ = manager.DeleteSession(sessionID)
		}

		// Clear cookie
		c.SetCookie(
			sessionCookieName,
			"",
			-1,
			"/",
			"",
			true,
			true,
		)

		c.JSON(http.StatusOK, gin.H{"message": "logged out"})
	}
}

// AuthMiddleware is a middleware that validates the session cookie
func AuthMiddleware(manager *Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID, err := c.Cookie(sessionCookieName)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "no session found"})
			c.Abort()
			return
		}

		session, err := manager.GetSession(sessionID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired session"})
			c.Abort()
			return
		}

		// Store session in context for downstream handlers
		c.Set("session", session)
		c.Set("user", session.Result)

		c.Next()
	}
}
