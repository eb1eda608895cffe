package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prohmpiriya/queue-rush/internal/domain"
	"github.com/prohmpiriya/queue-rush/internal/service"
	"github.com/prohmpiriya/queue-rush/pkg/response"
)

const (
	// TokenCookieName carries the session token for browser clients
	TokenCookieName = "token"
	// ContextKeyAccount is the gin context key for the signed-in account
	ContextKeyAccount = "account"
)

// Authenticate resolves the bearer token (or the token cookie) to an
// account and stores it in the context. Any failure is a 401.
func Authenticate(authService service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := ExtractToken(c)
		if token == "" {
			response.Abort(c, http.StatusUnauthorized, "Not authorized, no token")
			return
		}

		account, err := authService.CurrentUser(c.Request.Context(), token)
		if err != nil {
			if domain.IsNotFoundError(err) {
				response.Abort(c, http.StatusUnauthorized, "Not authorized, user not found")
				return
			}
			if !domain.IsAuthError(err) {
				_ = c.Error(err)
			}
			response.Abort(c, http.StatusUnauthorized, "Not authorized, token failed")
			return
		}

		c.Set(ContextKeyAccount, account)
		c.Next()
	}
}

// RequireRoles rejects accounts whose role is not in roles. It must run
// after Authenticate.
func RequireRoles(roles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch err := service.Authorize(CurrentAccount(c), roles...); {
		case err == nil:
			c.Next()
		case errors.Is(err, domain.ErrForbidden):
			response.Abort(c, http.StatusForbidden, "Not authorized, insufficient permissions")
		default:
			response.Abort(c, http.StatusUnauthorized, "Not authorized, no user found")
		}
	}
}

// ExtractToken reads "Authorization: Bearer <token>" first, then the token cookie
func ExtractToken(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			if token := strings.TrimSpace(parts[1]); token != "" {
				return token
			}
		}
	}
	if cookie, err := c.Cookie(TokenCookieName); err == nil {
		return cookie
	}
	return ""
}

// CurrentAccount returns the account set by Authenticate, or nil
func CurrentAccount(c *gin.Context) *domain.Account {
	if v, exists := c.Get(ContextKeyAccount); exists {
		if account, ok := v.(*domain.Account); ok {
			return account
		}
	}
	return nil
}
