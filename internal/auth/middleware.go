package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"storefront/internal/domain"
	"storefront/internal/logging"
)

const principalKey = "principal"

// RequireUser проверяет Bearer токен и кладёт Principal в gin.Context
func RequireUser(iss *Issuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			unauth(c, "invalid_request", "missing bearer token")
			return
		}
		p, err := iss.Parse(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			unauth(c, "invalid_token", "invalid jwt")
			return
		}
		c.Set(principalKey, p)
		logging.Bind(c, logging.From(c).With("user_id", p.UserID.String()))
		c.Next()
	}
}

// RequireAdmin ставится после RequireUser
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := PrincipalFrom(c)
		if !ok {
			unauth(c, "invalid_request", "missing bearer token")
			return
		}
		if !p.IsAdmin {
			forbidden(c, "insufficient_scope", "admin only")
			return
		}
		c.Next()
	}
}

// PrincipalFrom достаёт автора запроса, установленного RequireUser
func PrincipalFrom(c *gin.Context) (domain.Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return domain.Principal{}, false
	}
	p, ok := v.(domain.Principal)
	return p, ok
}

func unauth(c *gin.Context, code, desc string) {
	c.Header("WWW-Authenticate", `Bearer error="`+code+`", error_description="`+desc+`"`)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": code, "error_description": desc})
}

func forbidden(c *gin.Context, code, desc string) {
	c.Header("WWW-Authenticate", `Bearer error="`+code+`", error_description="`+desc+`"`)
	c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": code, "error_description": desc})
}
