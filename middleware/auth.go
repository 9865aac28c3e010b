package middleware

import (
	"context"
	"net/http"

	"food-ordering-api/apperror"
	"food-ordering-api/auth"
	"food-ordering-api/models"

	"github.com/gin-gonic/gin"
)

const (
	AccessTokenCookie  = "accessToken"
	RefreshTokenCookie = "refreshToken"

	principalKey = "principal"
)

// Authenticator resolves an access token into the caller's identity.
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (*models.Principal, error)
}

// AuthRequired resolves the Principal from the access token cookie or a
// Bearer header and injects it into the context. The cookie is tried first;
// a rejected cookie falls back to the header. Permission checks happen in
// the services, not here.
func AuthRequired(authn Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokens := candidateTokens(c)
		if len(tokens) == 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization required (cookie or Bearer <token>)"})
			return
		}

		var (
			p   *models.Principal
			err error
		)
		for _, token := range tokens {
			p, err = authn.Authenticate(c.Request.Context(), token)
			if err == nil || !apperror.Is(err, apperror.KindUnauthenticated) {
				break
			}
		}
		if err != nil {
			status := http.StatusUnauthorized
			msg := err.Error()
			if !apperror.Is(err, apperror.KindUnauthenticated) {
				status = http.StatusInternalServerError
				msg = "Failed to authenticate request"
				c.Error(err)
			}
			c.AbortWithStatusJSON(status, gin.H{"error": msg})
			return
		}
		c.Set(principalKey, p)
		c.Next()
	}
}

func candidateTokens(c *gin.Context) []string {
	var tokens []string
	if cookie, err := c.Cookie(AccessTokenCookie); err == nil && cookie != "" {
		tokens = append(tokens, cookie)
	}
	if bearer, ok := auth.ExtractBearer(c.GetHeader("Authorization")); ok && bearer != "" {
		if len(tokens) == 0 || tokens[0] != bearer {
			tokens = append(tokens, bearer)
		}
	}
	return tokens
}

// GetPrincipal returns the Principal injected by AuthRequired, or nil.
func GetPrincipal(c *gin.Context) *models.Principal {
	v, ok := c.Get(principalKey)
	if !ok {
		return nil
	}
	p, _ := v.(*models.Principal)
	return p
}
