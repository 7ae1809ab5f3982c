package auth

import (
	"github.com/gin-gonic/gin"

	"libraryCatalog/internal/apperr"
)

// GinMiddleware attaches the Principal to the request context when an
// Authorization header is present. Requests without one pass through
// anonymously; a header that fails verification is rejected.
func GinMiddleware(a *Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}
		tok, err := BearerToken(header)
		if err != nil {
			abort(c, apperr.Unauthenticated("Invalid authorization header"))
			return
		}
		p, err := a.Authenticate(c.Request.Context(), tok)
		if err != nil {
			abort(c, err)
			return
		}
		c.Request = c.Request.WithContext(WithPrincipal(c.Request.Context(), p))
		c.Next()
	}
}

func abort(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	c.AbortWithStatusJSON(kind.HTTPStatus(), gin.H{"error": kind.String(), "detail": apperr.MessageOf(err)})
}

// PrincipalFromGin returns the caller attached by GinMiddleware, or nil.
func PrincipalFromGin(c *gin.Context) *Principal {
	p, _ := FromContext(c.Request.Context())
	return p
}
