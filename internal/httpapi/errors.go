package httpapi

import (
	"github.com/gin-gonic/gin"

	"libraryCatalog/internal/apperr"
)

// fail renders err as {"error": kind, "detail": message}. Internal causes are
// attached to the gin context for the request logger and never sent.
func fail(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	if kind == apperr.KindInternal {
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(kind.HTTPStatus(), gin.H{
		"error":  kind.String(),
		"detail": apperr.MessageOf(err),
	})
}

func invalid(c *gin.Context, detail string) {
	fail(c, apperr.Validation(detail))
}
