// Package httpapi serves the JSON HTTP API with gin.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"libraryCatalog/internal/apperr"
	"libraryCatalog/internal/auth"
	"libraryCatalog/internal/library"
	"libraryCatalog/internal/oauth"
)

// Version is reported by /health.
const Version = "0.1.0"

// Handler bundles the HTTP dependencies.
type Handler struct {
	Svc       *library.Service
	Authn     *auth.Authenticator
	Providers *oauth.Registry
	Log       *logrus.Entry

	TokenTTL      time.Duration
	FrontendURL   string
	SecureCookies bool
}

// Router builds the gin engine with every route registered.
func (h *Handler) Router() *gin.Engine {
	r := gin.New()
	r.Use(Logger(h.Log), gin.Recovery())
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found", "detail": "Not found"})
	})

	r.GET("/health", h.health)

	v1 := r.Group("/api/v1")
	v1.Use(auth.GinMiddleware(h.Authn))

	authGroup := v1.Group("/auth")
	authGroup.GET("/login/:provider", h.login)
	authGroup.GET("/callback/:provider", h.callback)
	authGroup.GET("/me", requireUser, h.me)

	books := v1.Group("/books")
	books.POST("/enrich", requireUser, h.enrich)
	books.GET("/ai-search", h.aiSearch)
	books.POST("/ask", requireUser, h.ask)
	books.GET("", h.listBooks)
	books.POST("", requireUser, h.createBook)
	books.GET("/:id", h.getBook)
	books.PUT("/:id", requireUser, h.updateBook)
	books.DELETE("/:id", requireUser, h.deleteBook)

	loans := v1.Group("/loans", requireUser)
	loans.POST("/checkout", h.checkout)
	loans.POST("/return", h.returnLoan)
	loans.GET("", h.listLoans)

	admin := v1.Group("/admin", requireUser)
	admin.GET("/users", h.listUsers)
	admin.PATCH("/users/:id/role", h.changeRole)

	return r
}

// requireUser rejects anonymous callers before any input is read.
func requireUser(c *gin.Context) {
	if auth.PrincipalFromGin(c) == nil {
		fail(c, apperr.Unauthenticated("Not authenticated"))
		return
	}
	c.Next()
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "version": Version})
}

// StartHTTP serves h on addr and returns a shutdown function.
func StartHTTP(addr string, h *Handler) (func(context.Context) error, error) {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	srv := &http.Server{
		Handler:           h.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			h.Log.WithError(err).Error("http server stopped")
		}
	}()
	h.Log.WithField("address", lis.Addr().String()).Info("http server listening")
	return srv.Shutdown, nil
}
