package httpapi

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"libraryCatalog/internal/apperr"
	"libraryCatalog/internal/auth"
	"libraryCatalog/internal/oauth"
)

func (h *Handler) provider(c *gin.Context) (oauth.Provider, bool) {
	name := c.Param("provider")
	p, err := h.Providers.Get(name)
	switch {
	case errors.Is(err, oauth.ErrUnsupported):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "bad_request", "detail": "Unsupported provider: " + name})
		return nil, false
	case err != nil:
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "unavailable", "detail": "Provider '" + name + "' is not configured on this server"})
		return nil, false
	}
	return p, true
}

func (h *Handler) login(c *gin.Context) {
	p, ok := h.provider(c)
	if !ok {
		return
	}
	state := h.generateState(c)
	challenge := h.generatePKCE(c)
	c.Redirect(http.StatusFound, p.AuthCodeURL(state, challenge))
}

func (h *Handler) callback(c *gin.Context) {
	p, ok := h.provider(c)
	if !ok {
		return
	}
	if !validateState(c) {
		fail(c, apperr.Unauthenticated("Invalid OAuth state"))
		return
	}
	if e := c.Query("error"); e != "" {
		h.Log.WithFields(logrus.Fields{"provider": p.Name(), "error": e, "desc": c.Query("error_description")}).Warn("oauth callback returned error")
		fail(c, apperr.Unauthenticated("Authentication was not completed"))
		return
	}
	code := c.Query("code")
	if code == "" {
		invalid(c, "missing authorization code")
		return
	}
	verifier := pkceVerifier(c)
	if verifier == "" {
		fail(c, apperr.Unauthenticated("Missing PKCE verifier"))
		return
	}
	h.clearFlowCookie(c, stateCookieName)
	h.clearFlowCookie(c, pkceCookieName)

	id, err := p.Exchange(c.Request.Context(), code, verifier)
	if err != nil {
		h.Log.WithError(err).WithField("provider", p.Name()).Warn("oauth exchange failed")
		fail(c, apperr.Unauthenticated("Authentication failed"))
		return
	}
	u, err := h.Svc.SignIn(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	token, err := h.Authn.Issue(u, h.TokenTTL)
	if err != nil {
		fail(c, apperr.Internal(err))
		return
	}
	if h.FrontendURL != "" {
		c.Redirect(http.StatusFound, h.FrontendURL+"/auth/callback?token="+url.QueryEscape(token))
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": token, "token_type": "bearer"})
}

func (h *Handler) me(c *gin.Context) {
	u, err := h.Svc.Me(c.Request.Context(), auth.PrincipalFromGin(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h *Handler) listUsers(c *gin.Context) {
	page, ok := queryPage(c)
	if !ok {
		return
	}
	users, err := h.Svc.ListUsers(c.Request.Context(), auth.PrincipalFromGin(c), page)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

type roleRequest struct {
	Role string `json:"role"`
}

func (h *Handler) changeRole(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req roleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalid(c, "invalid request body")
		return
	}
	u, err := h.Svc.ChangeRole(c.Request.Context(), auth.PrincipalFromGin(c), id, req.Role)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}
