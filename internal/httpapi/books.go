package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"libraryCatalog/internal/auth"
	"libraryCatalog/internal/library"
)

func pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		invalid(c, "id must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}

// queryInt reads an optional integer query parameter; absent means 0.
// Range checks belong to the service.
func queryInt(c *gin.Context, name string) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		invalid(c, name+" must be an integer")
		return 0, false
	}
	return n, true
}

func queryPage(c *gin.Context) (library.Page, bool) {
	page, ok := queryInt(c, "page")
	if !ok {
		return library.Page{}, false
	}
	size, ok := queryInt(c, "page_size")
	if !ok {
		return library.Page{}, false
	}
	return library.Page{Page: page, PageSize: size}, true
}

func (h *Handler) listBooks(c *gin.Context) {
	page, ok := queryPage(c)
	if !ok {
		return
	}
	res, err := h.Svc.ListBooks(c.Request.Context(), library.BookQuery{
		Q:      c.Query("q"),
		Author: c.Query("author"),
		Tag:    c.Query("tag"),
		Status: c.Query("status"),
		Page:   page,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) createBook(c *gin.Context) {
	var in library.BookInput
	if err := c.ShouldBindJSON(&in); err != nil {
		invalid(c, "invalid request body")
		return
	}
	b, err := h.Svc.CreateBook(c.Request.Context(), auth.PrincipalFromGin(c), in)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

func (h *Handler) getBook(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	b, err := h.Svc.GetBook(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *Handler) updateBook(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var patch library.BookPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		invalid(c, "invalid request body")
		return
	}
	b, err := h.Svc.UpdateBook(c.Request.Context(), auth.PrincipalFromGin(c), id, patch)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *Handler) deleteBook(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.Svc.DeleteBook(c.Request.Context(), auth.PrincipalFromGin(c), id); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type enrichRequest struct {
	Title       string  `json:"title"`
	Author      string  `json:"author"`
	Description *string `json:"description"`
}

func (h *Handler) enrich(c *gin.Context) {
	var req enrichRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalid(c, "invalid request body")
		return
	}
	res, err := h.Svc.Enrich(c.Request.Context(), auth.PrincipalFromGin(c), req.Title, req.Author, req.Description)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) aiSearch(c *gin.Context) {
	topK, ok := queryInt(c, "top_k")
	if !ok {
		return
	}
	res, err := h.Svc.Search(c.Request.Context(), c.Query("q"), topK)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

type askRequest struct {
	Question string `json:"question"`
}

func (h *Handler) ask(c *gin.Context) {
	p := auth.PrincipalFromGin(c)
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalid(c, "invalid request body")
		return
	}
	res, err := h.Svc.Ask(c.Request.Context(), p, req.Question)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
