package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"libraryCatalog/internal/auth"
)

type checkoutRequest struct {
	BookID uuid.UUID `json:"book_id"`
}

type returnRequest struct {
	LoanID uuid.UUID `json:"loan_id"`
}

func (h *Handler) checkout(c *gin.Context) {
	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.BookID == uuid.Nil {
		invalid(c, "book_id must be a valid UUID")
		return
	}
	loan, err := h.Svc.Checkout(c.Request.Context(), auth.PrincipalFromGin(c), req.BookID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, loan)
}

func (h *Handler) returnLoan(c *gin.Context) {
	var req returnRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.LoanID == uuid.Nil {
		invalid(c, "loan_id must be a valid UUID")
		return
	}
	loan, err := h.Svc.Return(c.Request.Context(), auth.PrincipalFromGin(c), req.LoanID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, loan)
}

func (h *Handler) listLoans(c *gin.Context) {
	page, ok := queryPage(c)
	if !ok {
		return
	}
	res, err := h.Svc.ListLoans(c.Request.Context(), auth.PrincipalFromGin(c), page)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
