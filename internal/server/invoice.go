package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	invoicedomain "github.com/smallbiznis/autocharge/internal/invoice/domain"
	"github.com/smallbiznis/autocharge/pkg/db/pagination"
)

type listInvoicesQuery struct {
	pagination.Pagination
	Status     string `form:"status"`
	CustomerID string `form:"customer_id"`
}

// ListInvoices pages invoices newest first with optional status and
// customer filters.
func (s *Server) ListInvoices(c *gin.Context) {
	var q listInvoicesQuery
	if !bindQuery(c, &q) {
		return
	}
	resp, err := s.invoiceSvc.List(c.Request.Context(), invoicedomain.ListInvoiceRequest{
		PageToken:  q.PageToken,
		PageSize:   int32(q.PageSize),
		Status:     q.Status,
		CustomerID: q.CustomerID,
	})
	respond(c, resp, err)
}

func (s *Server) GetInvoiceByID(c *gin.Context) {
	item, err := s.invoiceSvc.GetByID(c.Request.Context(), c.Param("id"))
	respond(c, item, err)
}

func bindQuery(c *gin.Context, dst any) bool {
	if err := c.ShouldBindQuery(dst); err != nil {
		AbortWithError(c, invalidRequestError())
		return false
	}
	return true
}

// respond wraps a service result in the {"data": ...} envelope or hands
// the error to ErrorHandlingMiddleware.
func respond(c *gin.Context, v any, err error) {
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": v})
}
