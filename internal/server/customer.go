package server

import (
	"github.com/gin-gonic/gin"
	customerdomain "github.com/smallbiznis/autocharge/internal/customer/domain"
	"github.com/smallbiznis/autocharge/pkg/db/pagination"
)

type listCustomersQuery struct {
	pagination.Pagination
	Currency string `form:"currency"`
}

// ListCustomers pages customers newest first, optionally by currency.
func (s *Server) ListCustomers(c *gin.Context) {
	var q listCustomersQuery
	if !bindQuery(c, &q) {
		return
	}
	resp, err := s.customerSvc.List(c.Request.Context(), customerdomain.ListCustomerRequest{
		PageToken: q.PageToken,
		PageSize:  int32(q.PageSize),
		Currency:  q.Currency,
	})
	respond(c, resp, err)
}

func (s *Server) GetCustomerByID(c *gin.Context) {
	customer, err := s.customerSvc.GetByID(c.Request.Context(), customerdomain.GetCustomerRequest{ID: c.Param("id")})
	respond(c, customer, err)
}
