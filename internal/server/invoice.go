package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	invoicedomain "github.com/alprail/membership/internal/invoice/domain"
)

func (s *Server) GetInvoice(c *gin.Context) {
	inv, err := s.invoiceSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondOK(c, inv)
}

func (s *Server) ListInvoices(c *gin.Context) {
	var req invoicedomain.ListInvoiceRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		AbortWithError(c, invoicedomain.ErrInvalidInvoice)
		return
	}

	resp, err := s.invoiceSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondOK(c, resp)
}

func (s *Server) MarkInvoicePaid(c *gin.Context) {
	inv, err := s.invoiceSvc.MarkPaid(c.Request.Context(), invoicedomain.MarkPaidRequest{
		ID:      c.Param("id"),
		ActorID: actorID(c),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondOK(c, inv)
}

func (s *Server) DownloadInvoicePDF(c *gin.Context) {
	id := c.Param("id")

	inv, err := s.invoiceSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	doc, err := s.invoiceSvc.RenderPDF(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s.pdf", inv.InvoiceNumber))
	c.Data(http.StatusOK, "application/pdf", doc)
}
