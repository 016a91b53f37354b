package server

import (
	"github.com/gin-gonic/gin"

	paymentdomain "github.com/alprail/membership/internal/payment/domain"
)

func (s *Server) InitiatePayment(c *gin.Context) {
	var req paymentdomain.InitiatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, paymentdomain.ErrInvalidPayment)
		return
	}
	req.ActorID = actorID(c)

	resp, err := s.paymentSvc.Initiate(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondCreated(c, resp)
}

func (s *Server) ConfirmPayment(c *gin.Context) {
	var req paymentdomain.ConfirmPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, paymentdomain.ErrInvalidPayment)
		return
	}
	req.ActorID = actorID(c)

	resp, err := s.paymentSvc.Confirm(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondOK(c, resp)
}

func (s *Server) GetPayment(c *gin.Context) {
	p, err := s.paymentSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondOK(c, p)
}

func (s *Server) ListPayments(c *gin.Context) {
	var req paymentdomain.ListPaymentRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		AbortWithError(c, paymentdomain.ErrInvalidPayment)
		return
	}

	resp, err := s.paymentSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondOK(c, resp)
}
