package server

import (
	"github.com/gin-gonic/gin"

	subscriptiondomain "github.com/alprail/membership/internal/subscription/domain"
)

func (s *Server) GetSubscription(c *gin.Context) {
	sub, err := s.subscriptionSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondOK(c, sub)
}

// GetCurrentSubscription returns the organization's most recently
// created subscription, whatever its status.
func (s *Server) GetCurrentSubscription(c *gin.Context) {
	sub, err := s.subscriptionSvc.GetCurrentByOrganization(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondOK(c, sub)
}

func (s *Server) ListSubscriptions(c *gin.Context) {
	var req subscriptiondomain.ListSubscriptionRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		AbortWithError(c, subscriptiondomain.ErrInvalidSubscription)
		return
	}

	resp, err := s.subscriptionSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondOK(c, resp)
}

func (s *Server) CancelSubscription(c *gin.Context) {
	sub, err := s.subscriptionSvc.Cancel(c.Request.Context(), subscriptiondomain.CancelSubscriptionRequest{
		ID:      c.Param("id"),
		ActorID: actorID(c),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondOK(c, sub)
}

func (s *Server) RenewSubscription(c *gin.Context) {
	var req subscriptiondomain.RenewSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		AbortWithError(c, subscriptiondomain.ErrInvalidSubscription)
		return
	}
	req.ID = c.Param("id")
	req.ActorID = actorID(c)

	resp, err := s.subscriptionSvc.Renew(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondOK(c, resp)
}
