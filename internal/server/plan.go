package server

import (
	"github.com/gin-gonic/gin"

	plandomain "github.com/alprail/membership/internal/plan/domain"
)

// ListActivePlans is the public catalog. Inactive plans stay hidden.
func (s *Server) ListActivePlans(c *gin.Context) {
	plans, err := s.planSvc.List(c.Request.Context(), plandomain.ListPlanRequest{ActiveOnly: true})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondOK(c, plans)
}

func (s *Server) CreatePlan(c *gin.Context) {
	var req plandomain.CreatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, plandomain.ErrInvalidPlan)
		return
	}

	p, err := s.planSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondCreated(c, p)
}

func (s *Server) GetPlan(c *gin.Context) {
	p, err := s.planSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondOK(c, p)
}

func (s *Server) UpdatePlan(c *gin.Context) {
	var req plandomain.UpdatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, plandomain.ErrInvalidPlan)
		return
	}
	req.ID = c.Param("id")

	p, err := s.planSvc.Update(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondOK(c, p)
}

func (s *Server) ListPlans(c *gin.Context) {
	var req plandomain.ListPlanRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		AbortWithError(c, plandomain.ErrInvalidPlan)
		return
	}

	plans, err := s.planSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondOK(c, plans)
}
