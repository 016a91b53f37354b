package server

import (
	"github.com/gin-gonic/gin"

	organizationdomain "github.com/alprail/membership/internal/organization/domain"
)

func (s *Server) CreateOrganization(c *gin.Context) {
	var req organizationdomain.CreateOrganizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, organizationdomain.ErrInvalidOrganization)
		return
	}

	org, err := s.organizationSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondCreated(c, org)
}

func (s *Server) GetOrganization(c *gin.Context) {
	org, err := s.organizationSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondOK(c, org)
}

func (s *Server) UpdateOrganization(c *gin.Context) {
	var req organizationdomain.UpdateOrganizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, organizationdomain.ErrInvalidOrganization)
		return
	}
	req.ID = c.Param("id")

	org, err := s.organizationSvc.Update(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondOK(c, org)
}

func (s *Server) ListOrganizations(c *gin.Context) {
	var req organizationdomain.ListOrganizationRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		AbortWithError(c, organizationdomain.ErrInvalidOrganization)
		return
	}

	resp, err := s.organizationSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondOK(c, resp)
}
