package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	memberdomain "github.com/alprail/membership/internal/member/domain"
)

func (s *Server) CreateMember(c *gin.Context) {
	var req memberdomain.CreateMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, memberdomain.ErrInvalidMember)
		return
	}

	m, err := s.memberSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondCreated(c, m)
}

func (s *Server) GetMember(c *gin.Context) {
	m, err := s.memberSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondOK(c, m)
}

func (s *Server) UpdateMember(c *gin.Context) {
	var req memberdomain.UpdateMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, memberdomain.ErrInvalidMember)
		return
	}
	req.ID = c.Param("id")

	m, err := s.memberSvc.Update(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondOK(c, m)
}

func (s *Server) DeleteMember(c *gin.Context) {
	if err := s.memberSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) ListMembers(c *gin.Context) {
	var req memberdomain.ListMemberRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		AbortWithError(c, memberdomain.ErrInvalidMember)
		return
	}

	resp, err := s.memberSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondOK(c, resp)
}
