package server

import (
	"github.com/gin-gonic/gin"

	signupdomain "github.com/alprail/membership/internal/signup/domain"
)

// Register creates the organization, its first member, a pending
// subscription and the opening invoice in one call.
func (s *Server) Register(c *gin.Context) {
	var req signupdomain.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, signupdomain.ErrInvalidRequest)
		return
	}
	req.IPAddress = c.ClientIP()
	req.UserAgent = c.Request.UserAgent()

	result, err := s.signupSvc.Signup(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondCreated(c, result)
}
