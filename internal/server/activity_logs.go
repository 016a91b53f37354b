package server

import (
	"github.com/gin-gonic/gin"

	activitylogdomain "github.com/alprail/membership/internal/activitylog/domain"
)

func (s *Server) ListActivityLogs(c *gin.Context) {
	var req activitylogdomain.ListEntryRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		AbortWithError(c, activitylogdomain.ErrInvalidTimeRange)
		return
	}

	resp, err := s.activityLogSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondOK(c, resp)
}
