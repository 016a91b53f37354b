package server

import (
	"github.com/gin-gonic/gin"

	settingsdomain "github.com/alprail/membership/internal/settings/domain"
)

type updateSettingRequest struct {
	Value string `json:"value" binding:"required"`
}

func (s *Server) ListSettings(c *gin.Context) {
	all, err := s.settingsSvc.All(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondOK(c, all)
}

func (s *Server) UpdateSetting(c *gin.Context) {
	var req updateSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, settingsdomain.ErrUnknownKey)
		return
	}

	key := c.Param("key")
	if err := s.settingsSvc.Set(c.Request.Context(), key, req.Value); err != nil {
		AbortWithError(c, err)
		return
	}

	respondOK(c, gin.H{"key": key, "value": req.Value})
}
