package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

func (s *Server) FleetSummary(c *gin.Context) {
	resp, err := s.billingSvc.FleetSummary(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) DispenserSpending(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))

	resp, err := s.billingSvc.SpendingDetail(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
