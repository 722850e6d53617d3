package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	dispenserdomain "github.com/openbar/tapflow/internal/dispenser/domain"
)

type createDispenserRequest struct {
	FlowVolume *float64 `json:"flowVolume"`
}

type createDispenserResponse struct {
	DispenserID string `json:"dispenser_id"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

func (s *Server) CreateDispenser(c *gin.Context) {
	var req createDispenserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.dispenserSvc.Register(c.Request.Context(), dispenserdomain.RegisterRequest{
		FlowVolume: req.FlowVolume,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, createDispenserResponse{DispenserID: resp.ID})
}

// UpdateDispenserStatus drives the tap state machine: "open" starts a new
// tap event, "close" ends the open one and reports its revenue.
func (s *Server) UpdateDispenserStatus(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))

	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	switch strings.ToLower(strings.TrimSpace(req.Status)) {
	case "open":
		resp, err := s.tapSvc.Open(c.Request.Context(), id)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, resp)
	case "close":
		resp, err := s.tapSvc.Close(c.Request.Context(), id)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, resp)
	default:
		AbortWithError(c, newValidationError("status", "invalid_status", `invalid status, use "open" or "close"`))
	}
}
