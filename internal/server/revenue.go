package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	revenuedomain "github.com/smallbiznis/revenuepulse/internal/revenue/domain"
)

func (s *Server) GetRevenueMetrics(c *gin.Context) {
	if s.revenueSvc == nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}

	req, err := parseRevenueMetricsRequest(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.revenueSvc.GetMetrics(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func parseRevenueMetricsRequest(c *gin.Context) (revenuedomain.MetricsRequest, error) {
	raw := strings.TrimSpace(c.Query("range"))
	rng, err := revenuedomain.ParseRange(raw)
	if err != nil {
		return revenuedomain.MetricsRequest{}, err
	}
	return revenuedomain.MetricsRequest{Range: rng}, nil
}
