package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"mtf-confirmation-service/internal/mtf"
)

type evaluateRequest struct {
	Symbol     string `json:"symbol" binding:"required"`
	SignalType string `json:"signal_type" binding:"required"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"persistence": s.reader != nil,
		"time":        time.Now().UTC(),
	})
}

// handleEvaluate runs one confirmation check on demand.
func (s *Server) handleEvaluate(c *gin.Context) {
	var req evaluateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "symbol and signal_type are required"})
		return
	}

	signal, err := mtf.ParseSignalType(req.SignalType)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := s.svc.Evaluate(c.Request.Context(), req.Symbol, signal)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

// handleWatchlistSweep evaluates every configured symbol in both
// directions and returns the batch.
func (s *Server) handleWatchlistSweep(c *gin.Context) {
	results := s.svc.EvaluateWatchlist(c.Request.Context())
	confirmed := 0
	for _, r := range results {
		if r.Confirmed {
			confirmed++
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"results":   results,
		"total":     len(results),
		"confirmed": confirmed,
	})
}

func (s *Server) handleGetEvaluations(c *gin.Context) {
	if s.reader == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "persistence is disabled"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	symbol := c.Query("symbol")

	signalType := ""
	if raw := c.Query("signal_type"); raw != "" {
		signal, err := mtf.ParseSignalType(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		signalType = string(signal)
	}

	evaluations, err := s.reader.GetEvaluations(c.Request.Context(), limit, symbol, signalType)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"evaluations": evaluations,
		"count":       len(evaluations),
	})
}

func (s *Server) handleGetStats(c *gin.Context) {
	if s.reader == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "persistence is disabled"})
		return
	}

	hours, err := strconv.Atoi(c.DefaultQuery("hours", "24"))
	if err != nil || hours <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "hours must be a positive integer"})
		return
	}

	stats, err := s.reader.GetEvaluationStats(c.Request.Context(), time.Now().Add(-time.Duration(hours)*time.Hour))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"window_hours": hours,
		"stats":        stats,
	})
}
