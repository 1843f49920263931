package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	PathHealth = "/health"
	PathReady  = "/ready"
)

func (s *Server) handleHealth(c *gin.Context) {
	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "live-api",
		"version": s.version,
		"uptime":  time.Since(s.started).Round(time.Second).String(),
		"time":    time.Now().Unix(),
	})
}

func (s *Server) handleReady(c *gin.Context) {
	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
