package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Tharoon321/worldpeace-api/models"
)

const publicStatsKey = "stats:public"

// PublicStats serves the landing page headline numbers.
func (h *Handler) PublicStats(c *gin.Context) {
	ctx, cancel := h.ctx(c)
	defer cancel()

	stats, err := cached(ctx, h, publicStatsKey, func(ctx context.Context) (models.PublicStats, error) {
		counts, err := h.store.PlatformCounts(ctx)
		if err != nil {
			return models.PublicStats{}, err
		}
		return counts.Headline(), nil
	})
	if err != nil {
		h.internalError(c, err, "public stats")
		return
	}
	c.JSON(http.StatusOK, stats)
}

// Health reports liveness and uptime in seconds.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "OK",
		"timestamp": h.now().UTC().Format(time.RFC3339),
		"uptime":    h.now().Sub(h.started).Seconds(),
	})
}

func (h *Handler) Welcome(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"name":    "World Peace Initiative API",
		"health":  "/api/health",
		"metrics": "/metrics",
		"endpoints": []string{
			"/api/auth",
			"/api/initiatives",
			"/api/volunteer",
			"/api/donations",
			"/api/stats",
			"/api/admin",
		},
	})
}
