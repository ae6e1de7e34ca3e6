package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Tharoon321/worldpeace-api/store"
)

// ListUsers pages through users, optionally filtered by a name or email search.
func (h *Handler) ListUsers(c *gin.Context) {
	page := pageParams(c, 20)
	filter := store.UserFilter{Search: strings.TrimSpace(c.Query("search"))}

	ctx, cancel := h.ctx(c)
	defer cancel()

	users, total, err := h.store.ListUsers(ctx, filter, page)
	if err != nil {
		h.internalError(c, err, "admin: list users")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"users":       users,
		"totalPages":  page.TotalPages(total),
		"currentPage": page.Number,
		"totalUsers":  total,
	})
}

// AdminStats returns platform counts and groupings for the dashboard.
func (h *Handler) AdminStats(c *gin.Context) {
	ctx, cancel := h.ctx(c)
	defer cancel()

	stats, err := h.store.AdminStats(ctx)
	if err != nil {
		h.internalError(c, err, "admin: stats")
		return
	}
	c.JSON(http.StatusOK, stats)
}
