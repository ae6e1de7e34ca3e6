package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Tharoon321/worldpeace-api/metrics"
	"github.com/Tharoon321/worldpeace-api/middleware"
	"github.com/Tharoon321/worldpeace-api/models"
)

// RouterConfig carries the HTTP-level settings of NewRouter.
type RouterConfig struct {
	AllowedOrigin string
	// Limiter throttles /api per client IP. Nil disables rate limiting.
	Limiter middleware.Limiter
	Log     logrus.FieldLogger
}

// NewRouter wires every route and the middleware chain.
func NewRouter(h *Handler, rc RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(
		middleware.Recovery(rc.Log),
		middleware.RequestLogger(rc.Log),
		middleware.SecureHeaders(),
		middleware.CORS(rc.AllowedOrigin),
		metrics.Instrument(),
	)

	router.GET("/", h.Welcome)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	auth := middleware.Auth(h.tokens, h.store, rc.Log)
	adminOnly := middleware.RequireRole(models.RoleAdmin)

	api := router.Group("/api")
	if rc.Limiter != nil {
		api.Use(middleware.RateLimit(rc.Limiter, rc.Log))
	}
	{
		api.GET("/health", h.Health)

		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", h.Register)
			authGroup.POST("/login", h.Login)
			authGroup.GET("/me", auth, h.Me)
			authGroup.POST("/forgot-password", h.ForgotPassword)
			authGroup.POST("/reset-password", h.ResetPassword)
		}

		initiatives := api.Group("/initiatives")
		{
			initiatives.GET("", h.ListInitiatives)
			initiatives.GET("/:id", h.GetInitiative)
			initiatives.POST("", auth, h.CreateInitiative)
			initiatives.PUT("/:id", auth, h.UpdateInitiative)
			initiatives.DELETE("/:id", auth, h.DeleteInitiative)
			initiatives.POST("/:id/join", auth, h.JoinInitiative)
		}

		volunteer := api.Group("/volunteer", auth)
		{
			volunteer.POST("/apply", h.Apply)
			volunteer.GET("/my-applications", h.MyApplications)
			volunteer.POST("/applications/:id/withdraw", h.WithdrawApplication)
		}

		donations := api.Group("/donations")
		{
			donations.POST("", middleware.OptionalAuth(h.tokens), h.CreateDonation)
			donations.GET("/:id", h.GetDonation)
		}

		stats := api.Group("/stats")
		{
			stats.GET("", h.PublicStats)
			stats.GET("/donations", h.DonationStats)
		}

		admin := api.Group("/admin", auth, adminOnly)
		{
			admin.GET("/users", h.ListUsers)
			admin.GET("/stats", h.AdminStats)
			admin.PATCH("/applications/:id", h.ReviewApplication)
		}
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Route not found"})
	})

	return router
}
