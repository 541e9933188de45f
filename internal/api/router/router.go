package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/bryan-besnyi/next-doorcard-sub000/config"
	"github.com/bryan-besnyi/next-doorcard-sub000/internal/api/handler"
	"github.com/bryan-besnyi/next-doorcard-sub000/internal/api/middleware"
	"github.com/bryan-besnyi/next-doorcard-sub000/internal/model"
	"github.com/bryan-besnyi/next-doorcard-sub000/pkg/jwt"
	"github.com/bryan-besnyi/next-doorcard-sub000/pkg/redis"
)

// Setup builds and returns the Gin engine.
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── global middleware ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(1 << 20))

	// ── health check ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// ── public doorcard views (no auth) ──
	public := r.Group("/public")
	{
		public.GET("/doorcards/:slugOrId", h.Public.GetBySlugOrID)
		public.GET("/doorcards/:slugOrId/calendar.ics", h.Public.CalendarFeed)
		public.GET("/:username/:termSlug", h.Public.GetByUsernameAndTerm)
	}

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// auth endpoints (no auth, but rate-limited)
		auth := v1.Group("/auth")
		{
			loginLimit := middleware.RateLimit(rdb, 10, time.Minute)
			auth.POST("/login", loginLimit, h.Auth.Login)
			auth.POST("/refresh", loginLimit, h.Auth.Refresh)
		}

		// authenticated routes
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, rdb))
		{
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.GetCurrentUser)

			// term module (reads for everyone, mutations admin-only)
			terms := authorized.Group("/terms")
			{
				terms.GET("", h.Term.List)
				terms.GET("/active", h.Term.GetActive)
				terms.GET("/:id", h.Term.Get)
				terms.POST("", middleware.RoleAuth(model.RoleAdmin), h.Term.Create)
				terms.POST("/archive", middleware.RoleAuth(model.RoleAdmin), h.Term.Archive)
				terms.POST("/transition", middleware.RoleAuth(model.RoleAdmin), h.Term.Transition)
				terms.POST("/auto-archive", middleware.RoleAuth(model.RoleAdmin), h.Term.AutoArchive)
			}

			// doorcard module
			doorcards := authorized.Group("/doorcards")
			{
				doorcards.GET("", h.Doorcard.List)
				doorcards.POST("", h.Doorcard.Create)
				doorcards.POST("/validate", middleware.RateLimit(rdb, 30, time.Minute), h.Doorcard.Validate)
				doorcards.GET("/:id", h.Doorcard.Get)
				doorcards.PATCH("/:id", h.Doorcard.Update)
				doorcards.DELETE("/:id", h.Doorcard.Delete)
				doorcards.PUT("/:id/schedule", h.Doorcard.ReplaceSchedule)
				doorcards.POST("/:id/publish", h.Doorcard.Publish)
			}

			// draft module (autosave + wizard)
			drafts := authorized.Group("/drafts")
			{
				drafts.GET("", h.Draft.List)
				drafts.POST("", h.Draft.Create)
				drafts.DELETE("", h.Draft.DeleteAll)
				drafts.GET("/:id", h.Draft.Get)
				drafts.PUT("/:id", h.Draft.Update)
				drafts.DELETE("/:id", h.Draft.Delete)
				drafts.POST("/:id/autosave", h.Draft.Autosave)
				drafts.POST("/:id/flush", h.Draft.FlushAutosave)
				drafts.POST("/:id/step", h.Draft.AdvanceStep)
			}

			// export module (admin-only)
			export := authorized.Group("/export")
			{
				export.GET("/terms/:id/roster", middleware.RoleAuth(model.RoleAdmin), h.Export.TermRoster)
			}
		}
	}

	return r
}
