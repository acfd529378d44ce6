package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/unishare/unishare-api/internal/middleware"
	"github.com/unishare/unishare-api/internal/models"
	"github.com/unishare/unishare-api/internal/repository"
	"github.com/unishare/unishare-api/internal/service"
)

// Handlers bundles every HTTP handler for route registration.
type Handlers struct {
	Auth          *AuthHandler
	Users         *UserHandler
	Documents     *DocumentHandler
	Interactions  *InteractionHandler
	Grades        *GradeHandler
	Approvals     *ApprovalHandler
	Notifications *NotificationHandler
	Universities  *UniversityHandler
	Dashboard     *DashboardHandler
	Exports       *ExportHandler
	Metrics       *MetricsHandler
}

// RegisterRoutes mounts the API route tree under the given prefix. Moderation
// and administrative mutations additionally write audit log rows.
func RegisterRoutes(r *gin.Engine, prefix string, h Handlers, auth *service.AuthService, audit *repository.UserRepository) {
	api := r.Group(prefix)

	// Public surface. OptionalJWT lets authors and moderators see their
	// pending documents while anonymous visitors get approved ones only.
	public := api.Group("")
	public.Use(middleware.OptionalJWT(auth))
	{
		public.POST("/auth/register", h.Auth.Register)
		public.POST("/auth/login", h.Auth.Login)
		public.POST("/auth/refresh", h.Auth.Refresh)

		public.GET("/documents", h.Documents.List)
		public.GET("/documents/:id", h.Documents.Get)
		public.GET("/documents/download/:token", h.Documents.Download)
		public.GET("/documents/:id/comments", h.Interactions.ListComments)
		public.GET("/documents/:id/rating", h.Interactions.RatingSummary)

		public.GET("/users/:id", h.Users.Profile)
		public.GET("/users/:id/followers", h.Interactions.Followers)
		public.GET("/users/:id/following", h.Interactions.Following)
		public.GET("/leaderboard", h.Users.Leaderboard)

		public.GET("/universities", h.Universities.List)
		public.GET("/universities/:id", h.Universities.Get)
		public.GET("/universities/:id/directors", h.Universities.Directors)
		public.GET("/universities/:id/courses", h.Universities.Courses)

		public.GET("/exports/download/:token", h.Exports.Download)
	}

	authed := api.Group("")
	authed.Use(middleware.JWT(auth))
	{
		authed.POST("/auth/logout", h.Auth.Logout)
		authed.POST("/auth/change-password", h.Auth.ChangePassword)
		authed.GET("/auth/me", h.Auth.Me)

		authed.POST("/documents", h.Documents.Upload)
		authed.DELETE("/documents/:id", h.Documents.Delete)
		authed.GET("/documents/:id/download-url", h.Documents.DownloadURL)
		authed.POST("/documents/:id/favorite", h.Documents.ToggleFavorite)
		authed.GET("/documents/favorites", h.Documents.ListFavorites)
		authed.POST("/documents/:id/moderate", middleware.Audit(audit, "MODERATE", "document"), h.Documents.Moderate)

		authed.POST("/documents/:id/rating", h.Interactions.Rate)
		authed.POST("/documents/:id/comments", h.Interactions.CreateComment)
		authed.POST("/comments/:id/reaction", h.Interactions.ReactToComment)
		authed.DELETE("/comments/:id", h.Interactions.DeleteComment)
		authed.POST("/users/:id/follow", h.Interactions.ToggleFollow)

		authed.PUT("/users/me", h.Users.UpdateProfile)
		authed.POST("/users/me/approval-tag", h.Users.RegisterApprovalTag)

		authed.GET("/grades/me", h.Grades.ListMine)
		authed.GET("/grades/issued", h.Grades.ListIssued)

		authed.POST("/approvals", h.Approvals.Create)
		authed.GET("/approvals", h.Approvals.List)
		authed.POST("/approvals/:id/decision", middleware.Audit(audit, "DECIDE", "approval_request"), h.Approvals.Decide)

		authed.GET("/notifications", h.Notifications.List)
		authed.GET("/notifications/unread-count", h.Notifications.UnreadCount)
		authed.POST("/notifications/:id/read", h.Notifications.MarkRead)
		authed.POST("/notifications/read-all", h.Notifications.MarkAllRead)

		authed.GET("/dashboard", h.Dashboard.Show)

		exports := authed.Group("/exports")
		exports.Use(middleware.RequireRoles(models.RoleDirector, models.RoleAdmin))
		{
			exports.POST("/moderation", h.Exports.Moderation)
			exports.POST("/users", h.Exports.Users)
		}

		admin := authed.Group("")
		admin.Use(middleware.RequireRoles(models.RoleAdmin))
		{
			admin.GET("/users", h.Users.List)
			admin.PUT("/users/:id", middleware.Audit(audit, "UPDATE", "user"), h.Users.AdminUpdate)
			admin.DELETE("/users/:id", middleware.Audit(audit, "DEACTIVATE", "user"), h.Users.Deactivate)

			admin.POST("/universities", middleware.Audit(audit, "CREATE", "university"), h.Universities.Create)
			admin.GET("/metrics/system", h.Metrics.System)
		}

		catalogue := authed.Group("/universities")
		catalogue.Use(middleware.RequireRoles(models.RoleDirector, models.RoleAdmin))
		{
			catalogue.PUT("/:id", middleware.Audit(audit, "UPDATE", "university"), h.Universities.Update)
			catalogue.DELETE("/:id", middleware.Audit(audit, "DELETE", "university"), h.Universities.Delete)
			catalogue.POST("/:id/courses", h.Universities.AddCourse)
			catalogue.DELETE("/:id/courses/:courseId", h.Universities.RemoveCourse)
		}
	}
}
