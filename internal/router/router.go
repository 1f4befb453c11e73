// Package router wires repositories, services and handlers into the gin
// engine.
package router

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yukikurage/project-collab-api/internal/cache"
	"github.com/yukikurage/project-collab-api/internal/config"
	"github.com/yukikurage/project-collab-api/internal/constants"
	apierrors "github.com/yukikurage/project-collab-api/internal/errors"
	"github.com/yukikurage/project-collab-api/internal/handlers"
	"github.com/yukikurage/project-collab-api/internal/metrics"
	"github.com/yukikurage/project-collab-api/internal/middleware"
	"github.com/yukikurage/project-collab-api/internal/repository"
	"github.com/yukikurage/project-collab-api/internal/services"
)

// Deps holds everything the router needs. Cache may be nil and falls back to
// cache.Noop.
type Deps struct {
	Config   *config.Config
	DB       *gorm.DB
	Sessions sessions.Store
	Cache    cache.Cache
	Metrics  *metrics.Metrics
}

// New builds the gin engine with all routes and middleware.
func New(deps Deps) *gin.Engine {
	if deps.Cache == nil {
		deps.Cache = cache.Noop{}
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.Metrics(deps.Metrics))
	r.Use(sessions.Sessions(constants.SessionCookieName, deps.Sessions))

	// Services
	repos := repository.New(deps.DB)
	tokens := services.NewTokenManager(deps.Config.JWTSecret, deps.Config.JWTTTL)
	authService := services.NewAuthService(repos.Users)
	projectService := services.NewProjectService(repos, deps.Cache, deps.Metrics)
	taskService := services.NewTaskService(repos, projectService, deps.Metrics)
	invitationService := services.NewInvitationService(repos, projectService, deps.Metrics)
	commentService := services.NewCommentService(repos, projectService, deps.Metrics)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService, tokens)
	projectHandler := handlers.NewProjectHandler(projectService)
	taskHandler := handlers.NewTaskHandler(taskService)
	invitationHandler := handlers.NewInvitationHandler(invitationService)
	commentHandler := handlers.NewCommentHandler(commentService)

	requireAuth := middleware.RequireAuth(repos.Users, tokens, deps.Metrics)

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		sqlDB, err := deps.DB.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			apierrors.RespondWithError(c, http.StatusServiceUnavailable, apierrors.ErrServiceUnavailable)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Project Collaboration API is running",
		})
	})
	if deps.Metrics != nil {
		r.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	// API routes
	api := r.Group("/api")
	{
		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/logout", authHandler.Logout)
			auth.GET("/me", requireAuth, authHandler.GetCurrentUser)
			auth.GET("/users", requireAuth, authHandler.ListUsers)
		}

		// Project routes (protected)
		projects := api.Group("/projects")
		projects.Use(requireAuth)
		{
			projects.GET("", projectHandler.ListProjects)
			projects.POST("", projectHandler.CreateProject)
			projects.GET("/:id", projectHandler.GetProject)
			projects.PUT("/:id", projectHandler.UpdateProject)
			projects.DELETE("/:id", projectHandler.DeleteProject)
			projects.POST("/:id/members", projectHandler.AddMember)
			projects.DELETE("/:id/members/:user_id", projectHandler.RemoveMember)
			projects.GET("/:id/tasks", taskHandler.ListTasks)
			projects.POST("/:id/tasks", taskHandler.CreateTask)
			projects.GET("/:id/tasks/stats", taskHandler.GetStatistics)
			projects.GET("/:id/invitations", invitationHandler.ListProjectInvitations)
			projects.GET("/:id/comments", commentHandler.ListComments)
		}

		// Task routes (protected)
		tasks := api.Group("/tasks")
		tasks.Use(requireAuth)
		{
			tasks.GET("/:id", taskHandler.GetTask)
			tasks.PUT("/:id", taskHandler.UpdateTask)
			tasks.DELETE("/:id", taskHandler.DeleteTask)
		}

		// Invitation routes (protected)
		invitations := api.Group("/invitations")
		invitations.Use(requireAuth)
		{
			invitations.POST("", invitationHandler.SendInvitation)
			invitations.GET("", invitationHandler.ListMyInvitations)
			invitations.PUT("/:id/accept", invitationHandler.AcceptInvitation)
			invitations.PUT("/:id/decline", invitationHandler.DeclineInvitation)
			invitations.DELETE("/:id", invitationHandler.DeleteInvitation)
		}

		// Comment routes (protected)
		comments := api.Group("/comments")
		comments.Use(requireAuth)
		{
			comments.POST("", commentHandler.PostComment)
			comments.PUT("/:id", commentHandler.UpdateComment)
			comments.DELETE("/:id", commentHandler.DeleteComment)
		}
	}

	return r
}
