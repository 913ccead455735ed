package router

import (
	"database/sql"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"github.com/Stachugit-s/teamtaskmanager2/authz"
	"github.com/Stachugit-s/teamtaskmanager2/handlers"
	"github.com/Stachugit-s/teamtaskmanager2/internal/logging"
	"github.com/Stachugit-s/teamtaskmanager2/internal/metrics"
	"github.com/Stachugit-s/teamtaskmanager2/services"
	"github.com/Stachugit-s/teamtaskmanager2/store"
)

// Deps are the collaborators the router wires into handlers.
// DB and Redis are only used for health checks and may be nil.
type Deps struct {
	Store         *store.Store
	DB            *sql.DB
	Redis         *redis.Client
	Tokens        *services.TokenService
	IdentityCache services.IdentityCache
	Metrics       *metrics.Metrics
	Logger        *logrus.Logger
}

func NewGinRouter(deps Deps) *gin.Engine {
	logger := deps.Logger
	if logger == nil {
		logger = logrus.New()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(handlers.RequestLogger(logger))

	// Add CORS middleware
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Initialize authz engine and services
	engine := authz.NewEngine(deps.Store)
	observers := []authz.Observer{logging.NewDecisionLogger(logger)}
	if deps.Metrics != nil {
		r.Use(deps.Metrics.GinMiddleware())
		observers = append(observers, deps.Metrics)
	}
	engine.SetObserver(observers...)
	svc := services.New(deps.Store, engine, deps.Tokens, logger)
	identityService := services.NewIdentityService(deps.Tokens, deps.Store.Users, deps.IdentityCache, logger)

	// Initialize handlers
	authMiddleware := handlers.NewAuthMiddleware(identityService, logger)
	userHandler := handlers.NewUserHandler(svc.Users, logger)
	teamHandler := handlers.NewTeamHandler(svc.Teams, logger)
	projectHandler := handlers.NewProjectHandler(svc.Projects, logger)
	taskHandler := handlers.NewTaskHandler(svc.Tasks, logger)
	commentHandler := handlers.NewCommentHandler(svc.Comments, logger)
	dashboardHandler := handlers.NewDashboardHandler(svc.Dashboard, logger)
	healthHandler := handlers.NewHealthHandler(deps.DB, deps.Redis, logger)

	r.GET("/healthz", healthHandler.Health)
	if deps.Metrics != nil {
		r.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	api := r.Group("/api")

	// Public routes
	api.POST("/users/register", userHandler.Register)
	api.POST("/users/login", userHandler.Login)

	// Protected routes
	protected := api.Group("")
	protected.Use(authMiddleware.RequireAuth())
	{
		protected.GET("/users/profile", userHandler.Profile)

		teams := protected.Group("/teams")
		{
			teams.POST("", teamHandler.CreateTeam)
			teams.GET("", teamHandler.ListTeams)
			teams.GET("/:id", teamHandler.GetTeam)
			teams.PUT("/:id", teamHandler.UpdateTeam)
			teams.DELETE("/:id", teamHandler.DeleteTeam)
			teams.POST("/:id/members", teamHandler.AddMember)
			teams.DELETE("/:id/members/:userId", teamHandler.RemoveMember)
		}

		projects := protected.Group("/projects")
		{
			projects.POST("", projectHandler.CreateProject)
			projects.GET("", projectHandler.ListProjects)
			projects.GET("/:id", projectHandler.GetProject)
			projects.PUT("/:id", projectHandler.UpdateProject)
			projects.DELETE("/:id", projectHandler.DeleteProject)
		}

		tasks := protected.Group("/tasks")
		{
			tasks.POST("", taskHandler.CreateTask)
			tasks.GET("", taskHandler.ListTasks)
			tasks.GET("/:id", taskHandler.GetTask)
			tasks.PUT("/:id", taskHandler.UpdateTask)
			tasks.DELETE("/:id", taskHandler.DeleteTask)
		}

		comments := protected.Group("/comments")
		{
			comments.POST("", commentHandler.CreateComment)
			comments.GET("/task/:taskId", commentHandler.ListTaskComments)
			comments.PUT("/:id", commentHandler.UpdateComment)
			comments.DELETE("/:id", commentHandler.DeleteComment)
		}

		protected.GET("/dashboard/stats", dashboardHandler.Stats)
	}

	return r
}
