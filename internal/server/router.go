package server

import (
	"net/http"

	"uptask/internal/handler"
	"uptask/internal/middleware"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Router builds the HTTP surface: /api/auth, /api/projects and the
// operational endpoints.
func (a *App) Router() *gin.Engine {
	r := gin.New()
	r.Use(
		gin.Recovery(),
		middleware.RequestLogger(a.Logger, a.Metrics),
		middleware.CORS(a.Config.FrontendURL, a.Config.AllowAPIClients, "/healthz", "/metrics", "/swagger/"),
	)

	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/metrics", gin.WrapH(a.Metrics.Handler()))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	authHandler := handler.NewAuthHandler(a.Accounts, a.Logger)
	projectHandler := handler.NewProjectHandler(a.Repos.Projects, a.Repos.Tasks, a.Logger)
	taskHandler := handler.NewTaskHandler(a.Repos.Tasks, a.Logger)
	teamHandler := handler.NewTeamHandler(a.Repos.Projects, a.Repos.Users, a.Logger)
	noteHandler := handler.NewNoteHandler(a.Repos.Notes, a.Logger)

	authenticate := middleware.Authenticate(a.Sessions, a.Repos.Users, a.Logger)
	manager := middleware.RequireManager()
	access := middleware.RequireProjectAccess()

	api := r.Group("/api")

	authRoutes := api.Group("/auth")
	{
		authRoutes.POST("/create-account", authHandler.CreateAccount)
		authRoutes.POST("/confirm-account", authHandler.ConfirmAccount)
		authRoutes.POST("/login", authHandler.Login)
		authRoutes.POST("/request-code", authHandler.RequestCode)
		authRoutes.POST("/forgot-password", authHandler.ForgotPassword)
		authRoutes.POST("/validate-token", authHandler.ValidateToken)
		authRoutes.POST("/update-password/:token", authHandler.UpdatePasswordWithToken)

		authRoutes.GET("/user", authenticate, authHandler.User)
		authRoutes.PUT("/profile", authenticate, authHandler.UpdateProfile)
		authRoutes.POST("/update-password", authenticate, authHandler.UpdateCurrentPassword)
		authRoutes.POST("/check-password", authenticate, authHandler.CheckPassword)
	}

	projects := api.Group("/projects", authenticate)
	{
		projects.POST("", projectHandler.Create)
		projects.GET("", projectHandler.List)

		project := projects.Group("/:projectId", middleware.ProjectExists(a.Repos.Projects, a.Logger))
		project.GET("", access, projectHandler.Get)
		project.PUT("", manager, projectHandler.Update)
		project.DELETE("", manager, projectHandler.Delete)

		project.POST("/tasks", manager, taskHandler.Create)
		project.GET("/tasks", access, taskHandler.List)

		task := project.Group("/tasks/:id", middleware.TaskExists(a.Repos.Tasks, a.Logger), middleware.TaskBelongsToProject())
		task.GET("", access, taskHandler.Get)
		task.PUT("", manager, taskHandler.Update)
		task.DELETE("", manager, taskHandler.Delete)
		task.POST("/status", access, taskHandler.UpdateStatus)

		task.POST("/notes", access, noteHandler.Create)
		task.GET("/notes", access, noteHandler.List)
		task.DELETE("/notes/:noteId", access, noteHandler.Delete)

		project.POST("/team/find", manager, teamHandler.Find)
		project.GET("/team", access, teamHandler.List)
		project.POST("/team", manager, teamHandler.Add)
		project.DELETE("/team/:userId", manager, teamHandler.Remove)
	}

	return r
}
