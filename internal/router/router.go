package router

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	apiHandler "github.com/fastygo/priority/api/handler"
)

type Handlers struct {
	Auth    *apiHandler.AuthHandler
	Profile *apiHandler.ProfileHandler
	Task    *apiHandler.TaskHandler
	Rule    *apiHandler.RuleHandler
	Health  *apiHandler.HealthHandler
}

func New(handlers Handlers, authMiddleware func(fasthttp.RequestHandler) fasthttp.RequestHandler) *router.Router {
	r := router.New()
	r.RedirectTrailingSlash = false

	r.GET("/health", handlers.Health.Check)

	v1 := r.Group("/api/v1")

	// Public routes
	v1.POST("/users", handlers.Profile.Register)
	v1.POST("/auth/login", handlers.Auth.Login)
	v1.POST("/auth/refresh", handlers.Auth.Refresh)
	v1.POST("/auth/logout", handlers.Auth.Logout)

	// Protected routes
	v1.GET("/me", authMiddleware(handlers.Profile.GetProfile))
	v1.PUT("/me", authMiddleware(handlers.Profile.UpdateProfile))

	v1.GET("/tasks", authMiddleware(handlers.Task.ListTasks))
	v1.POST("/tasks", authMiddleware(handlers.Task.CreateTask))
	v1.GET("/tasks/{id}", authMiddleware(handlers.Task.GetTask))
	v1.PUT("/tasks/{id}", authMiddleware(handlers.Task.UpdateTask))
	v1.DELETE("/tasks/{id}", authMiddleware(handlers.Task.DeleteTask))
	v1.POST("/tasks/{id}/complete", authMiddleware(handlers.Task.CompleteTask))
	v1.GET("/tasks/{id}/score", authMiddleware(handlers.Task.ScoreTask))

	v1.GET("/rules", authMiddleware(handlers.Rule.ListRules))
	v1.POST("/rules", authMiddleware(handlers.Rule.CreateRule))
	v1.GET("/rules/{id}", authMiddleware(handlers.Rule.GetRule))
	v1.PUT("/rules/{id}", authMiddleware(handlers.Rule.UpdateRule))
	v1.DELETE("/rules/{id}", authMiddleware(handlers.Rule.DeleteRule))

	return r
}
