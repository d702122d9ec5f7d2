package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"student-registry/internal/adapter/gin/handler"
	"student-registry/internal/adapter/gin/middleware"
	"student-registry/pkg/security"
)

// Deps are the collaborators the HTTP API is built from.
type Deps struct {
	Users    *handler.UserHandler
	Teachers *handler.TeacherHandler
	Tokens   middleware.TokenParser
	Limiter  middleware.Limiter // nil disables rate limiting
	Log      *zap.Logger
}

// SetupRouter configures and returns a Gin router with all routes and middleware
func SetupRouter(d Deps) *gin.Engine {
	handler.ConfigureBinding()

	router := gin.New()
	router.HandleMethodNotAllowed = true

	router.Use(middleware.Recovery(d.Log))
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(d.Log))
	router.Use(middleware.RateLimiter(d.Limiter, d.Log))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "student-registry",
		})
	})

	users := router.Group("/users")
	{
		users.POST("", d.Users.Register)
		users.GET("", d.Users.List)
		users.PUT("", d.Users.EditCollection)
		users.DELETE("", middleware.RequireRole(d.Tokens, security.RoleOwner, d.Log), d.Users.DeleteAll)

		users.POST("/:id", d.Users.SaveUnderID)
		users.GET("/:id", d.Users.Get)
		users.PUT("/:id", d.Users.Update)
		users.DELETE("/:id", d.Users.Delete)
		users.PUT("/:id/password", d.Users.UpdatePassword)
	}

	teachers := router.Group("/teachers")
	{
		teachers.GET("", d.Teachers.List)
		teachers.POST("", d.Teachers.Create)
		teachers.GET("/:id", d.Teachers.Get)
		teachers.PUT("/:id", d.Teachers.Replace)
		teachers.PATCH("/:id", d.Teachers.Patch)
		teachers.DELETE("/:id", d.Teachers.Delete)
	}

	return router
}
