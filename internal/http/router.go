package httpapi

import (
	"artemis/internal/services/authz"

	"github.com/gin-gonic/gin"
)

// NewRouter wires the public auth endpoints and a few protected sample
// routes demonstrating each built-in policy.
func NewRouter(handlers *Handlers, guard *Guard, registry *authz.Registry) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	api := router.Group("/api")

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/signup", guard.Require(authz.PolicyAnonymous), handlers.SignUp)
		authGroup.POST("/signin", guard.Require(authz.PolicyAnonymous), handlers.SignIn)
		authGroup.POST("/signout", guard.Require(authz.PolicyToken), handlers.SignOut)
		authGroup.GET("/me", guard.Require(authz.PolicyToken), handlers.Me)
	}

	admin := api.Group("/admin", guard.Require(authz.PolicyAdmin))
	{
		admin.GET("/policies", func(c *gin.Context) {
			c.JSON(200, gin.H{"success": true, "policies": registry.Names()})
		})
	}

	return router
}
