package router

import (
	"github.com/gin-gonic/gin"

	"github.com/chefscript/backend/internal/api"
	"github.com/chefscript/backend/internal/middleware"
)

// SetupRouter configures the application routes
func SetupRouter(
	proxyHandler *api.ProxyHandler,
	authHandler *api.AuthHandler,
	recipeHandler *api.RecipeHandler,
	styleHandler *api.StyleHandler,
	templateHandler *api.TemplateHandler,
	plagiarismHandler *api.PlagiarismHandler,
	rewriteHandler *api.RewriteHandler,
	feedSpyHandler *api.FeedSpyHandler,
	tokenHandler *api.TokenHandler,
) *gin.Engine {
	router := gin.Default()

	router.Use(middleware.CORS())

	// Proxy endpoints live at the root so clients that only need the
	// plagiarism relay keep the historical paths.
	proxyHandler.RegisterRoutes(router)

	v1 := router.Group("/api/v1")
	authHandler.RegisterRoutes(v1)
	recipeHandler.RegisterRoutes(v1)
	styleHandler.RegisterRoutes(v1)
	templateHandler.RegisterRoutes(v1)
	plagiarismHandler.RegisterRoutes(v1)
	rewriteHandler.RegisterRoutes(v1)
	feedSpyHandler.RegisterRoutes(v1)
	tokenHandler.RegisterRoutes(v1)

	return router
}
