package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"github.com/urmzd/heosdial/pkg/api/handlers"
	"github.com/urmzd/heosdial/pkg/device"
	"github.com/urmzd/heosdial/pkg/device/schema"
)

// Router holds the Gin engine and dependencies
type Router struct {
	engine     *gin.Engine
	controller device.Controller
	subscriber device.EventSubscriber
	validator  *schema.Validator
}

// NewRouter creates a new API router
func NewRouter(controller device.Controller, subscriber device.EventSubscriber, validator *schema.Validator) *Router {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()
	SetupMiddleware(engine)

	router := &Router{
		engine:     engine,
		controller: controller,
		subscriber: subscriber,
		validator:  validator,
	}

	router.setupRoutes()

	return router
}

// setupRoutes configures all API routes
func (r *Router) setupRoutes() {
	// Swagger UI
	r.engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	r.engine.GET("/docs", func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "/swagger/index.html")
	})

	healthHandler := handlers.NewHealthHandler(r.controller)
	r.engine.GET("/health", healthHandler.Health)

	v1 := r.engine.Group("/api/v1")
	{
		v1.GET("/health", healthHandler.Health)

		discoveryHandler := handlers.NewDiscoveryHandler(r.controller, r.subscriber)
		discovery := v1.Group("/discovery")
		{
			discovery.POST("/refresh", discoveryHandler.Refresh)
			discovery.GET("/events", discoveryHandler.Events)
		}

		controlHandler := handlers.NewControlHandler(r.controller, r.validator)

		playersHandler := handlers.NewPlayersHandler(r.controller)
		players := v1.Group("/players")
		{
			players.GET("", playersHandler.ListPlayers)
			players.GET("/:id", playersHandler.GetPlayer)
			players.GET("/:id/state", controlHandler.GetPlayerState)
			players.POST("/:id/state", controlHandler.SetPlayerState)
		}

		groupsHandler := handlers.NewGroupsHandler(r.controller)
		groups := v1.Group("/groups")
		{
			groups.GET("", groupsHandler.ListGroups)
			groups.GET("/:id", groupsHandler.GetGroup)
			groups.GET("/:id/state", controlHandler.GetGroupState)
			groups.POST("/:id/state", controlHandler.SetGroupState)
		}
	}
}

// Handler exposes the engine for tests and custom servers
func (r *Router) Handler() http.Handler {
	return r.engine
}

// Run starts the HTTP server
func (r *Router) Run(addr string) error {
	return r.engine.Run(addr)
}
