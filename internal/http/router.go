package http

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/abelzeko/ob-river-monitor/internal/usecases"
	"github.com/abelzeko/ob-river-monitor/internal/websocket"
)

// SetupRouter creates and configures the Gin router.
// An empty allowedOrigins allows all origins; hub may be nil to disable /ws.
func SetupRouter(monitor *usecases.MonitorUseCase, hub *websocket.Hub, allowedOrigins []string) *gin.Engine {
	router := gin.Default()

	// Setup CORS middleware.
	corsConfig := cors.DefaultConfig()
	if len(allowedOrigins) > 0 {
		corsConfig.AllowOrigins = allowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	router.Use(cors.New(corsConfig))

	handler := NewHandler(monitor)

	router.GET("/", handler.Root)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if hub != nil {
		router.GET("/ws", gin.WrapF(hub.ServeWS))
	}

	api := router.Group("/api")
	api.GET("/health", handler.HealthCheck)
	api.GET("/summary", handler.GetSummary)
	api.GET("/stations-list", handler.GetStationsList)
	api.POST("/refresh", handler.Refresh)

	st := api.Group("/stations")
	st.GET("", handler.GetStations)
	st.GET("/:id", handler.GetStation)
	st.GET("/:id/history", handler.GetHistory)
	st.GET("/:id/archive", handler.GetArchive)

	return router
}
