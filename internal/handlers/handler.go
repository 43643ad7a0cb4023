package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"trackmonitor/internal/hub"
	"trackmonitor/internal/logger"
	"trackmonitor/internal/service"
)

// Handler wires the HTTP layer to services, the broadcast hub, and logging.
type Handler struct {
	services *service.Service
	hub      *hub.Hub
	log      *logger.Logger
}

// NewHandler constructs a new HTTP handler with dependencies.
func NewHandler(services *service.Service, h *hub.Hub, log *logger.Logger) *Handler {
	return &Handler{services: services, hub: h, log: log}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/health", h.health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// WebSocket observer stream, upgraded on the same port
	router.GET("/ws/realtime", h.wsConnect)

	h.registerAPIRoutes(router)

	return router
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")
	{
		h.registerMeasurementRoutes(api)
		h.registerDefectRoutes(api)
		h.registerSystemRoutes(api)
	}
}

func (h *Handler) registerMeasurementRoutes(api *gin.RouterGroup) {
	measurements := api.Group("/measurements")
	{
		measurements.POST("", h.createMeasurement)
		measurements.POST("/batch", h.createMeasurementBatch)
		measurements.GET("", h.listMeasurements)
		measurements.GET("/latest", h.latestMeasurements)
	}
	api.GET("/sensors", h.listSensors)
}

func (h *Handler) registerDefectRoutes(api *gin.RouterGroup) {
	defects := api.Group("/defects")
	{
		defects.GET("", h.listDefects)
		defects.POST("/:id/review", h.reviewDefect)
	}
}

func (h *Handler) registerSystemRoutes(api *gin.RouterGroup) {
	system := api.Group("/system")
	{
		system.GET("/status", h.systemStatus)
	}
}
