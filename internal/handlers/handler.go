package handlers

import (
	"embed"
	"html/template"

	"smartfarmer_console/internal/logger"
	"smartfarmer_console/internal/service"

	"github.com/gin-gonic/gin"

	_ "smartfarmer_console/docs"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	log      *logger.Logger
}

// NewHandler constructs a new HTTP handler with dependencies.
func NewHandler(services *service.Service, log *logger.Logger) *Handler {
	return &Handler{services: services, log: log}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), h.requestLogger)
	router.SetHTMLTemplate(template.Must(template.ParseFS(templateFS, "templates/*.tmpl")))

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/health", h.health)
	router.GET("/", h.dashboard)

	h.registerAPIRoutes(router)

	// View stream (HTTP upgrade), same port
	router.GET("/ws", h.wsConnect)

	return router
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")
	{
		api.GET("/view", h.getView)
		api.POST("/pump/toggle", h.togglePump)
	}
}
