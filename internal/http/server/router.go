package server

import (
	"github.com/gin-gonic/gin"

	"github.com/hydroreg/water-licensing-backend/internal/http/handlers"
	"github.com/hydroreg/water-licensing-backend/internal/http/middleware"
	"github.com/hydroreg/water-licensing-backend/internal/pkg/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	HealthHandler  *handlers.HealthHandler
	ReformHandler  *handlers.ReformHandler
	ContactHandler *handlers.ContactHandler
	AuthMiddleware *middleware.AuthMiddleware
	CSRFMiddleware *middleware.CSRFMiddleware
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS())
	router.Use(middleware.AttachTraceContext())
	router.Use(middleware.RequestLogger(cfg.Log))

	// ===============
	// || Public    ||
	// ===============
	router.GET("/status", cfg.HealthHandler.HealthCheck)

	// ===============
	// || Protected ||
	// ===============
	admin := router.Group("/admin")
	admin.Use(cfg.AuthMiddleware.RequireAuth())
	admin.Use(cfg.CSRFMiddleware.Protect())

	// Abstraction reform
	ar := admin.Group("/abstraction-reform")
	ar.GET("/licence/:ref", cfg.ReformHandler.GetLicence)
	ar.GET("/licence/:ref/status", cfg.ReformHandler.GetStatusForm)
	ar.POST("/licence/:ref/status", cfg.ReformHandler.PostStatus)
	ar.GET("/licence/:ref/add-data/:schema", cfg.ReformHandler.GetAddDataForm)
	ar.POST("/licence/:ref/add-data/:schema", cfg.ReformHandler.PostAddData)
	ar.GET("/licence/:ref/edit-data/:id", cfg.ReformHandler.GetEditDataForm)
	ar.POST("/licence/:ref/edit-data/:id", cfg.ReformHandler.PostEditData)
	ar.POST("/licence/:ref/delete-data/:id", cfg.ReformHandler.PostDeleteData)

	// Company contacts
	admin.GET("/company/:companyId/contacts/new", cfg.ContactHandler.GetForm)
	admin.POST("/company/:companyId/contacts/new", cfg.ContactHandler.PostForm)

	return router
}
