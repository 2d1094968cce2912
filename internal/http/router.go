package http

import (
	"github.com/gin-gonic/gin"

	"github.com/surveycrm/pollbridge/internal/http/handlers"
	"github.com/surveycrm/pollbridge/internal/http/middleware"
	"github.com/surveycrm/pollbridge/internal/pkg/logger"
)

type RouterConfig struct {
	Log                *logger.Logger
	HealthHandler      *handlers.HealthHandler
	IntegrationHandler *handlers.IntegrationHandler
	CRMHandler         *handlers.CRMHandler
	LogHandler         *handlers.LogHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger(cfg.Log))
	router.Use(middleware.CORS())

	router.GET("/healthcheck", cfg.HealthHandler.Check)

	api := router.Group("/api/v1")

	integrationGroup := api.Group("/integration")
	{
		integrationGroup.POST("/postPoll", cfg.IntegrationHandler.PostPoll)
		integrationGroup.POST("/postAnswer", cfg.IntegrationHandler.PostAnswer)
		integrationGroup.GET("/health", cfg.IntegrationHandler.Health)
	}

	crmGroup := api.Group("/bitrix24")
	{
		crmGroup.POST("/contacts/list", cfg.CRMHandler.ListContacts)
		crmGroup.GET("/contacts/:id", cfg.CRMHandler.GetContact)
		crmGroup.POST("/contacts", cfg.CRMHandler.CreateContact)
		crmGroup.PUT("/contacts/:id", cfg.CRMHandler.UpdateContact)
		crmGroup.DELETE("/contacts/:id", cfg.CRMHandler.DeleteContact)

		crmGroup.POST("/deals/list", cfg.CRMHandler.ListDeals)
		crmGroup.GET("/deals/:id", cfg.CRMHandler.GetDeal)
		crmGroup.POST("/deals", cfg.CRMHandler.CreateDeal)
		crmGroup.PUT("/deals/:id", cfg.CRMHandler.UpdateDeal)
		crmGroup.DELETE("/deals/:id", cfg.CRMHandler.DeleteDeal)

		crmGroup.POST("/leads/list", cfg.CRMHandler.ListLeads)
		crmGroup.GET("/leads/:id", cfg.CRMHandler.GetLead)
		crmGroup.POST("/leads", cfg.CRMHandler.CreateLead)
		crmGroup.PUT("/leads/:id", cfg.CRMHandler.UpdateLead)
		crmGroup.DELETE("/leads/:id", cfg.CRMHandler.DeleteLead)
	}

	logGroup := api.Group("/logs")
	{
		logGroup.POST("", cfg.LogHandler.Create)
		logGroup.GET("", cfg.LogHandler.List)
		logGroup.GET("/:id", cfg.LogHandler.Get)
		logGroup.DELETE("/:id", cfg.LogHandler.Delete)
	}

	return router
}
