package app

import (
	"fmt"
	"os"

	"gorm.io/gorm"

	"github.com/surveycrm/pollbridge/internal/bitrix"
	"github.com/surveycrm/pollbridge/internal/cache"
	"github.com/surveycrm/pollbridge/internal/db"
	apphttp "github.com/surveycrm/pollbridge/internal/http"
	"github.com/surveycrm/pollbridge/internal/http/handlers"
	"github.com/surveycrm/pollbridge/internal/integration"
	"github.com/surveycrm/pollbridge/internal/pkg/logger"
	"github.com/surveycrm/pollbridge/internal/repos"
)

type App struct {
	Log    *logger.Logger
	DB     *gorm.DB
	Server *apphttp.Server
	Cfg    Config
}

func New() (*App, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading environment variables...")
	cfg := LoadConfig(log)

	pg, err := db.NewPostgresService(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init postgres: %w", err)
	}
	if err := pg.AutoMigrateAll(); err != nil {
		log.Sync()
		return nil, fmt.Errorf("postgres automigrate: %w", err)
	}
	theDB := pg.DB()

	crmClient, err := bitrix.NewClient(bitrix.Config{
		WebhookURL:   cfg.BitrixWebhookURL,
		Timeout:      cfg.BitrixTimeout,
		MaxAttempts:  cfg.BitrixMaxAttempts,
		RetryDelay:   cfg.BitrixRetryDelay,
		RetryBackoff: cfg.BitrixRetryBackoff,
	}, log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init crm client: %w", err)
	}

	store := cache.NewStore(log)
	mapping, mappingLoaded := integration.LoadFieldMapping(cfg.FieldMappingPath, log)

	service := integration.NewService(crmClient, store, mapping, mappingLoaded, integration.Config{
		CacheEnabled: cfg.CacheEnabled,
		PollFormTTL:  cfg.PollFormTTL,
		ProgramTTL:   cfg.ProgramTTL,
		BatchEnabled: cfg.BatchEnabled,
	}, log)

	logRepo := repos.NewLogRepo(theDB, log)

	server := apphttp.NewServer(apphttp.RouterConfig{
		Log:                log,
		HealthHandler:      handlers.NewHealthHandler(),
		IntegrationHandler: handlers.NewIntegrationHandler(log, service, logRepo),
		CRMHandler:         handlers.NewCRMHandler(log, crmClient),
		LogHandler:         handlers.NewLogHandler(log, logRepo),
	})

	return &App{
		Log:    log,
		DB:     theDB,
		Server: server,
		Cfg:    cfg,
	}, nil
}

func (a *App) Run() error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	return a.Server.Run(a.Cfg.HTTPAddr)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
