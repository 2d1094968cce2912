package app

import (
	"time"

	"github.com/surveycrm/pollbridge/internal/pkg/logger"
	"github.com/surveycrm/pollbridge/internal/utils"
)

type Config struct {
	HTTPAddr string

	BitrixWebhookURL   string
	BitrixTimeout      time.Duration
	BitrixMaxAttempts  int
	BitrixRetryDelay   time.Duration
	BitrixRetryBackoff float64

	CacheEnabled bool
	PollFormTTL  time.Duration
	ProgramTTL   time.Duration
	BatchEnabled bool

	FieldMappingPath string
}

func LoadConfig(log *logger.Logger) Config {
	httpAddr := utils.GetEnv("HTTP_ADDR", ":8000", log)
	webhookURL := utils.GetEnv("BITRIX_WEBHOOK_URL", "", log)
	timeoutSeconds := utils.GetEnvAsInt("BITRIX_TIMEOUT_SECONDS", 30, log)
	maxAttempts := utils.GetEnvAsInt("BITRIX_RETRY_MAX_ATTEMPTS", 3, log)
	retryDelaySeconds := utils.GetEnvAsFloat("BITRIX_RETRY_DELAY", 1.0, log)
	retryBackoff := utils.GetEnvAsFloat("BITRIX_RETRY_BACKOFF", 2.0, log)
	cacheEnabled := utils.GetEnvAsBool("CACHE_ENABLED", true, log)
	pollFormTTLSeconds := utils.GetEnvAsInt("CACHE_TTL_POLL_FORMS", 600, log)
	programTTLSeconds := utils.GetEnvAsInt("CACHE_TTL_PROGRAMS", 600, log)
	batchEnabled := utils.GetEnvAsBool("BATCH_ENABLED", true, log)
	fieldMappingPath := utils.GetEnv("FIELD_MAPPING_PATH", "field_mapping.json", log)

	return Config{
		HTTPAddr:           httpAddr,
		BitrixWebhookURL:   webhookURL,
		BitrixTimeout:      time.Duration(timeoutSeconds) * time.Second,
		BitrixMaxAttempts:  maxAttempts,
		BitrixRetryDelay:   time.Duration(retryDelaySeconds * float64(time.Second)),
		BitrixRetryBackoff: retryBackoff,
		CacheEnabled:       cacheEnabled,
		PollFormTTL:        time.Duration(pollFormTTLSeconds) * time.Second,
		ProgramTTL:         time.Duration(programTTLSeconds) * time.Second,
		BatchEnabled:       batchEnabled,
		FieldMappingPath:   fieldMappingPath,
	}
}
