package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/surveycrm/pollbridge/internal/bitrix"
	"github.com/surveycrm/pollbridge/internal/cache"
	"github.com/surveycrm/pollbridge/internal/http/handlers"
	"github.com/surveycrm/pollbridge/internal/integration"
	"github.com/surveycrm/pollbridge/internal/pkg/logger"
)

// noopGateway answers every lookup empty and every probe healthy.
type noopGateway struct{}

func (noopGateway) ListElements(context.Context, int, map[string]any) ([]bitrix.ListElement, error) {
	return nil, nil
}

func (noopGateway) CreateListElement(context.Context, int, string, map[string]any) (int64, error) {
	return 1, nil
}

func (noopGateway) BatchGetListElements(context.Context, int, []string) (map[string]bitrix.ListElement, error) {
	return map[string]bitrix.ListElement{}, nil
}

func (noopGateway) ListContacts(context.Context, bitrix.ListParams) ([]bitrix.Contact, error) {
	return nil, nil
}

func (noopGateway) CreateContact(context.Context, map[string]any) (int64, error) { return 1, nil }

func (noopGateway) ListDeals(context.Context, bitrix.ListParams) ([]bitrix.Deal, error) {
	return nil, nil
}

func (noopGateway) CreateDeal(context.Context, map[string]any) (int64, error) { return 1, nil }

func (noopGateway) UpdateDeal(context.Context, int64, map[string]any) error { return nil }

func (noopGateway) Ping(context.Context) error { return nil }

func newTestServer(t *testing.T) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	service := integration.NewService(noopGateway{}, cache.NewStore(log), integration.DefaultFieldMapping(), true, integration.Config{}, log)

	return NewServer(RouterConfig{
		Log:                log,
		HealthHandler:      handlers.NewHealthHandler(),
		IntegrationHandler: handlers.NewIntegrationHandler(log, service, nil),
		CRMHandler:         handlers.NewCRMHandler(log, nil),
		LogHandler:         handlers.NewLogHandler(log, nil),
	})
}

func TestServerServesLiveness(t *testing.T) {
	server := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/healthcheck", nil)
	rec := httptest.NewRecorder()
	server.Engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: want=200 got=%d", rec.Code)
	}
	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["status"] != "ok" {
		t.Fatalf("status field: want=%q got=%v", "ok", resp["status"])
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatalf("X-Request-ID header must be set")
	}
}

func TestServerRoutesIntegrationHealth(t *testing.T) {
	server := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/integration/health", nil)
	rec := httptest.NewRecorder()
	server.Engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: want=200 got=%d", rec.Code)
	}
	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["status"] != "healthy" {
		t.Fatalf("status: want=%q got=%v", "healthy", resp["status"])
	}
}
