package bitrix

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/surveycrm/pollbridge/internal/pkg/logger"
)

func newTestClient(t *testing.T, url string) (*Client, *[]time.Duration) {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	client, err := NewClient(Config{
		WebhookURL:   url,
		Timeout:      5 * time.Second,
		MaxAttempts:  3,
		RetryDelay:   time.Second,
		RetryBackoff: 2.0,
	}, log)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	var sleeps []time.Duration
	client.sleep = func(d time.Duration) { sleeps = append(sleeps, d) }
	return client, &sleeps
}

func TestClientCallSuccess(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{"result": [{"ID": "42", "NAME": "Alice"}]}`))
	}))
	defer srv.Close()

	client, sleeps := newTestClient(t, srv.URL)
	contacts, err := client.ListContacts(context.Background(), ListParams{})
	if err != nil {
		t.Fatalf("ListContacts: %v", err)
	}
	if gotPath != "/crm.contact.list" {
		t.Fatalf("request path: want=%q got=%q", "/crm.contact.list", gotPath)
	}
	if len(contacts) != 1 || contacts[0].ID.Int64() != 42 {
		t.Fatalf("contacts: want one contact with ID 42, got %+v", contacts)
	}
	if len(*sleeps) != 0 {
		t.Fatalf("sleeps on first-attempt success: want=0 got=%d", len(*sleeps))
	}
}

func TestClientRetriesTransientThenRecovers(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"result": 77}`))
	}))
	defer srv.Close()

	client, sleeps := newTestClient(t, srv.URL)
	id, err := client.CreateContact(context.Background(), map[string]any{"NAME": "Bob"})
	if err != nil {
		t.Fatalf("CreateContact: %v", err)
	}
	if id != 77 {
		t.Fatalf("created id: want=77 got=%d", id)
	}
	if attempts != 3 {
		t.Fatalf("attempts: want=3 got=%d", attempts)
	}
	want := []time.Duration{time.Second, 2 * time.Second}
	if len(*sleeps) != len(want) {
		t.Fatalf("sleeps: want=%d got=%d", len(want), len(*sleeps))
	}
	for i, d := range want {
		if (*sleeps)[i] != d {
			t.Fatalf("sleep %d: want=%s got=%s", i, d, (*sleeps)[i])
		}
	}
}

func TestClientExhaustsRetryBudget(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client, sleeps := newTestClient(t, srv.URL)
	err := client.Ping(context.Background())
	if err == nil {
		t.Fatalf("Ping: expected error after exhausted retries")
	}
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("error type: want *HTTPError got %T (%v)", err, err)
	}
	if httpErr.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("status: want=503 got=%d", httpErr.StatusCode)
	}
	if attempts != 3 {
		t.Fatalf("attempts: want=3 got=%d", attempts)
	}
	// One wait between each pair of attempts, strictly increasing.
	if len(*sleeps) != 2 {
		t.Fatalf("sleeps: want=2 got=%d", len(*sleeps))
	}
	if (*sleeps)[1] <= (*sleeps)[0] {
		t.Fatalf("delays must increase: got %s then %s", (*sleeps)[0], (*sleeps)[1])
	}
}

func TestClientDoesNotRetryAPIError(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.Write([]byte(`{"error": "ERROR_ELEMENT_NOT_FOUND", "error_description": "element not found"}`))
	}))
	defer srv.Close()

	client, sleeps := newTestClient(t, srv.URL)
	_, err := client.GetContact(context.Background(), 5)
	if err == nil {
		t.Fatalf("GetContact: expected error")
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error type: want *APIError got %T (%v)", err, err)
	}
	if apiErr.Code != "ERROR_ELEMENT_NOT_FOUND" {
		t.Fatalf("code: want=%q got=%q", "ERROR_ELEMENT_NOT_FOUND", apiErr.Code)
	}
	if attempts != 1 {
		t.Fatalf("attempts: want=1 got=%d", attempts)
	}
	if len(*sleeps) != 0 {
		t.Fatalf("sleeps: want=0 got=%d", len(*sleeps))
	}
}

func TestClientDoesNotRetryClientError(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	client, _ := newTestClient(t, srv.URL)
	err := client.Ping(context.Background())
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("error type: want *HTTPError got %T (%v)", err, err)
	}
	if attempts != 1 {
		t.Fatalf("attempts on 401: want=1 got=%d", attempts)
	}
}

func TestClientStopsOnCanceledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	client, _ := newTestClient(t, srv.URL)
	client.sleep = func(time.Duration) { cancel() }

	err := client.Ping(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error: want context.Canceled got %v", err)
	}
}

func TestBatchGetListElements(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/batch" {
			t.Errorf("request path: want=%q got=%q", "/batch", r.URL.Path)
		}
		w.Write([]byte(`{"result": {"result": {
			"cmd_0": [{"ID": "11", "NAME": "Data Science"}],
			"cmd_1": []
		}}}`))
	}))
	defer srv.Close()

	client, _ := newTestClient(t, srv.URL)
	found, err := client.BatchGetListElements(context.Background(), 18, []string{"Data Science", "Astrology"})
	if err != nil {
		t.Fatalf("BatchGetListElements: %v", err)
	}
	if len(found) != 1 {
		t.Fatalf("found: want=1 got=%d", len(found))
	}
	element, ok := found["Data Science"]
	if !ok {
		t.Fatalf("expected Data Science in batch result")
	}
	if element.ID.Int64() != 11 {
		t.Fatalf("element id: want=11 got=%d", element.ID.Int64())
	}
}
