package bitrix

import (
	"fmt"
	"strings"
)

// HTTPError is a transport-level failure: the CRM answered with a non-2xx
// status. 5xx-class statuses are retryable, 4xx are not.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if e == nil {
		return "bitrix: <nil error>"
	}
	msg := strings.TrimSpace(e.Body)
	if msg == "" {
		msg = "<empty body>"
	}
	if len(msg) > 4000 {
		msg = msg[:4000] + "..."
	}
	return fmt.Sprintf("bitrix http %d: %s", e.StatusCode, msg)
}

func (e *HTTPError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}

// APIError is a definitive application-level rejection carried inside a 2xx
// response envelope (bad field, permission denied). Never retried.
type APIError struct {
	Code        string
	Description string
}

func (e *APIError) Error() string {
	if e == nil {
		return "bitrix: <nil error>"
	}
	if strings.TrimSpace(e.Description) != "" {
		return fmt.Sprintf("bitrix api error %s: %s", e.Code, e.Description)
	}
	return fmt.Sprintf("bitrix api error %s", e.Code)
}
