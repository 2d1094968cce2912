package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/surveycrm/pollbridge/internal/integration"
	"github.com/surveycrm/pollbridge/internal/pkg/logger"
	"github.com/surveycrm/pollbridge/internal/repos"
	"github.com/surveycrm/pollbridge/internal/types"
)

// PostPollRequest registers (or re-registers) one poll form.
type PostPollRequest struct {
	PollID        int64  `json:"poll_id" binding:"required"`
	PollName      string `json:"poll_name" binding:"required"`
	PollLanguage  string `json:"poll_language" binding:"required"`
	EmployeeEmail string `json:"employee_email" binding:"required,email"`
}

// PollResponse is the uniform envelope for /postPoll. Failures keep HTTP
// 200 and signal through is_successful; delivery is acknowledged either way.
type PollResponse struct {
	Status       string `json:"status"`
	Message      string `json:"message"`
	Description  string `json:"description,omitempty"`
	PollID       int64  `json:"poll_id"`
	IsSuccessful bool   `json:"is_successful"`
}

// AnswerResponse is the uniform envelope for /postAnswer.
type AnswerResponse struct {
	Status       string `json:"status"`
	Message      string `json:"message"`
	Description  string `json:"description,omitempty"`
	PollID       int64  `json:"poll_id"`
	AnswerID     int64  `json:"answer_id"`
	IsSuccessful bool   `json:"is_successful"`
}

type IntegrationHandler struct {
	log     *logger.Logger
	service *integration.Service
	logRepo repos.LogRepo
}

func NewIntegrationHandler(log *logger.Logger, service *integration.Service, logRepo repos.LogRepo) *IntegrationHandler {
	return &IntegrationHandler{
		log:     log.With("handler", "IntegrationHandler"),
		service: service,
		logRepo: logRepo,
	}
}

// PostPoll registers a poll form in the CRM. Idempotent: re-registration of
// the same poll_id succeeds with an "already exists" message.
func (h *IntegrationHandler) PostPoll(c *gin.Context) {
	var req PostPollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, PollResponse{
			Status:       "error",
			Message:      "Invalid postPoll request",
			Description:  err.Error(),
			IsSuccessful: false,
		})
		return
	}

	created, err := h.service.RegisterPollForm(c.Request.Context(), integration.RegisterPollFormRequest{
		PollID:        req.PollID,
		PollName:      req.PollName,
		PollLanguage:  req.PollLanguage,
		EmployeeEmail: req.EmployeeEmail,
	})
	if err != nil {
		h.log.Error("Poll form registration failed", "poll_id", req.PollID, "error", err.Error())
		h.audit(c, fmt.Sprintf("postPoll %d failed", req.PollID), gin.H{"poll_id": req.PollID, "error": err.Error()})
		c.JSON(http.StatusOK, PollResponse{
			Status:       "error",
			Message:      fmt.Sprintf("Poll form for ID %d was not created", req.PollID),
			Description:  err.Error(),
			PollID:       req.PollID,
			IsSuccessful: false,
		})
		return
	}

	message := fmt.Sprintf("Poll form for ID %d created in CRM", req.PollID)
	if !created {
		message = fmt.Sprintf("Poll form for ID %d already exists in CRM", req.PollID)
	}
	h.audit(c, fmt.Sprintf("postPoll %d ok", req.PollID), gin.H{"poll_id": req.PollID, "created": created})
	c.JSON(http.StatusOK, PollResponse{
		Status:       "success",
		Message:      message,
		Description:  "Poll form registered",
		PollID:       req.PollID,
		IsSuccessful: true,
	})
}

// PostAnswer runs the reconciliation workflow for one answer event.
// Business failures (poll form missing, programs missing, invalid email)
// come back as HTTP 200 with is_successful=false: failures are data here,
// not transport errors. Only an unreadable body is a 400.
func (h *IntegrationHandler) PostAnswer(c *gin.Context) {
	var payload types.WebhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, AnswerResponse{
			Status:       "error",
			Message:      "Invalid postAnswer request",
			Description:  err.Error(),
			IsSuccessful: false,
		})
		return
	}

	result, err := h.service.ProcessAnswer(c.Request.Context(), &payload)
	if err != nil {
		h.log.Error("Answer processing failed",
			"poll_id", payload.HeaderData.PollID,
			"answer_id", payload.HeaderData.AnswerID,
			"error", err.Error(),
		)
		h.audit(c, fmt.Sprintf("postAnswer %d failed", payload.HeaderData.AnswerID), gin.H{
			"poll_id":   payload.HeaderData.PollID,
			"answer_id": payload.HeaderData.AnswerID,
			"error":     err.Error(),
		})
		c.JSON(http.StatusOK, AnswerResponse{
			Status:       "error",
			Message:      fmt.Sprintf("Failed to save answer %d", payload.HeaderData.AnswerID),
			Description:  err.Error(),
			PollID:       payload.HeaderData.PollID,
			AnswerID:     payload.HeaderData.AnswerID,
			IsSuccessful: false,
		})
		return
	}

	h.audit(c, fmt.Sprintf("postAnswer %d ok", result.AnswerID), result)
	c.JSON(http.StatusOK, AnswerResponse{
		Status:       "success",
		Message:      answerMessage(result),
		Description:  fmt.Sprintf("Answer %d saved in CRM", result.AnswerID),
		PollID:       result.PollID,
		AnswerID:     result.AnswerID,
		IsSuccessful: true,
	})
}

// Health reports the tri-state integration health. Never fails the request.
func (h *IntegrationHandler) Health(c *gin.Context) {
	status := h.service.Health(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"status":               status.Status,
		"field_mapping_loaded": status.FieldMappingLoaded,
		"constants_configured": status.ConstantsConfigured,
		"crm_available":        status.CRMAvailable,
		"cache":                status.Cache,
		"service":              "integration",
		"version":              "1.0.0",
	})
}

// answerMessage summarizes how many deals an event produced and whether
// each was created or reused.
func answerMessage(result *integration.ProcessResult) string {
	if result.TotalDeals == 0 {
		return "Processed successfully. No deals produced"
	}

	parts := make([]string, 0, len(result.Deals))
	for _, deal := range result.Deals {
		state := "EXISTING"
		if deal.IsNew {
			state = "NEW"
		}
		parts = append(parts, fmt.Sprintf("%s (%s)", deal.ProgramName, state))
	}
	return fmt.Sprintf("Processed successfully. Deals: %d - %s", result.TotalDeals, strings.Join(parts, ", "))
}

// audit writes one processing-log row per handled request. Best-effort: a
// failed write is logged and dropped, never surfaced to the caller.
func (h *IntegrationHandler) audit(c *gin.Context, message string, payload any) {
	if h.logRepo == nil {
		return
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		h.log.Warn("Audit payload marshal failed", "error", err.Error())
		raw = nil
	}
	entry := &types.ProcessingLog{Message: message, Payload: raw}
	if _, err := h.logRepo.Create(c.Request.Context(), nil, entry); err != nil {
		h.log.Warn("Audit log write failed", "error", err.Error())
	}
}
