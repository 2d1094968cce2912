package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/surveycrm/pollbridge/internal/http/response"
	"github.com/surveycrm/pollbridge/internal/pkg/logger"
	"github.com/surveycrm/pollbridge/internal/repos"
	"github.com/surveycrm/pollbridge/internal/types"
)

type LogHandler struct {
	log     *logger.Logger
	logRepo repos.LogRepo
}

func NewLogHandler(log *logger.Logger, logRepo repos.LogRepo) *LogHandler {
	return &LogHandler{
		log:     log.With("handler", "LogHandler"),
		logRepo: logRepo,
	}
}

type createLogRequest struct {
	Message string          `json:"message" binding:"required"`
	Payload json.RawMessage `json:"payload"`
}

// Create records one processing-log row on behalf of an operator or an
// external tool. The integration handlers write their own rows; this
// endpoint exists for everything else.
func (h *LogHandler) Create(c *gin.Context) {
	var req createLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "INVALID_BODY", err)
		return
	}

	entry := &types.ProcessingLog{
		Message: req.Message,
		Payload: datatypes.JSON(req.Payload),
	}
	created, err := h.logRepo.Create(c.Request.Context(), nil, entry)
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "LOG_CREATE_FAILED", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"result": created})
}

// List returns the most recent processing-log rows, newest first.
// ?limit= caps the result, default 100.
func (h *LogHandler) List(c *gin.Context) {
	limit := 100
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			response.RespondError(c, http.StatusBadRequest, "INVALID_LIMIT", errors.New("limit must be a positive integer"))
			return
		}
		limit = parsed
	}

	entries, err := h.logRepo.List(c.Request.Context(), nil, limit)
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "LOG_LIST_FAILED", err)
		return
	}
	response.RespondOK(c, gin.H{"result": entries})
}

func (h *LogHandler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "INVALID_ID", err)
		return
	}

	entry, err := h.logRepo.GetByID(c.Request.Context(), nil, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.RespondError(c, http.StatusNotFound, "LOG_NOT_FOUND", err)
			return
		}
		response.RespondError(c, http.StatusInternalServerError, "LOG_GET_FAILED", err)
		return
	}
	response.RespondOK(c, gin.H{"result": entry})
}

func (h *LogHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "INVALID_ID", err)
		return
	}

	if err := h.logRepo.Delete(c.Request.Context(), nil, id); err != nil {
		response.RespondError(c, http.StatusInternalServerError, "LOG_DELETE_FAILED", err)
		return
	}
	response.RespondOK(c, gin.H{"result": true})
}
