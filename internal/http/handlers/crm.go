package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/surveycrm/pollbridge/internal/bitrix"
	"github.com/surveycrm/pollbridge/internal/http/response"
	"github.com/surveycrm/pollbridge/internal/pkg/logger"
)

// CRMHandler exposes raw CRM entity CRUD for operators: contacts, deals
// and leads pass straight through to the portal without any reconciliation
// logic on top.
type CRMHandler struct {
	log    *logger.Logger
	client *bitrix.Client
}

func NewCRMHandler(log *logger.Logger, client *bitrix.Client) *CRMHandler {
	return &CRMHandler{
		log:    log.With("handler", "CRMHandler"),
		client: client,
	}
}

type crmListRequest struct {
	Filter map[string]any `json:"filter"`
	Select []string       `json:"select"`
	Start  int            `json:"start"`
}

type crmEntityRequest struct {
	Fields map[string]any `json:"fields" binding:"required"`
}

func (h *CRMHandler) listParams(c *gin.Context) (bitrix.ListParams, bool) {
	var req crmListRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.RespondError(c, http.StatusBadRequest, "INVALID_BODY", err)
			return bitrix.ListParams{}, false
		}
	}
	return bitrix.ListParams{Filter: req.Filter, Select: req.Select, Start: req.Start}, true
}

func (h *CRMHandler) entityID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "INVALID_ID", err)
		return 0, false
	}
	return id, true
}

// respondCRMError translates portal failures: a definitive CRM rejection is
// a 502 with the portal's description, a transport failure keeps its status.
func (h *CRMHandler) respondCRMError(c *gin.Context, err error) {
	var apiErr *bitrix.APIError
	if errors.As(err, &apiErr) {
		response.RespondError(c, http.StatusBadGateway, "CRM_REJECTED", err)
		return
	}
	var httpErr *bitrix.HTTPError
	if errors.As(err, &httpErr) {
		response.RespondError(c, http.StatusBadGateway, "CRM_UNAVAILABLE", err)
		return
	}
	response.RespondError(c, http.StatusInternalServerError, "CRM_CALL_FAILED", err)
}

func (h *CRMHandler) ListContacts(c *gin.Context) {
	params, ok := h.listParams(c)
	if !ok {
		return
	}
	contacts, err := h.client.ListContacts(c.Request.Context(), params)
	if err != nil {
		h.respondCRMError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": contacts})
}

func (h *CRMHandler) GetContact(c *gin.Context) {
	id, ok := h.entityID(c)
	if !ok {
		return
	}
	contact, err := h.client.GetContact(c.Request.Context(), id)
	if err != nil {
		h.respondCRMError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": contact})
}

func (h *CRMHandler) CreateContact(c *gin.Context) {
	var req crmEntityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "INVALID_BODY", err)
		return
	}
	id, err := h.client.CreateContact(c.Request.Context(), req.Fields)
	if err != nil {
		h.respondCRMError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"result": id})
}

func (h *CRMHandler) UpdateContact(c *gin.Context) {
	id, ok := h.entityID(c)
	if !ok {
		return
	}
	var req crmEntityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "INVALID_BODY", err)
		return
	}
	if err := h.client.UpdateContact(c.Request.Context(), id, req.Fields); err != nil {
		h.respondCRMError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": true})
}

func (h *CRMHandler) DeleteContact(c *gin.Context) {
	id, ok := h.entityID(c)
	if !ok {
		return
	}
	if err := h.client.DeleteContact(c.Request.Context(), id); err != nil {
		h.respondCRMError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": true})
}

func (h *CRMHandler) ListDeals(c *gin.Context) {
	params, ok := h.listParams(c)
	if !ok {
		return
	}
	deals, err := h.client.ListDeals(c.Request.Context(), params)
	if err != nil {
		h.respondCRMError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": deals})
}

func (h *CRMHandler) GetDeal(c *gin.Context) {
	id, ok := h.entityID(c)
	if !ok {
		return
	}
	deal, err := h.client.GetDeal(c.Request.Context(), id)
	if err != nil {
		h.respondCRMError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": deal})
}

func (h *CRMHandler) CreateDeal(c *gin.Context) {
	var req crmEntityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "INVALID_BODY", err)
		return
	}
	id, err := h.client.CreateDeal(c.Request.Context(), req.Fields)
	if err != nil {
		h.respondCRMError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"result": id})
}

func (h *CRMHandler) UpdateDeal(c *gin.Context) {
	id, ok := h.entityID(c)
	if !ok {
		return
	}
	var req crmEntityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "INVALID_BODY", err)
		return
	}
	if err := h.client.UpdateDeal(c.Request.Context(), id, req.Fields); err != nil {
		h.respondCRMError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": true})
}

func (h *CRMHandler) DeleteDeal(c *gin.Context) {
	id, ok := h.entityID(c)
	if !ok {
		return
	}
	if err := h.client.DeleteDeal(c.Request.Context(), id); err != nil {
		h.respondCRMError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": true})
}

func (h *CRMHandler) ListLeads(c *gin.Context) {
	params, ok := h.listParams(c)
	if !ok {
		return
	}
	leads, err := h.client.ListLeads(c.Request.Context(), params)
	if err != nil {
		h.respondCRMError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": leads})
}

func (h *CRMHandler) GetLead(c *gin.Context) {
	id, ok := h.entityID(c)
	if !ok {
		return
	}
	lead, err := h.client.GetLead(c.Request.Context(), id)
	if err != nil {
		h.respondCRMError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": lead})
}

func (h *CRMHandler) CreateLead(c *gin.Context) {
	var req crmEntityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "INVALID_BODY", err)
		return
	}
	id, err := h.client.CreateLead(c.Request.Context(), req.Fields)
	if err != nil {
		h.respondCRMError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"result": id})
}

func (h *CRMHandler) UpdateLead(c *gin.Context) {
	id, ok := h.entityID(c)
	if !ok {
		return
	}
	var req crmEntityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "INVALID_BODY", err)
		return
	}
	if err := h.client.UpdateLead(c.Request.Context(), id, req.Fields); err != nil {
		h.respondCRMError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": true})
}

func (h *CRMHandler) DeleteLead(c *gin.Context) {
	id, ok := h.entityID(c)
	if !ok {
		return
	}
	if err := h.client.DeleteLead(c.Request.Context(), id); err != nil {
		h.respondCRMError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": true})
}
