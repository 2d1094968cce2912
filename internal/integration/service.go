package integration

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strconv"
	"strings"
	"time"

	"github.com/surveycrm/pollbridge/internal/bitrix"
	"github.com/surveycrm/pollbridge/internal/cache"
	"github.com/surveycrm/pollbridge/internal/pkg/logger"
	"github.com/surveycrm/pollbridge/internal/types"
)

// Config tunes the cache-aside and batching behavior of the engine. The
// engine stays correct with caching and batching disabled, just slower.
type Config struct {
	CacheEnabled bool
	PollFormTTL  time.Duration
	ProgramTTL   time.Duration
	BatchEnabled bool
}

// Service is the reconciliation engine: it maps one answer event onto CRM
// entities (poll form, contact, deals) with lookup-before-create semantics.
type Service struct {
	gw            Gateway
	cache         *cache.Store
	cfg           Config
	mapping       FieldMapping
	mappingLoaded bool
	log           *logger.Logger
}

func NewService(gw Gateway, store *cache.Store, mapping FieldMapping, mappingLoaded bool, cfg Config, baseLog *logger.Logger) *Service {
	if cfg.PollFormTTL <= 0 {
		cfg.PollFormTTL = 10 * time.Minute
	}
	if cfg.ProgramTTL <= 0 {
		cfg.ProgramTTL = 10 * time.Minute
	}
	return &Service{
		gw:            gw,
		cache:         store,
		cfg:           cfg,
		mapping:       mapping,
		mappingLoaded: mappingLoaded,
		log:           baseLog.With("service", "IntegrationService"),
	}
}

// DealResult reports one reconciled deal, in program input order.
type DealResult struct {
	ProgramName string `json:"program_name"`
	ProgramID   int64  `json:"program_id,omitempty"`
	DealID      int64  `json:"deal_id"`
	IsNew       bool   `json:"is_new"`
}

type ProcessResult struct {
	PollID     int64        `json:"poll_id"`
	AnswerID   int64        `json:"answer_id"`
	PollFormID int64        `json:"poll_form_id"`
	ContactID  int64        `json:"contact_id"`
	Deals      []DealResult `json:"deals"`
	TotalDeals int          `json:"total_deals"`
}

// ProcessAnswer runs the full reconciliation workflow for one answer event.
// Poll-form and program resolution are hard-abort points; past those,
// contact/deal failures also abort with no partial-success reporting.
// Idempotency rests on lookup-before-create, so redelivery converges.
func (s *Service) ProcessAnswer(ctx context.Context, payload *types.WebhookPayload) (*ProcessResult, error) {
	log := s.log.With(
		"poll_id", payload.HeaderData.PollID,
		"answer_id", payload.HeaderData.AnswerID,
	)
	log.Info("Processing answer event", "email", payload.Data.Email)

	if err := validateAnswer(payload); err != nil {
		return nil, err
	}

	pollForm, err := s.findPollForm(ctx, payload.HeaderData.PollID)
	if err != nil {
		return nil, err
	}
	log.Info("Poll form resolved", "poll_form_id", pollForm.ID.Int64(), "name", pollForm.Name)

	contactID, err := s.findOrCreateContact(ctx, &payload.Data, &payload.HeaderData.Analytics)
	if err != nil {
		return nil, err
	}
	log.Info("Contact ready", "contact_id", contactID)

	// Computed once, shared across every deal for this event.
	additional := payload.Data.Extra

	result := &ProcessResult{
		PollID:     payload.HeaderData.PollID,
		AnswerID:   payload.HeaderData.AnswerID,
		PollFormID: pollForm.ID.Int64(),
		ContactID:  contactID,
	}

	if len(payload.Data.EducationalPrograms) > 0 {
		// All programs resolve together before any deal work begins.
		programs, err := s.resolvePrograms(ctx, payload.Data.EducationalPrograms)
		if err != nil {
			return nil, err
		}

		for _, program := range programs {
			dealID, isNew, err := s.findOrCreateDeal(ctx, contactID, &program, pollForm.ID.Int64())
			if err != nil {
				return nil, err
			}
			if err := s.enrichDeal(ctx, dealID, &payload.HeaderData.Analytics, additional); err != nil {
				return nil, err
			}
			log.Info("Deal reconciled",
				"deal_id", dealID,
				"program", program.Name,
				"is_new", isNew,
			)
			result.Deals = append(result.Deals, DealResult{
				ProgramName: program.Name,
				ProgramID:   program.ID,
				DealID:      dealID,
				IsNew:       isNew,
			})
		}
	} else {
		dealID, isNew, err := s.findOrCreateDeal(ctx, contactID, nil, pollForm.ID.Int64())
		if err != nil {
			return nil, err
		}
		if err := s.enrichDeal(ctx, dealID, &payload.HeaderData.Analytics, additional); err != nil {
			return nil, err
		}
		log.Info("Generic deal reconciled", "deal_id", dealID, "is_new", isNew)
		result.Deals = append(result.Deals, DealResult{
			ProgramName: "Generic deal",
			DealID:      dealID,
			IsNew:       isNew,
		})
	}

	result.TotalDeals = len(result.Deals)
	log.Info("Answer event processed", "contact_id", contactID, "total_deals", result.TotalDeals)
	return result, nil
}

func validateAnswer(payload *types.WebhookPayload) error {
	if err := payload.HeaderData.Validate(); err != nil {
		return &ValidationError{Field: "form_kind", Reason: err.Error()}
	}
	email := strings.TrimSpace(payload.Data.Email)
	if email == "" {
		return &ValidationError{Field: "email", Reason: "email is required to create a contact"}
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return &ValidationError{Field: "email", Reason: fmt.Sprintf("%q is not a valid email address", email)}
	}
	return nil
}

// ==================== Poll form ====================

func (s *Service) findPollForm(ctx context.Context, pollID int64) (*bitrix.ListElement, error) {
	cacheKey := strconv.FormatInt(pollID, 10)
	if s.cfg.CacheEnabled {
		if v, ok := s.cache.Get(cache.CategoryPollForm, cacheKey); ok {
			form := v.(bitrix.ListElement)
			return &form, nil
		}
	}

	elements, err := s.gw.ListElements(ctx, s.mapping.PollFormsListID, map[string]any{
		"=" + s.mapping.PollIDProperty: cacheKey,
	})
	if err != nil {
		return nil, fmt.Errorf("find poll form %d: %w", pollID, err)
	}
	if len(elements) == 0 {
		return nil, &NotFoundError{Entity: "poll form", Key: cacheKey}
	}

	form := elements[0]
	if s.cfg.CacheEnabled {
		s.cache.Set(cache.CategoryPollForm, cacheKey, form, s.cfg.PollFormTTL)
	}
	return &form, nil
}

// ==================== Contact ====================

func (s *Service) findOrCreateContact(ctx context.Context, data *types.AnswerData, analytics *types.Analytics) (int64, error) {
	contacts, err := s.gw.ListContacts(ctx, bitrix.ListParams{
		Filter: map[string]any{"EMAIL": data.Email},
		Select: []string{"ID", "NAME", "LAST_NAME", "EMAIL"},
	})
	if err != nil {
		// A failed search is not fatal: fall through to create, the dedup
		// key is re-checked by the CRM on redelivery.
		s.log.Warn("Contact search failed, attempting create", "email", data.Email, "error", err.Error())
	}
	if len(contacts) > 0 {
		return contacts[0].ID.Int64(), nil
	}

	fields := map[string]any{
		"NAME":        data.Firstname,
		"LAST_NAME":   data.Lastname,
		"SECOND_NAME": data.Middlename,
		"EMAIL":       []map[string]any{{"VALUE": data.Email, "VALUE_TYPE": "WORK"}},
	}
	if data.Telephone != "" {
		fields["PHONE"] = []map[string]any{{"VALUE": data.Telephone, "VALUE_TYPE": "WORK"}}
	}
	for k, v := range analytics.Params.Fields() {
		fields[k] = v
	}

	contactID, err := s.gw.CreateContact(ctx, fields)
	if err != nil {
		return 0, fmt.Errorf("create contact for %s: %w", data.Email, err)
	}
	s.log.Info("Contact created", "contact_id", contactID, "email", data.Email)
	return contactID, nil
}

// ==================== Deal ====================

// findOrCreateDeal looks up a deal by (contact, program) or, for the
// no-program case, by (contact, poll form), creating it when absent. The
// second return reports whether a new deal was created.
func (s *Service) findOrCreateDeal(ctx context.Context, contactID int64, program *Program, pollFormID int64) (int64, bool, error) {
	filter := map[string]any{"CONTACT_ID": contactID}
	if program != nil {
		filter[s.mapping.DealProgramField] = program.ID
	} else {
		filter[s.mapping.DealPollFormField] = pollFormID
	}

	deals, err := s.gw.ListDeals(ctx, bitrix.ListParams{
		Filter: filter,
		Select: []string{"ID", "TITLE", "CONTACT_IDS", s.mapping.DealProgramField},
	})
	if err != nil {
		s.log.Warn("Deal search failed, attempting create", "contact_id", contactID, "error", err.Error())
	}
	if len(deals) > 0 {
		return deals[0].ID.Int64(), false, nil
	}

	fields := map[string]any{
		"TITLE":       fmt.Sprintf("Survey registration #%d", pollFormID),
		"CONTACT_IDS": []int64{contactID},
	}
	fields[s.mapping.DealPollFormField] = pollFormID
	if program != nil {
		fields[s.mapping.DealProgramField] = program.ID
	}

	dealID, err := s.gw.CreateDeal(ctx, fields)
	if err != nil {
		return 0, false, fmt.Errorf("create deal for contact %d: %w", contactID, err)
	}
	return dealID, true, nil
}

// enrichDeal always updates, never inserts: UTM attribution, the external
// tracking id when the cookie carries one, and the JSON metadata blob.
func (s *Service) enrichDeal(ctx context.Context, dealID int64, analytics *types.Analytics, additional map[string]types.ExtraValue) error {
	fields := analytics.Params.Fields()
	if visit := analytics.Cookies.RoistatVisit(); visit != "" {
		fields[s.mapping.DealRoistatField] = visit
	}

	comment, err := buildDealComment(analytics, additional)
	if err != nil {
		return fmt.Errorf("build deal comment for %d: %w", dealID, err)
	}
	fields["COMMENTS"] = comment

	if err := s.gw.UpdateDeal(ctx, dealID, fields); err != nil {
		return fmt.Errorf("enrich deal %d: %w", dealID, err)
	}
	return nil
}

// ==================== Poll form registration ====================

type RegisterPollFormRequest struct {
	PollID        int64
	PollName      string
	PollLanguage  string
	EmployeeEmail string
}

// RegisterPollForm creates the CRM list record for a poll, once per poll id.
// Re-registration is a no-op returning created=false.
func (s *Service) RegisterPollForm(ctx context.Context, req RegisterPollFormRequest) (bool, error) {
	existing, err := s.findPollForm(ctx, req.PollID)
	if err == nil {
		s.log.Info("Poll form already registered", "poll_id", req.PollID, "poll_form_id", existing.ID.Int64())
		return false, nil
	}
	var notFound *NotFoundError
	if !errors.As(err, &notFound) {
		return false, err
	}

	pollKey := strconv.FormatInt(req.PollID, 10)
	fields := map[string]any{
		"NAME":         req.PollName,
		"PREVIEW_TEXT": fmt.Sprintf("Language: %s, Created by: %s", req.PollLanguage, req.EmployeeEmail),
		"CODE":         pollKey,
	}
	fields[s.mapping.PollIDProperty] = pollKey
	fields[s.mapping.PollURLProperty] = s.mapping.PortalBaseURL + pollKey
	fields[s.mapping.PollCounterProperty] = 0

	bitrixID, err := s.gw.CreateListElement(ctx, s.mapping.PollFormsListID, pollKey, fields)
	if err != nil {
		return false, fmt.Errorf("create poll form %d: %w", req.PollID, err)
	}
	s.log.Info("Poll form created", "poll_id", req.PollID, "poll_form_id", bitrixID)

	if s.cfg.CacheEnabled {
		s.cache.Set(cache.CategoryPollForm, pollKey, bitrix.ListElement{
			ID:   bitrix.ID(bitrixID),
			Name: req.PollName,
			Code: pollKey,
		}, s.cfg.PollFormTTL)
	}
	return true, nil
}

// ==================== Health ====================

type HealthStatus struct {
	Status              string         `json:"status"`
	FieldMappingLoaded  bool           `json:"field_mapping_loaded"`
	ConstantsConfigured bool           `json:"constants_configured"`
	CRMAvailable        bool           `json:"crm_available"`
	Cache               map[string]int `json:"cache,omitempty"`
}

// Health probes the integration end to end without ever failing: mapping
// loaded, constants present, CRM minimally reachable.
func (s *Service) Health(ctx context.Context) HealthStatus {
	status := HealthStatus{
		FieldMappingLoaded:  s.mappingLoaded,
		ConstantsConfigured: s.mapping.IsComplete(),
	}
	if err := s.gw.Ping(ctx); err != nil {
		s.log.Warn("CRM health probe failed", "error", err.Error())
	} else {
		status.CRMAvailable = true
	}
	if s.cache != nil {
		status.Cache = s.cache.Stats()
	}

	switch {
	case !status.CRMAvailable:
		status.Status = "unhealthy"
	case !status.FieldMappingLoaded || !status.ConstantsConfigured:
		status.Status = "degraded"
	default:
		status.Status = "healthy"
	}
	return status
}
