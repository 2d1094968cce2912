package integration

import (
	"encoding/json"
	"os"

	"github.com/surveycrm/pollbridge/internal/pkg/logger"
)

// FieldMapping binds the workflow to portal-specific list IDs and property
// codes. Values come from a JSON file when FIELD_MAPPING_PATH is set;
// otherwise the defaults below apply.
type FieldMapping struct {
	PollFormsListID int `json:"poll_forms_list_id"`
	ProgramsListID  int `json:"educational_programs_list_id"`

	PollIDProperty      string `json:"poll_id_property"`
	PollURLProperty     string `json:"poll_url_property"`
	PollCounterProperty string `json:"poll_counter_property"`
	ProgramIDProperty   string `json:"program_id_property"`

	DealProgramField  string `json:"deal_program_field"`
	DealRoistatField  string `json:"deal_roistat_field"`
	DealPollFormField string `json:"deal_poll_form_field"`

	PortalBaseURL string `json:"portal_base_url"`
}

func DefaultFieldMapping() FieldMapping {
	return FieldMapping{
		PollFormsListID:     17,
		ProgramsListID:      18,
		PollIDProperty:      "PROPERTY_64",
		PollURLProperty:     "PROPERTY_65",
		PollCounterProperty: "PROPERTY_66",
		ProgramIDProperty:   "PROPERTY_73",
		DealProgramField:    "UF_CRM_1755626160",
		DealRoistatField:    "UF_CRM_1755626174",
		DealPollFormField:   "UF_CRM_1755626190",
		PortalBaseURL:       "https://portal.hse.ru/",
	}
}

// IsComplete reports whether every constant the workflow depends on is set.
func (m FieldMapping) IsComplete() bool {
	return m.PollFormsListID != 0 &&
		m.ProgramsListID != 0 &&
		m.PollIDProperty != "" &&
		m.DealProgramField != "" &&
		m.DealRoistatField != ""
}

// LoadFieldMapping reads the mapping file at path, falling back to defaults
// when path is empty or unreadable. The second return reports whether the
// file actually loaded, which the health probe surfaces.
func LoadFieldMapping(path string, log *logger.Logger) (FieldMapping, bool) {
	mapping := DefaultFieldMapping()
	if path == "" {
		return mapping, false
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		log.Error("Failed to read field mapping file", "path", path, "error", err)
		return mapping, false
	}
	if err := json.Unmarshal(raw, &mapping); err != nil {
		log.Error("Failed to parse field mapping file", "path", path, "error", err)
		return DefaultFieldMapping(), false
	}
	log.Info("Field mapping loaded", "path", path)
	return mapping, true
}
