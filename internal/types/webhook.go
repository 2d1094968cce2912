package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// WebhookPayload is one answer event from the survey platform: service
// header data plus the named form fields.
type WebhookPayload struct {
	HeaderData HeaderData `json:"header_data"`
	Data       AnswerData `json:"data"`
}

type HeaderData struct {
	PollID     int64     `json:"poll_id"`
	AnswerID   int64     `json:"answer_id"`
	CreateTime time.Time `json:"create_time"`
	// FormKind: nil - unspecified, 1 - consultation, 2 - registration.
	FormKind  *int      `json:"form_kind"`
	GID       *string   `json:"gid"`
	Analytics Analytics `json:"analytics"`
}

func (h *HeaderData) Validate() error {
	if h.FormKind != nil && *h.FormKind != 1 && *h.FormKind != 2 {
		return fmt.Errorf("form_kind must be null, 1 or 2, got %d", *h.FormKind)
	}
	return nil
}

type Analytics struct {
	URL                     string    `json:"url"`
	Params                  UTMParams `json:"params"`
	Cookies                 Cookies   `json:"cookies"`
	IP                      string    `json:"ip"`
	Date                    string    `json:"date"`
	TimeZone                string    `json:"timeZone"`
	MailingListSubscription *bool     `json:"mailingListSubscription"`
}

type UTMParams struct {
	Source   string `json:"utm_source"`
	Medium   string `json:"utm_medium"`
	Campaign string `json:"utm_campaign"`
	Term     string `json:"utm_term"`
	Content  string `json:"utm_content"`
}

// Fields returns the CRM attribution field map, defaulting absent UTM
// parameters to "direct" the way the survey platform documents them.
func (p UTMParams) Fields() map[string]any {
	orDirect := func(v string) string {
		if strings.TrimSpace(v) == "" {
			return "direct"
		}
		return v
	}
	return map[string]any{
		"UTM_SOURCE":   orDirect(p.Source),
		"UTM_MEDIUM":   orDirect(p.Medium),
		"UTM_CAMPAIGN": orDirect(p.Campaign),
		"UTM_TERM":     orDirect(p.Term),
		"UTM_CONTENT":  orDirect(p.Content),
	}
}

// Cookies is the analytics cookie bag. Keys are not known in advance
// (tracking, _ym_uid, _ga, roistat_visit, plus whatever the portal adds),
// so the whole object is kept.
type Cookies struct {
	values map[string]any
}

func (c *Cookies) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		c.values = nil
		return nil
	}
	return json.Unmarshal(b, &c.values)
}

func (c Cookies) MarshalJSON() ([]byte, error) {
	if c.values == nil {
		return []byte("null"), nil
	}
	return json.Marshal(c.values)
}

func (c Cookies) IsEmpty() bool { return len(c.values) == 0 }

// Map returns every cookie as set by the visitor's browser session.
func (c Cookies) Map() map[string]any { return c.values }

// RoistatVisit returns the external tracking id cookie, or "".
func (c Cookies) RoistatVisit() string {
	v, ok := c.values["roistat_visit"]
	if !ok {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strings.TrimSuffix(fmt.Sprintf("%v", t), ".0")
	default:
		return ""
	}
}

// standardFields are the typed keys of AnswerData; everything else in the
// decoded form body lands in Extra.
var standardFields = map[string]struct{}{
	"firstname":             {},
	"lastname":              {},
	"middlename":            {},
	"email":                 {},
	"telephone":             {},
	"birthdate":             {},
	"address":               {},
	"city":                  {},
	"country":               {},
	"educational_program_1": {},
}

// AnswerData carries the named form fields. Identity fields are typed;
// educational_program_1 accepts either a scalar string or a string list;
// additionalfieldN, questionN and any unrecognized key are captured in
// Extra verbatim.
type AnswerData struct {
	Firstname  string
	Lastname   string
	Middlename string
	Email      string
	Telephone  string
	Birthdate  string
	Address    string
	City       string
	Country    string

	EducationalPrograms []string

	Extra map[string]ExtraValue
}

func (d *AnswerData) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	str := func(key string) (string, error) {
		msg, ok := raw[key]
		if !ok || bytes.Equal(bytes.TrimSpace(msg), []byte("null")) {
			return "", nil
		}
		var s string
		if err := json.Unmarshal(msg, &s); err != nil {
			return "", fmt.Errorf("field %q: %w", key, err)
		}
		return s, nil
	}

	var err error
	if d.Firstname, err = str("firstname"); err != nil {
		return err
	}
	if d.Lastname, err = str("lastname"); err != nil {
		return err
	}
	if d.Middlename, err = str("middlename"); err != nil {
		return err
	}
	if d.Email, err = str("email"); err != nil {
		return err
	}
	if d.Telephone, err = str("telephone"); err != nil {
		return err
	}
	if d.Birthdate, err = str("birthdate"); err != nil {
		return err
	}
	if d.Address, err = str("address"); err != nil {
		return err
	}
	if d.City, err = str("city"); err != nil {
		return err
	}
	if d.Country, err = str("country"); err != nil {
		return err
	}

	if msg, ok := raw["educational_program_1"]; ok {
		programs, err := decodeStringOrList(msg)
		if err != nil {
			return fmt.Errorf("field \"educational_program_1\": %w", err)
		}
		d.EducationalPrograms = programs
	}

	d.Extra = make(map[string]ExtraValue)
	for key, msg := range raw {
		if _, known := standardFields[key]; known {
			continue
		}
		var v ExtraValue
		if err := v.UnmarshalJSON(msg); err != nil {
			return fmt.Errorf("field %q: %w", key, err)
		}
		d.Extra[key] = v
	}
	return nil
}

// decodeStringOrList normalizes a scalar program value to a one-element
// list; null decodes to nil.
func decodeStringOrList(msg json.RawMessage) ([]string, error) {
	trimmed := bytes.TrimSpace(msg)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	if trimmed[0] == '[' {
		var list []string
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, err
		}
		return list, nil
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err != nil {
		return nil, err
	}
	return []string{s}, nil
}

// ExtraValue is the closed value variant for open-ended form fields:
// a string, a string list, or null.
type ExtraValue struct {
	Str  *string
	List []string
}

func (v *ExtraValue) UnmarshalJSON(b []byte) error {
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		v.Str = nil
		v.List = nil
		return nil
	}
	switch trimmed[0] {
	case '[':
		var rawList []json.RawMessage
		if err := json.Unmarshal(trimmed, &rawList); err != nil {
			return err
		}
		list := make([]string, 0, len(rawList))
		for _, item := range rawList {
			list = append(list, coerceScalar(item))
		}
		v.List = list
		return nil
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		v.Str = &s
		return nil
	default:
		// Numbers and booleans keep their JSON text form.
		s := string(trimmed)
		v.Str = &s
		return nil
	}
}

func (v ExtraValue) MarshalJSON() ([]byte, error) {
	if v.List != nil {
		return json.Marshal(v.List)
	}
	if v.Str != nil {
		return json.Marshal(*v.Str)
	}
	return []byte("null"), nil
}

func coerceScalar(msg json.RawMessage) string {
	trimmed := bytes.TrimSpace(msg)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err == nil {
			return s
		}
	}
	return string(trimmed)
}
