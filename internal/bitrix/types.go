package bitrix

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// ID decodes Bitrix entity identifiers, which the REST API returns as a
// string in list payloads ("ID":"42") and as a number in create results.
type ID int64

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*id = 0
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if s == "" {
			*id = 0
			return nil
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return fmt.Errorf("bitrix id %q: %w", s, err)
		}
		*id = ID(n)
		return nil
	}
	var n int64
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*id = ID(n)
	return nil
}

func (id ID) Int64() int64 { return int64(id) }

// ValueEntry is the multi-value field shape used for contact emails and
// phones: [{"VALUE": "...", "VALUE_TYPE": "WORK"}].
type ValueEntry struct {
	Value     string `json:"VALUE"`
	ValueType string `json:"VALUE_TYPE"`
}

type Contact struct {
	ID         ID           `json:"ID"`
	Name       string       `json:"NAME"`
	LastName   string       `json:"LAST_NAME"`
	SecondName string       `json:"SECOND_NAME"`
	Email      []ValueEntry `json:"EMAIL"`
	Phone      []ValueEntry `json:"PHONE"`
}

type Deal struct {
	ID    ID     `json:"ID"`
	Title string `json:"TITLE"`
}

type Lead struct {
	ID       ID     `json:"ID"`
	Title    string `json:"TITLE"`
	Name     string `json:"NAME"`
	LastName string `json:"LAST_NAME"`
	StatusID string `json:"STATUS_ID"`
}

// ListElement is a universal-list record (poll forms, educational programs).
// Only the fields the workflow reads are decoded; property values stay in
// the raw payload.
type ListElement struct {
	ID   ID     `json:"ID"`
	Name string `json:"NAME"`
	Code string `json:"CODE"`
}

// ListParams is the common list-verb parameter set: filter, selected fields
// and a pagination offset.
type ListParams struct {
	Filter map[string]any
	Select []string
	Start  int
}

func (p ListParams) encode() map[string]any {
	params := map[string]any{"start": p.Start}
	if len(p.Filter) > 0 {
		params["filter"] = p.Filter
	}
	if len(p.Select) > 0 {
		params["select"] = p.Select
	}
	return params
}
