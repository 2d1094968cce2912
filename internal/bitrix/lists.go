package bitrix

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// Universal-list verbs. Poll forms and educational programs live in Bitrix
// universal lists ("lists.*" methods), not in CRM entities.

func (c *Client) ListElements(ctx context.Context, iblockID int, filter map[string]any) ([]ListElement, error) {
	params := map[string]any{
		"IBLOCK_TYPE_ID": "lists",
		"IBLOCK_ID":      iblockID,
	}
	if len(filter) > 0 {
		params["FILTER"] = filter
	}
	var out []ListElement
	if err := c.call(ctx, "lists.element.get", params, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateListElement(ctx context.Context, iblockID int, code string, fields map[string]any) (int64, error) {
	params := map[string]any{
		"IBLOCK_TYPE_ID": "lists",
		"IBLOCK_ID":      iblockID,
		"ELEMENT_CODE":   code,
		"FIELDS":         fields,
	}
	var id ID
	if err := c.call(ctx, "lists.element.add", params, &id); err != nil {
		return 0, err
	}
	return id.Int64(), nil
}

type batchResult struct {
	Result      map[string][]ListElement `json:"result"`
	ResultError map[string]any           `json:"result_error"`
}

// BatchGetListElements resolves several exact-name lookups against one list
// in a single "batch" call, one sub-command per name. The returned map holds
// only the names the CRM actually answered; absent names are simply missing,
// never an error. Sub-results are matched back by command key, not position.
func (c *Client) BatchGetListElements(ctx context.Context, iblockID int, names []string) (map[string]ListElement, error) {
	if len(names) == 0 {
		return map[string]ListElement{}, nil
	}

	cmd := make(map[string]string, len(names))
	keyToName := make(map[string]string, len(names))
	for i, name := range names {
		key := fmt.Sprintf("cmd_%d", i)
		q := url.Values{}
		q.Set("IBLOCK_TYPE_ID", "lists")
		q.Set("IBLOCK_ID", strconv.Itoa(iblockID))
		q.Set("FILTER[NAME]", name)
		cmd[key] = "lists.element.get?" + q.Encode()
		keyToName[key] = name
	}

	var res batchResult
	if err := c.call(ctx, "batch", map[string]any{"halt": 0, "cmd": cmd}, &res); err != nil {
		return nil, err
	}

	found := make(map[string]ListElement, len(res.Result))
	for key, elements := range res.Result {
		name, ok := keyToName[key]
		if !ok || len(elements) == 0 {
			continue
		}
		found[name] = elements[0]
	}
	if len(res.ResultError) > 0 {
		c.log.Warn("Batch sub-commands failed", "iblock_id", iblockID, "failed", len(res.ResultError))
	}
	return found, nil
}
