package bitrix

import "context"

// Entity verbs over the generic executor. These stay thin: filters and field
// maps pass through untyped because the CRM schema is not ours to model.

// ==================== Contacts ====================

func (c *Client) ListContacts(ctx context.Context, p ListParams) ([]Contact, error) {
	var out []Contact
	if err := c.call(ctx, "crm.contact.list", p.encode(), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetContact(ctx context.Context, contactID int64) (*Contact, error) {
	var out Contact
	if err := c.call(ctx, "crm.contact.get", map[string]any{"id": contactID}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateContact(ctx context.Context, fields map[string]any) (int64, error) {
	var id ID
	if err := c.call(ctx, "crm.contact.add", map[string]any{"fields": fields}, &id); err != nil {
		return 0, err
	}
	return id.Int64(), nil
}

func (c *Client) UpdateContact(ctx context.Context, contactID int64, fields map[string]any) error {
	return c.call(ctx, "crm.contact.update", map[string]any{"id": contactID, "fields": fields}, nil)
}

func (c *Client) DeleteContact(ctx context.Context, contactID int64) error {
	return c.call(ctx, "crm.contact.delete", map[string]any{"id": contactID}, nil)
}

// ==================== Deals ====================

func (c *Client) ListDeals(ctx context.Context, p ListParams) ([]Deal, error) {
	var out []Deal
	if err := c.call(ctx, "crm.deal.list", p.encode(), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetDeal(ctx context.Context, dealID int64) (*Deal, error) {
	var out Deal
	if err := c.call(ctx, "crm.deal.get", map[string]any{"id": dealID}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateDeal(ctx context.Context, fields map[string]any) (int64, error) {
	var id ID
	if err := c.call(ctx, "crm.deal.add", map[string]any{"fields": fields}, &id); err != nil {
		return 0, err
	}
	return id.Int64(), nil
}

func (c *Client) UpdateDeal(ctx context.Context, dealID int64, fields map[string]any) error {
	return c.call(ctx, "crm.deal.update", map[string]any{"id": dealID, "fields": fields}, nil)
}

func (c *Client) DeleteDeal(ctx context.Context, dealID int64) error {
	return c.call(ctx, "crm.deal.delete", map[string]any{"id": dealID}, nil)
}

// ==================== Leads ====================

func (c *Client) ListLeads(ctx context.Context, p ListParams) ([]Lead, error) {
	var out []Lead
	if err := c.call(ctx, "crm.lead.list", p.encode(), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetLead(ctx context.Context, leadID int64) (*Lead, error) {
	var out Lead
	if err := c.call(ctx, "crm.lead.get", map[string]any{"id": leadID}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateLead(ctx context.Context, fields map[string]any) (int64, error) {
	var id ID
	if err := c.call(ctx, "crm.lead.add", map[string]any{"fields": fields}, &id); err != nil {
		return 0, err
	}
	return id.Int64(), nil
}

func (c *Client) UpdateLead(ctx context.Context, leadID int64, fields map[string]any) error {
	return c.call(ctx, "crm.lead.update", map[string]any{"id": leadID, "fields": fields}, nil)
}

func (c *Client) DeleteLead(ctx context.Context, leadID int64) error {
	return c.call(ctx, "crm.lead.delete", map[string]any{"id": leadID}, nil)
}
