package integration

import (
	"context"

	"github.com/surveycrm/pollbridge/internal/bitrix"
)

// Gateway is the entity-level CRM surface the reconciliation workflow calls.
// *bitrix.Client satisfies it; tests substitute fakes.
type Gateway interface {
	ListElements(ctx context.Context, iblockID int, filter map[string]any) ([]bitrix.ListElement, error)
	CreateListElement(ctx context.Context, iblockID int, code string, fields map[string]any) (int64, error)
	BatchGetListElements(ctx context.Context, iblockID int, names []string) (map[string]bitrix.ListElement, error)

	ListContacts(ctx context.Context, p bitrix.ListParams) ([]bitrix.Contact, error)
	CreateContact(ctx context.Context, fields map[string]any) (int64, error)

	ListDeals(ctx context.Context, p bitrix.ListParams) ([]bitrix.Deal, error)
	CreateDeal(ctx context.Context, fields map[string]any) (int64, error)
	UpdateDeal(ctx context.Context, dealID int64, fields map[string]any) error

	Ping(ctx context.Context) error
}

var _ Gateway = (*bitrix.Client)(nil)
