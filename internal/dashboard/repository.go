package dashboard

import (
	"context"
	"time"

	"github.com/appetiteclub/kitchenboard/pkg/enums/itemstatus"
)

// OrderItemSource gives read access to the authoritative item store.
type OrderItemSource interface {
	// ListActive returns cooking items in pending or preparing status.
	ListActive(ctx context.Context) ([]OrderItem, error)
	// Get returns nil, nil when the item does not exist.
	Get(ctx context.Context, id OrderItemID) (*OrderItem, error)
}

// StatusChange is one conditional status write. Stores must apply it, and the
// served side effect when requested, atomically or not at all.
type StatusChange struct {
	ItemID          OrderItemID
	OrderID         OrderID
	GroupKey        string
	From            itemstatus.Status
	To              itemstatus.Status
	Notes           string
	ExpectedVersion int64
	At              time.Time

	// MarkServed bumps the party's served count and clears IsEmptyTablePriority
	// on every item of the party (GroupKey and OrderID).
	MarkServed bool
}

// OrderItemMutator persists status changes. A version mismatch is reported as
// ErrConcurrencyConflict.
type OrderItemMutator interface {
	PersistStatus(ctx context.Context, change StatusChange) (*OrderItem, error)
}

// ReadySource is implemented by stores that can list recently ready items.
type ReadySource interface {
	ListReady(ctx context.Context, since time.Time) ([]OrderItem, error)
}

// OrderItemCreator registers new items coming from the order service.
type OrderItemCreator interface {
	// Create inserts item. For items at a table it sets ServedDishesCount and
	// IsEmptyTablePriority from the item's party, atomically with the insert.
	Create(ctx context.Context, item *OrderItem) error
}

// OrderItemStore is what the concrete backends implement.
type OrderItemStore interface {
	OrderItemSource
	OrderItemMutator
	ReadySource
	OrderItemCreator
}

// ApplyStatusChange mutates item in memory the way stores persist change.
// Stores use it so timestamps and versions stay consistent across backends.
func ApplyStatusChange(item *OrderItem, change StatusChange) {
	at := change.At
	item.Status = change.To
	if change.Notes != "" {
		item.Notes = change.Notes
	}
	switch change.To {
	case itemstatus.Statuses.Preparing:
		item.StartedAt = &at
	case itemstatus.Statuses.Ready:
		item.ReadyAt = &at
	case itemstatus.Statuses.Served:
		item.ServedAt = &at
	case itemstatus.Statuses.Canceled:
		item.CanceledAt = &at
	}
	item.UpdatedAt = at
	item.Version = change.ExpectedVersion + 1
}
