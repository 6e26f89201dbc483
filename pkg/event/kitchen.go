package event

import "time"

const (
	KitchenItemsTopic             = "kitchen.items"
	EventKitchenItemStatusChanged = "kitchen.item.status_changed"
)

// KitchenItemStatusChangedEvent is emitted after a status transition has been
// committed for an order item.
type KitchenItemStatusChangedEvent struct {
	EventType      string    `json:"event_type"`
	OccurredAt     time.Time `json:"occurred_at"`
	OrderItemID    string    `json:"order_item_id"`
	OrderID        string    `json:"order_id"`
	TableID        string    `json:"table_id,omitempty"`
	MenuItemName   string    `json:"menu_item_name,omitempty"`
	NewStatus      string    `json:"new_status"`
	PreviousStatus string    `json:"previous_status"`
	Notes          string    `json:"notes,omitempty"`
	Version        int64     `json:"version"`

	// Table rollup after the transition
	ServedDishesCount    int  `json:"served_dishes_count"`
	IsEmptyTablePriority bool `json:"is_empty_table_priority"`
}
