package event

import "time"

const (
	OrderItemsTopic         = "orders.items"
	EventOrderItemCreated   = "order.item.created"
	EventOrderItemUpdated   = "order.item.updated"
	EventOrderItemCancelled = "order.item.cancelled"
)

// OrderItemEvent represents an order item event published by the order service.
// Kitchenboard consumes it to register items awaiting preparation.
type OrderItemEvent struct {
	EventType       string    `json:"event_type"`
	OccurredAt      time.Time `json:"occurred_at"`
	OrderID         string    `json:"order_id"`
	OrderItemID     string    `json:"order_item_id"`
	OrderType       string    `json:"order_type,omitempty"`
	OrderedAt       time.Time `json:"ordered_at,omitempty"`
	Quantity        int       `json:"quantity"`
	Notes           string    `json:"notes,omitempty"`
	RequiresCooking bool      `json:"requires_production"`
	QuickCook       bool      `json:"quick_cook,omitempty"`

	// Denormalized data for display
	MenuItemName string `json:"menu_item_name,omitempty"`
	TableID      string `json:"table_id,omitempty"`
	TableNumber  string `json:"table_number,omitempty"`
}
