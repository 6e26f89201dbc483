package dashboard

import (
	"time"

	"github.com/appetiteclub/kitchenboard/pkg/enums/itemstatus"
	"github.com/appetiteclub/kitchenboard/pkg/enums/ordertype"
	"github.com/google/uuid"
)

type OrderItemID = uuid.UUID
type OrderID = uuid.UUID

// AnyVersion skips the caller-side version check; the store still performs
// its conditional write against the version read by the guard.
const AnyVersion int64 = 0

const takeawayKeyPrefix = "takeaway-"

type OrderItem struct {
	ID                   OrderItemID       `bson:"_id" json:"id"`
	OrderID              OrderID           `bson:"order_id" json:"order_id"`
	TableID              string            `bson:"table_id,omitempty" json:"table_id,omitempty"`
	Name                 string            `bson:"name" json:"name"`
	Quantity             int               `bson:"quantity" json:"quantity"`
	OrderTime            time.Time         `bson:"order_time" json:"order_time"`
	IsQuickCook          bool              `bson:"is_quick_cook" json:"is_quick_cook"`
	RequiresCooking      bool              `bson:"requires_cooking" json:"requires_cooking"`
	IsEmptyTablePriority bool              `bson:"is_empty_table_priority" json:"is_empty_table_priority"`
	ServedDishesCount    int               `bson:"served_dishes_count" json:"served_dishes_count"`
	Status               itemstatus.Status `bson:"status" json:"status"`
	OrderType            ordertype.Type    `bson:"order_type" json:"order_type"`
	Notes                string            `bson:"notes,omitempty" json:"notes,omitempty"`

	// GroupKey is the table or takeaway bucket the item is served with.
	// Stores persist it so table-wide updates can target it directly.
	GroupKey string `bson:"group_key" json:"group_key"`

	StartedAt  *time.Time `bson:"started_at,omitempty" json:"started_at,omitempty"`
	ReadyAt    *time.Time `bson:"ready_at,omitempty" json:"ready_at,omitempty"`
	ServedAt   *time.Time `bson:"served_at,omitempty" json:"served_at,omitempty"`
	CanceledAt *time.Time `bson:"canceled_at,omitempty" json:"canceled_at,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
	Version   int64     `bson:"version" json:"version"`
}

// NewOrderItem returns a pending item with a fresh ID and its group key set.
func NewOrderItem(orderID OrderID, tableID string, orderType ordertype.Type) *OrderItem {
	item := &OrderItem{
		ID:              uuid.New(),
		OrderID:         orderID,
		TableID:         tableID,
		OrderType:       orderType,
		Quantity:        1,
		RequiresCooking: true,
		Status:          itemstatus.Statuses.Pending,
	}
	item.BeforeCreate()
	return item
}

func (i *OrderItem) GetID() uuid.UUID {
	return i.ID
}

func (i *OrderItem) ResourceType() string {
	return "kitchen-item"
}

func (i *OrderItem) EnsureID() {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
}

// BeforeCreate fills identity, timestamps, version and group key.
func (i *OrderItem) BeforeCreate() {
	i.EnsureID()
	now := time.Now().UTC()
	if i.OrderTime.IsZero() {
		i.OrderTime = now
	}
	i.CreatedAt = now
	i.UpdatedAt = now
	if i.Version == 0 {
		i.Version = 1
	}
	if i.Status == "" {
		i.Status = itemstatus.Statuses.Pending
	}
	i.GroupKey = GroupKeyFor(i.TableID, i.OrderID)
}

// Takeaway reports whether the item has no physical table to be served at.
func (i *OrderItem) Takeaway() bool {
	return i.TableID == ""
}

// GroupKeyFor returns the table identifier, or a per-order takeaway key when the
// item has no table.
func GroupKeyFor(tableID string, orderID OrderID) string {
	if tableID != "" {
		return tableID
	}
	return takeawayKeyPrefix + orderID.String()
}

// WaitMinutes is the elapsed time since the order was placed. It is negative
// when now precedes the order time.
func (i *OrderItem) WaitMinutes(now time.Time) float64 {
	return now.Sub(i.OrderTime).Minutes()
}

// ScoredItem pairs an active item with the score computed for one read.
type ScoredItem struct {
	Item        OrderItem `json:"item"`
	Score       float64   `json:"score"`
	WaitMinutes float64   `json:"wait_minutes"`
}

type TableGroup struct {
	Key             string         `json:"key"`
	TableID         string         `json:"table_id,omitempty"`
	OrderID         *OrderID       `json:"order_id,omitempty"`
	Takeaway        bool           `json:"takeaway"`
	OrderType       ordertype.Type `json:"order_type"`
	TotalItems      int            `json:"total_items"`
	HighestPriority float64        `json:"highest_priority"`
	OldestOrderTime time.Time      `json:"oldest_order_time"`
	Items           []ScoredItem   `json:"items"`
}

type CookingStats struct {
	QuickCookItemsCount    int     `json:"quick_cook_items_count"`
	EmptyTablesCount       int     `json:"empty_tables_count"`
	TotalCookingItems      int     `json:"total_cooking_items"`
	TotalQuantity          int     `json:"total_quantity"`
	PendingItemsCount      int     `json:"pending_items_count"`
	PreparingItemsCount    int     `json:"preparing_items_count"`
	AverageWaitingTime     float64 `json:"average_waiting_time"`
	HighPriorityItemsCount int     `json:"high_priority_items_count"`
	CriticalItemsCount     int     `json:"critical_items_count"`
	HighestPriorityScore   float64 `json:"highest_priority_score"`
	LongestWaitingTable    *string `json:"longest_waiting_table,omitempty"`
}

// Dashboard is a single consistent snapshot of the kitchen board.
type Dashboard struct {
	Groups      []TableGroup `json:"groups"`
	Stats       CookingStats `json:"stats"`
	Ready       []OrderItem  `json:"ready,omitempty"`
	Skipped     int          `json:"skipped,omitempty"`
	GeneratedAt time.Time    `json:"generated_at"`
}
