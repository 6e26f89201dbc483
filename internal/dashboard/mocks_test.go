package dashboard

import (
	"context"
	"sync"
	"time"

	"github.com/appetiteclub/kitchenboard/pkg/enums/itemstatus"
	"github.com/appetiteclub/kitchenboard/pkg/enums/ordertype"
	"github.com/google/uuid"
)

// MockOrderItemStore is an in-memory OrderItemStore for tests.
type MockOrderItemStore struct {
	mu      sync.Mutex
	items   map[OrderItemID]*OrderItem
	parties map[partyKey]int

	ListActiveFunc    func(ctx context.Context) ([]OrderItem, error)
	GetFunc           func(ctx context.Context, id OrderItemID) (*OrderItem, error)
	PersistStatusFunc func(ctx context.Context, change StatusChange) (*OrderItem, error)
	ListReadyFunc     func(ctx context.Context, since time.Time) ([]OrderItem, error)
	CreateFunc        func(ctx context.Context, item *OrderItem) error
}

func NewMockOrderItemStore() *MockOrderItemStore {
	return &MockOrderItemStore{
		items:   make(map[OrderItemID]*OrderItem),
		parties: make(map[partyKey]int),
	}
}

type partyKey struct {
	groupKey string
	orderID  OrderID
}

// AddItem is a helper to seed the mock store
func (m *MockOrderItemStore) AddItem(item OrderItem) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if item.GroupKey == "" {
		item.GroupKey = GroupKeyFor(item.TableID, item.OrderID)
	}
	if item.Version == 0 {
		item.Version = 1
	}
	m.items[item.ID] = &item
}

func (m *MockOrderItemStore) ListActive(ctx context.Context) ([]OrderItem, error) {
	if m.ListActiveFunc != nil {
		return m.ListActiveFunc(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]OrderItem, 0, len(m.items))
	for _, item := range m.items {
		if item.RequiresCooking && item.Status.Active() {
			result = append(result, *item)
		}
	}
	return result, nil
}

func (m *MockOrderItemStore) Get(ctx context.Context, id OrderItemID) (*OrderItem, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[id]
	if !ok {
		return nil, nil
	}
	copied := *item
	return &copied, nil
}

func (m *MockOrderItemStore) PersistStatus(ctx context.Context, change StatusChange) (*OrderItem, error) {
	if m.PersistStatusFunc != nil {
		return m.PersistStatusFunc(ctx, change)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[change.ItemID]
	if !ok {
		return nil, ErrNotFound
	}
	if item.Version != change.ExpectedVersion {
		return nil, ErrConcurrencyConflict
	}
	ApplyStatusChange(item, change)
	if change.MarkServed {
		key := partyKey{groupKey: change.GroupKey, orderID: change.OrderID}
		m.parties[key]++
		for _, other := range m.items {
			if other.GroupKey != change.GroupKey || other.OrderID != change.OrderID {
				continue
			}
			other.ServedDishesCount = m.parties[key]
			other.IsEmptyTablePriority = false
		}
	}
	copied := *item
	return &copied, nil
}

func (m *MockOrderItemStore) ListReady(ctx context.Context, since time.Time) ([]OrderItem, error) {
	if m.ListReadyFunc != nil {
		return m.ListReadyFunc(ctx, since)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []OrderItem
	for _, item := range m.items {
		if item.Status == itemstatus.Statuses.Ready && item.ReadyAt != nil && !item.ReadyAt.Before(since) {
			result = append(result, *item)
		}
	}
	return result, nil
}

func (m *MockOrderItemStore) Create(ctx context.Context, item *OrderItem) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, item)
	}
	item.BeforeCreate()
	m.mu.Lock()
	if !item.Takeaway() {
		served := m.parties[partyKey{groupKey: item.GroupKey, orderID: item.OrderID}]
		item.ServedDishesCount = served
		item.IsEmptyTablePriority = served == 0
	}
	m.mu.Unlock()
	m.AddItem(*item)
	return nil
}

// Snapshot returns a copy of the stored item.
func (m *MockOrderItemStore) Snapshot(id OrderItemID) OrderItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.items[id]
}

// MockPublisher is a test mock for events.Publisher
type MockPublisher struct {
	mu              sync.Mutex
	PublishedEvents []PublishedEvent
	PublishFunc     func(ctx context.Context, topic string, data []byte) error
}

type PublishedEvent struct {
	Topic string
	Data  []byte
}

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{
		PublishedEvents: make([]PublishedEvent, 0),
	}
}

func (m *MockPublisher) Publish(ctx context.Context, topic string, data []byte) error {
	if m.PublishFunc != nil {
		return m.PublishFunc(ctx, topic, data)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PublishedEvents = append(m.PublishedEvents, PublishedEvent{Topic: topic, Data: data})
	return nil
}

var testNow = time.Date(2026, 3, 14, 19, 30, 0, 0, time.UTC)

func fixedClock() time.Time {
	return testNow
}

// activeItem builds a pending cooking item ordered minutesAgo before testNow.
func activeItem(tableID string, minutesAgo float64) OrderItem {
	item := NewOrderItem(uuid.New(), tableID, ordertype.Types.DineIn)
	item.Name = "Dish"
	item.Quantity = 1
	item.RequiresCooking = true
	item.Status = itemstatus.Statuses.Pending
	item.OrderTime = testNow.Add(-time.Duration(minutesAgo * float64(time.Minute)))
	return *item
}
