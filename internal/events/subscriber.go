package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/events"
	"github.com/appetiteclub/kitchenboard/internal/dashboard"
	"github.com/appetiteclub/kitchenboard/pkg/enums/itemstatus"
	"github.com/appetiteclub/kitchenboard/pkg/enums/ordertype"
	"github.com/appetiteclub/kitchenboard/pkg/event"
	"github.com/google/uuid"
)

// ItemStore is the slice of the store the subscriber writes through.
type ItemStore interface {
	Get(ctx context.Context, id dashboard.OrderItemID) (*dashboard.OrderItem, error)
	dashboard.OrderItemCreator
}

// StatusUpdater routes cancellations through the transition guard.
type StatusUpdater interface {
	UpdateStatus(ctx context.Context, req dashboard.UpdateRequest) (*dashboard.OrderItem, error)
}

// OrderItemSubscriber registers order items published by the order service
// and cancels them when the order service does.
type OrderItemSubscriber struct {
	subscriber events.Subscriber
	store      ItemStore
	updater    StatusUpdater
	logger     apt.Logger
}

func NewOrderItemSubscriber(
	subscriber events.Subscriber,
	store ItemStore,
	updater StatusUpdater,
	logger apt.Logger,
) *OrderItemSubscriber {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &OrderItemSubscriber{
		subscriber: subscriber,
		store:      store,
		updater:    updater,
		logger:     logger,
	}
}

func (s *OrderItemSubscriber) Start(ctx context.Context) error {
	s.logger.Info("Starting OrderItemSubscriber", "topic", event.OrderItemsTopic)

	if err := s.subscriber.Subscribe(ctx, event.OrderItemsTopic, s.handleEvent); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", event.OrderItemsTopic, err)
	}

	s.logger.Info("OrderItemSubscriber started successfully")
	return nil
}

func (s *OrderItemSubscriber) handleEvent(ctx context.Context, msg []byte) error {
	var evt event.OrderItemEvent
	if err := json.Unmarshal(msg, &evt); err != nil {
		s.logger.Errorf("Failed to unmarshal event: %v", err)
		return nil
	}

	if !evt.RequiresCooking {
		return nil
	}

	switch evt.EventType {
	case event.EventOrderItemCreated:
		return s.handleCreated(ctx, &evt)
	case event.EventOrderItemCancelled:
		return s.handleCancelled(ctx, &evt)
	case event.EventOrderItemUpdated:
		s.logger.Debug("ignoring order item update", "order_item_id", evt.OrderItemID)
	default:
		s.logger.Infof("Unknown event type: %s", evt.EventType)
	}

	return nil
}

func (s *OrderItemSubscriber) handleCreated(ctx context.Context, evt *event.OrderItemEvent) error {
	itemID, err := uuid.Parse(evt.OrderItemID)
	if err != nil {
		s.logger.Errorf("Invalid order_item_id: %v", err)
		return nil
	}

	orderID, err := uuid.Parse(evt.OrderID)
	if err != nil {
		s.logger.Errorf("Invalid order_id: %v", err)
		return nil
	}

	if evt.Quantity < 1 {
		s.logger.Errorf("Dropping order item %s with quantity %d", evt.OrderItemID, evt.Quantity)
		return nil
	}

	existing, err := s.store.Get(ctx, itemID)
	if err != nil {
		s.logger.Errorf("Error checking existing item: %v", err)
		return err
	}
	if existing != nil {
		return nil
	}

	item := buildItem(itemID, orderID, evt)

	if err := s.store.Create(ctx, item); err != nil {
		s.logger.Errorf("Failed to create order item: %v", err)
		return err
	}

	s.logger.Info("Registered order item", "order_item_id", item.ID.String(), "group", item.GroupKey, "empty_table", item.IsEmptyTablePriority)
	return nil
}

// buildItem maps a created event to a pending item. The store derives the
// empty-table flag when it inserts the item.
func buildItem(itemID, orderID uuid.UUID, evt *event.OrderItemEvent) *dashboard.OrderItem {
	orderType := ordertype.Types.DineIn
	if evt.OrderType != "" {
		if ot := ordertype.ByName(evt.OrderType); ot != nil {
			orderType = *ot
		}
	}
	if evt.TableID == "" && orderType == ordertype.Types.DineIn {
		orderType = ordertype.Types.Takeaway
	}

	tableID := evt.TableID
	if !orderType.HasTable() {
		tableID = ""
	}

	item := &dashboard.OrderItem{
		ID:          itemID,
		OrderID:     orderID,
		TableID:     tableID,
		Name:        evt.MenuItemName,
		Quantity:    evt.Quantity,
		OrderTime:   evt.OrderedAt,
		IsQuickCook: evt.QuickCook,
		Notes:       evt.Notes,
		OrderType:   orderType,
		Status:      itemstatus.Statuses.Pending,

		RequiresCooking: true,
	}
	if item.OrderTime.IsZero() {
		item.OrderTime = evt.OccurredAt
	}

	return item
}

func (s *OrderItemSubscriber) handleCancelled(ctx context.Context, evt *event.OrderItemEvent) error {
	itemID, err := uuid.Parse(evt.OrderItemID)
	if err != nil {
		return nil
	}

	_, err = s.updater.UpdateStatus(ctx, dashboard.UpdateRequest{
		ItemID:          itemID,
		Target:          itemstatus.Statuses.Canceled,
		Notes:           evt.Notes,
		ExpectedVersion: dashboard.AnyVersion,
	})
	switch {
	case err == nil:
		s.logger.Infof("Canceled order item %s", evt.OrderItemID)
		return nil
	case errors.Is(err, dashboard.ErrNotFound), errors.Is(err, dashboard.ErrIllegalTransition):
		s.logger.Info("Ignoring cancellation", "order_item_id", evt.OrderItemID, "reason", err.Error())
		return nil
	default:
		s.logger.Errorf("Failed to cancel order item %s: %v", evt.OrderItemID, err)
		return err
	}
}
