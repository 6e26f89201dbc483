package dashboard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/seed"
	"github.com/appetiteclub/kitchenboard/pkg/enums/itemstatus"
	"github.com/appetiteclub/kitchenboard/pkg/enums/ordertype"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
)

const kitchenboardDemoSeedApplication = "kitchenboard_demo"

type demoItem struct {
	name      string
	quantity  int
	age       time.Duration
	quickCook bool
	status    itemstatus.Status
}

type demoOrder struct {
	tableID   string
	orderType ordertype.Type
	items     []demoItem
}

var demoOrders = []demoOrder{
	{
		tableID:   "T1",
		orderType: ordertype.Types.DineIn,
		items: []demoItem{
			{name: "Ribeye steak", quantity: 2, age: 22 * time.Minute, status: itemstatus.Statuses.Preparing},
			{name: "Lemonade", quantity: 2, age: 22 * time.Minute, quickCook: true, status: itemstatus.Statuses.Pending},
		},
	},
	{
		tableID:   "T4",
		orderType: ordertype.Types.DineIn,
		items: []demoItem{
			{name: "Mushroom risotto", quantity: 1, age: 9 * time.Minute, status: itemstatus.Statuses.Pending},
			{name: "Tiramisu", quantity: 1, age: 9 * time.Minute, quickCook: true, status: itemstatus.Statuses.Pending},
		},
	},
	{
		orderType: ordertype.Types.Takeaway,
		items: []demoItem{
			{name: "Margherita pizza", quantity: 1, age: 14 * time.Minute, status: itemstatus.Statuses.Preparing},
		},
	},
	{
		orderType: ordertype.Types.Delivery,
		items: []demoItem{
			{name: "Pad thai", quantity: 3, age: 4 * time.Minute, status: itemstatus.Statuses.Pending},
		},
	},
}

// ApplyDemoSeeds creates a small demo floor of active items.
func ApplyDemoSeeds(ctx context.Context, creator OrderItemCreator, db *mongo.Database, logger apt.Logger) error {
	if db == nil {
		return errors.New("database is required for demo seeding")
	}
	if logger == nil {
		logger = apt.NewNoopLogger()
	}

	demoSeeds := []seed.Seed{
		{
			ID:          "2026-10-01_demo_kitchenboard_items_v1",
			Description: "Create demo active order items across tables and takeaway",
			Run: func(ctx context.Context) error {
				return seedDemoItems(ctx, creator, time.Now().UTC(), logger)
			},
		},
	}

	tracker := seed.NewMongoTracker(db)

	logger.Info("Applying demo kitchenboard seeds")
	if err := seed.Apply(ctx, tracker, demoSeeds, kitchenboardDemoSeedApplication); err != nil {
		return err
	}
	logger.Info("Demo kitchenboard seeds applied successfully")
	return nil
}

func seedDemoItems(ctx context.Context, creator OrderItemCreator, now time.Time, logger apt.Logger) error {
	for _, o := range demoOrders {
		orderID := uuid.New()
		for _, d := range o.items {
			item := buildDemoItem(orderID, o, d, now)
			if err := creator.Create(ctx, item); err != nil {
				return fmt.Errorf("create demo item %s: %w", d.name, err)
			}
			logger.Info("Created demo item", "name", d.name, "group", item.GroupKey, "status", item.Status.Code())
		}
	}
	return nil
}

func buildDemoItem(orderID OrderID, o demoOrder, d demoItem, now time.Time) *OrderItem {
	item := NewOrderItem(orderID, o.tableID, o.orderType)
	item.Name = d.name
	item.Quantity = d.quantity
	item.IsQuickCook = d.quickCook
	item.OrderTime = now.Add(-d.age)
	item.Status = d.status
	if d.status == itemstatus.Statuses.Preparing {
		startedAt := item.OrderTime.Add(d.age / 2)
		item.StartedAt = &startedAt
	}
	return item
}

// DemoSeedingFunc returns an apt lifecycle OnStart hook. dbFn is resolved when
// the hook runs so the repository has connected by then.
func DemoSeedingFunc(seedCtx context.Context, creator OrderItemCreator, dbFn func() *mongo.Database, logger apt.Logger) func(ctx context.Context) error {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}

	return func(ctx context.Context) error {
		db := dbFn()
		logger.Info("Starting demo kitchenboard seeding in background")
		go func() {
			if err := ApplyDemoSeeds(seedCtx, creator, db, logger); err != nil && !errors.Is(err, context.Canceled) {
				logger.Errorf("Demo kitchenboard seeds failed: %v", err)
			}
		}()
		return nil
	}
}
