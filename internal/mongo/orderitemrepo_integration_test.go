package mongo

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/kitchenboard/internal/dashboard"
	"github.com/appetiteclub/kitchenboard/pkg/enums/itemstatus"
	"github.com/appetiteclub/kitchenboard/pkg/enums/ordertype"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// newReplicaSetRepo connects to KITCHENBOARD_TEST_MONGO_URL on a throwaway
// database. Transactions need a replica set, so anything else is skipped.
func newReplicaSetRepo(t *testing.T) *OrderItemRepo {
	t.Helper()

	url := os.Getenv("KITCHENBOARD_TEST_MONGO_URL")
	if url == "" {
		t.Skip("KITCHENBOARD_TEST_MONGO_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(url).SetServerSelectionTimeout(5*time.Second))
	if err != nil {
		t.Skipf("cannot connect to MongoDB: %v", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		t.Skipf("cannot ping MongoDB: %v", err)
	}

	var hello bson.M
	if err := client.Database("admin").RunCommand(ctx, bson.D{{Key: "hello", Value: 1}}).Decode(&hello); err != nil {
		_ = client.Disconnect(ctx)
		t.Skipf("cannot run hello: %v", err)
	}
	if _, ok := hello["setName"]; !ok {
		_ = client.Disconnect(ctx)
		t.Skip("MongoDB is not running as a replica set")
	}

	dbName := "kitchenboard_test_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	repo := NewOrderItemRepo(apt.NewConfig(), apt.NewNoopLogger())
	if err := repo.attach(ctx, client, dbName); err != nil {
		_ = client.Disconnect(ctx)
		t.Fatalf("attach() error = %v", err)
	}

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = repo.GetDatabase().Drop(ctx)
		_ = repo.Stop(ctx)
	})
	return repo
}

func createTestItem(t *testing.T, repo *OrderItemRepo, orderID dashboard.OrderID, tableID string) *dashboard.OrderItem {
	t.Helper()
	item := dashboard.NewOrderItem(orderID, tableID, ordertype.Types.DineIn)
	item.Name = "Risotto"
	if err := repo.Create(context.Background(), item); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	return item
}

func advance(t *testing.T, repo *OrderItemRepo, item *dashboard.OrderItem, to itemstatus.Status) *dashboard.OrderItem {
	t.Helper()
	current, err := repo.Get(context.Background(), item.ID)
	if err != nil || current == nil {
		t.Fatalf("Get() = %v, %v", current, err)
	}
	updated, err := repo.PersistStatus(context.Background(), dashboard.StatusChange{
		ItemID:          current.ID,
		OrderID:         current.OrderID,
		GroupKey:        current.GroupKey,
		From:            current.Status,
		To:              to,
		ExpectedVersion: current.Version,
		At:              time.Now().UTC(),
		MarkServed:      to == itemstatus.Statuses.Served,
	})
	if err != nil {
		t.Fatalf("PersistStatus(%s) error = %v", to, err)
	}
	return updated
}

func TestOrderItemRepoPersistStatus(t *testing.T) {
	repo := newReplicaSetRepo(t)
	ctx := context.Background()

	item := createTestItem(t, repo, uuid.New(), "T1")
	updated := advance(t, repo, item, itemstatus.Statuses.Preparing)
	if updated.Status != itemstatus.Statuses.Preparing || updated.Version != 2 || updated.StartedAt == nil {
		t.Errorf("updated = %s v%d started %v", updated.Status, updated.Version, updated.StartedAt)
	}

	tests := []struct {
		name   string
		change dashboard.StatusChange
		errIs  error
	}{
		{
			name: "staleVersion",
			change: dashboard.StatusChange{
				ItemID:          item.ID,
				To:              itemstatus.Statuses.Ready,
				ExpectedVersion: 1,
				At:              time.Now().UTC(),
			},
			errIs: dashboard.ErrConcurrencyConflict,
		},
		{
			name: "missingItem",
			change: dashboard.StatusChange{
				ItemID:          uuid.New(),
				To:              itemstatus.Statuses.Ready,
				ExpectedVersion: 1,
				At:              time.Now().UTC(),
			},
			errIs: dashboard.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := repo.PersistStatus(ctx, tt.change)
			if !errors.Is(err, tt.errIs) {
				t.Errorf("PersistStatus() error = %v, want %v", err, tt.errIs)
			}
		})
	}

	stored, err := repo.Get(ctx, item.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if stored.Status != itemstatus.Statuses.Preparing || stored.Version != 2 {
		t.Errorf("stored = %s v%d after rejected writes, want preparing v2", stored.Status, stored.Version)
	}
}

func TestOrderItemRepoServedScopedToParty(t *testing.T) {
	repo := newReplicaSetRepo(t)
	ctx := context.Background()

	firstOrder := uuid.New()
	served := createTestItem(t, repo, firstOrder, "T4")
	sibling := createTestItem(t, repo, firstOrder, "T4")
	if !served.IsEmptyTablePriority || !sibling.IsEmptyTablePriority {
		t.Fatal("first order at T4 should start with IsEmptyTablePriority")
	}

	advance(t, repo, served, itemstatus.Statuses.Preparing)
	advance(t, repo, served, itemstatus.Statuses.Ready)
	advance(t, repo, served, itemstatus.Statuses.Served)

	got, err := repo.Get(ctx, sibling.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.IsEmptyTablePriority || got.ServedDishesCount != 1 {
		t.Errorf("sibling: empty=%v served=%d, want false 1", got.IsEmptyTablePriority, got.ServedDishesCount)
	}

	next := createTestItem(t, repo, uuid.New(), "T4")
	if !next.IsEmptyTablePriority || next.ServedDishesCount != 0 {
		t.Errorf("new order at T4: empty=%v served=%d, want true 0", next.IsEmptyTablePriority, next.ServedDishesCount)
	}

	late := createTestItem(t, repo, firstOrder, "T4")
	if late.IsEmptyTablePriority || late.ServedDishesCount != 1 {
		t.Errorf("late dish of served order: empty=%v served=%d, want false 1", late.IsEmptyTablePriority, late.ServedDishesCount)
	}
}
