package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/kitchenboard/internal/dashboard"
	"github.com/appetiteclub/kitchenboard/pkg/enums/itemstatus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	collectionName        = "order_items"
	partiesCollectionName = "table_parties"
)

type OrderItemRepo struct {
	client     *mongo.Client
	db         *mongo.Database
	collection *mongo.Collection
	parties    *mongo.Collection
	logger     apt.Logger
	config     *apt.Config
}

// party tracks served dishes for one order at one table.
type party struct {
	ID                string            `bson:"_id"`
	GroupKey          string            `bson:"group_key"`
	OrderID           dashboard.OrderID `bson:"order_id"`
	ServedDishesCount int               `bson:"served_dishes_count"`
	TouchedAt         time.Time         `bson:"touched_at"`
}

func partyID(groupKey string, orderID dashboard.OrderID) string {
	return groupKey + "/" + orderID.String()
}

func NewOrderItemRepo(config *apt.Config, logger apt.Logger) *OrderItemRepo {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &OrderItemRepo{
		logger: logger,
		config: config,
	}
}

func (r *OrderItemRepo) Start(ctx context.Context) error {
	mongoURL, _ := r.config.GetString("db.mongo.url")
	if mongoURL == "" {
		mongoURL = "mongodb://localhost:27017"
	}

	dbName, _ := r.config.GetString("db.mongo.name")
	if dbName == "" {
		dbName = "kitchenboard"
	}

	clientOptions := options.Client().ApplyURI(mongoURL).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(10 * time.Second)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return fmt.Errorf("cannot connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("cannot ping MongoDB: %w", err)
	}

	if err := r.attach(ctx, client, dbName); err != nil {
		return err
	}

	r.logger.Infof("Connected to MongoDB: %s, database: %s, collection: %s", mongoURL, dbName, collectionName)
	return nil
}

func (r *OrderItemRepo) attach(ctx context.Context, client *mongo.Client, dbName string) error {
	r.client = client
	r.db = client.Database(dbName)
	r.collection = r.db.Collection(collectionName)
	r.parties = r.db.Collection(partiesCollectionName)

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "requires_cooking", Value: 1}}},
		{Keys: bson.D{{Key: "group_key", Value: 1}, {Key: "order_id", Value: 1}}},
		{Keys: bson.D{{Key: "order_time", Value: 1}}},
		{Keys: bson.D{{Key: "ready_at", Value: 1}}},
	}
	if _, err := r.collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("cannot create order item indexes: %w", err)
	}
	if _, err := r.parties.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: bson.D{{Key: "group_key", Value: 1}}}); err != nil {
		return fmt.Errorf("cannot create party indexes: %w", err)
	}
	return nil
}

func (r *OrderItemRepo) GetDatabase() *mongo.Database {
	return r.db
}

func (r *OrderItemRepo) Stop(ctx context.Context) error {
	if r.client != nil {
		if err := r.client.Disconnect(ctx); err != nil {
			return fmt.Errorf("cannot disconnect from MongoDB: %w", err)
		}
		r.logger.Info("Disconnected from MongoDB")
	}
	return nil
}

// Create inserts item. Items at a table take their served count and
// empty-table flag from the party document in the same transaction, so a
// concurrent serve of the party conflicts and one side is retried.
func (r *OrderItemRepo) Create(ctx context.Context, item *dashboard.OrderItem) error {
	item.BeforeCreate()

	_, err := r.withTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		if !item.Takeaway() {
			served, err := r.touchParty(sc, item.GroupKey, item.OrderID, 0)
			if err != nil {
				return nil, err
			}
			item.ServedDishesCount = served
			item.IsEmptyTablePriority = served == 0
		}
		if _, err := r.collection.InsertOne(sc, item); err != nil {
			return nil, fmt.Errorf("cannot insert order item: %w", err)
		}
		return nil, nil
	})
	return err
}

func (r *OrderItemRepo) withTransaction(ctx context.Context, fn func(sc mongo.SessionContext) (interface{}, error)) (interface{}, error) {
	session, err := r.client.StartSession()
	if err != nil {
		return nil, fmt.Errorf("cannot start session: %w", err)
	}
	defer session.EndSession(ctx)

	return session.WithTransaction(ctx, fn)
}

// touchParty adds delta to the party's served count, creating the document
// when missing, and returns the resulting count. touched_at always changes so
// the write conflicts with any other transaction on the same party.
func (r *OrderItemRepo) touchParty(sc mongo.SessionContext, groupKey string, orderID dashboard.OrderID, delta int) (int, error) {
	update := bson.M{
		"$inc": bson.M{"served_dishes_count": delta},
		"$set": bson.M{
			"group_key":  groupKey,
			"order_id":   orderID,
			"touched_at": time.Now().UTC(),
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var p party
	err := r.parties.FindOneAndUpdate(sc, bson.M{"_id": partyID(groupKey, orderID)}, update, opts).Decode(&p)
	if err != nil {
		return 0, fmt.Errorf("cannot update party %s: %w", groupKey, err)
	}
	return p.ServedDishesCount, nil
}

func (r *OrderItemRepo) Get(ctx context.Context, id dashboard.OrderItemID) (*dashboard.OrderItem, error) {
	var item dashboard.OrderItem
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&item)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("cannot find order item: %w", err)
	}
	return &item, nil
}

func (r *OrderItemRepo) ListActive(ctx context.Context) ([]dashboard.OrderItem, error) {
	query := bson.M{
		"requires_cooking": true,
		"status": bson.M{"$in": bson.A{
			itemstatus.Statuses.Pending,
			itemstatus.Statuses.Preparing,
		}},
	}
	return r.find(ctx, query, options.Find().SetSort(bson.D{{Key: "order_time", Value: 1}}))
}

func (r *OrderItemRepo) ListReady(ctx context.Context, since time.Time) ([]dashboard.OrderItem, error) {
	query := bson.M{
		"status":   itemstatus.Statuses.Ready,
		"ready_at": bson.M{"$gte": since},
	}
	return r.find(ctx, query, options.Find().SetSort(bson.D{{Key: "ready_at", Value: 1}}))
}

func (r *OrderItemRepo) find(ctx context.Context, query bson.M, opts *options.FindOptions) ([]dashboard.OrderItem, error) {
	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("cannot find order items: %w", err)
	}
	defer cursor.Close(ctx)

	items := make([]dashboard.OrderItem, 0)
	if err := cursor.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("cannot decode order items: %w", err)
	}
	return items, nil
}

// PersistStatus runs the conditional status write and the party-wide served
// update in one transaction. MongoDB must run as a replica set for this.
func (r *OrderItemRepo) PersistStatus(ctx context.Context, change dashboard.StatusChange) (*dashboard.OrderItem, error) {
	result, err := r.withTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return r.persistStatus(sc, change)
	})
	if err != nil {
		return nil, err
	}
	return result.(*dashboard.OrderItem), nil
}

func (r *OrderItemRepo) persistStatus(sc mongo.SessionContext, change dashboard.StatusChange) (*dashboard.OrderItem, error) {
	served := 0
	if change.MarkServed {
		var err error
		served, err = r.touchParty(sc, change.GroupKey, change.OrderID, 1)
		if err != nil {
			return nil, err
		}
	}

	filter := bson.M{"_id": change.ItemID, "version": change.ExpectedVersion}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated dashboard.OrderItem
	err := r.collection.FindOneAndUpdate(sc, filter, bson.M{"$set": statusUpdate(change)}, opts).Decode(&updated)
	if errors.Is(err, mongo.ErrNoDocuments) {
		n, cerr := r.collection.CountDocuments(sc, bson.M{"_id": change.ItemID})
		if cerr != nil {
			return nil, fmt.Errorf("cannot check order item: %w", cerr)
		}
		if n == 0 {
			return nil, fmt.Errorf("%w: %s", dashboard.ErrNotFound, change.ItemID)
		}
		return nil, fmt.Errorf("%w: %s expected version %d", dashboard.ErrConcurrencyConflict, change.ItemID, change.ExpectedVersion)
	}
	if err != nil {
		return nil, fmt.Errorf("cannot update order item status: %w", err)
	}

	if change.MarkServed {
		_, err := r.collection.UpdateMany(sc,
			bson.M{"group_key": change.GroupKey, "order_id": change.OrderID},
			bson.M{"$set": bson.M{
				"served_dishes_count":     served,
				"is_empty_table_priority": false,
			}})
		if err != nil {
			return nil, fmt.Errorf("cannot mark table %s served: %w", change.GroupKey, err)
		}
		updated.ServedDishesCount = served
		updated.IsEmptyTablePriority = false
	}

	return &updated, nil
}

// statusUpdate is the $set document matching dashboard.ApplyStatusChange.
func statusUpdate(change dashboard.StatusChange) bson.M {
	var item dashboard.OrderItem
	dashboard.ApplyStatusChange(&item, change)

	set := bson.M{
		"status":     item.Status,
		"updated_at": item.UpdatedAt,
		"version":    item.Version,
	}
	if change.Notes != "" {
		set["notes"] = change.Notes
	}
	switch change.To {
	case itemstatus.Statuses.Preparing:
		set["started_at"] = item.StartedAt
	case itemstatus.Statuses.Ready:
		set["ready_at"] = item.ReadyAt
	case itemstatus.Statuses.Served:
		set["served_at"] = item.ServedAt
	case itemstatus.Statuses.Canceled:
		set["canceled_at"] = item.CanceledAt
	}
	return set
}
