package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/kitchenboard/pkg/enums/itemstatus"
)

// TransitionGuard validates and applies status changes to single items. It
// holds no state between calls and never retries a conflicting write.
type TransitionGuard struct {
	source  OrderItemSource
	mutator OrderItemMutator
	clock   func() time.Time
	logger  apt.Logger
}

func NewTransitionGuard(source OrderItemSource, mutator OrderItemMutator, clock func() time.Time, logger apt.Logger) *TransitionGuard {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	if clock == nil {
		clock = time.Now
	}
	return &TransitionGuard{
		source:  source,
		mutator: mutator,
		clock:   clock,
		logger:  logger,
	}
}

// Apply moves item id to target. expectedVersion is the caller's optimistic
// token; AnyVersion defers to the version read here.
func (g *TransitionGuard) Apply(ctx context.Context, id OrderItemID, target itemstatus.Status, notes string, expectedVersion int64) (*OrderItem, error) {
	updated, _, err := g.apply(ctx, id, target, notes, expectedVersion)
	return updated, err
}

func (g *TransitionGuard) apply(ctx context.Context, id OrderItemID, target itemstatus.Status, notes string, expectedVersion int64) (*OrderItem, StatusChange, error) {
	if itemstatus.ByName(target.Code()) == nil {
		return nil, StatusChange{}, invalidInput("unknown status %q", target)
	}

	item, err := g.source.Get(ctx, id)
	if err != nil {
		return nil, StatusChange{}, fmt.Errorf("cannot get order item %s: %w", id, err)
	}
	if item == nil {
		return nil, StatusChange{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	if err := checkTransition(item.Status, target); err != nil {
		return nil, StatusChange{}, err
	}

	if expectedVersion != AnyVersion && expectedVersion != item.Version {
		return nil, StatusChange{}, fmt.Errorf("%w: item %s at version %d, caller expected %d", ErrConcurrencyConflict, id, item.Version, expectedVersion)
	}

	change := StatusChange{
		ItemID:          item.ID,
		OrderID:         item.OrderID,
		GroupKey:        GroupKeyFor(item.TableID, item.OrderID),
		From:            item.Status,
		To:              target,
		Notes:           notes,
		ExpectedVersion: item.Version,
		At:              g.clock().UTC(),
		MarkServed:      target == itemstatus.Statuses.Served,
	}

	updated, err := g.mutator.PersistStatus(ctx, change)
	if err != nil {
		return nil, change, fmt.Errorf("cannot persist status for %s: %w", id, err)
	}

	g.logger.Debug("order item transitioned", "item_id", id.String(), "from", change.From.Code(), "to", target.Code(), "version", updated.Version)
	return updated, change, nil
}
