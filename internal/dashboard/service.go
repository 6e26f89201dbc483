package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/events"
	"github.com/appetiteclub/kitchenboard/pkg/enums/itemstatus"
	"github.com/appetiteclub/kitchenboard/pkg/event"
)

// UpdateRequest is a status change coming from a kitchen terminal.
type UpdateRequest struct {
	ItemID          OrderItemID
	Target          itemstatus.Status
	Notes           string
	ExpectedVersion int64
}

// Service orchestrates the dashboard reads and routes writes through the
// transition guard.
type Service struct {
	source    OrderItemSource
	guard     *TransitionGuard
	scorer    *Scorer
	cfg       ScoringConfig
	publisher events.Publisher
	clock     func() time.Time
	logger    apt.Logger
}

type ServiceDeps struct {
	Source    OrderItemSource
	Mutator   OrderItemMutator
	Publisher events.Publisher
	Clock     func() time.Time
}

func NewService(deps ServiceDeps, cfg ScoringConfig, logger apt.Logger) *Service {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Service{
		source:    deps.Source,
		guard:     NewTransitionGuard(deps.Source, deps.Mutator, clock, logger),
		scorer:    NewScorer(cfg),
		cfg:       cfg,
		publisher: deps.Publisher,
		clock:     clock,
		logger:    logger,
	}
}

// GetDashboard builds groups and stats from one snapshot and one clock reading.
func (s *Service) GetDashboard(ctx context.Context) (*Dashboard, error) {
	now := s.clock()

	scored, skipped, err := s.scoreActive(ctx, now)
	if err != nil {
		return nil, err
	}

	d := &Dashboard{
		Groups:      GroupByTable(scored),
		Stats:       Aggregate(scored, s.cfg),
		Skipped:     skipped,
		GeneratedAt: now.UTC(),
	}

	if s.cfg.ReadyVisibility > 0 {
		if rs, ok := s.source.(ReadySource); ok {
			ready, err := rs.ListReady(ctx, now.Add(-s.cfg.ReadyVisibility))
			if err != nil {
				return nil, fmt.Errorf("cannot list ready items: %w", err)
			}
			d.Ready = ready
		}
	}

	return d, nil
}

func (s *Service) GetGroupedView(ctx context.Context) ([]TableGroup, error) {
	scored, _, err := s.scoreActive(ctx, s.clock())
	if err != nil {
		return nil, err
	}
	return GroupByTable(scored), nil
}

func (s *Service) GetStats(ctx context.Context) (CookingStats, error) {
	scored, _, err := s.scoreActive(ctx, s.clock())
	if err != nil {
		return CookingStats{}, err
	}
	return Aggregate(scored, s.cfg), nil
}

// UpdateStatus delegates to the guard and returns its errors unchanged.
func (s *Service) UpdateStatus(ctx context.Context, req UpdateRequest) (*OrderItem, error) {
	updated, change, err := s.guard.apply(ctx, req.ItemID, req.Target, req.Notes, req.ExpectedVersion)
	if err != nil {
		return nil, err
	}

	s.publishStatusChange(ctx, updated, change.From)
	return updated, nil
}

func (s *Service) scoreActive(ctx context.Context, now time.Time) ([]ScoredItem, int, error) {
	items, err := s.source.ListActive(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("cannot list active items: %w", err)
	}

	scored := make([]ScoredItem, 0, len(items))
	skipped := 0
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}
		if !item.RequiresCooking || !item.Status.Active() {
			continue
		}
		si, err := s.scorer.ScoreItem(item, now)
		if err != nil {
			skipped++
			s.logger.Info("skipping unscorable item", "item_id", item.ID.String(), "error", err)
			continue
		}
		scored = append(scored, si)
	}
	return scored, skipped, nil
}

func (s *Service) publishStatusChange(ctx context.Context, item *OrderItem, previous itemstatus.Status) {
	if s.publisher == nil {
		return
	}

	evt := event.KitchenItemStatusChangedEvent{
		EventType:            event.EventKitchenItemStatusChanged,
		OccurredAt:           item.UpdatedAt,
		OrderItemID:          item.ID.String(),
		OrderID:              item.OrderID.String(),
		TableID:              item.TableID,
		MenuItemName:         item.Name,
		NewStatus:            item.Status.Code(),
		PreviousStatus:       previous.Code(),
		Notes:                item.Notes,
		Version:              item.Version,
		ServedDishesCount:    item.ServedDishesCount,
		IsEmptyTablePriority: item.IsEmptyTablePriority,
	}

	eventBytes, err := json.Marshal(evt)
	if err != nil {
		s.logger.Errorf("Failed to encode status_changed event: %v", err)
		return
	}
	if err := s.publisher.Publish(ctx, event.KitchenItemsTopic, eventBytes); err != nil {
		s.logger.Errorf("Failed to publish status_changed event: %v", err)
	}
}
