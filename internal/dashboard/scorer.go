package dashboard

import (
	"math"
	"time"

	"github.com/appetiteclub/kitchenboard/pkg/enums/itemstatus"
)

// Scorer computes the priority of an active item. Higher is more urgent.
type Scorer struct {
	cfg ScoringConfig
}

func NewScorer(cfg ScoringConfig) *Scorer {
	return &Scorer{cfg: cfg}
}

// Score is a pure function of the item and now; it is never cached on the item.
func (s *Scorer) Score(item OrderItem, now time.Time) (float64, error) {
	if !item.RequiresCooking {
		return 0, invalidInput("item %s requires no cooking", item.ID)
	}
	if !item.Status.Active() {
		return 0, invalidInput("item %s is %s, not active", item.ID, item.Status)
	}
	if item.Quantity < 1 {
		return 0, invalidInput("item %s has quantity %d", item.ID, item.Quantity)
	}
	if now.Before(item.OrderTime) {
		return 0, invalidInput("item %s ordered after now (%s > %s)", item.ID, item.OrderTime.Format(time.RFC3339), now.Format(time.RFC3339))
	}

	score := math.Min(item.WaitMinutes(now), s.cfg.WaitCeilingMinutes)
	if item.IsQuickCook {
		score += s.cfg.QuickCookBonus
	}
	if item.IsEmptyTablePriority {
		score += s.cfg.EmptyTableBonus
	}
	if item.Status == itemstatus.Statuses.Preparing {
		score += s.cfg.InProgressBonus
	}
	return score, nil
}

// ScoreItem wraps Score and keeps the unclamped wait alongside it.
func (s *Scorer) ScoreItem(item OrderItem, now time.Time) (ScoredItem, error) {
	score, err := s.Score(item, now)
	if err != nil {
		return ScoredItem{}, err
	}
	return ScoredItem{Item: item, Score: score, WaitMinutes: item.WaitMinutes(now)}, nil
}
