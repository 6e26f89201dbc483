package dashboard

import "github.com/appetiteclub/kitchenboard/pkg/enums/itemstatus"

// Aggregate computes the dashboard widgets from the same scored set the
// grouper receives.
func Aggregate(scored []ScoredItem, cfg ScoringConfig) CookingStats {
	var stats CookingStats
	if len(scored) == 0 {
		return stats
	}

	emptyTables := make(map[string]struct{})
	var totalWait float64
	var longest *ScoredItem

	for i := range scored {
		si := &scored[i]
		item := si.Item

		stats.TotalCookingItems++
		stats.TotalQuantity += item.Quantity
		totalWait += si.WaitMinutes

		switch item.Status {
		case itemstatus.Statuses.Pending:
			stats.PendingItemsCount++
		case itemstatus.Statuses.Preparing:
			stats.PreparingItemsCount++
		}

		if item.IsQuickCook {
			stats.QuickCookItemsCount++
		}
		if item.IsEmptyTablePriority {
			emptyTables[GroupKeyFor(item.TableID, item.OrderID)] = struct{}{}
		}
		if si.Score > cfg.HighThreshold {
			stats.HighPriorityItemsCount++
		}
		if si.Score > cfg.CriticalThreshold {
			stats.CriticalItemsCount++
		}
		if i == 0 || si.Score > stats.HighestPriorityScore {
			stats.HighestPriorityScore = si.Score
		}
		if longest == nil || si.WaitMinutes > longest.WaitMinutes {
			longest = si
		}
	}

	stats.EmptyTablesCount = len(emptyTables)
	stats.AverageWaitingTime = totalWait / float64(stats.TotalCookingItems)

	key := GroupKeyFor(longest.Item.TableID, longest.Item.OrderID)
	stats.LongestWaitingTable = &key

	return stats
}
