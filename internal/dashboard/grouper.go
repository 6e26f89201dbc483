package dashboard

import (
	"sort"
)

// GroupByTable partitions scored items into table groups ordered for display:
// highest priority first, then oldest order, then key.
func GroupByTable(scored []ScoredItem) []TableGroup {
	index := make(map[string]int)
	groups := make([]TableGroup, 0)

	for _, si := range scored {
		key := GroupKeyFor(si.Item.TableID, si.Item.OrderID)

		pos, ok := index[key]
		if !ok {
			g := TableGroup{
				Key:             key,
				TableID:         si.Item.TableID,
				Takeaway:        si.Item.Takeaway(),
				OrderType:       si.Item.OrderType,
				HighestPriority: si.Score,
				OldestOrderTime: si.Item.OrderTime,
			}
			if g.Takeaway {
				orderID := si.Item.OrderID
				g.OrderID = &orderID
			}
			groups = append(groups, g)
			pos = len(groups) - 1
			index[key] = pos
		}

		g := &groups[pos]
		g.Items = append(g.Items, si)
		g.TotalItems += si.Item.Quantity
		if si.Score > g.HighestPriority {
			g.HighestPriority = si.Score
		}
		if si.Item.OrderTime.Before(g.OldestOrderTime) {
			g.OldestOrderTime = si.Item.OrderTime
			g.OrderType = si.Item.OrderType
		}
	}

	for i := range groups {
		sortScored(groups[i].Items)
	}

	sort.SliceStable(groups, func(i, j int) bool {
		a, b := groups[i], groups[j]
		if a.HighestPriority != b.HighestPriority {
			return a.HighestPriority > b.HighestPriority
		}
		if !a.OldestOrderTime.Equal(b.OldestOrderTime) {
			return a.OldestOrderTime.Before(b.OldestOrderTime)
		}
		return a.Key < b.Key
	})

	return groups
}

func sortScored(items []ScoredItem) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if !a.Item.OrderTime.Equal(b.Item.OrderTime) {
			return a.Item.OrderTime.Before(b.Item.OrderTime)
		}
		return a.Item.ID.String() < b.Item.ID.String()
	})
}
