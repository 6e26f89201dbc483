package dashboard

import "github.com/appetiteclub/kitchenboard/pkg/enums/itemstatus"

type edge struct {
	from itemstatus.Status
	to   itemstatus.Status
}

var allowedTransitions = map[edge]struct{}{
	{itemstatus.Statuses.Pending, itemstatus.Statuses.Preparing}:  {},
	{itemstatus.Statuses.Preparing, itemstatus.Statuses.Ready}:    {},
	{itemstatus.Statuses.Ready, itemstatus.Statuses.Served}:       {},
	{itemstatus.Statuses.Pending, itemstatus.Statuses.Canceled}:   {},
	{itemstatus.Statuses.Preparing, itemstatus.Statuses.Canceled}: {},
	{itemstatus.Statuses.Ready, itemstatus.Statuses.Canceled}:     {},
}

// CanTransition reports whether from -> to is a legal edge.
func CanTransition(from, to itemstatus.Status) bool {
	_, ok := allowedTransitions[edge{from, to}]
	return ok
}

// NextStatuses lists the statuses reachable in one step from s.
func NextStatuses(s itemstatus.Status) []itemstatus.Status {
	next := make([]itemstatus.Status, 0, 2)
	for _, to := range itemstatus.All {
		if CanTransition(s, to) {
			next = append(next, to)
		}
	}
	return next
}

func checkTransition(from, to itemstatus.Status) error {
	if !CanTransition(from, to) {
		return &TransitionError{From: from, To: to}
	}
	return nil
}
