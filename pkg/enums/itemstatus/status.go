package itemstatus

import "strings"

// Status is the preparation state of a single order item.
type Status string

func (s Status) Code() string {
	return string(s)
}

func (s Status) Label() string {
	parts := strings.Split(string(s), "-")
	for i := range parts {
		if len(parts[i]) > 0 {
			parts[i] = strings.ToUpper(parts[i][:1]) + parts[i][1:]
		}
	}
	return strings.Join(parts, " ")
}

// Active reports whether items in this status belong on the kitchen board.
func (s Status) Active() bool {
	return s == Statuses.Pending || s == Statuses.Preparing
}

// Terminal reports whether no further transition can leave this status.
func (s Status) Terminal() bool {
	return s == Statuses.Served || s == Statuses.Canceled
}

type Enum struct {
	Pending   Status
	Preparing Status
	Ready     Status
	Served    Status
	Canceled  Status
}

var Statuses = Enum{
	Pending:   "pending",
	Preparing: "preparing",
	Ready:     "ready",
	Served:    "served",
	Canceled:  "canceled",
}

var All = []Status{
	Statuses.Pending,
	Statuses.Preparing,
	Statuses.Ready,
	Statuses.Served,
	Statuses.Canceled,
}

// ByName returns the status for a given name, or nil if not found.
// "cancelled" is accepted as an alias used by the order service.
func ByName(name string) *Status {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "cancelled" {
		name = Statuses.Canceled.Code()
	}
	for _, s := range All {
		if s.Code() == name {
			return &s
		}
	}
	return nil
}
