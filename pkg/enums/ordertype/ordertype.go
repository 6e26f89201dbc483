package ordertype

import "strings"

type Type string

func (t Type) Code() string {
	return string(t)
}

func (t Type) Label() string {
	parts := strings.Split(string(t), "-")
	for i := range parts {
		if len(parts[i]) > 0 {
			parts[i] = strings.ToUpper(parts[i][:1]) + parts[i][1:]
		}
	}
	return strings.Join(parts, " ")
}

// HasTable reports whether orders of this type are served at a physical table.
func (t Type) HasTable() bool {
	return t == Types.DineIn
}

type Enum struct {
	DineIn   Type
	Takeaway Type
	Delivery Type
}

var Types = Enum{
	DineIn:   "dine-in",
	Takeaway: "takeaway",
	Delivery: "delivery",
}

var All = []Type{
	Types.DineIn,
	Types.Takeaway,
	Types.Delivery,
}

// ByName returns the order type for a given name, or nil if not found.
// Underscore spellings (dine_in, takeout) used by older producers are accepted.
func ByName(name string) *Type {
	name = strings.ToLower(strings.TrimSpace(name))
	switch name {
	case "dine_in", "dinein":
		name = Types.DineIn.Code()
	case "takeout", "take-away", "take_away":
		name = Types.Takeaway.Code()
	}
	for _, t := range All {
		if t.Code() == name {
			return &t
		}
	}
	return nil
}
