package dispatcher

// FilterKind discriminates the query filter variants.
type FilterKind int

const (
	// FilterNone matches everything.
	FilterNone FilterKind = iota
	// FilterByCorrelationLabel matches runs whose correlation label equals
	// the filter id.
	FilterByCorrelationLabel
	// FilterByRunID matches hosts belonging to the external run with the
	// filter id.
	FilterByRunID
)

// Filter is an explicit tagged query filter. The zero value matches
// everything.
type Filter struct {
	kind FilterKind
	id   string
}

// NoFilter returns the match-everything filter.
func NoFilter() Filter {
	return Filter{}
}

// ByCorrelationLabel filters runs on the playbook-run correlation label.
func ByCorrelationLabel(id string) Filter {
	return Filter{kind: FilterByCorrelationLabel, id: id}
}

// ByRunID filters run hosts on their owning external run id.
func ByRunID(id string) Filter {
	return Filter{kind: FilterByRunID, id: id}
}

// Kind returns the filter variant.
func (f Filter) Kind() FilterKind { return f.kind }

// ID returns the filter argument; empty for FilterNone.
func (f Filter) ID() string { return f.id }
