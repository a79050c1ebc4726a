package domain

// Row is one relational row (or a composed response fragment), keyed by
// column name. Columns that are NULL in storage are absent from the map.
type Row map[string]any

func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Table describes one relational table well enough for the generic store
// to build statements against it.
type Table struct {
	Name      string
	IDCol     string
	ParentCol string // empty for parent-entity tables
	Kind      string // human label used in error details, e.g. "Hotel"
}
