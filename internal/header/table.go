package header

// Table is an ordered key/value table. Setting an existing key replaces its
// value in place and keeps its original position.
type Table struct {
	entries []Entry
	index   map[string]int
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{index: make(map[string]int)}
}

// Set stores value under key.
func (t *Table) Set(key, value string, line int) {
	if i, ok := t.index[key]; ok {
		t.entries[i].Value = value
		t.entries[i].Line = line
		return
	}
	t.index[key] = len(t.entries)
	t.entries = append(t.entries, Entry{Key: key, Value: value, Line: line})
}

// Get returns the value stored under key.
func (t *Table) Get(key string) (string, bool) {
	if t == nil {
		return "", false
	}
	i, ok := t.index[key]
	if !ok {
		return "", false
	}
	return t.entries[i].Value, true
}

// Len returns the number of keys.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

// Entries returns a copy of the entries in first-seen order.
func (t *Table) Entries() []Entry {
	if t == nil {
		return nil
	}
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Map returns the table as a plain map.
func (t *Table) Map() map[string]string {
	m := make(map[string]string, t.Len())
	for _, e := range t.Entries() {
		m[e.Key] = e.Value
	}
	return m
}
