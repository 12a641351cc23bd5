package synth

import "sync"

// ProgramTable is the ordered catalog of programs for one session.
//
// Indices never change during the table's lifetime. The table is read by the
// render loop (Lookup) and by the controller (Names); the mutex is held only
// for the lookup itself.
type ProgramTable struct {
	mu      sync.Mutex
	entries []Entry
}

// NewProgramTable copies entries into a new table.
func NewProgramTable(entries []Entry) *ProgramTable {
	t := &ProgramTable{entries: make([]Entry, len(entries))}
	copy(t.entries, entries)
	return t
}

// Len returns the number of programs.
func (t *ProgramTable) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// Names lists the display names in index order.
func (t *ProgramTable) Names() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	names := make([]string, len(t.entries))
	for i, e := range t.entries {
		names[i] = e.Name
	}
	return names
}

// Lookup returns the entry at index. ok is false when index is out of range.
func (t *ProgramTable) Lookup(index int) (e Entry, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if index < 0 || index >= len(t.entries) {
		return Entry{}, false
	}
	return t.entries[index], true
}
