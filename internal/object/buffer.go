package object

// SymbolTable is an append-only list of interned strings indexed by
// integer (spec.md §4.2, §GLOSSARY). `Add` never de-duplicates;
// `EnsureIndex` does. Method names and module-variable names share
// this shape, grounded on the teacher's internal/bytecode
// symbol-table-like constant pools generalized to the explicit
// add/index-of/ensure trio spec.md §4.2 names.
type SymbolTable struct {
	names []string
}

func NewSymbolTable() *SymbolTable { return &SymbolTable{} }

// Add always appends and returns the new index, regardless of
// duplicates.
func (t *SymbolTable) Add(name string) int {
	t.names = append(t.names, name)
	return len(t.names) - 1
}

// IndexOf linear-scans for name, returning -1 if absent.
func (t *SymbolTable) IndexOf(name string) int {
	for i, n := range t.names {
		if n == name {
			return i
		}
	}
	return -1
}

// Ensure returns the existing index for name or appends it.
func (t *SymbolTable) Ensure(name string) int {
	if i := t.IndexOf(name); i >= 0 {
		return i
	}
	return t.Add(name)
}

func (t *SymbolTable) Name(index int) string {
	if index < 0 || index >= len(t.names) {
		return ""
	}
	return t.names[index]
}

func (t *SymbolTable) Len() int { return len(t.names) }
