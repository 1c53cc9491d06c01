package object

// Map is an open-addressed, linear-probed hash table over tagged
// Values (spec.md §4.2). Keys may be any value except Undefined,
// which is reserved as the empty-slot sentinel; a tombstone is
// Key==Undefined, Value==True and means "probe chain continues".
//
// Grounded on spec.md §4.2's resolution of the source's known bugs
// (§9 "Open questions"): insertion never claims a tombstone (it keeps
// probing, so a later duplicate key already past the tombstone is
// still found), and lookup never treats a tombstone as a terminating
// miss.
type Map struct {
	ObjHeader
	entries  []mapEntry
	count    int
	capacity int
}

type mapEntry struct {
	Key   Value
	Value Value
}

const (
	mapMinCapacity = 64
	mapGrowFactor  = 4
	mapLoadPercent = 0.8
)

func NewMap() *Map {
	return &Map{ObjHeader: ObjHeader{Kind: KindMap}}
}

func (m *Map) Count() int    { return m.count }
func (m *Map) Capacity() int { return m.capacity }

func isEmptySlot(e mapEntry) bool {
	return e.Key.IsUndefined() && e.Value.IsBool() && !e.Value.AsBool()
}

func isTombstone(e mapEntry) bool {
	return e.Key.IsUndefined() && e.Value.IsBool() && e.Value.AsBool()
}

// Get returns the value for key, or Undefined if absent.
func (m *Map) Get(key Value) Value {
	if m.capacity == 0 {
		return Undefined
	}
	idx := m.find(key)
	if idx < 0 {
		return Undefined
	}
	return m.entries[idx].Value
}

// find returns the index of the live entry matching key, or -1 on a
// true miss (a genuinely empty slot reached while probing).
func (m *Map) find(key Value) int {
	h := Hash(key)
	idx := int(h % uint64(m.capacity))
	for {
		e := m.entries[idx]
		if isEmptySlot(e) {
			return -1
		}
		if !isTombstone(e) && Equal(e.Key, key) {
			return idx
		}
		idx = (idx + 1) % m.capacity
	}
}

// Set inserts or overwrites key -> value. Returns true if this was a
// new key (count increased).
func (m *Map) Set(key Value, value Value) bool {
	if m.capacity == 0 || m.count+1 > int(float64(m.capacity)*mapLoadPercent) {
		m.grow()
	}
	return m.insertInto(m.entries, m.capacity, key, value)
}

func (m *Map) insertInto(entries []mapEntry, capacity int, key, value Value) bool {
	h := Hash(key)
	idx := int(h % uint64(capacity))
	for {
		e := entries[idx]
		if isEmptySlot(e) {
			entries[idx] = mapEntry{Key: key, Value: value}
			m.count++
			return true
		}
		if isTombstone(e) {
			// Never claim a tombstone during insertion: keep probing so
			// a later occurrence of the same key, if one exists past the
			// tombstone, is found and overwritten instead of shadowed
			// (spec.md §9's corrected insertion policy).
			idx = (idx + 1) % capacity
			continue
		}
		if Equal(e.Key, key) {
			entries[idx].Value = value
			return false
		}
		idx = (idx + 1) % capacity
	}
}

// Remove turns key's slot into a tombstone. Returns true if key was
// present.
func (m *Map) Remove(key Value) (Value, bool) {
	if m.capacity == 0 {
		return Undefined, false
	}
	idx := m.find(key)
	if idx < 0 {
		return Undefined, false
	}
	old := m.entries[idx].Value
	m.entries[idx] = mapEntry{Key: Undefined, Value: True}
	m.count--
	if m.count == 0 {
		m.entries = nil
		m.capacity = 0
	} else if m.capacity > mapMinCapacity && m.count < int(float64(m.capacity)/mapGrowFactor*mapLoadPercent) {
		m.shrink()
	}
	return old, true
}

func (m *Map) grow() {
	newCap := m.capacity * mapGrowFactor
	if newCap < mapMinCapacity {
		newCap = mapMinCapacity
	}
	m.resize(newCap)
}

func (m *Map) shrink() {
	newCap := m.capacity / mapGrowFactor
	if newCap < mapMinCapacity {
		newCap = mapMinCapacity
	}
	m.resize(newCap)
}

func (m *Map) resize(newCap int) {
	newEntries := make([]mapEntry, newCap)
	for i := range newEntries {
		newEntries[i] = mapEntry{Key: Undefined, Value: False}
	}
	old := m.entries
	m.count = 0
	for _, e := range old {
		if !isEmptySlot(e) && !isTombstone(e) {
			m.insertInto(newEntries, newCap, e.Key, e.Value)
		}
	}
	m.entries = newEntries
	m.capacity = newCap
}

// Each calls fn for every live (key, value) pair. Iteration order is
// slot order, not insertion order.
func (m *Map) Each(fn func(key, value Value)) {
	for _, e := range m.entries {
		if !isEmptySlot(e) && !isTombstone(e) {
			fn(e.Key, e.Value)
		}
	}
}

// Next supports the iterate/iteratorValue protocol (spec.md §4.5.4):
// it returns the slot index of the first live entry at or after index
// (0-based, so 0 starts the scan), or -1 when none is left. Callers
// pass the previous result plus one to advance, and read the entry
// with EntryAt.
func (m *Map) Next(index int) int {
	for i := index; i < m.capacity; i++ {
		if !isEmptySlot(m.entries[i]) && !isTombstone(m.entries[i]) {
			return i
		}
	}
	return -1
}

func (m *Map) EntryAt(index int) (Value, Value) {
	e := m.entries[index]
	return e.Key, e.Value
}
