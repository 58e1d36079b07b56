package pkg

type Map[K comparable, V any] map[K]V

func (m Map[K, V]) Get(key K) V {
	return m[key]
}

func (m Map[K, V]) Set(key K, value V) {
	m[key] = value
}

func (m Map[K, V]) Has(key K) bool {
	_, ok := m[key]
	return ok
}

func (m Map[K, V]) Delete(key K) {
	delete(m, key)
}

// InsertSortMap is a map that remembers the order keys were first inserted in.
type InsertSortMap[K comparable, V any] struct {
	Idx    Map[K, V]
	Sorted []K
}

func NewInsertSortMap[K comparable, V any]() *InsertSortMap[K, V] {
	return &InsertSortMap[K, V]{Idx: Map[K, V]{}, Sorted: []K{}}
}

func (m *InsertSortMap[K, V]) Len() int { return len(m.Sorted) }

func (m *InsertSortMap[K, V]) Get(key K) V { return m.Idx.Get(key) }

func (m *InsertSortMap[K, V]) Has(key K) bool { return m.Idx.Has(key) }

// Lookup is Get with a presence flag.
func (m *InsertSortMap[K, V]) Lookup(key K) (V, bool) {
	v, ok := m.Idx[key]
	return v, ok
}

func (m *InsertSortMap[K, V]) Push(key K, value V) {
	m.Idx.Set(key, value)
	m.Sorted = append(m.Sorted, key)
}

// Set replaces the value of an existing key in place, or pushes a new one.
func (m *InsertSortMap[K, V]) Set(key K, value V) {
	if m.Idx.Has(key) {
		m.Idx.Set(key, value)
		return
	}
	m.Push(key, value)
}

func (m *InsertSortMap[K, V]) Delete(key K) {
	if !m.Idx.Has(key) {
		return
	}
	m.Idx.Delete(key)
	for i, k := range m.Sorted {
		if k == key {
			m.Sorted = append(m.Sorted[:i], m.Sorted[i+1:]...)
			break
		}
	}
}

func (m *InsertSortMap[K, V]) Keys() []K {
	return append([]K(nil), m.Sorted...)
}

// Clone is a shallow copy.
func (m *InsertSortMap[K, V]) Clone() *InsertSortMap[K, V] {
	c := &InsertSortMap[K, V]{Idx: make(Map[K, V], len(m.Idx)), Sorted: append([]K{}, m.Sorted...)}
	for k, v := range m.Idx {
		c.Idx[k] = v
	}
	return c
}
