package device

import (
	"sort"
	"strconv"
	"strings"
)

// Multiset is an ordered collection of parameter values that keeps duplicates.
// Values are kept in ascending order.
type Multiset struct {
	values []int
}

// NewMultiset builds a multiset from values in any order.
func NewMultiset(values ...int) Multiset {
	var m Multiset
	for _, v := range values {
		m.Insert(v)
	}
	return m
}

// Insert adds a value, keeping ascending order. Equal values are placed after existing ones.
func (m *Multiset) Insert(v int) {
	i := sort.SearchInts(m.values, v+1)
	m.values = append(m.values, 0)
	copy(m.values[i+1:], m.values[i:])
	m.values[i] = v
}

// Len returns the number of values, counting duplicates.
func (m Multiset) Len() int {
	return len(m.values)
}

// Values returns a copy of the values in ascending order.
func (m Multiset) Values() []int {
	out := make([]int, len(m.values))
	copy(out, m.values)
	return out
}

// Clone returns an independent copy of the multiset.
func (m Multiset) Clone() Multiset {
	return Multiset{values: m.Values()}
}

// String renders the values ascending and comma separated. An empty multiset renders as "".
func (m Multiset) String() string {
	parts := make([]string, len(m.values))
	for i, v := range m.values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}
