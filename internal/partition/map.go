// Package partition maps account identifiers onto named partitions of the keyspace.
// See doc.go for complete package documentation.
package partition

import (
	"errors"
	"fmt"
	"strconv"

	"golang.org/x/exp/slices"
)

// Range assigns the inclusive identifier interval [Min, Max] to a named partition.
//
// Ranges are immutable once handed to NewMap. A Map never shares its range
// slice with callers; Ranges returns a copy.
//
// Example:
//
//	r := Range{Name: "parte1", Min: 101, Max: 1350}
type Range struct {
	// Name is the partition that owns every id inside the interval.
	// It doubles as the directory and file stem on disk.
	Name string `yaml:"name" json:"name"`

	// Min is the lowest id owned by this range (inclusive).
	Min int64 `yaml:"min" json:"min"`

	// Max is the highest id owned by this range (inclusive).
	Max int64 `yaml:"max" json:"max"`
}

// Contains reports whether id falls inside the range.
func (r Range) Contains(id int64) bool {
	return id >= r.Min && id <= r.Max
}

// Fallback names the partition for ids outside every configured range.
// The partition is Prefix followed by ((id mod Modulus) + 1), using a
// non-negative modulus so negative ids still map somewhere.
type Fallback struct {
	Prefix  string `yaml:"prefix" json:"prefix"`
	Modulus int64  `yaml:"modulus" json:"modulus"`
}

// Map is the authoritative id → partition function for one worker.
//
// A Map is a pure function of its range table: it holds no mutable state,
// so every method is safe for concurrent use without locking.
//
// Lookup model:
//
//	┌──────────────────────────────────────┐
//	│                Map                   │
//	├──────────────────────────────────────┤
//	│  ranges:   ordered, contiguous       │
//	│  fallback: prefix + (id mod n) + 1   │
//	├──────────────────────────────────────┤
//	│  101  → parte1                       │
//	│  2000 → parte2                       │
//	│  9999 → parte4 (fallback, 9999%4=3)  │
//	└──────────────────────────────────────┘
//
// Performance:
//   - PartitionFor: O(log n) binary search over the range table
//   - Ranges: O(n) copy
type Map struct {
	ranges   []Range
	fallback Fallback
}

// DefaultRanges returns the four contiguous id bands the cluster was
// originally provisioned with.
func DefaultRanges() []Range {
	return []Range{
		{Name: "parte1", Min: 101, Max: 1350},
		{Name: "parte2", Min: 1351, Max: 2600},
		{Name: "parte3", Min: 2601, Max: 3850},
		{Name: "parte4", Min: 3851, Max: 5100},
	}
}

// DefaultFallback spreads out-of-range ids across the four default partitions.
func DefaultFallback() Fallback {
	return Fallback{Prefix: "parte", Modulus: 4}
}

// DefaultMap returns the Map built from DefaultRanges and DefaultFallback.
func DefaultMap() *Map {
	m, err := NewMap(DefaultRanges(), DefaultFallback())
	if err != nil {
		// The default table is static; failing here is a programming error.
		panic(err)
	}
	return m
}

// NewMap validates a range table and returns a Map over it.
//
// Validation rules:
//   - every range has a non-empty name and Min <= Max
//   - ranges are sorted by Min before checking
//   - consecutive ranges neither overlap nor leave a gap (next.Min == prev.Max+1)
//   - the fallback has a non-empty prefix and a positive modulus
//
// An empty range table is valid: every id then goes through the fallback.
//
// Parameters:
//   - ranges: the id bands, in any order
//   - fallback: partition naming for ids outside every band
//
// Returns:
//   - a Map ready for lookups
//   - an error describing the first violated rule
func NewMap(ranges []Range, fallback Fallback) (*Map, error) {
	if fallback.Prefix == "" {
		return nil, errors.New("fallback prefix cannot be empty")
	}
	if fallback.Modulus <= 0 {
		return nil, fmt.Errorf("fallback modulus must be positive, got %d", fallback.Modulus)
	}

	sorted := slices.Clone(ranges)
	slices.SortFunc(sorted, func(a, b Range) int {
		switch {
		case a.Min < b.Min:
			return -1
		case a.Min > b.Min:
			return 1
		}
		return 0
	})

	for i, r := range sorted {
		if r.Name == "" {
			return nil, fmt.Errorf("range %d has no partition name", i)
		}
		if r.Min > r.Max {
			return nil, fmt.Errorf("range %s: min %d exceeds max %d", r.Name, r.Min, r.Max)
		}
		if i == 0 {
			continue
		}
		prev := sorted[i-1]
		if r.Min <= prev.Max {
			return nil, fmt.Errorf("range %s overlaps %s", r.Name, prev.Name)
		}
		if r.Min != prev.Max+1 {
			return nil, fmt.Errorf("gap between %s (max %d) and %s (min %d)", prev.Name, prev.Max, r.Name, r.Min)
		}
	}

	return &Map{ranges: sorted, fallback: fallback}, nil
}

// PartitionFor returns the partition that owns id.
//
// The function is total: ids outside every range resolve through the
// fallback, so the result is never empty.
//
// Example:
//
//	m := DefaultMap()
//	m.PartitionFor(101)  // "parte1"
//	m.PartitionFor(7)    // "parte4"
func (m *Map) PartitionFor(id int64) string {
	i, found := slices.BinarySearchFunc(m.ranges, id, func(r Range, target int64) int {
		switch {
		case r.Max < target:
			return -1
		case r.Min > target:
			return 1
		}
		return 0
	})
	if found {
		return m.ranges[i].Name
	}

	n := id % m.fallback.Modulus
	if n < 0 {
		n += m.fallback.Modulus
	}
	return m.fallback.Prefix + strconv.FormatInt(n+1, 10)
}

// Owns reports whether id maps to a partition inside set.
func (m *Map) Owns(set Set, id int64) bool {
	return set.Contains(m.PartitionFor(id))
}

// Ranges returns a copy of the validated, sorted range table.
func (m *Map) Ranges() []Range {
	return slices.Clone(m.ranges)
}

// Fallback returns the fallback naming rule.
func (m *Map) Fallback() Fallback {
	return m.fallback
}
