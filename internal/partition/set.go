package partition

import (
	"fmt"
	"strings"

	"golang.org/x/exp/slices"
)

// Set is an immutable, sorted collection of partition names owned by a worker.
// The zero value is an empty set.
type Set struct {
	names []string
}

// NewSet builds a Set from names, dropping blanks and duplicates.
func NewSet(names ...string) Set {
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n != "" {
			out = append(out, n)
		}
	}
	slices.Sort(out)
	return Set{names: slices.Compact(out)}
}

// Names returns the partition names in ascending order.
func (s Set) Names() []string {
	return slices.Clone(s.names)
}

// Contains reports whether name is in the set.
func (s Set) Contains(name string) bool {
	_, found := slices.BinarySearch(s.names, name)
	return found
}

// Len returns the number of partitions in the set.
func (s Set) Len() int {
	return len(s.names)
}

// String renders the set as a comma separated list for logs.
func (s Set) String() string {
	return strings.Join(s.names, ",")
}

// Assignments is the static worker id → partition table used when a worker
// is started without an explicit partition list.
type Assignments map[int][]string

// DefaultAssignments returns the table the cluster ships with. Each partition
// is held by three of the four standard workers.
func DefaultAssignments() Assignments {
	return Assignments{
		1: {"parte1", "parte2", "parte3"},
		2: {"parte1", "parte2", "parte4"},
		3: {"parte2", "parte3", "parte4"},
		4: {"parte1", "parte3", "parte4"},
	}
}

// For resolves the partition set of workerID. Workers missing from the table
// get two private partitions named after their id, so an unknown worker never
// loads or overwrites another worker's files by accident.
func (a Assignments) For(workerID int) Set {
	if names, ok := a[workerID]; ok && len(names) > 0 {
		return NewSet(names...)
	}
	return NewSet(
		fmt.Sprintf("default_part_for_nodo%d.1", workerID),
		fmt.Sprintf("default_part_for_nodo%d.2", workerID),
	)
}

// Resolve returns the explicit partition list when one was configured and
// falls back to the assignment table otherwise.
func Resolve(explicit []string, workerID int, table Assignments) Set {
	if set := NewSet(explicit...); set.Len() > 0 {
		return set
	}
	if table == nil {
		table = DefaultAssignments()
	}
	return table.For(workerID)
}
