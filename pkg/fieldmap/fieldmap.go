// Package fieldmap is a fixed-capacity tag -> (offset, length) table.
//
// Slots are found by tag modulo capacity with linear probing. The table is
// sized once and reused: Clear resets it without giving memory back, so a
// long-lived decoder never allocates per message.
package fieldmap

import (
	"errors"
	"fmt"
)

// DefaultCapacity is the number of distinct tags a Map holds when New is
// given a non-positive capacity.
const DefaultCapacity = 200

var ErrCapacityExceeded = errors.New("fixscan: field location capacity exceeded")

type state uint8

const (
	empty state = iota
	occupied
	tombstone
)

// Map is not safe for concurrent use.
type Map struct {
	tags    []int
	offsets []int
	lengths []int
	states  []state
	// slots of live entries in first-insertion order
	order []int32
	size  int
}

func New(capacity int) *Map {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Map{
		tags:    make([]int, capacity),
		offsets: make([]int, capacity),
		lengths: make([]int, capacity),
		states:  make([]state, capacity),
		order:   make([]int32, 0, capacity),
	}
}

func (m *Map) slot(tag int) int {
	s := tag % len(m.states)
	if s < 0 {
		s += len(m.states)
	}
	return s
}

// Put inserts tag or overwrites its location in place. Inserting a new tag
// into a full table fails with ErrCapacityExceeded.
func (m *Map) Put(tag, offset, length int) error {
	n := len(m.states)
	idx := m.slot(tag)
	reuse := -1
	for probes := 0; probes < n; probes++ {
		switch m.states[idx] {
		case empty:
			if reuse < 0 {
				reuse = idx
			}
			return m.insert(reuse, tag, offset, length)
		case occupied:
			if m.tags[idx] == tag {
				m.offsets[idx] = offset
				m.lengths[idx] = length
				return nil
			}
		case tombstone:
			if reuse < 0 {
				reuse = idx
			}
		}
		idx++
		if idx == n {
			idx = 0
		}
	}
	// walked the whole table without meeting tag or an empty slot
	if reuse >= 0 {
		return m.insert(reuse, tag, offset, length)
	}
	return fmt.Errorf("%w: tag %d with %d of %d slots used", ErrCapacityExceeded, tag, m.size, n)
}

func (m *Map) insert(idx, tag, offset, length int) error {
	m.tags[idx] = tag
	m.offsets[idx] = offset
	m.lengths[idx] = length
	m.states[idx] = occupied
	m.order = append(m.order, int32(idx))
	m.size++
	return nil
}

// Index returns the slot holding tag, or -1. The slot stays valid until the
// next Put of a new tag, Remove or Clear.
func (m *Map) Index(tag int) int {
	n := len(m.states)
	idx := m.slot(tag)
	for probes := 0; probes < n && m.states[idx] != empty; probes++ {
		if m.states[idx] == occupied && m.tags[idx] == tag {
			return idx
		}
		idx++
		if idx == n {
			idx = 0
		}
	}
	return -1
}

// At resolves a slot returned by Index.
func (m *Map) At(slot int) (offset, length int) {
	return m.offsets[slot], m.lengths[slot]
}

func (m *Map) Lookup(tag int) (offset, length int, ok bool) {
	idx := m.Index(tag)
	if idx < 0 {
		return 0, 0, false
	}
	return m.offsets[idx], m.lengths[idx], true
}

func (m *Map) Contains(tag int) bool {
	return m.Index(tag) >= 0
}

// Remove deletes tag, leaving a tombstone so later probe chains stay intact.
func (m *Map) Remove(tag int) bool {
	idx := m.Index(tag)
	if idx < 0 {
		return false
	}
	m.states[idx] = tombstone
	m.size--
	for i, s := range m.order {
		if int(s) == idx {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return true
}

// Clear empties the table in O(capacity) without reallocating.
func (m *Map) Clear() {
	clear(m.states)
	m.order = m.order[:0]
	m.size = 0
}

// Len is the number of live entries.
func (m *Map) Len() int { return m.size }

// Cap is the fixed number of slots.
func (m *Map) Cap() int { return len(m.states) }

// Range calls fn for each live entry in first-insertion order until fn
// returns false.
func (m *Map) Range(fn func(tag, offset, length int) bool) {
	for _, s := range m.order {
		if !fn(m.tags[s], m.offsets[s], m.lengths[s]) {
			return
		}
	}
}
