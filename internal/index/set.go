package index

// Set is a candidate set of row ids over [0, n).
//
// It is a dense membership bitmap: ids are import positions, so the dataset
// length bounds every id and iteration in ascending order is the natural
// "iteration order" the range stage relies on.
type Set struct {
	member []bool
	size   int
}

// Full returns a set containing every id in [0, n).
func Full(n int) *Set {
	s := &Set{member: make([]bool, n), size: n}
	for i := range s.member {
		s.member[i] = true
	}
	return s
}

// Empty returns a set over [0, n) with no members.
func Empty(n int) *Set {
	return &Set{member: make([]bool, n)}
}

// Of returns a set over [0, n) containing ids. Out-of-range ids are ignored.
func Of(n int, ids ...int) *Set {
	s := Empty(n)
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

// Len returns the number of members.
func (s *Set) Len() int {
	return s.size
}

// Cap returns n, the size of the id universe.
func (s *Set) Cap() int {
	return len(s.member)
}

// Has reports whether id is a member.
func (s *Set) Has(id int) bool {
	return id >= 0 && id < len(s.member) && s.member[id]
}

// Add inserts id. It reports whether the set changed.
func (s *Set) Add(id int) bool {
	if id < 0 || id >= len(s.member) || s.member[id] {
		return false
	}
	s.member[id] = true
	s.size++
	return true
}

// Remove deletes id. It reports whether the set changed.
func (s *Set) Remove(id int) bool {
	if !s.Has(id) {
		return false
	}
	s.member[id] = false
	s.size--
	return true
}

// Subtract removes every member of other from s.
func (s *Set) Subtract(other *Set) {
	for _, id := range other.IDs() {
		s.Remove(id)
	}
}

// IDs returns the members in ascending order.
func (s *Set) IDs() []int {
	ids := make([]int, 0, s.size)
	for id, ok := range s.member {
		if ok {
			ids = append(ids, id)
		}
	}
	return ids
}

// Clone returns an independent copy.
func (s *Set) Clone() *Set {
	member := make([]bool, len(s.member))
	copy(member, s.member)
	return &Set{member: member, size: s.size}
}

// Equal reports whether both sets hold the same members.
func (s *Set) Equal(other *Set) bool {
	if s.size != other.size {
		return false
	}
	for _, id := range s.IDs() {
		if !other.Has(id) {
			return false
		}
	}
	return true
}
