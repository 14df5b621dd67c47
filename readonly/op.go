package readonly

import "sort"

// Op names one operation of a content-type module.
type Op string

const (
	OpGetAll    Op = "getAll"
	OpGetBySlug Op = "getBySlug"
	OpGetByID   Op = "getById"
	OpCreate    Op = "create"
	OpUpdate    Op = "update"
	OpDelete    Op = "delete"
	OpClone     Op = "clone"
)

// AllOps lists every operation in declaration order.
func AllOps() []Op {
	return []Op{OpGetAll, OpGetBySlug, OpGetByID, OpCreate, OpUpdate, OpDelete, OpClone}
}

// ParseOp returns the Op named s, or false if s is not an operation name.
func ParseOp(s string) (Op, bool) {
	for _, op := range AllOps() {
		if string(op) == s {
			return op, true
		}
	}
	return "", false
}

// OpSet is a set of operation names.
type OpSet map[Op]struct{}

// NewOpSet returns a set holding ops.
func NewOpSet(ops ...Op) OpSet {
	s := make(OpSet, len(ops))
	for _, op := range ops {
		s[op] = struct{}{}
	}
	return s
}

// WriteOps returns the set of mutating operations.
func WriteOps() OpSet {
	return NewOpSet(OpCreate, OpUpdate, OpDelete, OpClone)
}

// Has reports whether op is in the set.
func (s OpSet) Has(op Op) bool {
	_, ok := s[op]
	return ok
}

// Sorted returns the members in a stable order.
func (s OpSet) Sorted() []Op {
	out := make([]Op, 0, len(s))
	for op := range s {
		out = append(out, op)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
