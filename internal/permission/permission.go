// ABOUTME: Immutable permission set and the membership check used to gate actions
// ABOUTME: Fails closed on nil or empty sets; no wildcard or prefix matching

package permission

import "sort"

// Code identifies a single grantable action.
type Code string

// Well-known codes. The catalog is owned by the identity backend; these are
// listed for convenience and carry no special meaning here.
const (
	DocumentCreate Code = "document.create"
	DocumentRead   Code = "document.read"
	DocumentUpdate Code = "document.update"
	DocumentDelete Code = "document.delete"
	BookingCreate  Code = "booking.create"
	BookingRead    Code = "booking.read"
	BookingCancel  Code = "booking.cancel"
	AgentManage    Code = "agent.manage"
	ReportRead     Code = "report.read"
)

// Set is a read-only snapshot of granted codes. The zero value and a nil
// *Set are both empty.
type Set struct {
	codes map[Code]struct{}
}

// NewSet builds a Set from codes. Duplicates are collapsed.
func NewSet(codes ...Code) *Set {
	m := make(map[Code]struct{}, len(codes))
	for _, c := range codes {
		m[c] = struct{}{}
	}
	return &Set{codes: m}
}

// Len returns the number of distinct codes in the set.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.codes)
}

// Codes returns the granted codes in sorted order. The returned slice is a copy.
func (s *Set) Codes() []Code {
	if s == nil {
		return []Code{}
	}
	out := make([]Code, 0, len(s.codes))
	for c := range s.codes {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Has reports whether code is an element of set.
func Has(set *Set, code Code) bool {
	if set == nil || set.codes == nil {
		return false
	}
	_, ok := set.codes[code]
	return ok
}

// Has is the method form of the package-level Has.
func (s *Set) Has(code Code) bool {
	return Has(s, code)
}
