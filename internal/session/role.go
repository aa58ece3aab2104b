// ABOUTME: Dashboard role names carried on a session
// ABOUTME: Each dashboard section serves exactly one role

package session

import (
	"errors"
	"fmt"
)

// Role is the coarse-grained role a session was issued for.
type Role string

const (
	RoleTravelAgency Role = "TravelAgency"
	RoleTravelAgent  Role = "TravelAgent"
	RoleAirline      Role = "Airline"
	RolePartnership  Role = "Partnership"
)

// ValidRoles lists all roles a session may carry.
var ValidRoles = []Role{
	RoleTravelAgency,
	RoleTravelAgent,
	RoleAirline,
	RolePartnership,
}

// ErrUnknownRole is returned when parsing a string that is not a known role.
var ErrUnknownRole = errors.New("unknown role")

// Valid reports whether r is one of ValidRoles.
func (r Role) Valid() bool {
	for _, v := range ValidRoles {
		if r == v {
			return true
		}
	}
	return false
}

// String returns the role name.
func (r Role) String() string {
	return string(r)
}

// ParseRole converts a role name into a Role. Matching is exact and case-sensitive.
func ParseRole(s string) (Role, error) {
	role := Role(s)
	if !role.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
	}
	return role, nil
}
