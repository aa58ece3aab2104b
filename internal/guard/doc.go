// Package guard gates dashboard sections by role.
//
// Each section of the dashboard serves exactly one role and has one entry
// path: the unauthenticated landing route that a denied request is sent to.
//
//	g, err := guard.New(store, guard.DefaultSections(), logger)
//	mux.Handle("/dashboard/airline/", g.Require(session.RoleAirline)(airlineHome))
//
// A request is Allowed only when it carries a complete session whose role is
// exactly the section's role. There is no hierarchy. A missing session is a
// normal Denied outcome, not an error. Require resolves the decision before
// the wrapped handler runs; on Denied the handler never executes.
package guard
