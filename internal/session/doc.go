// Package session holds the client-side dashboard session.
//
// # Overview
//
// A session is two independent cookies set on the browser at login:
//
//   - the identity token: an opaque signed token issued by the auth flow
//   - the role: the dashboard role the token was issued for
//
// A session is either fully present (both cookies set and non-empty) or
// absent. There is no server-side session state; logging out overwrites
// both cookies with an empty, already-expired value.
//
// # Creating and Clearing
//
//	st := session.NewStore(session.Options{Secure: true})
//	err := st.Create(w, token, session.RoleAirline)
//	st.Clear(w)
//
// Create and Clear build their cookies from the same template, so the
// HttpOnly, Secure, SameSite and Path attributes always match. A mismatch
// would leave the browser holding the original cookie.
//
// # Reading
//
//	sess, ok := st.Read(r)
//
// Read only reports what the client presented. It never validates the
// identity token; that is done by the backend handlers that perform
// privileged work (see the auth package).
package session
