// Package auth issues and verifies dashboard identity tokens and enforces
// permissions on backend handlers.
//
// # Identity Tokens
//
// The token stored in the session's identity cookie is an HS256 JWT:
//
//	issuer, err := auth.NewIssuer(secret, "dashboard-gateway", 12*time.Hour)
//	token, err := issuer.Issue(userID, session.RoleAirline)
//	claims, err := issuer.Verify(token)
//
// Claims carry the user ID in "sub" and the role the token was issued for in
// "role". Secrets shorter than MinSecretLength are rejected.
//
// # Backend Permission Checks
//
// The permission set a browser holds is client state and only drives the UI.
// Handlers that perform a privileged action wrap themselves with
// RequirePermission, which verifies the token, ties it to the role cookie,
// resolves the role's permissions from the store and checks the code again:
//
//	mux.Handle("DELETE /api/documents/{id}",
//	    auth.RequirePermission(sessions, issuer, store, permission.DocumentDelete, logger)(h))
package auth
