// Package portal serves the dashboard's login flow and section entry points.
//
// # Routes
//
//	POST /auth/login       JSON {"username","password"}; sets the session cookies
//	POST /auth/logout      clears the session cookies
//	GET  /api/me           verified identity and the role's permission snapshot
//	GET  /api/permissions/{code}
//	                       whether the caller's role holds code, resolved server-side
//	GET  /api/roles/{role}/permissions
//	                       a role's codes; requires agent.manage
//	GET  {entry}           public entry point of each section
//	GET  {entry}/...       section content, behind the role guard
//
// Login verifies a bcrypt password, issues a signed identity token for the
// user's role and hands both to the session store. The permission list from
// /api/me is what the browser keeps as its permission set; it only drives the
// UI, and privileged handlers re-check with auth.RequirePermission.
//
// Login only accepts application/json bodies. Together with SameSite=Lax
// cookies this keeps cross-site form posts from logging a browser in.
package portal
