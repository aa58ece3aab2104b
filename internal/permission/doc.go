// Package permission evaluates fine-grained permission codes.
//
// A permission code is an opaque string naming one grantable action, such as
// "document.create". Codes are namespaced by convention only; the evaluator
// does nothing but set membership.
//
// The set of codes granted to a role is resolved by the store and handed to
// callers as an immutable *Set. Has fails closed: a nil or empty set grants
// nothing, and there are no wildcards.
//
// Has is advisory. UI code uses it to hide or disable actions; every backend
// handler that performs the action must check again on its own (see
// auth.RequirePermission), because the set a client holds is client state.
package permission
