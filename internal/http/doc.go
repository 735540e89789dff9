// Package httpapp provides the Inkwell HTTP API.
//
// Authentication is a bearer JWT obtained from POST /api/users/login.
// Requests without an Authorization header run as an anonymous guest and
// can reach the public read endpoints; everything else is gated by the
// route access policy.
package httpapp
