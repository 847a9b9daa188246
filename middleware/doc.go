// Package middleware provides a net/http guard that validates bearer access
// tokens through the engine and injects the authenticated principal into the
// request context.
package middleware
