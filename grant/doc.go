// Package grant persists the revocable records backing refresh tokens.
//
// One grant corresponds to one outstanding refresh token. Refreshing rotates
// the grant: the row's primary key is replaced with a fresh id in a single
// UPDATE, so the old id stops resolving the instant the new one exists and a
// refresh token can never be used twice. Deleting a grant (or all grants of a
// user) invalidates the corresponding refresh tokens immediately.
package grant
