// Package internal contains helpers that are intentionally private to
// ledgauth, currently the cryptographically random code generators backing
// MFA backup codes.
//
// Nothing here may appear in the public ledgauth API or be imported from
// outside the module.
package internal
