// Package jwt implements the three-segment signed token codec used by the
// engine: base64url(JSON header) "." base64url(JSON payload) "."
// base64url(signature), signed with SHA-256 PKCS#1 v1.5.
//
// The payload is one flat JSON object: the registered claims merged with a
// content-type specific body ({uuid, username, role} for access tokens,
// {grant_id} for refresh tokens). Decoding validates the object once and then
// projects it twice, into Claims and into the body type.
//
// Verification recomputes the signature with the signing key and compares
// bytes. That is deliberate: issuer and verifier are the same process. Do not
// hand a Manager to anything that should only verify.
package jwt
