// Package ledgauth provides a self-issued, self-verified token authentication
// engine with RS256-signed access tokens, rotating single-use refresh tokens
// backed by revocable grants, and optional TOTP-based multi-factor login with
// single-use backup codes.
//
// The package is designed for concurrent server workloads: Engine methods are
// safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// ledgauth is the public surface. It exposes [Engine], [Builder], [Config],
// the store interfaces ([UserStore], [GrantStore]) and value types
// (TokenPair, LoginResult, Principal). The token codec lives in the jwt
// sub-package, grant persistence in the grant sub-package, and the gorm user
// store in the userstore sub-package. HTTP routing is deliberately left to
// the caller; middleware provides a net/http guard and examples/http-minimal
// shows a complete wiring.
//
// # Trust model
//
// The engine is both the only issuer and the only verifier of its tokens.
// Signatures are checked by re-signing the received segments with the private
// key and comparing bytes, which is valid only while issuer and verifier
// share one process and one key. The codec must not be exposed as a general
// verification API to third parties.
package ledgauth
