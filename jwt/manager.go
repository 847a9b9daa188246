package jwt

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TokenType discriminates access from refresh tokens via the cty header
// field.
type TokenType string

const (
	// TypeAccess marks short-lived tokens carrying the authenticated
	// principal.
	TypeAccess TokenType = "access"
	// TypeRefresh marks long-lived tokens carrying a grant reference.
	TypeRefresh TokenType = "refresh"
)

const (
	algRS256 = "RS256"
	typJWT   = "JWT"
)

// Header is the first token segment.
type Header struct {
	Alg string    `json:"alg"`
	Typ string    `json:"typ"`
	Cty TokenType `json:"cty"`
}

// Claims are the registered fields present in every payload. Timestamps are
// unix seconds.
type Claims struct {
	Issuer    string `json:"iss"`
	Subject   string `json:"sub"`
	Audience  string `json:"aud"`
	ExpiresAt int64  `json:"exp"`
	NotBefore int64  `json:"nbf"`
	IssuedAt  int64  `json:"iat"`
	ID        string `json:"jti"`
}

// AccessBody is the type-specific payload of an access token.
type AccessBody struct {
	UUID     string `json:"uuid"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// RefreshBody is the type-specific payload of a refresh token.
type RefreshBody struct {
	GrantID string `json:"grant_id"`
}

// Config holds the immutable key material and claim defaults of a [Manager].
type Config struct {
	Issuer     string
	Audience   string
	AccessTTL  time.Duration
	PrivateKey *rsa.PrivateKey
	// Now defaults to time.Now.
	Now func() time.Time
}

// Manager encodes, signs and decodes tokens. It is safe for concurrent use;
// the key material is read-only after construction.
type Manager struct {
	config Config
}

// NewManager validates cfg and returns a ready Manager.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.PrivateKey == nil {
		return nil, errors.New("jwt: private key is required")
	}
	if cfg.Issuer == "" {
		return nil, errors.New("jwt: issuer is required")
	}
	if cfg.AccessTTL <= 0 {
		return nil, errors.New("jwt: access TTL must be positive")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Manager{config: cfg}, nil
}

// PublicKey returns the verification half of the signing key.
func (m *Manager) PublicKey() *rsa.PublicKey {
	return &m.config.PrivateKey.PublicKey
}

func (m *Manager) newClaims(subject string, expiresAt time.Time) Claims {
	now := m.config.Now()
	return Claims{
		Issuer:    m.config.Issuer,
		Subject:   subject,
		Audience:  m.config.Audience,
		ExpiresAt: expiresAt.Unix(),
		NotBefore: now.Unix(),
		IssuedAt:  now.Unix(),
		ID:        uuid.NewString(),
	}
}

// CreateAccess issues a signed access token for the given principal body,
// valid for the configured access TTL starting now.
func (m *Manager) CreateAccess(body AccessBody) (string, error) {
	claims := m.newClaims(body.UUID, m.config.Now().Add(m.config.AccessTTL))
	return m.Encode(Header{Alg: algRS256, Typ: typJWT, Cty: TypeAccess}, claims, body)
}

// CreateRefresh issues a signed refresh token referencing grantID, expiring
// together with the grant at expiresAt.
func (m *Manager) CreateRefresh(subject, grantID string, expiresAt time.Time) (string, error) {
	claims := m.newClaims(subject, expiresAt)
	return m.Encode(Header{Alg: algRS256, Typ: typJWT, Cty: TypeRefresh}, claims, RefreshBody{GrantID: grantID})
}

// Encode serializes header and the merged claims+body payload, signs the two
// segments and joins all three with dots. body may be nil.
func (m *Manager) Encode(header Header, claims Claims, body any) (string, error) {
	headerJSON, err := json.Marshal(header)
	if err != nil {
		return "", fmt.Errorf("jwt: marshal header: %w", err)
	}

	payload, err := mergePayload(claims, body)
	if err != nil {
		return "", err
	}

	encode := base64.RawURLEncoding.EncodeToString
	signingInput := encode(headerJSON) + "." + encode(payload)

	signature, err := m.sign(signingInput)
	if err != nil {
		return "", err
	}

	return signingInput + "." + encode(signature), nil
}

// mergePayload flattens claims and body into one JSON object. Body keys never
// collide with the registered claim names.
func mergePayload(claims Claims, body any) ([]byte, error) {
	merged := map[string]json.RawMessage{}

	claimsJSON, err := json.Marshal(claims)
	if err != nil {
		return nil, fmt.Errorf("jwt: marshal claims: %w", err)
	}
	if err := json.Unmarshal(claimsJSON, &merged); err != nil {
		return nil, fmt.Errorf("jwt: merge claims: %w", err)
	}

	if body != nil {
		bodyJSON, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("jwt: marshal body: %w", err)
		}
		fields := map[string]json.RawMessage{}
		if err := json.Unmarshal(bodyJSON, &fields); err != nil {
			return nil, fmt.Errorf("jwt: merge body: %w", err)
		}
		for k, v := range fields {
			merged[k] = v
		}
	}

	return json.Marshal(merged)
}

func (m *Manager) sign(signingInput string) ([]byte, error) {
	digest := sha256.Sum256([]byte(signingInput))
	// PKCS#1 v1.5 is deterministic, which is what makes byte-comparison
	// verification possible in Decode.
	signature, err := rsa.SignPKCS1v15(rand.Reader, m.config.PrivateKey, crypto.SHA256, digest[:])
	if err != nil {
		return nil, fmt.Errorf("jwt: sign: %w", err)
	}
	return signature, nil
}

// Decode splits, verifies and deserializes a token. The payload object is
// validated once and then projected into claims and, when body is a non-nil
// pointer, into the caller's body type.
func (m *Manager) Decode(token string, body any) (Header, Claims, error) {
	var header Header
	var claims Claims

	parts := strings.SplitN(token, ".", 3)
	if parts[0] == "" {
		return header, claims, ErrMissingHeader
	}
	if len(parts) < 2 || parts[1] == "" {
		return header, claims, ErrMissingPayload
	}
	if len(parts) < 3 || parts[2] == "" {
		return header, claims, ErrMissingSignature
	}

	signingInput := parts[0] + "." + parts[1]
	expected, err := m.sign(signingInput)
	if err != nil {
		return header, claims, err
	}
	received, err := base64.RawURLEncoding.DecodeString(parts[2])
	if err != nil {
		return header, claims, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	if subtle.ConstantTimeCompare(expected, received) != 1 {
		return header, claims, ErrInvalidSignature
	}

	// The signature is ours from here on; structural failures below indicate
	// a token we mis-issued, not tampering.
	headerJSON, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return header, claims, fmt.Errorf("jwt: decode header segment: %w", err)
	}
	if err := json.Unmarshal(headerJSON, &header); err != nil {
		return header, claims, fmt.Errorf("jwt: parse header: %w", err)
	}

	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return header, claims, fmt.Errorf("%w: %v", ErrPayloadNotJSON, err)
	}

	var object map[string]json.RawMessage
	if err := json.Unmarshal(payload, &object); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return header, claims, ErrPayloadNotAnObject
		}
		return header, claims, fmt.Errorf("%w: %v", ErrPayloadNotJSON, err)
	}
	if object == nil {
		// JSON null unmarshals into a nil map without error.
		return header, claims, ErrPayloadNotAnObject
	}

	if err := json.Unmarshal(payload, &claims); err != nil {
		return header, claims, fmt.Errorf("jwt: project claims: %w", err)
	}
	if body != nil {
		if err := json.Unmarshal(payload, body); err != nil {
			return header, claims, fmt.Errorf("jwt: project body: %w", err)
		}
	}

	return header, claims, nil
}

// ValidateWindow enforces the nbf/exp claims against now. There is no
// clock-skew tolerance.
func ValidateWindow(claims Claims, now time.Time) error {
	if now.Unix() < claims.NotBefore {
		return ErrUsedBeforeNotBefore
	}
	if now.Unix() > claims.ExpiresAt {
		return ErrUsedAfterExpire
	}
	return nil
}

// DecodeAccessUnchecked verifies the signature and the access content type
// but performs no time checks. The refresh flow uses it to recover the
// principal from an expired access token.
func (m *Manager) DecodeAccessUnchecked(token string) (Claims, AccessBody, error) {
	var body AccessBody
	header, claims, err := m.Decode(token, &body)
	if err != nil {
		return claims, body, err
	}
	if header.Cty != TypeAccess {
		return claims, body, ErrNotAnAccessToken
	}
	return claims, body, nil
}

// DecodeAccess is the checked variant of [Manager.DecodeAccessUnchecked]: it
// additionally enforces the token's time window.
func (m *Manager) DecodeAccess(token string) (AccessBody, error) {
	claims, body, err := m.DecodeAccessUnchecked(token)
	if err != nil {
		return body, err
	}
	if err := ValidateWindow(claims, m.config.Now()); err != nil {
		return body, err
	}
	return body, nil
}

// DecodeRefreshUnchecked verifies the signature and the refresh content type
// but performs no time checks. Revoke uses it so an expired session can still
// be revoked.
func (m *Manager) DecodeRefreshUnchecked(token string) (Claims, RefreshBody, error) {
	var body RefreshBody
	header, claims, err := m.Decode(token, &body)
	if err != nil {
		return claims, body, err
	}
	if header.Cty != TypeRefresh {
		return claims, body, ErrNotARefreshToken
	}
	return claims, body, nil
}

// DecodeRefresh is the checked variant of [Manager.DecodeRefreshUnchecked].
func (m *Manager) DecodeRefresh(token string) (RefreshBody, error) {
	claims, body, err := m.DecodeRefreshUnchecked(token)
	if err != nil {
		return body, err
	}
	if err := ValidateWindow(claims, m.config.Now()); err != nil {
		return body, err
	}
	return body, nil
}
