package jwt

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

var (
	keyOnce sync.Once
	key     *rsa.PrivateKey
)

func testKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()

	keyOnce.Do(func() {
		k, err := rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			t.Fatalf("generate test key: %v", err)
		}
		key = k
	})
	return key
}

func testManager(t *testing.T, now func() time.Time) *Manager {
	t.Helper()

	if now == nil {
		now = time.Now
	}
	m, err := NewManager(Config{
		Issuer:     "ledgauth-test",
		Audience:   "ledgauth-test",
		AccessTTL:  5 * time.Minute,
		PrivateKey: testKey(t),
		Now:        now,
	})
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	return m
}

func TestAccessTokenRoundTrip(t *testing.T) {
	m := testManager(t, nil)

	token, err := m.CreateAccess(AccessBody{
		UUID:     "8b7f2c1a-0000-4000-8000-000000000001",
		Username: "alice",
		Role:     "admin",
	})
	if err != nil {
		t.Fatalf("CreateAccess failed: %v", err)
	}
	if strings.Count(token, ".") != 2 {
		t.Fatalf("expected three segments, got %q", token)
	}

	body, err := m.DecodeAccess(token)
	if err != nil {
		t.Fatalf("DecodeAccess failed: %v", err)
	}
	if body.UUID != "8b7f2c1a-0000-4000-8000-000000000001" || body.Username != "alice" || body.Role != "admin" {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	m := testManager(t, nil)

	expiresAt := time.Now().AddDate(0, 3, 0)
	token, err := m.CreateRefresh("user-1", "grant-1", expiresAt)
	if err != nil {
		t.Fatalf("CreateRefresh failed: %v", err)
	}

	body, err := m.DecodeRefresh(token)
	if err != nil {
		t.Fatalf("DecodeRefresh failed: %v", err)
	}
	if body.GrantID != "grant-1" {
		t.Fatalf("expected grant-1, got %q", body.GrantID)
	}

	claims, _, err := m.DecodeRefreshUnchecked(token)
	if err != nil {
		t.Fatalf("DecodeRefreshUnchecked failed: %v", err)
	}
	if claims.Subject != "user-1" {
		t.Fatalf("expected subject user-1, got %q", claims.Subject)
	}
	if claims.ExpiresAt != expiresAt.Unix() {
		t.Fatalf("expected exp %d, got %d", expiresAt.Unix(), claims.ExpiresAt)
	}
	if claims.ID == "" {
		t.Fatal("expected a jti claim")
	}
}

func TestDecodeRegisteredClaims(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	m := testManager(t, func() time.Time { return now })

	token, err := m.CreateAccess(AccessBody{UUID: "user-1", Username: "alice", Role: "user"})
	if err != nil {
		t.Fatalf("CreateAccess failed: %v", err)
	}

	_, claims, err := m.Decode(token, nil)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if claims.Issuer != "ledgauth-test" || claims.Audience != "ledgauth-test" {
		t.Fatalf("unexpected iss/aud: %+v", claims)
	}
	if claims.IssuedAt != now.Unix() || claims.NotBefore != now.Unix() {
		t.Fatalf("expected iat/nbf %d, got %+v", now.Unix(), claims)
	}
	if claims.ExpiresAt != now.Add(5*time.Minute).Unix() {
		t.Fatalf("unexpected exp: %d", claims.ExpiresAt)
	}
	if claims.Subject != "user-1" {
		t.Fatalf("expected sub user-1, got %q", claims.Subject)
	}
}

func TestDecodeMissingSegments(t *testing.T) {
	m := testManager(t, nil)

	token, err := m.CreateAccess(AccessBody{UUID: "u", Username: "alice", Role: "user"})
	if err != nil {
		t.Fatalf("CreateAccess failed: %v", err)
	}
	parts := strings.SplitN(token, ".", 3)

	cases := []struct {
		name  string
		token string
		want  error
	}{
		{"empty", "", ErrMissingHeader},
		{"header only", parts[0], ErrMissingPayload},
		{"no signature", parts[0] + "." + parts[1], ErrMissingSignature},
		{"trailing dot", parts[0] + "." + parts[1] + ".", ErrMissingSignature},
		{"empty header", "." + parts[1] + "." + parts[2], ErrMissingHeader},
		{"empty payload", parts[0] + ".." + parts[2], ErrMissingPayload},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, _, err := m.Decode(tc.token, nil); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestDecodeTamperedSegments(t *testing.T) {
	m := testManager(t, nil)

	token, err := m.CreateAccess(AccessBody{UUID: "u", Username: "alice", Role: "user"})
	if err != nil {
		t.Fatalf("CreateAccess failed: %v", err)
	}
	parts := strings.SplitN(token, ".", 3)

	forgedPayload := base64.RawURLEncoding.EncodeToString([]byte(`{"role":"admin"}`))
	forgedHeader := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"none","typ":"JWT","cty":"access"}`))

	cases := []struct {
		name  string
		token string
	}{
		{"tampered payload", parts[0] + "." + forgedPayload + "." + parts[2]},
		{"tampered header", forgedHeader + "." + parts[1] + "." + parts[2]},
		{"tampered signature", parts[0] + "." + parts[1] + "." + base64.RawURLEncoding.EncodeToString([]byte("forged"))},
		{"signature not base64", parts[0] + "." + parts[1] + ".!!!"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, _, err := m.Decode(tc.token, nil); !errors.Is(err, ErrInvalidSignature) {
				t.Fatalf("expected ErrInvalidSignature, got %v", err)
			}
		})
	}
}

func TestDecodeForeignKeyRejected(t *testing.T) {
	m := testManager(t, nil)

	otherKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate other key: %v", err)
	}
	other, err := NewManager(Config{
		Issuer:     "ledgauth-test",
		Audience:   "ledgauth-test",
		AccessTTL:  5 * time.Minute,
		PrivateKey: otherKey,
	})
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	token, err := other.CreateAccess(AccessBody{UUID: "u", Username: "alice", Role: "user"})
	if err != nil {
		t.Fatalf("CreateAccess failed: %v", err)
	}
	if _, _, err := m.Decode(token, nil); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature for a foreign key, got %v", err)
	}
}

// forge signs an arbitrary payload with the manager's own key so structural
// payload errors can be reached past signature verification.
func forge(t *testing.T, m *Manager, payload string) string {
	t.Helper()

	headerJSON := `{"alg":"RS256","typ":"JWT","cty":"access"}`
	encode := base64.RawURLEncoding.EncodeToString
	signingInput := encode([]byte(headerJSON)) + "." + encode([]byte(payload))
	signature, err := m.sign(signingInput)
	if err != nil {
		t.Fatalf("sign forged token: %v", err)
	}
	return signingInput + "." + encode(signature)
}

func TestDecodePayloadNotJSON(t *testing.T) {
	m := testManager(t, nil)

	token := forge(t, m, "this is not json")
	if _, _, err := m.Decode(token, nil); !errors.Is(err, ErrPayloadNotJSON) {
		t.Fatalf("expected ErrPayloadNotJSON, got %v", err)
	}
}

func TestDecodePayloadNotAnObject(t *testing.T) {
	m := testManager(t, nil)

	for _, payload := range []string{`[1,2,3]`, `"a string"`, `42`, `true`, `null`} {
		token := forge(t, m, payload)
		if _, _, err := m.Decode(token, nil); !errors.Is(err, ErrPayloadNotAnObject) {
			t.Fatalf("payload %s: expected ErrPayloadNotAnObject, got %v", payload, err)
		}
	}
}

func TestDecodeTypeDiscrimination(t *testing.T) {
	m := testManager(t, nil)

	access, err := m.CreateAccess(AccessBody{UUID: "u", Username: "alice", Role: "user"})
	if err != nil {
		t.Fatalf("CreateAccess failed: %v", err)
	}
	refresh, err := m.CreateRefresh("u", "grant-1", time.Now().AddDate(0, 3, 0))
	if err != nil {
		t.Fatalf("CreateRefresh failed: %v", err)
	}

	if _, err := m.DecodeAccess(refresh); !errors.Is(err, ErrNotAnAccessToken) {
		t.Fatalf("expected ErrNotAnAccessToken, got %v", err)
	}
	if _, err := m.DecodeRefresh(access); !errors.Is(err, ErrNotARefreshToken) {
		t.Fatalf("expected ErrNotARefreshToken, got %v", err)
	}
	if _, _, err := m.DecodeAccessUnchecked(refresh); !errors.Is(err, ErrNotAnAccessToken) {
		t.Fatalf("expected ErrNotAnAccessToken, got %v", err)
	}
	if _, _, err := m.DecodeRefreshUnchecked(access); !errors.Is(err, ErrNotARefreshToken) {
		t.Fatalf("expected ErrNotARefreshToken, got %v", err)
	}
}

func TestValidateWindow(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	claims := Claims{
		NotBefore: now.Unix(),
		ExpiresAt: now.Add(5 * time.Minute).Unix(),
	}

	if err := ValidateWindow(claims, now); err != nil {
		t.Fatalf("expected window to be valid at nbf, got %v", err)
	}
	if err := ValidateWindow(claims, now.Add(5*time.Minute)); err != nil {
		t.Fatalf("expected window to be valid at exp, got %v", err)
	}
	if err := ValidateWindow(claims, now.Add(-time.Second)); !errors.Is(err, ErrUsedBeforeNotBefore) {
		t.Fatalf("expected ErrUsedBeforeNotBefore, got %v", err)
	}
	if err := ValidateWindow(claims, now.Add(5*time.Minute+time.Second)); !errors.Is(err, ErrUsedAfterExpire) {
		t.Fatalf("expected ErrUsedAfterExpire, got %v", err)
	}
}

func TestDecodeAccessEnforcesWindow(t *testing.T) {
	var mu sync.Mutex
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}
	m := testManager(t, clock)

	token, err := m.CreateAccess(AccessBody{UUID: "u", Username: "alice", Role: "user"})
	if err != nil {
		t.Fatalf("CreateAccess failed: %v", err)
	}
	if _, err := m.DecodeAccess(token); err != nil {
		t.Fatalf("fresh token should decode, got %v", err)
	}

	mu.Lock()
	now = now.Add(6 * time.Minute)
	mu.Unlock()

	if _, err := m.DecodeAccess(token); !errors.Is(err, ErrUsedAfterExpire) {
		t.Fatalf("expected ErrUsedAfterExpire, got %v", err)
	}
	// The unchecked decode still recovers the body.
	if _, body, err := m.DecodeAccessUnchecked(token); err != nil || body.Username != "alice" {
		t.Fatalf("unchecked decode of expired token failed: body=%+v err=%v", body, err)
	}
}

func TestDecodeExtraDotsFoldIntoSignature(t *testing.T) {
	m := testManager(t, nil)

	token, err := m.CreateAccess(AccessBody{UUID: "u", Username: "alice", Role: "user"})
	if err != nil {
		t.Fatalf("CreateAccess failed: %v", err)
	}

	if _, _, err := m.Decode(token+".extra", nil); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature for a four-segment token, got %v", err)
	}
}

func TestNewManagerValidation(t *testing.T) {
	base := Config{
		Issuer:     "ledgauth-test",
		Audience:   "ledgauth-test",
		AccessTTL:  time.Minute,
		PrivateKey: testKey(t),
	}

	missingKey := base
	missingKey.PrivateKey = nil
	if _, err := NewManager(missingKey); err == nil {
		t.Fatal("expected error for missing key")
	}

	missingIssuer := base
	missingIssuer.Issuer = ""
	if _, err := NewManager(missingIssuer); err == nil {
		t.Fatal("expected error for missing issuer")
	}

	zeroTTL := base
	zeroTTL.AccessTTL = 0
	if _, err := NewManager(zeroTTL); err == nil {
		t.Fatal("expected error for zero TTL")
	}
}
