package ledgauth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/rster2002/ledgauth/grant"
)

var (
	testKeyOnce sync.Once
	testKey     *rsa.PrivateKey
)

// testSigningKey generates one RSA key for the whole test binary; key
// generation is far too slow to repeat per test.
func testSigningKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()

	testKeyOnce.Do(func() {
		key, err := rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			t.Fatalf("generate test key: %v", err)
		}
		testKey = key
	})
	return testKey
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return mr, client
}

func testConfig(t *testing.T) Config {
	cfg := defaultConfig()
	cfg.SigningKey = testSigningKey(t)
	cfg.RateLimit.Enabled = false
	cfg.Audit.Enabled = false
	return cfg
}

// fakeUserStore is an in-memory UserStore with the same error contract as the
// gorm implementation.
type fakeUserStore struct {
	mu         sync.Mutex
	users      map[string]UserRecord
	byUsername map[string]string

	getErr    error
	createErr error
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{
		users:      map[string]UserRecord{},
		byUsername: map[string]string{},
	}
}

func (s *fakeUserStore) put(user UserRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.UserID] = user
	s.byUsername[user.Username] = user.UserID
}

func (s *fakeUserStore) GetByUsername(_ context.Context, username string) (UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return UserRecord{}, s.getErr
	}
	id, ok := s.byUsername[username]
	if !ok {
		return UserRecord{}, ErrUserNotFound
	}
	return s.users[id], nil
}

func (s *fakeUserStore) GetByID(_ context.Context, userID string) (UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return UserRecord{}, s.getErr
	}
	user, ok := s.users[userID]
	if !ok {
		return UserRecord{}, ErrUserNotFound
	}
	return user, nil
}

func (s *fakeUserStore) Create(_ context.Context, input CreateUserInput) (UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return UserRecord{}, s.createErr
	}
	if _, exists := s.byUsername[input.Username]; exists {
		return UserRecord{}, ErrUsernameTaken
	}
	user := UserRecord{
		UserID:       input.UserID,
		Username:     input.Username,
		PasswordHash: input.PasswordHash,
		Role:         input.Role,
	}
	s.users[user.UserID] = user
	s.byUsername[user.Username] = user.UserID
	return user, nil
}

func (s *fakeUserStore) EnableMFA(_ context.Context, userID, secret string, backupCodes []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[userID]
	if !ok {
		return ErrUserNotFound
	}
	user.MFASecret = secret
	user.BackupCodes = append([]string(nil), backupCodes...)
	s.users[userID] = user
	return nil
}

func (s *fakeUserStore) DisableMFA(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[userID]
	if !ok {
		return ErrUserNotFound
	}
	user.MFASecret = ""
	user.BackupCodes = nil
	s.users[userID] = user
	return nil
}

func (s *fakeUserStore) ConsumeBackupCode(_ context.Context, userID, code string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[userID]
	if !ok {
		return false, ErrUserNotFound
	}
	for i, candidate := range user.BackupCodes {
		if candidate == code {
			user.BackupCodes = append(user.BackupCodes[:i], user.BackupCodes[i+1:]...)
			s.users[userID] = user
			return true, nil
		}
	}
	return false, nil
}

// fakeGrantStore is an in-memory GrantStore mirroring the single-use rotation
// contract of the gorm implementation.
type fakeGrantStore struct {
	mu     sync.Mutex
	grants map[string]grant.Grant
	now    func() time.Time

	createErr error
	rotateErr error
}

func newFakeGrantStore(now func() time.Time) *fakeGrantStore {
	if now == nil {
		now = time.Now
	}
	return &fakeGrantStore{
		grants: map[string]grant.Grant{},
		now:    now,
	}
}

func (s *fakeGrantStore) Create(_ context.Context, userID string) (grant.Grant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return grant.Grant{}, s.createErr
	}
	g := grant.Grant{
		ID:       uuid.NewString(),
		UserID:   userID,
		ExpireAt: s.now().AddDate(0, 3, 0),
	}
	s.grants[g.ID] = g
	return g, nil
}

func (s *fakeGrantStore) Rotate(_ context.Context, oldID string) (grant.Grant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rotateErr != nil {
		return grant.Grant{}, s.rotateErr
	}
	old, ok := s.grants[oldID]
	if !ok {
		return grant.Grant{}, grant.ErrNotFound
	}
	delete(s.grants, oldID)
	rotated := grant.Grant{
		ID:       uuid.NewString(),
		UserID:   old.UserID,
		ExpireAt: s.now().AddDate(0, 3, 0),
	}
	s.grants[rotated.ID] = rotated
	return rotated, nil
}

func (s *fakeGrantStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.grants, id)
	return nil
}

func (s *fakeGrantStore) DeleteAllForUser(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, g := range s.grants {
		if g.UserID == userID {
			delete(s.grants, id)
		}
	}
	return nil
}

func (s *fakeGrantStore) Exists(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.grants[id]
	return ok, nil
}

func (s *fakeGrantStore) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var swept int64
	for id, g := range s.grants {
		if g.ExpireAt.Before(now) {
			delete(s.grants, id)
			swept++
		}
	}
	return swept, nil
}

func (s *fakeGrantStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.grants)
}

func newTestEngine(t *testing.T, cfg Config, users UserStore, grants GrantStore) *Engine {
	t.Helper()

	engine, err := New().
		WithConfig(cfg).
		WithUserStore(users).
		WithGrantStore(grants).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)
	return engine
}

// seedUser hashes plaintext and stores a ready account, returning the record.
func seedUser(t *testing.T, engine *Engine, store *fakeUserStore, username, plaintext, role string) UserRecord {
	t.Helper()

	hash, err := engine.passwordHash.Hash(plaintext)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user := UserRecord{
		UserID:       uuid.NewString(),
		Username:     username,
		PasswordHash: hash,
		Role:         role,
	}
	store.put(user)
	return user
}
