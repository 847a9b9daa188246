package ledgauth

import (
	"context"
	"fmt"
	"time"

	"github.com/rster2002/ledgauth/jwt"
	"github.com/rster2002/ledgauth/password"
)

// Engine orchestrates the authentication flows. Construct it through
// [Builder.Build]; after that all methods are safe for concurrent use. The
// signing key and configuration are immutable for the engine's lifetime.
type Engine struct {
	config       Config
	jwtManager   *jwt.Manager
	totp         *totpManager
	limiter      *loginLimiter
	users        UserStore
	grants       GrantStore
	audit        *auditDispatcher
	metrics      *Metrics
	passwordHash *password.Argon2
}

// Close flushes and stops the audit dispatcher.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// Tokens returns the engine's token manager, for callers that need to decode
// access tokens themselves (for example, route middleware).
func (e *Engine) Tokens() *jwt.Manager {
	if e == nil {
		return nil
	}
	return e.jwtManager
}

// MetricsSnapshot copies the engine counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}}
	}
	return e.metrics.Snapshot()
}

// AuditDropped reports how many audit events were discarded.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) metricAdd(id MetricID, delta uint64) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Add(id, delta)
}

func (e *Engine) emitAudit(event AuditEvent) {
	if e == nil || e.audit == nil {
		return
	}
	e.audit.Emit(event)
}

func (e *Engine) now() time.Time {
	if e == nil || e.config.Now == nil {
		return time.Now()
	}
	return e.config.Now()
}

// Authenticate performs a fully checked access-token decode and returns the
// embedded principal. This is what request middleware calls on every guarded
// route.
func (e *Engine) Authenticate(ctx context.Context, accessToken string) (Principal, error) {
	if e == nil || e.jwtManager == nil {
		return Principal{}, ErrEngineNotReady
	}

	body, err := e.jwtManager.DecodeAccess(accessToken)
	if err != nil {
		return Principal{}, err
	}
	return Principal{
		UserID:   body.UUID,
		Username: body.Username,
		Role:     body.Role,
	}, nil
}

// SweepExpiredGrants deletes grants whose expiry has passed and returns how
// many were removed. Intended to run periodically outside the request path.
func (e *Engine) SweepExpiredGrants(ctx context.Context) (int64, error) {
	if e == nil || e.grants == nil {
		return 0, ErrEngineNotReady
	}
	swept, err := e.grants.DeleteExpired(ctx, e.now())
	if err != nil {
		return 0, fmt.Errorf("sweep expired grants: %w", err)
	}
	e.metricAdd(MetricGrantsSwept, uint64(swept))
	return swept, nil
}

// issuePair signs a fresh access+refresh token pair for user against grant g.
func (e *Engine) issuePair(user UserRecord, g grantRef) (*TokenPair, error) {
	access, err := e.jwtManager.CreateAccess(jwt.AccessBody{
		UUID:     user.UserID,
		Username: user.Username,
		Role:     user.Role,
	})
	if err != nil {
		return nil, err
	}

	refresh, err := e.jwtManager.CreateRefresh(user.UserID, g.ID, g.ExpireAt)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
		Expires:      int64(e.config.AccessTTL / time.Second),
	}, nil
}

// grantRef is the slice of a grant the token issuer needs.
type grantRef struct {
	ID       string
	ExpireAt time.Time
}
