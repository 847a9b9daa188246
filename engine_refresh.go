package ledgauth

import (
	"context"
	"errors"

	"github.com/rster2002/ledgauth/grant"
)

// Refresh exchanges a token pair for a fresh one. The access token is decoded
// unchecked to recover the principal: it may be expired, only its signature
// and type must hold. The refresh token's own time window is enforced, and
// its grant is rotated atomically: after one successful Refresh the old
// refresh token can never be used again.
func (e *Engine) Refresh(ctx context.Context, accessToken, refreshToken string) (*TokenPair, error) {
	if e == nil || e.users == nil || e.grants == nil {
		return nil, ErrEngineNotReady
	}

	_, accessBody, err := e.jwtManager.DecodeAccessUnchecked(accessToken)
	if err != nil {
		e.metricInc(MetricRefreshFailure)
		return nil, err
	}

	refreshBody, err := e.jwtManager.DecodeRefresh(refreshToken)
	if err != nil {
		e.metricInc(MetricRefreshFailure)
		return nil, err
	}

	user, err := e.users.GetByID(ctx, accessBody.UUID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			e.metricInc(MetricRefreshFailure)
		}
		return nil, err
	}

	rotated, err := e.grants.Rotate(ctx, refreshBody.GrantID)
	if err != nil {
		if errors.Is(err, grant.ErrNotFound) {
			e.metricInc(MetricRefreshReuseDetected)
			e.emitAudit(AuditEvent{EventType: auditEventRefreshRevoked, Username: user.Username, UserID: user.UserID, Error: ErrRefreshTokenRevoked.Error()})
			return nil, ErrRefreshTokenRevoked
		}
		return nil, err
	}

	pair, err := e.issuePair(user, grantRef{ID: rotated.ID, ExpireAt: rotated.ExpireAt})
	if err != nil {
		return nil, err
	}

	e.metricInc(MetricRefreshSuccess)
	e.emitAudit(AuditEvent{EventType: auditEventRefreshSuccess, Username: user.Username, UserID: user.UserID, Success: true})

	return pair, nil
}

// Revoke invalidates the session behind refreshToken. The token's signature
// and type are verified but its time window is not: an expired session can
// still be revoked. Revoking an already-revoked token is a no-op.
func (e *Engine) Revoke(ctx context.Context, refreshToken string) error {
	if e == nil || e.grants == nil {
		return ErrEngineNotReady
	}

	_, body, err := e.jwtManager.DecodeRefreshUnchecked(refreshToken)
	if err != nil {
		return err
	}

	if err := e.grants.Delete(ctx, body.GrantID); err != nil {
		return err
	}

	e.metricInc(MetricRevoke)
	e.emitAudit(AuditEvent{EventType: auditEventRevoke, Success: true})
	return nil
}

// RevokeAll removes every grant the principal currently holds, invalidating
// all outstanding refresh tokens. The principal must come from an already
// validated access token (see [Engine.Authenticate]); a refresh token is not
// sufficient. Logins racing the delete may create new grants afterwards and
// those stay valid.
func (e *Engine) RevokeAll(ctx context.Context, principal Principal) error {
	if e == nil || e.grants == nil {
		return ErrEngineNotReady
	}

	if err := e.grants.DeleteAllForUser(ctx, principal.UserID); err != nil {
		return err
	}

	e.metricInc(MetricRevokeAll)
	e.emitAudit(AuditEvent{EventType: auditEventRevokeAll, Username: principal.Username, UserID: principal.UserID, Success: true})
	return nil
}
