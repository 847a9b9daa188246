package jwt

import "errors"

var (
	// ErrMissingHeader is returned when the first token segment is absent.
	ErrMissingHeader = errors.New("token is missing header segment")
	// ErrMissingPayload is returned when the second token segment is absent.
	ErrMissingPayload = errors.New("token is missing payload segment")
	// ErrMissingSignature is returned when the third token segment is absent.
	ErrMissingSignature = errors.New("token is missing signature segment")
	// ErrInvalidSignature is returned when the received signature does not
	// byte-match the recomputed one.
	ErrInvalidSignature = errors.New("invalid token signature")
	// ErrPayloadNotJSON is returned when the payload segment does not decode
	// as JSON at all.
	ErrPayloadNotJSON = errors.New("token payload is not valid json")
	// ErrPayloadNotAnObject is returned when the payload decodes as JSON but
	// not as an object.
	ErrPayloadNotAnObject = errors.New("token payload is not a json object")
	// ErrNotAnAccessToken is returned when a refresh (or unknown) token is
	// passed to an access-only decode path.
	ErrNotAnAccessToken = errors.New("not an access token")
	// ErrNotARefreshToken is returned when an access (or unknown) token is
	// passed to a refresh-only decode path.
	ErrNotARefreshToken = errors.New("not a refresh token")
	// ErrUsedBeforeNotBefore is returned by checked decodes when the current
	// time is before the nbf claim.
	ErrUsedBeforeNotBefore = errors.New("token used before its nbf claim")
	// ErrUsedAfterExpire is returned by checked decodes when the current time
	// is after the exp claim.
	ErrUsedAfterExpire = errors.New("token used after its exp claim")
)
