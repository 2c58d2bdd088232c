package jwt

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Scheme is the authorization scheme prefix expected on stored bearer tokens.
const Scheme = "Bearer "

// ErrMalformedToken is returned when a bearer token does not decode into an
// expiry claim.
var ErrMalformedToken = errors.New("malformed token")

var segmentParser = jwt.NewParser(jwt.WithPaddingAllowed())

// DecodeExpiry extracts the exp claim, in epoch seconds, from a "Bearer "-prefixed
// compact JWT. Only the payload segment is decoded; the header and signature are
// not inspected.
func DecodeExpiry(raw string) (int64, error) {
	if !strings.HasPrefix(raw, Scheme) {
		return 0, fmt.Errorf("%w: missing bearer scheme", ErrMalformedToken)
	}

	parts := strings.Split(strings.TrimPrefix(raw, Scheme), ".")
	if len(parts) != 3 {
		return 0, fmt.Errorf("%w: expected 3 segments, got %d", ErrMalformedToken, len(parts))
	}

	payload, err := segmentParser.DecodeSegment(parts[1])
	if err != nil {
		return 0, fmt.Errorf("%w: payload encoding: %v", ErrMalformedToken, err)
	}

	var claims jwt.MapClaims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return 0, fmt.Errorf("%w: payload json: %v", ErrMalformedToken, err)
	}

	exp, err := claims.GetExpirationTime()
	if err != nil {
		return 0, fmt.Errorf("%w: exp claim: %v", ErrMalformedToken, err)
	}
	if exp == nil {
		return 0, fmt.Errorf("%w: exp claim missing", ErrMalformedToken)
	}

	return exp.Unix(), nil
}

// WithScheme returns token prefixed with [Scheme] unless it already is.
func WithScheme(token string) string {
	if token == "" || strings.HasPrefix(token, Scheme) {
		return token
	}
	return Scheme + token
}

// StripScheme removes a leading [Scheme] from token.
func StripScheme(token string) string {
	return strings.TrimPrefix(token, Scheme)
}
