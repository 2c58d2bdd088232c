package goAuthMonitor

import (
	"errors"

	"github.com/MrEthical07/goAuthMonitor/endpoint"
	"github.com/MrEthical07/goAuthMonitor/jwt"
	"github.com/MrEthical07/goAuthMonitor/storage"
)

var (
	// ErrNetwork reports a request that could not be sent or a response that could not
	// be parsed.
	ErrNetwork = endpoint.ErrNetwork
	// ErrEndpoint reports a non-success HTTP status from a token endpoint.
	ErrEndpoint = endpoint.ErrEndpoint
	// ErrMalformedResponse reports a success response missing a required field.
	ErrMalformedResponse = endpoint.ErrMalformedResponse
	// ErrMalformedToken reports a cached token whose claims cannot be decoded.
	ErrMalformedToken = jwt.ErrMalformedToken
	// ErrMissingToken reports a renewal attempted with no cached token.
	ErrMissingToken = errors.New("no cached access token")
	// ErrStorage reports a failing storage backend.
	ErrStorage = storage.ErrUnavailable
	// ErrNoExpiry reports that no expiry could be derived for a token.
	ErrNoExpiry = errors.New("token expiry unknown")
	// ErrBuilderUsed is returned by a second call to [Builder.Build].
	ErrBuilderUsed = errors.New("builder already used")
	// ErrNoTokenService is returned when neither endpoints nor a token service are configured.
	ErrNoTokenService = errors.New("token service not configured")
)

// FailureKind groups errors the monitor recovers from.
type FailureKind string

const (
	KindNone           FailureKind = ""
	KindNetwork        FailureKind = "network"
	KindEndpoint       FailureKind = "endpoint"
	KindMalformedToken FailureKind = "malformed_token"
	KindMissingToken   FailureKind = "missing_token"
	KindStorage        FailureKind = "storage"
	KindUnknown        FailureKind = "unknown"
)

// Classify maps err onto a [FailureKind].
func Classify(err error) FailureKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrMissingToken):
		return KindMissingToken
	case errors.Is(err, ErrMalformedToken):
		return KindMalformedToken
	case errors.Is(err, ErrEndpoint), errors.Is(err, ErrMalformedResponse), errors.Is(err, ErrNoExpiry):
		return KindEndpoint
	case errors.Is(err, ErrNetwork):
		return KindNetwork
	case errors.Is(err, ErrStorage):
		return KindStorage
	default:
		return KindUnknown
	}
}
