// Package endpoint talks to the remote token-check and token-renewal endpoints.
//
// Both calls are plain GET requests authenticated with the cached bearer token. Failures
// are reported as errors wrapping [ErrNetwork], [ErrEndpoint] or [ErrMalformedResponse]
// so callers can classify them with errors.Is.
package endpoint
