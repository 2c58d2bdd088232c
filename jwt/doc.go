// Package jwt decodes access-token expiry claims on the client side and issues signed
// tokens for servers and tests that need to hand them out.
//
// [DecodeExpiry] never verifies signatures: the monitor only needs to know when a
// token stops being useful, and the server remains the authority on validity.
package jwt
