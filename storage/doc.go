// Package storage persists the monitor's client-side state: the cached access token,
// its expiry and the last visited page.
//
// Backends implement [Store]. A multi-entry [Store.Set] and every [Store.Update] are
// applied atomically so a reader never observes a new token paired with a stale
// expiry.
package storage
