package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores, fetchers, and other
// infrastructure layers return these (optionally wrapped) so services can
// translate them into domain errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: entity does not exist in store
// - ErrExpired: cache entry or window has expired
// - ErrUnavailable: upstream source or resource temporarily unavailable
// - ErrTimeout: upstream source did not answer within its deadline
//
// For validation errors (bad input, missing fields), use pkg/domain-errors.
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrExpired     = errors.New("expired")
	ErrUnavailable = errors.New("unavailable")
	ErrTimeout     = errors.New("timeout")
)
