package repository

// Package repository contains data access layer abstractions.
// Implementations can live in subpackages (e.g., postgres, memory) inside
// this directory. "Repository" and "DAO" are the same abstraction here: the
// interface is the contract, the storage technology an implementation detail.

import "errors"

// Typed outcomes shared by every repository implementation. Callers branch
// with errors.Is; implementations wrap these sentinels with driver detail
// but never swallow or retry a failure.
var (
	// ErrNotFound means the requested identity is absent from the store.
	ErrNotFound = errors.New("record not found")
	// ErrConflict means a store-level integrity rule was broken
	// (e.g., duplicate username or email).
	ErrConflict = errors.New("constraint violation")
	// ErrUnavailable means the store could not be reached. Transient;
	// retry/backoff is the caller's decision, not this layer's.
	ErrUnavailable = errors.New("store unavailable")
)

// PageQuery holds limit/offset pagination parameters. Listings are finite
// and restartable: re-issue with a new offset to continue or start over.
type PageQuery struct {
	Limit  int
	Offset int
}

// PageResult is a generic pagination result wrapper.
// T is typically a model type.
type PageResult[T any] struct {
	Items []T
	Total int
}
