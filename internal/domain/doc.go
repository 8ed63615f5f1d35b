// Package domain defines the core domain types for pairdb.
//
// This package contains the value objects shared by the loader, the
// repository, and the query services: protein pair records, aggregate
// statistics, query filters, and the error taxonomy used to classify
// failures across package boundaries.
//
// # Core Types
//
// PairRecord is an immutable (protein1, protein2, score) triple. Scores
// are signed integers in [-100, 100]; both protein identifiers must be
// non-empty.
//
// Stats holds the aggregate view of a pair table: total rows, distinct
// proteins across both columns, and min/max/mean score.
//
// # Errors
//
// ErrFormat, ErrIO and ErrQuery are sentinel errors. Every failure
// surfaced by pairdb wraps exactly one of them so callers can classify
// with errors.Is without depending on message text.
package domain
