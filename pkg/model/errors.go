// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import "fmt"

// Kind classifies an EngineError so callers can branch on failure mode
// without string-matching messages.
type Kind string

const (
	// KindParseError means a file could not be parsed; ingestion skips the
	// file and continues.
	KindParseError Kind = "parse_error"

	// KindStoreError means a persistence operation failed; the caller's
	// transaction is rolled back.
	KindStoreError Kind = "store_error"

	// KindResolverWarning means a reference could not be resolved above the
	// minimum confidence threshold. Resolve writes no reference row for a
	// call whose callee stays unresolved.
	KindResolverWarning Kind = "resolver_warning"

	// KindCapacityExceeded means a configured budget (file count, batch
	// size, context token budget) was hit.
	KindCapacityExceeded Kind = "capacity_exceeded"

	// KindStaleIndex means the store's recorded schema version does not
	// match the running code's, so the index must be rebuilt.
	KindStaleIndex Kind = "stale_index"

	// KindVectorUnavailable means semantic search was requested but no
	// embeddings exist for the query scope; callers should fall back to
	// lexical-only retrieval.
	KindVectorUnavailable Kind = "vector_unavailable"

	// KindNotFound means the requested entity does not exist in the store.
	KindNotFound Kind = "not_found"

	// KindCancelled means the caller's context was cancelled mid-operation.
	KindCancelled Kind = "cancelled"

	// KindTimeout means an operation exceeded its deadline.
	KindTimeout Kind = "timeout"
)

// EngineError is the error type returned by every pkg/engine operation.
// It wraps an underlying cause while attaching a Kind for programmatic
// dispatch, and optional Path/Symbol context for diagnostics.
type EngineError struct {
	Kind   Kind
	Op     string // operation that failed, e.g. "Index", "Search", "Resolve"
	Path   string // file path, if applicable
	Symbol string // symbol ID, if applicable
	Err    error
}

func (e *EngineError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Op, e.Kind)
	if e.Path != "" {
		msg += fmt.Sprintf(" (path=%s)", e.Path)
	}
	if e.Symbol != "" {
		msg += fmt.Sprintf(" (symbol=%s)", e.Symbol)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *EngineError) Unwrap() error { return e.Err }

// Is supports errors.Is comparisons against a bare Kind sentinel via
// errors.Is(err, model.KindNotFound) is not idiomatic; instead callers
// should use errors.As and inspect Kind directly. Is is provided only to
// let two *EngineError values with the same Kind compare equal.
func (e *EngineError) Is(target error) bool {
	t, ok := target.(*EngineError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

func newErr(kind Kind, op string, err error) *EngineError {
	return &EngineError{Kind: kind, Op: op, Err: err}
}

func NewParseError(op string, path string, err error) *EngineError {
	e := newErr(KindParseError, op, err)
	e.Path = path
	return e
}

func NewStoreError(op string, err error) *EngineError {
	return newErr(KindStoreError, op, err)
}

func NewResolverWarning(op string, symbolID string, err error) *EngineError {
	e := newErr(KindResolverWarning, op, err)
	e.Symbol = symbolID
	return e
}

func NewCapacityExceeded(op string, err error) *EngineError {
	return newErr(KindCapacityExceeded, op, err)
}

func NewStaleIndex(op string, err error) *EngineError {
	return newErr(KindStaleIndex, op, err)
}

func NewVectorUnavailable(op string, err error) *EngineError {
	return newErr(KindVectorUnavailable, op, err)
}

func NewNotFound(op string, path string) *EngineError {
	e := newErr(KindNotFound, op, fmt.Errorf("not found"))
	e.Path = path
	return e
}

func NewCancelled(op string, err error) *EngineError {
	return newErr(KindCancelled, op, err)
}

func NewTimeout(op string, err error) *EngineError {
	return newErr(KindTimeout, op, err)
}
