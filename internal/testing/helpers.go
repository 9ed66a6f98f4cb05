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

package testing

import (
	"context"
	"testing"

	"github.com/cerberuslabs/cerberus/pkg/model"
	"github.com/cerberuslabs/cerberus/pkg/storage"
)

// SetupTestStore creates a fresh SQLiteStore rooted at a temporary
// directory for testing. The store and its backing files are cleaned up
// automatically when the test finishes.
//
// Example:
//
//	func TestMyFeature(t *testing.T) {
//	    store := testing.SetupTestStore(t, t.TempDir())
//	    testing.InsertTestSymbols(t, store, model.Symbol{...})
//	}
func SetupTestStore(t *testing.T, repoRoot string) storage.Store {
	t.Helper()

	store, err := storage.Open(storage.Config{
		DataDir:  t.TempDir(),
		RepoRoot: repoRoot,
	})
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

// InsertTestFile writes f's metadata row via a single-file transaction.
func InsertTestFile(t *testing.T, store storage.Store, f model.File) {
	t.Helper()

	ctx := context.Background()
	txn, err := store.BeginTxn(ctx)
	if err != nil {
		t.Fatalf("begin txn: %v", err)
	}
	if err := txn.UpsertFile(ctx, f); err != nil {
		_ = txn.Rollback()
		t.Fatalf("upsert file: %v", err)
	}
	if err := txn.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
}

// InsertTestSymbols writes symbols via a single transaction and returns
// the IDs the store reports as written (inserted or already present).
func InsertTestSymbols(t *testing.T, store storage.Store, symbols ...model.Symbol) []string {
	t.Helper()

	ctx := context.Background()
	txn, err := store.BeginTxn(ctx)
	if err != nil {
		t.Fatalf("begin txn: %v", err)
	}
	ids, err := txn.WriteSymbolsBatch(ctx, symbols)
	if err != nil {
		_ = txn.Rollback()
		t.Fatalf("write symbols: %v", err)
	}
	if err := txn.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
	return ids
}

// InsertTestCalls writes call edges via a single transaction.
func InsertTestCalls(t *testing.T, store storage.Store, calls ...model.MethodCall) {
	t.Helper()

	ctx := context.Background()
	txn, err := store.BeginTxn(ctx)
	if err != nil {
		t.Fatalf("begin txn: %v", err)
	}
	if err := txn.WriteCallsBatch(ctx, calls); err != nil {
		_ = txn.Rollback()
		t.Fatalf("write calls: %v", err)
	}
	if err := txn.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
}

// InsertTestReferences writes symbol references via a single transaction.
func InsertTestReferences(t *testing.T, store storage.Store, refs ...model.SymbolReference) {
	t.Helper()

	ctx := context.Background()
	txn, err := store.BeginTxn(ctx)
	if err != nil {
		t.Fatalf("begin txn: %v", err)
	}
	if err := txn.WriteReferencesBatch(ctx, refs); err != nil {
		_ = txn.Rollback()
		t.Fatalf("write references: %v", err)
	}
	if err := txn.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
}

// QueryAllSymbols drains a filterless QuerySymbols cursor into a slice,
// the shape most assertions want.
func QueryAllSymbols(t *testing.T, store storage.Store) []model.Symbol {
	t.Helper()

	ctx := context.Background()
	cursor, err := store.QuerySymbols(ctx, storage.SymbolFilter{})
	if err != nil {
		t.Fatalf("query symbols: %v", err)
	}
	defer cursor.Close()

	var symbols []model.Symbol
	for {
		sym, ok, err := cursor.Next(ctx)
		if err != nil {
			t.Fatalf("cursor next: %v", err)
		}
		if !ok {
			break
		}
		symbols = append(symbols, sym)
	}
	return symbols
}
