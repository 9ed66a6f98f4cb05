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

// Package testing provides test helpers for Cerberus integration tests:
// a SQLiteStore rooted at a temporary directory, plus seeding and
// querying helpers that wrap pkg/storage's transaction API.
//
// # Quick Start
//
//	func TestMyFeature(t *testing.T) {
//	    store := testing.SetupTestStore(t, t.TempDir())
//
//	    testing.InsertTestSymbols(t, store, model.Symbol{
//	        ID: "sym1", ShortName: "Handle", FilePath: "auth.go",
//	        Kind: model.KindFunction, StartLine: 10, EndLine: 25,
//	    })
//
//	    symbols := testing.QueryAllSymbols(t, store)
//	    require.Len(t, symbols, 1)
//	}
//
// # Seeding Test Data
//
//   - InsertTestFile: write one file's metadata row
//   - InsertTestSymbols: write one or more symbol rows, returns their IDs
//   - InsertTestCalls: write call edges
//   - InsertTestReferences: write symbol references
//
// # Querying Test Data
//
//   - QueryAllSymbols: drain a filterless QuerySymbols cursor into a slice
package testing
