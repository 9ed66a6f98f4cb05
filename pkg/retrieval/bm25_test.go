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

package retrieval

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cerberuslabs/cerberus/pkg/model"
	"github.com/cerberuslabs/cerberus/pkg/storage"
)

func TestBM25_RanksExactNameMatchAboveLooseMatch(t *testing.T) {
	store := &fakeStore{
		symbols: map[string]model.Symbol{
			"exact": {ID: "exact", ShortName: "ParseConfig", QualifiedName: "pkg.ParseConfig", Signature: "func ParseConfig(path string) (*Config, error)"},
			"loose": {ID: "loose", ShortName: "Parse", QualifiedName: "pkg.Parse", Signature: "func Parse(r io.Reader) error", Docstring: "parses a config-ish blob"},
		},
		ftsResults: []storage.ScoredSymbol{{SymbolID: "exact"}, {SymbolID: "loose"}},
	}
	b := NewBM25(store)

	results, err := b.Search(context.Background(), "parse config", 10)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "exact", results[0].SymbolID)
}

func TestBM25_UsesSpecMandatedConstants(t *testing.T) {
	b := NewBM25(&fakeStore{})
	assert.Equal(t, 1.5, b.K1)
	assert.Equal(t, 0.75, b.B)
}

func TestBM25_EmptyQueryReturnsNil(t *testing.T) {
	b := NewBM25(&fakeStore{})
	results, err := b.Search(context.Background(), "   ", 10)
	require.NoError(t, err)
	assert.Nil(t, results)
}

func TestBM25_NoCandidatesReturnsNil(t *testing.T) {
	store := &fakeStore{ftsResults: nil}
	b := NewBM25(store)
	results, err := b.Search(context.Background(), "anything", 10)
	require.NoError(t, err)
	assert.Nil(t, results)
}
