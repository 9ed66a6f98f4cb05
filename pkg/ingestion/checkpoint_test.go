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

package ingestion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRevisionStore_LoadMissingReturnsNilNotError(t *testing.T) {
	s := NewRevisionStore(t.TempDir())
	rev, err := s.Load("no-such-project")
	require.NoError(t, err)
	assert.Nil(t, rev)
}

func TestRevisionStore_SaveThenLoadRoundTrips(t *testing.T) {
	s := NewRevisionStore(t.TempDir())
	rev := &Revision{
		ProjectID:   "proj-1",
		CommitSHA:   "abc123",
		FileHashes:  map[string]string{"a.go": "h1", "b.go": "h2"},
		SymbolCount: 42,
		IndexedAt:   "2026-01-01T00:00:00Z",
	}
	require.NoError(t, s.Save(rev))

	got, err := s.Load("proj-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, rev.CommitSHA, got.CommitSHA)
	assert.Equal(t, rev.FileHashes, got.FileHashes)
	assert.Equal(t, rev.SymbolCount, got.SymbolCount)
}

func TestRevisionStore_SaveOverwritesPriorRevision(t *testing.T) {
	s := NewRevisionStore(t.TempDir())
	require.NoError(t, s.Save(&Revision{ProjectID: "proj-1", SymbolCount: 1}))
	require.NoError(t, s.Save(&Revision{ProjectID: "proj-1", SymbolCount: 2}))

	got, err := s.Load("proj-1")
	require.NoError(t, err)
	assert.Equal(t, 2, got.SymbolCount)
}

func TestRevisionStore_ClearRemovesRevision(t *testing.T) {
	s := NewRevisionStore(t.TempDir())
	require.NoError(t, s.Save(&Revision{ProjectID: "proj-1"}))
	require.NoError(t, s.Clear("proj-1"))

	got, err := s.Load("proj-1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRevisionStore_ClearMissingIsNotAnError(t *testing.T) {
	s := NewRevisionStore(t.TempDir())
	assert.NoError(t, s.Clear("never-existed"))
}
