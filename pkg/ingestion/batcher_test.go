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

func TestNewBatcher_NonPositiveSizeDefaultsToDefaultFilesPerBatch(t *testing.T) {
	b := NewBatcher(0)
	assert.Equal(t, DefaultFilesPerBatch, b.filesPerBatch)

	b = NewBatcher(-5)
	assert.Equal(t, DefaultFilesPerBatch, b.filesPerBatch)
}

func TestBatcher_Batch_SplitsIntoFixedSizeChunksPreservingOrder(t *testing.T) {
	results := make([]FileResult, 0, 25)
	for i := 0; i < 25; i++ {
		results = append(results, FileResult{Path: string(rune('a' + i))})
	}

	b := NewBatcher(10)
	batches := b.Batch(results)
	require.Len(t, batches, 3)
	assert.Len(t, batches[0], 10)
	assert.Len(t, batches[1], 10)
	assert.Len(t, batches[2], 5)
	assert.Equal(t, "a", batches[0][0].Path)
	assert.Equal(t, string(rune('a'+24)), batches[2][4].Path)
}

func TestBatcher_Batch_EmptyInputReturnsNil(t *testing.T) {
	b := NewBatcher(10)
	assert.Nil(t, b.Batch(nil))
}

func TestSplitRows_ChunksAtMaxRowsPerInsert(t *testing.T) {
	rows := make([]int, MaxRowsPerInsert+1)
	chunks := SplitRows(rows)
	require.Len(t, chunks, 2)
	assert.Len(t, chunks[0], MaxRowsPerInsert)
	assert.Len(t, chunks[1], 1)
}

func TestSplitRows_EmptyInputReturnsNil(t *testing.T) {
	assert.Nil(t, SplitRows[int](nil))
}
