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

// DefaultFilesPerBatch is the number of files committed per Writer
// transaction (spec.md's batching contract).
const DefaultFilesPerBatch = 100

// MaxRowsPerInsert is the row ceiling a single INSERT statement may carry;
// pkg/storage.Txn's batch writes reject larger slices, and SplitRows chunks
// rows to this size.
const MaxRowsPerInsert = 1000

// Batcher groups a FileResult stream into fixed-size batches for the
// Writer. It splits by file count only; a symbol-dense batch can still hold
// more than MaxRowsPerInsert rows for one table, which SplitRows chunks.
type Batcher struct {
	filesPerBatch int
}

// NewBatcher builds a Batcher committing filesPerBatch files per
// transaction. filesPerBatch <= 0 selects DefaultFilesPerBatch.
func NewBatcher(filesPerBatch int) *Batcher {
	if filesPerBatch <= 0 {
		filesPerBatch = DefaultFilesPerBatch
	}
	return &Batcher{filesPerBatch: filesPerBatch}
}

// Batch splits results into fixed-size slices of at most filesPerBatch
// files each, preserving input order so the Writer can commit them one
// transaction at a time without needing to re-sort.
func (b *Batcher) Batch(results []FileResult) [][]FileResult {
	if len(results) == 0 {
		return nil
	}
	var batches [][]FileResult
	for start := 0; start < len(results); start += b.filesPerBatch {
		end := start + b.filesPerBatch
		if end > len(results) {
			end = len(results)
		}
		batches = append(batches, results[start:end])
	}
	return batches
}

// SplitRows chunks symbols into slices no larger than MaxRowsPerInsert,
// for batches whose combined symbol count from WriteSymbolsBatch-style
// calls would otherwise exceed the Store's per-insert row cap.
func SplitRows[T any](rows []T) [][]T {
	if len(rows) == 0 {
		return nil
	}
	var chunks [][]T
	for start := 0; start < len(rows); start += MaxRowsPerInsert {
		end := start + MaxRowsPerInsert
		if end > len(rows) {
			end = len(rows)
		}
		chunks = append(chunks, rows[start:end])
	}
	return chunks
}
