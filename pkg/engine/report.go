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

package engine

import "time"

// IngestReport summarizes one Index run: the structured counts and
// diagnostics spec.md §7 requires every caller-visible report to carry.
type IngestReport struct {
	ProjectID string
	RunID     string

	FilesProcessed int
	SymbolsWritten int
	ImportsWritten int
	CallsWritten   int
	ReferencesWritten int

	ParseErrors       int
	ParseErrorRate    float64
	CodeTextTruncated int

	EmbeddingsComputed int
	EmbeddingErrors    int

	Diagnostics []string

	// CapacityExceeded is set when MaxSymbolsTotal cut the run short; the
	// report still reflects everything actually written.
	CapacityExceeded bool

	CommitSHA string

	ParseDuration   time.Duration
	EmbedDuration   time.Duration
	WriteDuration   time.Duration
	ResolveDuration time.Duration
	TotalDuration   time.Duration
}

// UpdateReport summarizes one Update run.
type UpdateReport struct {
	IngestReport

	// FullRebuild is true when the changed/indexed ratio exceeded the
	// rebuild threshold and Update fell back to a full Index.
	FullRebuild bool

	FilesAdded    int
	FilesModified int
	FilesDeleted  int
	FilesRenamed  int
}

// ResolveReport summarizes one Resolve run.
type ResolveReport struct {
	SymbolsIndexed    int
	CallsResolved     int
	ReferencesWritten int
	Diagnostics       []string
	Duration          time.Duration
}
