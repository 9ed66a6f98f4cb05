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
	"time"

	"github.com/stretchr/testify/assert"
)

// These exercise the package-level recorders against the shared Prometheus
// registry; ingMetrics.init() is idempotent via sync.Once, so running them
// alongside every other test in the package never double-registers.

func TestRecordBatchSent_DoesNotPanic(t *testing.T) {
	assert.NotPanics(t, RecordBatchSent)
}

func TestRecordDeltaCounts_DoesNotPanic(t *testing.T) {
	assert.NotPanics(t, func() {
		RecordDeltaCounts(DeltaStats{AddedCount: 1, ModifiedCount: 2, DeletedCount: 3, RenamedCount: 4})
	})
}

func TestRecordFilteredDeltaCounts_DoesNotPanic(t *testing.T) {
	assert.NotPanics(t, func() {
		RecordFilteredDeltaCounts(DeltaStats{AddedCount: 1})
	})
}

func TestRecordPathSweep_DoesNotPanic(t *testing.T) {
	assert.NotPanics(t, RecordPathSweep)
}

func TestRecordEdgesOnlySweep_DoesNotPanic(t *testing.T) {
	assert.NotPanics(t, RecordEdgesOnlySweep)
}

func TestRecordSymbolCounts_DoesNotPanic(t *testing.T) {
	assert.NotPanics(t, func() {
		RecordSymbolCounts(1, 2, 3)
	})
}

func TestRecordEmbedOutcome_DoesNotPanic(t *testing.T) {
	assert.NotPanics(t, func() {
		RecordEmbedOutcome(1, 2, 3)
	})
}

func TestRecordDurations_DoesNotPanic(t *testing.T) {
	assert.NotPanics(t, func() {
		RecordDurations(time.Millisecond, time.Millisecond, time.Millisecond, time.Millisecond, time.Millisecond)
	})
}

func TestRecordDurations_ZeroDeltaSkipsObservation(t *testing.T) {
	assert.NotPanics(t, func() {
		RecordDurations(0, time.Millisecond, time.Millisecond, time.Millisecond, time.Millisecond)
	})
}
