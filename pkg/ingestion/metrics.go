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
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// metricsIngestion holds Prometheus metrics for the ingestion subsystem.
type metricsIngestion struct {
	once sync.Once

	// Delta
	deltaAdded    prometheus.Counter
	deltaModified prometheus.Counter
	deltaDeleted  prometheus.Counter
	deltaRenamed  prometheus.Counter

	// Delta (post-filter)
	deltaFilteredAdded    prometheus.Counter
	deltaFilteredModified prometheus.Counter
	deltaFilteredDeleted  prometheus.Counter
	deltaFilteredRenamed  prometheus.Counter

	// Symbols/Embeddings
	symbolsAdded    prometheus.Counter
	symbolsModified prometheus.Counter
	symbolsRemoved  prometheus.Counter
	embedComputed   prometheus.Counter
	embedSkipped    prometheus.Counter
	embedErrors     prometheus.Counter
	embedRetries    prometheus.Counter

	// Batches
	batchesSent prometheus.Counter

	// Defensive cleanups
	pathSweeps      prometheus.Counter
	edgesOnlySweeps prometheus.Counter

	// Durations
	deltaDuration prometheus.Histogram
	parseDuration prometheus.Histogram
	embedDuration prometheus.Histogram
	writeDuration prometheus.Histogram
	totalDuration prometheus.Histogram
}

var ingMetrics metricsIngestion

func (m *metricsIngestion) init() {
	m.once.Do(func() {
		m.deltaAdded = prometheus.NewCounter(prometheus.CounterOpts{Name: "cerberus_ingest_delta_added_total", Help: "Files added detected by delta"})
		m.deltaModified = prometheus.NewCounter(prometheus.CounterOpts{Name: "cerberus_ingest_delta_modified_total", Help: "Files modified detected by delta"})
		m.deltaDeleted = prometheus.NewCounter(prometheus.CounterOpts{Name: "cerberus_ingest_delta_deleted_total", Help: "Files deleted detected by delta"})
		m.deltaRenamed = prometheus.NewCounter(prometheus.CounterOpts{Name: "cerberus_ingest_delta_renamed_total", Help: "Renames detected by delta"})

		m.deltaFilteredAdded = prometheus.NewCounter(prometheus.CounterOpts{Name: "cerberus_ingest_delta_filtered_added_total", Help: "Files added surviving exclude/size filters"})
		m.deltaFilteredModified = prometheus.NewCounter(prometheus.CounterOpts{Name: "cerberus_ingest_delta_filtered_modified_total", Help: "Files modified surviving exclude/size filters"})
		m.deltaFilteredDeleted = prometheus.NewCounter(prometheus.CounterOpts{Name: "cerberus_ingest_delta_filtered_deleted_total", Help: "Files deleted surviving exclude/size filters"})
		m.deltaFilteredRenamed = prometheus.NewCounter(prometheus.CounterOpts{Name: "cerberus_ingest_delta_filtered_renamed_total", Help: "Renames surviving exclude/size filters"})

		m.symbolsAdded = prometheus.NewCounter(prometheus.CounterOpts{Name: "cerberus_ingest_symbols_added_total", Help: "Symbols added"})
		m.symbolsModified = prometheus.NewCounter(prometheus.CounterOpts{Name: "cerberus_ingest_symbols_modified_total", Help: "Symbols modified"})
		m.symbolsRemoved = prometheus.NewCounter(prometheus.CounterOpts{Name: "cerberus_ingest_symbols_removed_total", Help: "Symbols removed"})

		m.embedComputed = prometheus.NewCounter(prometheus.CounterOpts{Name: "cerberus_ingest_embeddings_computed_total", Help: "Embeddings computed"})
		m.embedSkipped = prometheus.NewCounter(prometheus.CounterOpts{Name: "cerberus_ingest_embeddings_skipped_total", Help: "Embeddings reused from the Store (input hash unchanged)"})
		m.embedErrors = prometheus.NewCounter(prometheus.CounterOpts{Name: "cerberus_ingest_embeddings_errors_total", Help: "Embedding provider errors"})
		m.embedRetries = prometheus.NewCounter(prometheus.CounterOpts{Name: "cerberus_ingest_embeddings_retries_total", Help: "Embedding provider retries"})

		m.batchesSent = prometheus.NewCounter(prometheus.CounterOpts{Name: "cerberus_ingest_batches_sent_total", Help: "Batches committed to the Store"})

		m.pathSweeps = prometheus.NewCounter(prometheus.CounterOpts{Name: "cerberus_ingest_path_sweeps_total", Help: "Defensive cleanups of stale rows by file path"})
		m.edgesOnlySweeps = prometheus.NewCounter(prometheus.CounterOpts{Name: "cerberus_ingest_edges_only_sweeps_total", Help: "Cleanups of imports/calls only, for a modified file whose symbols were unchanged"})

		buckets := []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}
		m.deltaDuration = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "cerberus_ingest_delta_seconds", Help: "Delta detection duration", Buckets: buckets})
		m.parseDuration = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "cerberus_ingest_parse_seconds", Help: "Parse duration", Buckets: buckets})
		m.embedDuration = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "cerberus_ingest_embed_seconds", Help: "Embedding duration", Buckets: buckets})
		m.writeDuration = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "cerberus_ingest_write_seconds", Help: "Store write duration", Buckets: buckets})
		m.totalDuration = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "cerberus_ingest_total_seconds", Help: "Total run duration", Buckets: buckets})

		prometheus.MustRegister(
			m.deltaAdded, m.deltaModified, m.deltaDeleted, m.deltaRenamed,
			m.deltaFilteredAdded, m.deltaFilteredModified, m.deltaFilteredDeleted, m.deltaFilteredRenamed,
			m.symbolsAdded, m.symbolsModified, m.symbolsRemoved,
			m.embedComputed, m.embedSkipped, m.embedErrors, m.embedRetries,
			m.batchesSent,
			m.pathSweeps, m.edgesOnlySweeps,
			m.deltaDuration, m.parseDuration, m.embedDuration, m.writeDuration, m.totalDuration,
		)
	})
}

// recordEmbedRetry is called by EmbeddingGenerator on every retried provider call.
func recordEmbedRetry() { ingMetrics.init(); ingMetrics.embedRetries.Inc() }

// recordDeltaCounts records one DeltaStats snapshot against the raw
// pre-filter delta counters.
func recordDeltaCounts(stats DeltaStats) {
	ingMetrics.init()
	ingMetrics.deltaAdded.Add(float64(stats.AddedCount))
	ingMetrics.deltaModified.Add(float64(stats.ModifiedCount))
	ingMetrics.deltaDeleted.Add(float64(stats.DeletedCount))
	ingMetrics.deltaRenamed.Add(float64(stats.RenamedCount))
}

// recordFilteredDeltaCounts records one DeltaStats snapshot against the
// post-filter counters.
func recordFilteredDeltaCounts(stats DeltaStats) {
	ingMetrics.init()
	ingMetrics.deltaFilteredAdded.Add(float64(stats.AddedCount))
	ingMetrics.deltaFilteredModified.Add(float64(stats.ModifiedCount))
	ingMetrics.deltaFilteredDeleted.Add(float64(stats.DeletedCount))
	ingMetrics.deltaFilteredRenamed.Add(float64(stats.RenamedCount))
}

// recordBatchSent increments the committed-batch counter.
func recordBatchSent() { ingMetrics.init(); ingMetrics.batchesSent.Inc() }

// recordPathSweep increments the defensive path-cleanup counter.
func recordPathSweep() { ingMetrics.init(); ingMetrics.pathSweeps.Inc() }

// recordEdgesOnlySweep increments the edges-only cleanup counter.
func recordEdgesOnlySweep() { ingMetrics.init(); ingMetrics.edgesOnlySweeps.Inc() }

// RecordBatchSent exposes recordBatchSent to pkg/engine, which commits
// each Batcher-sized batch.
func RecordBatchSent() { recordBatchSent() }

// RecordDeltaCounts exposes recordDeltaCounts to pkg/engine's Update,
// called once per raw GitDelta/hash-comparison delta.
func RecordDeltaCounts(stats DeltaStats) { recordDeltaCounts(stats) }

// RecordFilteredDeltaCounts exposes recordFilteredDeltaCounts to
// pkg/engine's Update, called once per delta surviving FilterDelta.
func RecordFilteredDeltaCounts(stats DeltaStats) { recordFilteredDeltaCounts(stats) }

// RecordPathSweep exposes recordPathSweep to pkg/engine, called whenever
// Update issues a defensive DeleteFile for a path outside the detected
// delta (e.g. a file present in the Store but missing from disk).
func RecordPathSweep() { recordPathSweep() }

// RecordEdgesOnlySweep exposes recordEdgesOnlySweep to pkg/engine, called
// when a modified file's symbols are unchanged but its imports/calls are
// rewritten anyway.
func RecordEdgesOnlySweep() { recordEdgesOnlySweep() }

// RecordSymbolCounts records one batch's symbol add/modify/remove counts.
func RecordSymbolCounts(added, modified, removed int) {
	ingMetrics.init()
	ingMetrics.symbolsAdded.Add(float64(added))
	ingMetrics.symbolsModified.Add(float64(modified))
	ingMetrics.symbolsRemoved.Add(float64(removed))
}

// RecordEmbedOutcome records one EmbedSymbolsResult's computed/skipped/
// error counts.
func RecordEmbedOutcome(computed, skipped, errored int) {
	ingMetrics.init()
	ingMetrics.embedComputed.Add(float64(computed))
	ingMetrics.embedSkipped.Add(float64(skipped))
	ingMetrics.embedErrors.Add(float64(errored))
}

// RecordDurations records one Index/Update run's stage durations.
func RecordDurations(delta, parse, embed, write, total time.Duration) {
	ingMetrics.init()
	if delta > 0 {
		ingMetrics.deltaDuration.Observe(delta.Seconds())
	}
	ingMetrics.parseDuration.Observe(parse.Seconds())
	ingMetrics.embedDuration.Observe(embed.Seconds())
	ingMetrics.writeDuration.Observe(write.Seconds())
	ingMetrics.totalDuration.Observe(total.Seconds())
}
