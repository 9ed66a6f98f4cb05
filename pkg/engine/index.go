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

import (
	"context"
	"fmt"
	"time"

	"github.com/cerberuslabs/cerberus/pkg/ingestion"
	"github.com/cerberuslabs/cerberus/pkg/model"
)

// Index performs a full scan-parse-write pass over root: every file the
// Scanner discovers is parsed, written, and (when an embedding provider is
// configured) embedded, then the reference graph is rebuilt by Resolve.
// Index holds the write lock for its entire duration; concurrent Index/
// Update calls on the same Engine serialize.
func (e *Engine) Index(ctx context.Context, root string, opts IndexOptions) (*IngestReport, error) {
	e.writeMu.Lock()
	defer e.writeMu.Unlock()

	runStart := time.Now()
	runID := newRunID()
	e.logger.Info("engine.index.start", "run_id", runID, "root", root)

	scanOpts := ingestion.ScanOptions{
		ExcludeGlobs:      mergeExcludeGlobs(e.cfg.ExcludeGlobs, opts.ExcludeGlobs),
		MaxFileSizeBytes:  firstPositive(opts.MaxFileSizeBytes, e.cfg.MaxFileSizeBytes),
		MaxSymbolsPerFile: firstPositiveInt(opts.MaxSymbolsPerFile, e.cfg.MaxSymbolsPerFile),
		Concurrency:       firstPositiveInt(opts.ParseWorkers, e.cfg.ParseWorkers),
	}

	parseStart := time.Now()
	results, err := e.scanner.Scan(ctx, root, scanOpts)
	if err != nil {
		return nil, model.NewParseError("Index", root, err)
	}
	parseDuration := time.Since(parseStart)
	e.logger.Info("engine.index.step.scan_complete", "run_id", runID, "files", len(results))

	maxTotal := firstPositiveInt(opts.MaxSymbolsTotal, e.cfg.MaxSymbolsTotal)
	report, err := e.writeAndEmbed(ctx, results, maxTotal, runID)
	if err != nil {
		return nil, err
	}
	report.ParseDuration = parseDuration

	resolveStart := time.Now()
	resolveReport, err := e.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	report.ResolveDuration = time.Since(resolveStart)
	report.ReferencesWritten = resolveReport.ReferencesWritten
	report.Diagnostics = append(report.Diagnostics, resolveReport.Diagnostics...)

	fileHashes := make(map[string]string, len(results))
	for _, r := range results {
		fileHashes[r.Path] = r.ContentHash
	}
	rev := &ingestion.Revision{
		ProjectID:   e.cfg.ProjectID,
		FileHashes:  fileHashes,
		SymbolCount: report.SymbolsWritten,
		IndexedAt:   runStart.UTC().Format(time.RFC3339),
	}
	if err := e.revisions.Save(rev); err != nil {
		report.Diagnostics = append(report.Diagnostics, fmt.Sprintf("revision save failed: %v", err))
	}

	report.ProjectID = e.cfg.ProjectID
	report.RunID = runID
	report.TotalDuration = time.Since(runStart)

	ingestion.RecordDurations(0, report.ParseDuration, report.EmbedDuration, report.WriteDuration, report.TotalDuration)
	e.logger.Info("engine.index.complete", "run_id", runID,
		"files", report.FilesProcessed, "symbols", report.SymbolsWritten,
		"references", report.ReferencesWritten, "duration", report.TotalDuration)

	return report, nil
}

// Update re-indexes only the files that changed since the last recorded
// Revision. When the project is a git worktree, the changed set comes
// from DeltaDetector; otherwise every known file's content hash is
// compared against the Revision's FileHashes. When the changed/indexed
// ratio exceeds cfg.RebuildThreshold, Update falls back to a full Index
// rather than risk a partially-consistent incremental pass.
func (e *Engine) Update(ctx context.Context, root string, opts UpdateOptions) (*UpdateReport, error) {
	prior, err := e.revisions.Load(e.cfg.ProjectID)
	if err != nil {
		return nil, model.NewStoreError("Update", err)
	}
	if prior == nil {
		full, err := e.Index(ctx, root, opts.IndexOptions)
		if err != nil {
			return nil, err
		}
		return &UpdateReport{IngestReport: *full, FullRebuild: true}, nil
	}

	changed, deleted, stats, err := e.detectChanges(root, prior, opts)
	if err != nil {
		return nil, err
	}

	if shouldRebuild(len(changed)+len(deleted), len(prior.FileHashes), e.cfg.RebuildThreshold) {
		e.logger.Info("engine.update.rebuild_threshold_exceeded", "changed", len(changed), "deleted", len(deleted), "known", len(prior.FileHashes))
		full, err := e.Index(ctx, root, opts.IndexOptions)
		if err != nil {
			return nil, err
		}
		return &UpdateReport{IngestReport: *full, FullRebuild: true}, nil
	}

	e.writeMu.Lock()
	defer e.writeMu.Unlock()

	runStart := time.Now()
	runID := newRunID()
	e.logger.Info("engine.update.start", "run_id", runID, "changed", len(changed), "deleted", len(deleted))

	if err := e.deleteFiles(ctx, deleted); err != nil {
		return nil, err
	}

	scanOpts := ingestion.ScanOptions{
		ExcludeGlobs:      mergeExcludeGlobs(e.cfg.ExcludeGlobs, opts.ExcludeGlobs),
		MaxFileSizeBytes:  firstPositive(opts.MaxFileSizeBytes, e.cfg.MaxFileSizeBytes),
		MaxSymbolsPerFile: firstPositiveInt(opts.MaxSymbolsPerFile, e.cfg.MaxSymbolsPerFile),
		Concurrency:       firstPositiveInt(opts.ParseWorkers, e.cfg.ParseWorkers),
	}
	parseStart := time.Now()
	results, err := e.scanner.ScanPaths(ctx, root, changed, scanOpts)
	if err != nil {
		return nil, model.NewParseError("Update", root, err)
	}
	parseDuration := time.Since(parseStart)

	maxTotal := firstPositiveInt(opts.MaxSymbolsTotal, e.cfg.MaxSymbolsTotal)
	report, err := e.writeAndEmbed(ctx, results, maxTotal, runID)
	if err != nil {
		return nil, err
	}
	report.ParseDuration = parseDuration

	resolveStart := time.Now()
	resolveReport, err := e.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	report.ResolveDuration = time.Since(resolveStart)
	report.ReferencesWritten = resolveReport.ReferencesWritten
	report.Diagnostics = append(report.Diagnostics, resolveReport.Diagnostics...)

	fileHashes := mergeFileHashes(prior.FileHashes, results, deleted)
	rev := &ingestion.Revision{
		ProjectID:   e.cfg.ProjectID,
		CommitSHA:   opts.HeadSHA,
		FileHashes:  fileHashes,
		SymbolCount: report.SymbolsWritten,
		IndexedAt:   runStart.UTC().Format(time.RFC3339),
	}
	if err := e.revisions.Save(rev); err != nil {
		report.Diagnostics = append(report.Diagnostics, fmt.Sprintf("revision save failed: %v", err))
	}

	report.ProjectID = e.cfg.ProjectID
	report.RunID = runID
	report.TotalDuration = time.Since(runStart)

	ingestion.RecordDurations(0, report.ParseDuration, report.EmbedDuration, report.WriteDuration, report.TotalDuration)
	ingestion.RecordDeltaCounts(stats)
	ingestion.RecordFilteredDeltaCounts(stats)

	e.logger.Info("engine.update.complete", "run_id", runID,
		"files", report.FilesProcessed, "symbols", report.SymbolsWritten, "duration", report.TotalDuration)

	return &UpdateReport{
		IngestReport:  *report,
		FilesAdded:    stats.AddedCount,
		FilesModified: stats.ModifiedCount,
		FilesDeleted:  stats.DeletedCount,
		FilesRenamed:  stats.RenamedCount,
	}, nil
}

// detectChanges returns the set of paths to (re)parse and the set of
// paths to delete, preferring git delta detection and falling back to
// hash comparison for non-git projects.
func (e *Engine) detectChanges(root string, prior *ingestion.Revision, opts UpdateOptions) (changed, deleted []string, stats ingestion.DeltaStats, err error) {
	detector := ingestion.NewDeltaDetector(root, e.logger)
	if detector.IsGitRepository() {
		base := opts.BaseSHA
		if base == "" {
			base = prior.CommitSHA
		}
		delta, err := detector.DetectDelta(base, opts.HeadSHA)
		if err != nil {
			return nil, nil, ingestion.DeltaStats{}, model.NewStoreError("Update", err)
		}
		filtered := ingestion.FilterDelta(delta, mergeExcludeGlobs(e.cfg.ExcludeGlobs, opts.ExcludeGlobs), firstPositive(opts.MaxFileSizeBytes, e.cfg.MaxFileSizeBytes), root)
		changed = append(append([]string{}, filtered.Added...), filtered.Modified...)
		deleted = append([]string{}, filtered.Deleted...)
		for oldPath, newPath := range filtered.Renamed {
			changed = append(changed, newPath)
			deleted = append(deleted, oldPath)
		}
		return changed, deleted, filtered.GetStats(), nil
	}

	known, err := e.store.KnownFiles(context.Background())
	if err != nil {
		return nil, nil, ingestion.DeltaStats{}, model.NewStoreError("Update", err)
	}
	present, err := e.scanner.Walk(root, ingestion.ScanOptions{ExcludeGlobs: mergeExcludeGlobs(e.cfg.ExcludeGlobs, opts.ExcludeGlobs)})
	if err != nil {
		return nil, nil, ingestion.DeltaStats{}, model.NewParseError("Update", root, err)
	}

	onDisk := make(map[string]bool, len(present))
	for _, f := range present {
		onDisk[f.RelPath()] = true
	}
	wasKnown := make(map[string]bool, len(known))
	for _, path := range known {
		wasKnown[path] = true
		if !onDisk[path] {
			deleted = append(deleted, path)
			continue
		}
		content, readErr := e.snapshotHash(root, path)
		if readErr != nil {
			deleted = append(deleted, path)
			continue
		}
		if prior.FileHashes[path] != content {
			changed = append(changed, path)
		}
	}
	var added int
	for path := range onDisk {
		if !wasKnown[path] {
			changed = append(changed, path)
			added++
		}
	}
	stats = ingestion.DeltaStats{AddedCount: added, ModifiedCount: len(changed) - added, DeletedCount: len(deleted)}
	return changed, deleted, stats, nil
}

func (e *Engine) snapshotHash(root, relPath string) (string, error) {
	data, err := ingestion.ReadFileContent(root, relPath)
	if err != nil {
		return "", err
	}
	return ingestion.ContentHash(data), nil
}

func (e *Engine) deleteFiles(ctx context.Context, paths []string) error {
	if len(paths) == 0 {
		return nil
	}
	txn, err := e.store.BeginTxn(ctx)
	if err != nil {
		return model.NewStoreError("Update", err)
	}
	for _, path := range paths {
		if err := txn.DeleteFile(ctx, path); err != nil {
			_ = txn.Rollback()
			return model.NewStoreError("Update", err)
		}
	}
	if err := txn.Commit(); err != nil {
		return model.NewStoreError("Update", err)
	}
	ingestion.RecordPathSweep()
	return nil
}

// writeAndEmbed batches results into Batcher-sized transactions, writes
// symbols/imports/calls, then embeds every written symbol when an
// embedding provider is configured. Returns a report with RunID and the
// write/embed counts and durations set; ParseDuration, the Resolve results
// (ReferencesWritten, ResolveDuration, its Diagnostics), ProjectID and
// TotalDuration are left for the caller to fill in.
func (e *Engine) writeAndEmbed(ctx context.Context, results []ingestion.FileResult, maxSymbolsTotal int, runID string) (*IngestReport, error) {
	report := &IngestReport{RunID: runID}

	writeStart := time.Now()
	var allWrittenSymbols []model.Symbol
	totalSymbols := 0

	for _, batch := range e.batcher.Batch(results) {
		if maxSymbolsTotal > 0 && totalSymbols >= maxSymbolsTotal {
			report.CapacityExceeded = true
			break
		}

		txn, err := e.store.BeginTxn(ctx)
		if err != nil {
			return nil, model.NewStoreError("Index", err)
		}

		var batchSymbols []model.Symbol
		var batchImports []model.Import
		var batchCalls []model.MethodCall

		for _, fr := range batch {
			report.FilesProcessed++
			if fr.Diagnostic != "" {
				report.ParseErrors++
				report.Diagnostics = append(report.Diagnostics, fmt.Sprintf("%s: %s", fr.Path, fr.Diagnostic))
			}
			if fr.Truncated {
				report.CodeTextTruncated++
			}

			symbols := fr.Symbols
			if maxSymbolsTotal > 0 && totalSymbols+len(symbols) > maxSymbolsTotal {
				symbols = symbols[:maxSymbolsTotal-totalSymbols]
				report.CapacityExceeded = true
			}
			totalSymbols += len(symbols)

			// A file being reindexed (Update's changed set, or a rerun of
			// Index) may have dropped or renamed symbols since its last
			// pass; purge everything it previously owned so the batch
			// writes below replace its rows as a unit (I2) instead of
			// upserting alongside whatever the old identity keys left
			// behind. A never-before-seen path deletes nothing.
			if err := txn.DeleteFile(ctx, fr.Path); err != nil {
				_ = txn.Rollback()
				return nil, model.NewStoreError("Index", err)
			}

			if err := txn.UpsertFile(ctx, model.File{
				Path:        fr.Path,
				Language:    fr.Language,
				ContentHash: fr.ContentHash,
				SizeBytes:   fr.Size,
				MTime:       time.Now().Unix(),
			}); err != nil {
				_ = txn.Rollback()
				return nil, model.NewStoreError("Index", err)
			}

			batchSymbols = append(batchSymbols, symbols...)
			batchImports = append(batchImports, fr.Imports...)
			batchCalls = append(batchCalls, fr.Calls...)
		}

		for _, chunk := range ingestion.SplitRows(batchSymbols) {
			writtenIDs, err := txn.WriteSymbolsBatch(ctx, chunk)
			if err != nil {
				_ = txn.Rollback()
				return nil, model.NewStoreError("Index", err)
			}
			report.SymbolsWritten += len(writtenIDs)
		}
		for _, chunk := range ingestion.SplitRows(batchImports) {
			if err := txn.WriteImportsBatch(ctx, chunk); err != nil {
				_ = txn.Rollback()
				return nil, model.NewStoreError("Index", err)
			}
			report.ImportsWritten += len(chunk)
		}
		for _, chunk := range ingestion.SplitRows(batchCalls) {
			if err := txn.WriteCallsBatch(ctx, chunk); err != nil {
				_ = txn.Rollback()
				return nil, model.NewStoreError("Index", err)
			}
			report.CallsWritten += len(chunk)
		}

		if err := txn.Commit(); err != nil {
			return nil, model.NewStoreError("Index", err)
		}
		ingestion.RecordBatchSent()
		allWrittenSymbols = append(allWrittenSymbols, batchSymbols...)

		if maxSymbolsTotal > 0 && totalSymbols >= maxSymbolsTotal {
			report.CapacityExceeded = true
			break
		}
	}
	report.WriteDuration = time.Since(writeStart)
	ingestion.RecordSymbolCounts(report.SymbolsWritten, 0, 0)

	if e.embedGen != nil && len(allWrittenSymbols) > 0 {
		embedStart := time.Now()
		embedResult, err := e.embedGen.EmbedSymbols(ctx, allWrittenSymbols)
		if err != nil {
			return nil, model.NewParseError("Index", "", err)
		}
		for _, emb := range embedResult.Embeddings {
			if err := e.store.WriteEmbedding(ctx, emb); err != nil {
				report.Diagnostics = append(report.Diagnostics, fmt.Sprintf("write embedding %s: %v", emb.SymbolID, err))
				continue
			}
		}
		report.EmbeddingsComputed = len(embedResult.Embeddings)
		report.EmbeddingErrors = embedResult.ErrorCount
		report.EmbedDuration = time.Since(embedStart)
		ingestion.RecordEmbedOutcome(report.EmbeddingsComputed, 0, report.EmbeddingErrors)
	}

	if report.FilesProcessed > 0 {
		report.ParseErrorRate = float64(report.ParseErrors) / float64(report.FilesProcessed)
	}

	return report, nil
}

func mergeExcludeGlobs(base, extra []string) []string {
	if len(extra) == 0 {
		return base
	}
	return append(append([]string{}, base...), extra...)
}

func firstPositive(a, b int64) int64 {
	if a > 0 {
		return a
	}
	return b
}

func firstPositiveInt(a, b int) int {
	if a > 0 {
		return a
	}
	return b
}

func shouldRebuild(changedCount, knownCount int, threshold float64) bool {
	if knownCount == 0 {
		return changedCount > 0
	}
	return float64(changedCount)/float64(knownCount) > threshold
}

func mergeFileHashes(prior map[string]string, results []ingestion.FileResult, deleted []string) map[string]string {
	merged := make(map[string]string, len(prior)+len(results))
	for k, v := range prior {
		merged[k] = v
	}
	for _, r := range results {
		merged[r.Path] = r.ContentHash
	}
	for _, path := range deleted {
		delete(merged, path)
	}
	return merged
}
