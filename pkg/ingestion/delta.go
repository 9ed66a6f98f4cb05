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
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"log/slog"
)

// =============================================================================
// GIT DELTA DETECTION
// =============================================================================
//
// This detects which files changed between two git commits, using
// `git diff --name-status -M` to get added/modified/deleted/renamed files.
// The Incremental Updater uses it to re-parse only changed files rather
// than the whole project, and to identify deleted files for Store cleanup.
// Renames are reported distinctly from delete+add; the Incremental Updater
// re-parses a renamed file at its new path and deletes the rows stored
// under its old path.

// FileChangeType classifies how a path differs between two revisions.
type FileChangeType string

const (
	FileAdded    FileChangeType = "added"
	FileModified FileChangeType = "modified"
	FileDeleted  FileChangeType = "deleted"
	FileRenamed  FileChangeType = "renamed"
)

// DeltaDetector detects changed files using git. It is only usable against
// a git worktree; IsGitRepository reports whether a given root qualifies.
// Non-git projects fall back to RevisionStore's file-hash comparison
// instead (see checkpoint.go).
type DeltaDetector struct {
	logger   *slog.Logger
	repoPath string
}

// NewDeltaDetector creates a new delta detector for a git repository.
func NewDeltaDetector(repoPath string, logger *slog.Logger) *DeltaDetector {
	if logger == nil {
		logger = slog.Default()
	}
	return &DeltaDetector{
		logger:   logger,
		repoPath: repoPath,
	}
}

// GitDelta represents the changes between two commits.
type GitDelta struct {
	// BaseSHA is the starting commit (older)
	BaseSHA string

	// HeadSHA is the ending commit (newer)
	HeadSHA string

	// Added are files that were added
	Added []string

	// Modified are files that were modified
	Modified []string

	// Deleted are files that were deleted
	Deleted []string

	// Renamed maps old_path -> new_path for renamed files
	Renamed map[string]string

	// All is the union of all changed files (sorted, deduplicated)
	// For renamed files, includes both old and new paths
	All []string
}

// ChangeType returns the type of change for a file path.
func (d *GitDelta) ChangeType(path string) FileChangeType {
	for _, p := range d.Added {
		if p == path {
			return FileAdded
		}
	}
	for _, p := range d.Modified {
		if p == path {
			return FileModified
		}
	}
	for _, p := range d.Deleted {
		if p == path {
			return FileDeleted
		}
	}
	// Check if this is the new path of a rename
	for oldPath, newPath := range d.Renamed {
		if newPath == path {
			return FileRenamed
		}
		if oldPath == path {
			return FileDeleted // Old path of rename is effectively deleted
		}
	}
	return "" // Not in delta
}

// GetOldPath returns the old path for a renamed file, or "" if not renamed.
func (d *GitDelta) GetOldPath(newPath string) string {
	for oldPath, np := range d.Renamed {
		if np == newPath {
			return oldPath
		}
	}
	return ""
}

// DetectDelta detects changed files between two commits.
// If baseSHA is empty, compares headSHA against an empty tree (all files are "added").
// If headSHA is empty, uses HEAD.
func (dd *DeltaDetector) DetectDelta(baseSHA, headSHA string) (*GitDelta, error) {
	if headSHA == "" {
		headSHA = "HEAD"
	}

	resolvedHead, err := dd.resolveRef(headSHA)
	if err != nil {
		return nil, fmt.Errorf("resolve head SHA: %w", err)
	}

	var resolvedBase string
	if baseSHA == "" {
		// Git's empty tree SHA: compares as if every file were added.
		resolvedBase = "4b825dc642cb6eb9a060e54bf8d69288fbee4904"
		dd.logger.Info("delta.detect.initial",
			"head_sha", resolvedHead[:minInt(8, len(resolvedHead))],
			"msg", "comparing against empty tree (initial index)",
		)
	} else {
		resolvedBase, err = dd.resolveRef(baseSHA)
		if err != nil {
			return nil, fmt.Errorf("resolve base SHA: %w", err)
		}
	}

	delta := &GitDelta{
		BaseSHA: resolvedBase,
		HeadSHA: resolvedHead,
		Renamed: make(map[string]string),
	}

	// --name-status: shows A/M/D/R status. -M: detect renames.
	cmd := exec.Command("git", "diff", "--name-status", "-M", resolvedBase, resolvedHead)
	cmd.Dir = dd.repoPath

	output, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return nil, fmt.Errorf("git diff failed: %s", string(exitErr.Stderr))
		}
		return nil, fmt.Errorf("git diff: %w", err)
	}

	scanner := bufio.NewScanner(bytes.NewReader(output))
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}

		status, paths := parseGitDiffLine(line)
		if status == "" {
			continue
		}

		switch status[0] {
		case 'A':
			delta.Added = append(delta.Added, paths[0])
		case 'M':
			delta.Modified = append(delta.Modified, paths[0])
		case 'D':
			delta.Deleted = append(delta.Deleted, paths[0])
		case 'R':
			// Rename: status is "R100" or "R95" (percentage), paths[0] = old, paths[1] = new
			if len(paths) >= 2 {
				delta.Renamed[paths[0]] = paths[1]
			}
		case 'C':
			// Copy: treat as add
			if len(paths) >= 2 {
				delta.Added = append(delta.Added, paths[1])
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("parse git diff: %w", err)
	}

	sort.Strings(delta.Added)
	sort.Strings(delta.Modified)
	sort.Strings(delta.Deleted)
	delta.Renamed = sortedRenameMap(delta.Renamed)

	delta.All = unionSorted(delta.Added, delta.Modified, delta.Deleted, delta.Renamed)

	dd.logger.Info("delta.detect.complete",
		"base_sha", resolvedBase[:minInt(8, len(resolvedBase))],
		"head_sha", resolvedHead[:minInt(8, len(resolvedHead))],
		"added", len(delta.Added),
		"modified", len(delta.Modified),
		"deleted", len(delta.Deleted),
		"renamed", len(delta.Renamed),
		"total_changed", len(delta.All),
	)

	return delta, nil
}

// parseGitDiffLine parses a line from git diff --name-status output.
// Returns status (A/M/D/R###/C###) and paths.
func parseGitDiffLine(line string) (status string, paths []string) {
	// Format: "STATUS\tpath" or "STATUS\told_path\tnew_path" for renames
	parts := strings.Split(line, "\t")
	if len(parts) < 2 {
		return "", nil
	}

	status = parts[0]
	paths = parts[1:]

	for i, p := range paths {
		paths[i] = unquoteGitPath(p)
	}

	return status, paths
}

// unquoteGitPath removes quotes and handles escape sequences from git paths.
func unquoteGitPath(path string) string {
	if len(path) >= 2 && path[0] == '"' && path[len(path)-1] == '"' {
		unquoted := path[1 : len(path)-1]
		unquoted = strings.ReplaceAll(unquoted, "\\n", "\n")
		unquoted = strings.ReplaceAll(unquoted, "\\t", "\t")
		unquoted = strings.ReplaceAll(unquoted, "\\\\", "\\")
		unquoted = strings.ReplaceAll(unquoted, "\\\"", "\"")
		return unquoted
	}
	return path
}

// resolveRef resolves a git ref (branch, tag, HEAD) to a commit SHA.
func (dd *DeltaDetector) resolveRef(ref string) (string, error) {
	cmd := exec.Command("git", "rev-parse", ref)
	cmd.Dir = dd.repoPath

	output, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return "", fmt.Errorf("git rev-parse %s failed: %s", ref, string(exitErr.Stderr))
		}
		return "", fmt.Errorf("git rev-parse: %w", err)
	}

	return strings.TrimSpace(string(output)), nil
}

// GetHeadSHA returns the current HEAD SHA.
func (dd *DeltaDetector) GetHeadSHA() (string, error) {
	return dd.resolveRef("HEAD")
}

// IsGitRepository checks if the repo path is a valid git repository.
func (dd *DeltaDetector) IsGitRepository() bool {
	cmd := exec.Command("git", "rev-parse", "--git-dir")
	cmd.Dir = dd.repoPath
	err := cmd.Run()
	return err == nil
}

// =============================================================================
// DELTA FILTERING
// =============================================================================

// FilterDelta filters a GitDelta to only include files matching criteria.
// - excludeGlobs: patterns to exclude (e.g., "vendor/**", "node_modules/**")
// - maxFileSize: maximum file size in bytes (0 = no limit)
// - repoPath: path to repository root (for checking file sizes)
func FilterDelta(delta *GitDelta, excludeGlobs []string, maxFileSize int64, repoPath string) *GitDelta {
	filtered := &GitDelta{
		BaseSHA: delta.BaseSHA,
		HeadSHA: delta.HeadSHA,
		Renamed: make(map[string]string),
	}

	shouldInclude := func(path string) bool {
		normalizedPath := filepath.ToSlash(path)
		return !matchesAny(normalizedPath, excludeGlobs)
	}

	// checkFileEligible validates basic constraints (exists, regular file, size, textual).
	checkFileEligible := func(path string) bool {
		fullPath := filepath.Join(repoPath, path)
		info, err := os.Lstat(fullPath)
		if err != nil {
			// File doesn't exist or can't be read - for deleted files this is expected.
			// For others, include and let later stages handle it.
			return true
		}
		// Skip directories and symlinks (potential submodules appear as gitlinks/symlinks).
		if info.Mode()&os.ModeSymlink != 0 || info.IsDir() {
			return false
		}
		if maxFileSize > 0 && info.Size() > maxFileSize {
			return false
		}
		// Heuristic binary detection: scan first 8KB for a NUL byte.
		f, err := os.Open(fullPath)
		if err != nil {
			return true
		}
		defer f.Close()
		const sniff = 8192
		buf := make([]byte, sniff)
		n, _ := io.ReadFull(f, buf)
		if n <= 0 {
			return true
		}
		return bytes.IndexByte(buf[:n], 0x00) < 0
	}

	for _, p := range delta.Added {
		if shouldInclude(p) && checkFileEligible(p) {
			filtered.Added = append(filtered.Added, p)
		}
	}

	for _, p := range delta.Modified {
		if shouldInclude(p) && checkFileEligible(p) {
			filtered.Modified = append(filtered.Modified, p)
		}
	}

	// Deleted files are always included; there's nothing left to stat.
	for _, p := range delta.Deleted {
		if shouldInclude(p) {
			filtered.Deleted = append(filtered.Deleted, p)
		}
	}

	for oldPath, newPath := range delta.Renamed {
		if shouldInclude(newPath) && checkFileEligible(newPath) {
			filtered.Renamed[oldPath] = newPath
			continue
		}
		// The file moved to an excluded/unsupported location: treat the old
		// path as deleted so its indexed rows are still cleaned up.
		if shouldInclude(oldPath) {
			filtered.Deleted = append(filtered.Deleted, oldPath)
		}
	}

	sort.Strings(filtered.Added)
	sort.Strings(filtered.Modified)
	sort.Strings(filtered.Deleted)
	filtered.Renamed = sortedRenameMap(filtered.Renamed)
	filtered.All = unionSorted(filtered.Added, filtered.Modified, filtered.Deleted, filtered.Renamed)

	return filtered
}

// sortedRenameMap rebuilds m by inserting its keys in sorted order (m is
// returned as is when it has fewer than two entries). The result holds the
// same entries; range loops over it still follow Go's randomized map
// iteration order.
func sortedRenameMap(m map[string]string) map[string]string {
	if len(m) < 2 {
		return m
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	ordered := make(map[string]string, len(m))
	for _, k := range keys {
		ordered[k] = m[k]
	}
	return ordered
}

// unionSorted builds the sorted, deduplicated union of the added/modified/
// deleted lists and both sides of every rename.
func unionSorted(added, modified, deleted []string, renamed map[string]string) []string {
	set := make(map[string]bool)
	for _, p := range added {
		set[p] = true
	}
	for _, p := range modified {
		set[p] = true
	}
	for _, p := range deleted {
		set[p] = true
	}
	for oldPath, newPath := range renamed {
		set[oldPath] = true
		set[newPath] = true
	}
	all := make([]string, 0, len(set))
	for p := range set {
		all = append(all, p)
	}
	sort.Strings(all)
	return all
}

// =============================================================================
// DELTA STATISTICS
// =============================================================================

// DeltaStats provides summary statistics for a delta.
type DeltaStats struct {
	AddedCount    int
	ModifiedCount int
	DeletedCount  int
	RenamedCount  int
	TotalChanged  int
}

// GetStats computes summary statistics for the delta.
func (d *GitDelta) GetStats() DeltaStats {
	return DeltaStats{
		AddedCount:    len(d.Added),
		ModifiedCount: len(d.Modified),
		DeletedCount:  len(d.Deleted),
		RenamedCount:  len(d.Renamed),
		TotalChanged:  len(d.All),
	}
}

// HasChanges returns true if there are any changes in the delta.
func (d *GitDelta) HasChanges() bool {
	return len(d.All) > 0
}

// minInt returns the minimum of two ints.
func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
