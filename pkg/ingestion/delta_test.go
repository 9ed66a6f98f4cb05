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
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// initGitRepo creates a throwaway git repository with an initial commit,
// returning its path. Tests that need a second commit call runGit directly.
func initGitRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	runGit(t, dir, "init", "-q")
	runGit(t, dir, "config", "user.email", "student@example.com")
	runGit(t, dir, "config", "user.name", "Student")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.go"), []byte("package main\n"), 0o644))
	runGit(t, dir, "add", ".")
	runGit(t, dir, "commit", "-q", "-m", "initial")
	return dir
}

func runGit(t *testing.T, dir string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	require.NoErrorf(t, err, "git %v: %s", args, out)
}

func TestDeltaDetector_IsGitRepository(t *testing.T) {
	dir := initGitRepo(t)
	dd := NewDeltaDetector(dir, nil)
	assert.True(t, dd.IsGitRepository())

	dd2 := NewDeltaDetector(t.TempDir(), nil)
	assert.False(t, dd2.IsGitRepository())
}

func TestDeltaDetector_DetectDelta_AddedModifiedDeleted(t *testing.T) {
	dir := initGitRepo(t)
	dd := NewDeltaDetector(dir, nil)
	base, err := dd.GetHeadSHA()
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.go"), []byte("package main\n\nfunc A() {}\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.go"), []byte("package main\n"), 0o644))
	runGit(t, dir, "add", ".")
	runGit(t, dir, "commit", "-q", "-m", "second")

	delta, err := dd.DetectDelta(base, "HEAD")
	require.NoError(t, err)
	assert.Equal(t, []string{"b.go"}, delta.Added)
	assert.Equal(t, []string{"a.go"}, delta.Modified)
	assert.Empty(t, delta.Deleted)
	assert.Equal(t, FileAdded, delta.ChangeType("b.go"))
	assert.Equal(t, FileModified, delta.ChangeType("a.go"))
	assert.True(t, delta.HasChanges())
	assert.Equal(t, 2, delta.GetStats().TotalChanged)
}

func TestDeltaDetector_DetectDelta_EmptyBaseTreatsAllFilesAsAdded(t *testing.T) {
	dir := initGitRepo(t)
	dd := NewDeltaDetector(dir, nil)

	delta, err := dd.DetectDelta("", "HEAD")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.go"}, delta.Added)
}

func TestDeltaDetector_DetectDelta_RenameTracked(t *testing.T) {
	dir := initGitRepo(t)
	dd := NewDeltaDetector(dir, nil)
	base, err := dd.GetHeadSHA()
	require.NoError(t, err)

	runGit(t, dir, "mv", "a.go", "renamed.go")
	runGit(t, dir, "commit", "-q", "-m", "rename")

	delta, err := dd.DetectDelta(base, "HEAD")
	require.NoError(t, err)
	require.Contains(t, delta.Renamed, "a.go")
	assert.Equal(t, "renamed.go", delta.Renamed["a.go"])
	assert.Equal(t, "a.go", delta.GetOldPath("renamed.go"))
	assert.Equal(t, FileRenamed, delta.ChangeType("renamed.go"))
	assert.Equal(t, FileDeleted, delta.ChangeType("a.go"))
}

func TestFilterDelta_ExcludesGlobMatchedAndOversizedFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "vendor"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "vendor", "dep.go"), []byte("package dep\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "big.go"), []byte("0123456789"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "small.go"), []byte("ok"), 0o644))

	delta := &GitDelta{
		Added:   []string{"vendor/dep.go", "big.go", "small.go"},
		Renamed: map[string]string{},
	}
	filtered := FilterDelta(delta, []string{"**/vendor/**"}, 5, dir)

	assert.NotContains(t, filtered.Added, "vendor/dep.go")
	assert.NotContains(t, filtered.Added, "big.go")
	assert.Contains(t, filtered.Added, "small.go")
}

func TestFilterDelta_DeletedFilesAlwaysIncluded(t *testing.T) {
	delta := &GitDelta{Deleted: []string{"gone.go"}, Renamed: map[string]string{}}
	filtered := FilterDelta(delta, nil, 0, t.TempDir())
	assert.Equal(t, []string{"gone.go"}, filtered.Deleted)
}

func TestUnquoteGitPath_HandlesQuotedEscapes(t *testing.T) {
	assert.Equal(t, "a\tb", unquoteGitPath(`"a\tb"`))
	assert.Equal(t, "plain.go", unquoteGitPath("plain.go"))
}

func TestSortedRenameMap_KeepsEveryKey(t *testing.T) {
	m := map[string]string{"z.go": "zz.go", "a.go": "aa.go"}
	ordered := sortedRenameMap(m)
	var keys []string
	for k := range ordered {
		keys = append(keys, k)
	}
	assert.ElementsMatch(t, []string{"a.go", "z.go"}, keys)
}

func TestMinInt(t *testing.T) {
	assert.Equal(t, 3, minInt(3, 8))
	assert.Equal(t, 3, minInt(8, 3))
}
