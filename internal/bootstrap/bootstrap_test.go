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

package bootstrap

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultDataDir_JoinsHomeDirAndProjectID(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	dir, err := DefaultDataDir("my-project")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".cerberus", "data", "my-project"), dir)
}

func TestInitProject_AppliesDefaultsAndOpensStore(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	repoRoot := t.TempDir()

	eng, info, err := InitProject(ProjectConfig{RepoRoot: repoRoot, EmbeddingProvider: "mock"})
	require.NoError(t, err)
	defer eng.Close()

	assert.Equal(t, filepath.Base(repoRoot), info.ProjectID)
	assert.Equal(t, repoRoot, info.RepoRoot)
	assert.Equal(t, filepath.Join(home, ".cerberus", "data", info.ProjectID), info.DataDir)

	_, err = os.Stat(info.DataDir)
	assert.NoError(t, err)
}

func TestInitProject_IsIdempotent(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	repoRoot := t.TempDir()

	cfg := ProjectConfig{RepoRoot: repoRoot, ProjectID: "fixed-id", EmbeddingProvider: "mock"}

	eng1, _, err := InitProject(cfg)
	require.NoError(t, err)
	require.NoError(t, eng1.Close())

	eng2, _, err := InitProject(cfg)
	require.NoError(t, err)
	require.NoError(t, eng2.Close())
}

func TestOpenProject_MissingDataDirErrorsWithInitHint(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	_, err := OpenProject(ProjectConfig{RepoRoot: t.TempDir(), ProjectID: "never-initialized"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cerberus init")
}

func TestOpenProject_OpensAfterInit(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	repoRoot := t.TempDir()
	cfg := ProjectConfig{RepoRoot: repoRoot, ProjectID: "reopen-me", EmbeddingProvider: "mock"}

	eng, _, err := InitProject(cfg)
	require.NoError(t, err)
	require.NoError(t, eng.Close())

	reopened, err := OpenProject(cfg)
	require.NoError(t, err)
	assert.NoError(t, reopened.Close())
}

func TestListProjects_ReturnsInitializedProjectDirectories(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	eng, info, err := InitProject(ProjectConfig{RepoRoot: t.TempDir(), ProjectID: "proj-a", EmbeddingProvider: "mock"})
	require.NoError(t, err)
	require.NoError(t, eng.Close())

	projects, err := ListProjects()
	require.NoError(t, err)
	assert.Contains(t, projects, info.ProjectID)
}

func TestListProjects_MissingDataDirReturnsEmptyNotError(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	projects, err := ListProjects()
	require.NoError(t, err)
	assert.Empty(t, projects)
}
