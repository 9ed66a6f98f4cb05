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

// Package bootstrap resolves a project's on-disk layout (data directory,
// repo root) and opens the engine.Engine backing it, so every cmd/cerberus
// subcommand shares one project-discovery path.
package bootstrap

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/cerberuslabs/cerberus/pkg/engine"
)

// ProjectConfig holds configuration for initializing or opening a project.
type ProjectConfig struct {
	// ProjectID is the logical project identifier. Defaults to the base
	// name of RepoRoot when empty.
	ProjectID string

	// DataDir is the directory the store's SQLite database and revision
	// file live under. Defaults to ~/.cerberus/data/<project_id>.
	DataDir string

	// RepoRoot is the repository Index/Update walk. Defaults to the
	// current working directory.
	RepoRoot string

	// EmbeddingProvider selects the embedding backend; see engine.Config.
	EmbeddingProvider string

	// EmbeddingDimensions is retained for CLI flag compatibility; the
	// store infers a symbol's vector width from the first embedding it
	// receives, so this is informational only.
	EmbeddingDimensions int
}

// ProjectInfo holds information about an initialized or opened project.
type ProjectInfo struct {
	ProjectID string
	DataDir   string
	RepoRoot  string
}

// DefaultDataDir returns the default store directory for projectID, the
// same path applyDefaults fills ProjectConfig.DataDir with when left
// empty. Exported so callers that only need the path (e.g. "reset",
// which must not trigger engine.Open) don't have to re-derive it.
func DefaultDataDir(projectID string) (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(homeDir, ".cerberus", "data", projectID), nil
}

func (c *ProjectConfig) applyDefaults() error {
	if c.RepoRoot == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("get working dir: %w", err)
		}
		c.RepoRoot = wd
	}
	if c.ProjectID == "" {
		c.ProjectID = filepath.Base(c.RepoRoot)
	}
	if c.DataDir == "" {
		dir, err := DefaultDataDir(c.ProjectID)
		if err != nil {
			return err
		}
		c.DataDir = dir
	}
	return nil
}

func (c ProjectConfig) engineConfig() engine.Config {
	return engine.Config{
		ProjectID:         c.ProjectID,
		RepoRoot:          c.RepoRoot,
		EmbeddingProvider: c.EmbeddingProvider,
	}
}

// InitProject initializes a new project's store at config.DataDir and
// opens it. This function is idempotent: calling it multiple times against
// the same DataDir is safe, since engine.Open creates the store's schema
// only when it doesn't already exist.
func InitProject(config ProjectConfig) (*engine.Engine, *ProjectInfo, error) {
	if err := config.applyDefaults(); err != nil {
		return nil, nil, err
	}

	eng, err := engine.Open(config.DataDir, config.engineConfig())
	if err != nil {
		return nil, nil, fmt.Errorf("open engine: %w", err)
	}

	return eng, &ProjectInfo{
		ProjectID: config.ProjectID,
		DataDir:   config.DataDir,
		RepoRoot:  config.RepoRoot,
	}, nil
}

// OpenProject opens an existing project's store. Returns an error directing
// the caller to run init first when the data directory doesn't exist yet.
func OpenProject(config ProjectConfig) (*engine.Engine, error) {
	if err := config.applyDefaults(); err != nil {
		return nil, err
	}

	if _, err := os.Stat(config.DataDir); os.IsNotExist(err) {
		return nil, fmt.Errorf("project not found: %s (run 'cerberus init' first)", config.DataDir)
	}

	eng, err := engine.Open(config.DataDir, config.engineConfig())
	if err != nil {
		return nil, fmt.Errorf("open engine: %w", err)
	}
	return eng, nil
}

// ListProjects returns the project IDs found under the default data
// directory's parent.
func ListProjects() ([]string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("get home dir: %w", err)
	}

	dataDir := filepath.Join(homeDir, ".cerberus", "data")
	entries, err := os.ReadDir(dataDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read data dir: %w", err)
	}

	var projects []string
	for _, entry := range entries {
		if entry.IsDir() {
			projects = append(projects, entry.Name())
		}
	}
	return projects, nil
}
