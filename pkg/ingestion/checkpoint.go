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
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Revision records the state Update needs to compute a delta against: the
// VCS commit indexed last time (when the project is a git worktree) and,
// regardless of VCS, the content hash of every file that was indexed, so a
// non-git project can fall back to hash comparison.
//
// Unlike the teacher's mid-scan checkpoint, a Revision is never read back
// mid-run — the Scanner's FileResult sequence is non-restartable. It is
// written once, after a full Index or Update completes.
type Revision struct {
	ProjectID   string            `json:"project_id"`
	CommitSHA   string            `json:"commit_sha,omitempty"`
	FileHashes  map[string]string `json:"file_hashes"` // file path -> content hash
	SymbolCount int               `json:"symbol_count"`
	IndexedAt   string            `json:"indexed_at"`
}

// RevisionStore persists the last-indexed Revision for a project, one JSON
// file per project ID.
type RevisionStore struct {
	dir string
}

// NewRevisionStore builds a RevisionStore rooted at dir.
func NewRevisionStore(dir string) *RevisionStore {
	return &RevisionStore{dir: dir}
}

// Load reads the last-recorded Revision for projectID. A missing file is
// not an error: it returns (nil, nil), meaning this project has never been
// indexed before.
func (s *RevisionStore) Load(projectID string) (*Revision, error) {
	data, err := os.ReadFile(s.path(projectID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read revision: %w", err)
	}
	var rev Revision
	if err := json.Unmarshal(data, &rev); err != nil {
		return nil, fmt.Errorf("parse revision: %w", err)
	}
	if rev.FileHashes == nil {
		rev.FileHashes = make(map[string]string)
	}
	return &rev, nil
}

// Save writes rev atomically (temp file + rename), overwriting whatever
// was previously recorded for its ProjectID.
func (s *RevisionStore) Save(rev *Revision) error {
	path := s.path(rev.ProjectID)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create revision dir: %w", err)
	}

	data, err := json.MarshalIndent(rev, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal revision: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write revision temp: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename revision: %w", err)
	}
	return nil
}

// Clear removes a project's recorded Revision, forcing the next Update to
// run as a full re-index.
func (s *RevisionStore) Clear(projectID string) error {
	if err := os.Remove(s.path(projectID)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove revision: %w", err)
	}
	return nil
}

func (s *RevisionStore) path(projectID string) string {
	if s.dir != "" {
		return filepath.Join(s.dir, fmt.Sprintf("revision-%s.json", projectID))
	}
	return fmt.Sprintf("revision-%s.json", projectID)
}
