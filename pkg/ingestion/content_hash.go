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
	"fmt"
	"os"
	"path/filepath"

	"github.com/cespare/xxhash/v2"
)

// ContentHash fingerprints a file's bytes for File.ContentHash and an
// embedding's input text for Embedding.InputHash (recorded at embed time;
// Index and Update re-embed every symbol they write without comparing it).
// xxhash is non-cryptographic but collision-resistant enough for
// change-detection, and an order of magnitude faster than sha256 at the
// sizes a full repository scan moves.
func ContentHash(content []byte) string {
	return fmt.Sprintf("%016x", xxhash.Sum64(content))
}

// readFile reads a file's full contents; the Scanner, the parsers, the
// Skeletonizer and ReadFileContent all read through it.
func readFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// ReadFileContent reads relPath's contents relative to root, for callers
// outside this package (the incremental updater's hash-comparison path
// for non-git projects) that need the same read readFile gives parsers.
func ReadFileContent(root, relPath string) ([]byte, error) {
	return readFile(filepath.Join(root, relPath))
}
