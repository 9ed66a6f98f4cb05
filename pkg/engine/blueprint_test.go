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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlueprint_ListsSymbolsOrderedByLine(t *testing.T) {
	eng, repoRoot := newTestEngine(t)
	ctx := context.Background()

	_, err := eng.Index(ctx, repoRoot, IndexOptions{})
	require.NoError(t, err)

	bp, err := eng.Blueprint(ctx, "sample.go", nil)
	require.NoError(t, err)

	require.GreaterOrEqual(t, len(bp.Symbols), 2)
	for i := 1; i < len(bp.Symbols); i++ {
		assert.LessOrEqual(t, bp.Symbols[i-1].StartLine, bp.Symbols[i].StartLine)
	}
	for _, sym := range bp.Symbols {
		assert.Empty(t, sym.Skeleton, "no overlay requested, so no symbol should carry a skeleton")
	}
}

func TestBlueprint_OverlaySymbolGetsSkeleton(t *testing.T) {
	eng, repoRoot := newTestEngine(t)
	ctx := context.Background()

	_, err := eng.Index(ctx, repoRoot, IndexOptions{})
	require.NoError(t, err)

	bp, err := eng.Blueprint(ctx, "sample.go", []string{"salutation"})
	require.NoError(t, err)

	var found bool
	for _, sym := range bp.Symbols {
		if sym.ShortName == "salutation" {
			found = true
			assert.NotEmpty(t, sym.Skeleton)
		}
	}
	assert.True(t, found, "expected salutation in the blueprint")
}

func TestBlueprint_UnknownFileReturnsNotFound(t *testing.T) {
	eng, repoRoot := newTestEngine(t)
	ctx := context.Background()

	_, err := eng.Index(ctx, repoRoot, IndexOptions{})
	require.NoError(t, err)

	_, err = eng.Blueprint(ctx, "does-not-exist.go", nil)
	assert.Error(t, err)
}

func TestSkeletonize_PreservesNamedSymbolCollapsesOthers(t *testing.T) {
	eng, repoRoot := newTestEngine(t)
	ctx := context.Background()

	_, err := eng.Index(ctx, repoRoot, IndexOptions{})
	require.NoError(t, err)

	out, err := eng.Skeletonize(ctx, "sample.go", []string{"salutation"})
	require.NoError(t, err)

	assert.Contains(t, out.Text, `"hello, " + name`)
	assert.Equal(t, 1, out.SymbolsPreserved)
	assert.GreaterOrEqual(t, out.SymbolsSkeletonized, 1)
	assert.Greater(t, out.CompressionRatio, 0.0)
}
