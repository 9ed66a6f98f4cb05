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

	"github.com/cerberuslabs/cerberus/pkg/model"
	"github.com/cerberuslabs/cerberus/pkg/resolve"
	"github.com/cerberuslabs/cerberus/pkg/retrieval"
)

func TestResolve_RewritingCallGraphAfterIndex(t *testing.T) {
	eng, repoRoot := newTestEngine(t)
	ctx := context.Background()

	_, err := eng.Index(ctx, repoRoot, IndexOptions{})
	require.NoError(t, err)

	report, err := eng.Resolve(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, report.SymbolsIndexed, 2)
}

func TestCallGraph_TraversesCalleesFromGreet(t *testing.T) {
	eng, repoRoot := newTestEngine(t)
	ctx := context.Background()

	_, err := eng.Index(ctx, repoRoot, IndexOptions{})
	require.NoError(t, err)

	syms, err := eng.GetSymbol(ctx, "Greet", true, "")
	require.NoError(t, err)
	require.NotEmpty(t, syms)

	graph, err := eng.CallGraph(ctx, syms[0].ID, resolve.Forward, 5)
	require.NoError(t, err)
	assert.Equal(t, syms[0].ID, graph.Root)
}

func TestContext_AssemblesAroundSymbol(t *testing.T) {
	eng, repoRoot := newTestEngine(t)
	ctx := context.Background()

	_, err := eng.Index(ctx, repoRoot, IndexOptions{})
	require.NoError(t, err)

	syms, err := eng.GetSymbol(ctx, "salutation", true, "")
	require.NoError(t, err)
	require.NotEmpty(t, syms)

	out, err := eng.Context(ctx, syms[0].ID, retrieval.AssembleOptions{Padding: 1})
	require.NoError(t, err)
	assert.Equal(t, syms[0].ID, out.Target)
	assert.NotEmpty(t, out.Text)
}

func TestSnippet_ReturnsSourceAroundSymbol(t *testing.T) {
	eng, repoRoot := newTestEngine(t)
	ctx := context.Background()

	_, err := eng.Index(ctx, repoRoot, IndexOptions{})
	require.NoError(t, err)

	syms, err := eng.GetSymbol(ctx, "salutation", true, "")
	require.NoError(t, err)
	require.NotEmpty(t, syms)

	snip, err := eng.Snippet(ctx, syms[0].ID, 1)
	require.NoError(t, err)
	assert.Contains(t, snip.Content, "salutation")
}

func TestExtractBases_ParsesParenthesizedAndExtendsForms(t *testing.T) {
	pySym := model.Symbol{Signature: "class Dog(Animal, Named):"}
	assert.Equal(t, []string{"Animal", "Named"}, extractBases(pySym))

	jsSym := model.Symbol{Signature: "class Dog extends Animal {"}
	assert.Equal(t, []string{"Animal"}, extractBases(jsSym))

	goSym := model.Symbol{Signature: "type Dog interface {"}
	assert.Empty(t, extractBases(goSym))
}

func TestShouldRebuild_RatioAboveThresholdTriggersFullIndex(t *testing.T) {
	assert.True(t, shouldRebuild(4, 10, 0.3))
	assert.False(t, shouldRebuild(2, 10, 0.3))
	assert.True(t, shouldRebuild(1, 0, 0.3), "no known files yet means any change forces a rebuild")
}
