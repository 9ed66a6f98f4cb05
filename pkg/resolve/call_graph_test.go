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

package resolve

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEdges struct {
	forward  map[string][]string
	backward map[string][]string
}

func (f fakeEdges) CalleesOf(_ context.Context, id string) ([]string, error) { return f.forward[id], nil }
func (f fakeEdges) CallersOf(_ context.Context, id string) ([]string, error) { return f.backward[id], nil }

func TestCallGraphBuilder_ForwardBFS(t *testing.T) {
	edges := fakeEdges{forward: map[string][]string{
		"A": {"B", "C"},
		"B": {"D"},
		"C": {"D"},
		"D": {},
	}}
	b := NewCallGraphBuilder(edges)
	graph, err := b.Traverse(context.Background(), "A", Forward, 10)
	require.NoError(t, err)
	assert.Equal(t, "A", graph.Root)

	var dNodes int
	for _, n := range graph.Nodes {
		if n.SymbolID == "D" {
			dNodes++
		}
	}
	assert.Equal(t, 2, dNodes, "D is reached via both B and C and recorded each time")
}

func TestCallGraphBuilder_CycleIsTaggedNotExpanded(t *testing.T) {
	edges := fakeEdges{forward: map[string][]string{
		"A": {"B"},
		"B": {"A"}, // cycle back to root
	}}
	b := NewCallGraphBuilder(edges)
	graph, err := b.Traverse(context.Background(), "A", Forward, 10)
	require.NoError(t, err)

	var cycleFound bool
	for _, n := range graph.Nodes {
		if n.SymbolID == "A" && n.Cycle {
			cycleFound = true
		}
	}
	assert.True(t, cycleFound, "revisiting A must be tagged as a cycle, not expanded again")
}

func TestCallGraphBuilder_RespectsMaxDepth(t *testing.T) {
	edges := fakeEdges{forward: map[string][]string{
		"A": {"B"}, "B": {"C"}, "C": {"D"}, "D": {"E"},
	}}
	b := NewCallGraphBuilder(edges)
	graph, err := b.Traverse(context.Background(), "A", Forward, 2)
	require.NoError(t, err)

	var deepest int
	for _, n := range graph.Nodes {
		if n.Depth > deepest {
			deepest = n.Depth
		}
	}
	assert.LessOrEqual(t, deepest, 2)
}

func TestCallGraphBuilder_BackwardDirection(t *testing.T) {
	edges := fakeEdges{backward: map[string][]string{
		"D": {"B", "C"},
	}}
	b := NewCallGraphBuilder(edges)
	graph, err := b.Traverse(context.Background(), "D", Backward, 5)
	require.NoError(t, err)

	ids := make(map[string]bool)
	for _, n := range graph.Nodes {
		ids[n.SymbolID] = true
	}
	assert.True(t, ids["B"])
	assert.True(t, ids["C"])
}
