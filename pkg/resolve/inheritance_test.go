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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Classic diamond: A is the root, B and C both inherit A, D inherits (B, C).
func diamondDecls() []ClassDecl {
	return []ClassDecl{
		{QualifiedName: "A", Bases: nil},
		{QualifiedName: "B", Bases: []string{"A"}},
		{QualifiedName: "C", Bases: []string{"A"}},
		{QualifiedName: "D", Bases: []string{"B", "C"}},
	}
}

func TestInheritanceResolver_SimpleChain(t *testing.T) {
	r := NewInheritanceResolver([]ClassDecl{
		{QualifiedName: "Base"},
		{QualifiedName: "Mid", Bases: []string{"Base"}},
		{QualifiedName: "Leaf", Bases: []string{"Mid"}},
	})
	mro, err := r.Linearize("Leaf")
	require.NoError(t, err)
	assert.Equal(t, []string{"Leaf", "Mid", "Base"}, mro)
}

func TestInheritanceResolver_Diamond(t *testing.T) {
	r := NewInheritanceResolver(diamondDecls())
	mro, err := r.Linearize("D")
	require.NoError(t, err)
	assert.Equal(t, []string{"D", "B", "C", "A"}, mro)
}

func TestInheritanceResolver_UnknownBaseIsLeaf(t *testing.T) {
	r := NewInheritanceResolver([]ClassDecl{
		{QualifiedName: "Local", Bases: []string{"external.Base"}},
	})
	mro, err := r.Linearize("Local")
	require.NoError(t, err)
	assert.Equal(t, []string{"Local", "external.Base"}, mro)
}

func TestInheritanceResolver_InconsistentHierarchyErrors(t *testing.T) {
	// X inherits (A, B); Y inherits (B, A) — conflicting orders for a
	// shared third class Z(X, Y) has no valid C3 linearization.
	r := NewInheritanceResolver([]ClassDecl{
		{QualifiedName: "A"},
		{QualifiedName: "B"},
		{QualifiedName: "X", Bases: []string{"A", "B"}},
		{QualifiedName: "Y", Bases: []string{"B", "A"}},
		{QualifiedName: "Z", Bases: []string{"X", "Y"}},
	})
	_, err := r.Linearize("Z")
	assert.Error(t, err)
}
