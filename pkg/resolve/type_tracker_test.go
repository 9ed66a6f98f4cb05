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

	"github.com/cerberuslabs/cerberus/pkg/model"
)

func TestTypeTracker_PrefersAnnotationOverEverything(t *testing.T) {
	tt := NewTypeTracker()
	inf, ok := tt.Infer(ReceiverHints{
		ReceiverExpr:    "s",
		AnnotatedType:   "Server",
		ConstructorType: "Client",
		ParamType:       "Handler",
	})
	require.True(t, ok)
	assert.Equal(t, "Server", inf.Type)
	assert.Equal(t, 0.9, inf.Confidence)
	assert.Equal(t, model.MethodTypeAnnotation, inf.Method)
}

func TestTypeTracker_ConstructorBeatsParam(t *testing.T) {
	tt := NewTypeTracker()
	inf, ok := tt.Infer(ReceiverHints{ReceiverExpr: "c", ConstructorType: "Client", ParamType: "Handler"})
	require.True(t, ok)
	assert.Equal(t, "Client", inf.Type)
	assert.Equal(t, 0.85, inf.Confidence)
	assert.Equal(t, model.MethodClassInstantiation, inf.Method)
}

func TestTypeTracker_ParamBeatsHeuristic(t *testing.T) {
	tt := NewTypeTracker()
	inf, ok := tt.Infer(ReceiverHints{ReceiverExpr: "h", ParamType: "Handler"})
	require.True(t, ok)
	assert.Equal(t, "Handler", inf.Type)
	assert.Equal(t, 0.7, inf.Confidence)
	assert.Equal(t, model.MethodParameterInference, inf.Method)
}

func TestTypeTracker_FallsBackToHeuristic(t *testing.T) {
	tt := NewTypeTracker()
	inf, ok := tt.Infer(ReceiverHints{ReceiverExpr: "server"})
	require.True(t, ok)
	assert.Equal(t, 0.5, inf.Confidence)
	assert.Equal(t, model.MethodHeuristic, inf.Method)
}

func TestTypeTracker_NoMatchReturnsFalse(t *testing.T) {
	tt := NewTypeTracker()
	_, ok := tt.Infer(ReceiverHints{ReceiverExpr: "123bad"})
	assert.False(t, ok)
}
