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

package retrieval

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cerberuslabs/cerberus/pkg/model"
)

type stubEmbedder struct {
	vec []float32
	err error
}

func (s stubEmbedder) Embed(context.Context, string) ([]float32, error) { return s.vec, s.err }

func TestVectorRetriever_NoEmbedderDegradesToVectorUnavailable(t *testing.T) {
	v := NewVectorRetriever(&fakeStore{}, nil)
	_, err := v.Search(context.Background(), "auth flow", 5)
	require.Error(t, err)

	var ee *model.EngineError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, model.KindVectorUnavailable, ee.Kind)
}

func TestVectorRetriever_ConvertsDistanceToScore(t *testing.T) {
	store := &fakeStore{
		vectorIDs:   []string{"near", "far"},
		vectorDists: []float32{0.1, 0.8},
	}
	v := NewVectorRetriever(store, stubEmbedder{vec: []float32{1, 0, 0}})

	results, err := v.Search(context.Background(), "auth flow", 5)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.InDelta(t, 0.9, results[0].Score, 1e-6)
	assert.InDelta(t, 0.2, results[1].Score, 1e-6)
}
