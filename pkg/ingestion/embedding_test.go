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
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cerberuslabs/cerberus/pkg/model"
)

func TestMockEmbeddingProvider_DeterministicAndNormalized(t *testing.T) {
	p := NewMockEmbeddingProvider(384, nil)

	v1, err := p.Embed(context.Background(), "func Greet() {}")
	require.NoError(t, err)
	v2, err := p.Embed(context.Background(), "func Greet() {}")
	require.NoError(t, err)
	assert.Equal(t, v1, v2)
	assert.Len(t, v1, 384)

	var sumSquares float64
	for _, f := range v1 {
		sumSquares += float64(f) * float64(f)
	}
	assert.InDelta(t, 1.0, math.Sqrt(sumSquares), 1e-4)
}

func TestMockEmbeddingProvider_DiffersForDifferentText(t *testing.T) {
	p := NewMockEmbeddingProvider(16, nil)
	v1, _ := p.Embed(context.Background(), "alpha")
	v2, _ := p.Embed(context.Background(), "beta")
	assert.NotEqual(t, v1, v2)
}

func TestEmbeddingGenerator_EmbedSymbols_Sequential(t *testing.T) {
	gen := NewEmbeddingGenerator(NewMockEmbeddingProvider(8, nil), 1, nil)
	symbols := []model.Symbol{
		{ID: "s1", CodeText: "func A() {}"},
		{ID: "s2", CodeText: "func B() {}"},
	}

	result, err := gen.EmbedSymbols(context.Background(), symbols)
	require.NoError(t, err)
	assert.Len(t, result.Embeddings, 2)
	assert.Equal(t, 0, result.ErrorCount)
}

func TestEmbeddingGenerator_EmbedSymbols_Parallel(t *testing.T) {
	gen := NewEmbeddingGenerator(NewMockEmbeddingProvider(8, nil), 4, nil)
	symbols := make([]model.Symbol, 20)
	for i := range symbols {
		symbols[i] = model.Symbol{ID: string(rune('a' + i)), CodeText: "func X() {}"}
	}

	result, err := gen.EmbedSymbols(context.Background(), symbols)
	require.NoError(t, err)
	assert.Len(t, result.Embeddings, 20)
}

func TestEmbeddingGenerator_EmbedSymbols_EmptyInputNoop(t *testing.T) {
	gen := NewEmbeddingGenerator(NewMockEmbeddingProvider(8, nil), 1, nil)
	result, err := gen.EmbedSymbols(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, result.Embeddings)
}

type failingProvider struct{ err error }

func (f failingProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	return nil, f.err
}

func TestEmbeddingGenerator_EmbedSymbols_ProviderErrorCountedNotFatal(t *testing.T) {
	gen := NewEmbeddingGenerator(failingProvider{err: errors.New("boom")}, 1, nil)
	gen.SetRetryConfig(RetryConfig{MaxRetries: 1})

	result, err := gen.EmbedSymbols(context.Background(), []model.Symbol{{ID: "s1", CodeText: "x"}})
	require.NoError(t, err)
	assert.Equal(t, 1, result.ErrorCount)
	assert.Empty(t, result.Embeddings)
}

func TestEmbeddingGenerator_SetRetryConfig_FillsInvalidFieldsWithDefaults(t *testing.T) {
	gen := NewEmbeddingGenerator(NewMockEmbeddingProvider(8, nil), 1, nil)
	gen.SetRetryConfig(RetryConfig{})
	assert.Equal(t, 3, gen.retry.MaxRetries)
	assert.Equal(t, 200*time.Millisecond, gen.retry.InitialBackoff)
	assert.Equal(t, 2*time.Second, gen.retry.MaxBackoff)
	assert.Equal(t, 2.0, gen.retry.Multiplier)
}

func TestIsRetryableEmbeddingError(t *testing.T) {
	assert.True(t, isRetryableEmbeddingError(errors.New("dial tcp: connection refused")))
	assert.True(t, isRetryableEmbeddingError(errors.New("status 503 Service Unavailable")))
	assert.False(t, isRetryableEmbeddingError(errors.New("invalid api key")))
	assert.False(t, isRetryableEmbeddingError(nil))
}

func TestComputeBackoffWithJitter_RespectsCap(t *testing.T) {
	d := computeBackoffWithJitter(100*time.Millisecond, 10, 2.0, 500*time.Millisecond)
	assert.LessOrEqual(t, d, 500*time.Millisecond)
	assert.GreaterOrEqual(t, d, time.Duration(0))
}

func TestContainsFold_CaseInsensitive(t *testing.T) {
	assert.True(t, containsFold("Connection RESET by peer", "connection reset"))
	assert.False(t, containsFold("all good", "error"))
}

func TestCreateEmbeddingProvider_Mock(t *testing.T) {
	p, err := CreateEmbeddingProvider("mock", nil)
	require.NoError(t, err)
	_, ok := p.(*MockEmbeddingProvider)
	assert.True(t, ok)
}

func TestCreateEmbeddingProvider_UnknownProviderErrors(t *testing.T) {
	_, err := CreateEmbeddingProvider("not-a-real-provider", nil)
	assert.Error(t, err)
}

func TestNormalizeEmbedding_ProducesUnitVector(t *testing.T) {
	v := normalizeEmbedding([]float32{3, 4})
	assert.InDelta(t, 0.6, v[0], 1e-6)
	assert.InDelta(t, 0.8, v[1], 1e-6)
}

func TestNormalizeEmbedding_ZeroVectorUnchanged(t *testing.T) {
	v := normalizeEmbedding([]float32{0, 0})
	assert.Equal(t, []float32{0, 0}, v)
}
