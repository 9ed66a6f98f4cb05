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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyQuery_CamelCaseIsKeyword(t *testing.T) {
	assert.Equal(t, ModeKeyword, ClassifyQuery("ParseConfig"))
}

func TestClassifyQuery_SnakeCaseIsKeyword(t *testing.T) {
	assert.Equal(t, ModeKeyword, ClassifyQuery("parse_config"))
}

func TestClassifyQuery_ShortPhraseIsKeyword(t *testing.T) {
	assert.Equal(t, ModeKeyword, ClassifyQuery("auth handler"))
}

func TestClassifyQuery_QuestionIsSemantic(t *testing.T) {
	assert.Equal(t, ModeSemantic, ClassifyQuery("how does authentication get validated here"))
}

func TestClassifyQuery_LongPhraseIsSemantic(t *testing.T) {
	assert.Equal(t, ModeSemantic, ClassifyQuery("find the place where tokens are refreshed"))
}

func TestClassifyQuery_BalancedIsAnExplicitOverrideOnly(t *testing.T) {
	// The heuristic's two rules (≤3 tokens, >3 tokens) are exhaustive on
	// token count, so auto-classification never lands on balanced; it's
	// reachable only via an explicit Options.Mode override in Retriever.
	assert.NotEqual(t, ModeBalanced, ClassifyQuery("a"))
	assert.NotEqual(t, ModeBalanced, ClassifyQuery("validate session token here"))
}

func TestAlphaFor(t *testing.T) {
	assert.Equal(t, 0.7, alphaFor(ModeKeyword))
	assert.Equal(t, 0.5, alphaFor(ModeBalanced))
	assert.Equal(t, 0.3, alphaFor(ModeSemantic))
}
