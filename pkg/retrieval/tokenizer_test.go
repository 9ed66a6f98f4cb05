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

func TestTokenize_CamelCase(t *testing.T) {
	assert.Equal(t, []string{"parse", "config", "file"}, Tokenize("ParseConfigFile"))
}

func TestTokenize_SnakeCase(t *testing.T) {
	assert.Equal(t, []string{"parse", "config", "file"}, Tokenize("parse_config_file"))
}

func TestTokenize_AcronymRun(t *testing.T) {
	assert.Equal(t, []string{"http", "body"}, Tokenize("HTTPBody"))
}

func TestTokenize_NaturalLanguagePhrase(t *testing.T) {
	assert.Equal(t, []string{"how", "does", "auth", "work"}, Tokenize("how does auth work"))
}

func TestLooksLikeIdentifier(t *testing.T) {
	assert.True(t, looksLikeIdentifier("ParseConfig"))
	assert.True(t, looksLikeIdentifier("parse_config"))
	assert.False(t, looksLikeIdentifier("parse config"))
	assert.False(t, looksLikeIdentifier("parse"))
}
