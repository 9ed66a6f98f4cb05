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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cerberuslabs/cerberus/pkg/model"
)

const protoSample = `syntax = "proto3";

package sample;

message Greeting {
  string text = 1;
}

enum Status {
  OK = 0;
  FAILED = 1;
}

service Greeter {
  rpc Greet(Greeting) returns (Greeting);
}
`

func TestParseProtobufContent_ExtractsMessagesEnumsAndServices(t *testing.T) {
	result, err := parseProtobufContent([]byte(protoSample), "sample.proto", func(s string) string { return s })
	require.NoError(t, err)

	byName := map[string]model.Symbol{}
	for _, sym := range result.Symbols {
		byName[sym.ShortName] = sym
	}

	require.Contains(t, byName, "Greeting")
	assert.Equal(t, model.KindClass, byName["Greeting"].Kind)

	require.Contains(t, byName, "Status")
	assert.Equal(t, model.KindEnum, byName["Status"].Kind)

	require.Contains(t, byName, "Greeter")
	assert.Equal(t, model.KindInterface, byName["Greeter"].Kind)

	require.Contains(t, byName, "Greeter.Greet")
	assert.Equal(t, model.KindMethod, byName["Greeter.Greet"].Kind)
}

func TestExtractProtobufRPCSignature_ParsesNameAndTrimsBody(t *testing.T) {
	name, sig := extractProtobufRPCSignature("rpc Greet(Greeting) returns (Greeting);")
	assert.Equal(t, "Greet", name)
	assert.Equal(t, "rpc Greet(Greeting) returns (Greeting)", sig)
}

func TestExtractProtobufRPCSignature_NoParenReturnsEmpty(t *testing.T) {
	name, sig := extractProtobufRPCSignature("rpc ;")
	assert.Empty(t, name)
	assert.Empty(t, sig)
}

func TestFindProtobufBlockEnd_FindsClosingBrace(t *testing.T) {
	lines := []string{"message Foo {", "  string name = 1;", "}"}
	end := findProtobufBlockEnd(lines, 0)
	assert.Equal(t, 3, end)
}
