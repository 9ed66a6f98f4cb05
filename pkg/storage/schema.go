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

package storage

// schemaVersion is compared against meta.schema_version on open (I6);
// a mismatch means the on-disk index predates a breaking layout change
// and the caller must reindex from scratch.
const schemaVersion = 1

// schemaStatements is applied in order, one statement at a time, on every
// open; each statement is idempotent. Tables follow the teacher's vertically-partitioned
// discipline: symbols carry metadata only, embeddings live in their own
// table, and code text is never persisted (snippets are read from disk).
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS meta (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS files (
		path            TEXT PRIMARY KEY,
		language        TEXT NOT NULL,
		content_hash    TEXT NOT NULL,
		size_bytes      INTEGER NOT NULL,
		mtime           INTEGER NOT NULL,
		indexed_at_rev  TEXT
	)`,

	`CREATE TABLE IF NOT EXISTS symbols (
		id             TEXT PRIMARY KEY,
		qualified_name TEXT NOT NULL,
		short_name     TEXT NOT NULL,
		kind           TEXT NOT NULL,
		file_path      TEXT NOT NULL REFERENCES files(path) ON DELETE CASCADE,
		start_line     INTEGER NOT NULL,
		end_line       INTEGER NOT NULL,
		start_col      INTEGER NOT NULL,
		end_col        INTEGER NOT NULL,
		signature      TEXT,
		parent_id      TEXT,
		docstring      TEXT,
		language       TEXT NOT NULL,
		UNIQUE (file_path, short_name, kind, start_line, end_line)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_symbols_file ON symbols(file_path)`,
	`CREATE INDEX IF NOT EXISTS idx_symbols_short_name ON symbols(short_name)`,

	`CREATE TABLE IF NOT EXISTS imports (
		id             TEXT PRIMARY KEY,
		file_path      TEXT NOT NULL REFERENCES files(path) ON DELETE CASCADE,
		module_path    TEXT NOT NULL,
		imported_names TEXT,
		alias          TEXT,
		target_file    TEXT,
		target_symbol  TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_imports_file ON imports(file_path)`,

	`CREATE TABLE IF NOT EXISTS method_calls (
		id               TEXT PRIMARY KEY,
		caller_file      TEXT NOT NULL REFERENCES files(path) ON DELETE CASCADE,
		caller_symbol_id TEXT,
		caller_line      INTEGER NOT NULL,
		receiver_expr    TEXT,
		method_name      TEXT NOT NULL,
		receiver_type    TEXT,
		callee_symbol_id TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_calls_file ON method_calls(caller_file)`,
	`CREATE INDEX IF NOT EXISTS idx_calls_callee ON method_calls(callee_symbol_id)`,

	`CREATE TABLE IF NOT EXISTS symbol_references (
		id               TEXT PRIMARY KEY,
		source_file      TEXT NOT NULL REFERENCES files(path) ON DELETE CASCADE,
		source_line      INTEGER NOT NULL,
		source_symbol_id TEXT NOT NULL,
		kind             TEXT NOT NULL,
		target_file      TEXT,
		target_symbol_id TEXT,
		target_kind      TEXT,
		confidence       REAL NOT NULL,
		resolution_method TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_refs_source ON symbol_references(source_symbol_id)`,
	`CREATE INDEX IF NOT EXISTS idx_refs_target ON symbol_references(target_symbol_id)`,

	`CREATE TABLE IF NOT EXISTS embeddings_map (
		symbol_id  TEXT PRIMARY KEY REFERENCES symbols(id) ON DELETE CASCADE,
		vector     BLOB NOT NULL,
		input_hash TEXT NOT NULL,
		dimensions INTEGER NOT NULL
	)`,

	`CREATE VIRTUAL TABLE IF NOT EXISTS symbols_fts USING fts5(
		symbol_id UNINDEXED,
		short_name,
		qualified_name,
		signature,
		docstring,
		tokenize = 'unicode61 remove_diacritics 2'
	)`,
}
