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

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/cerberuslabs/cerberus/internal/vectorindex"
	"github.com/cerberuslabs/cerberus/pkg/model"
)

// SQLiteStore is the embedded Store implementation. A single *sql.DB
// connection is guarded by mu: writers hold the write lock for the
// lifetime of a Txn, readers hold the read lock per call. This mirrors
// the teacher's EmbeddedBackend.mu discipline, adapted from CozoDB's
// single-process embedding to modernc.org/sqlite's.
type SQLiteStore struct {
	mu     sync.RWMutex
	db     *sql.DB
	repo   string // repository root, for GetSnippet's disk reads
	vec    *vectorindex.Index
	closed bool
}

// Config configures an SQLiteStore.
type Config struct {
	// DataDir holds the SQLite database file (cerberus.db).
	DataDir string
	// RepoRoot is the root the indexed file paths are relative to.
	RepoRoot string
	// VectorCacheSize bounds the vector index's repeated-query cache.
	VectorCacheSize int
}

// Open creates or opens the store's SQLite database under cfg.DataDir,
// applying the schema and checking the schema version tag (I6).
func Open(cfg Config) (*SQLiteStore, error) {
	if cfg.DataDir == "" {
		return nil, fmt.Errorf("storage: DataDir is required")
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create data dir: %w", err)
	}

	dbPath := filepath.Join(cfg.DataDir, "cerberus.db")
	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("storage: open sqlite: %w", err)
	}
	// A single connection serializes writes the way CozoDB's embedded mode
	// does; mu above adds the same single-writer discipline on top so a
	// long-running Txn can't be interleaved with reads mid-transaction.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("storage: enable foreign keys: %w", err)
	}

	s := &SQLiteStore{db: db, repo: cfg.RepoRoot}

	if err := s.ensureSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}

	cacheSize := cfg.VectorCacheSize
	if cacheSize <= 0 {
		cacheSize = 128
	}
	s.vec = vectorindex.New(s, cacheSize)

	return s, nil
}

func (s *SQLiteStore) ensureSchema() error {
	for _, stmt := range schemaStatements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("storage: apply schema: %w", err)
		}
	}

	row := s.db.QueryRow(`SELECT value FROM meta WHERE key = 'schema_version'`)
	var stored string
	switch err := row.Scan(&stored); err {
	case sql.ErrNoRows:
		_, err := s.db.Exec(`INSERT INTO meta (key, value) VALUES ('schema_version', ?)`, strconv.Itoa(schemaVersion))
		if err != nil {
			return fmt.Errorf("storage: stamp schema version: %w", err)
		}
	case nil:
		got, convErr := strconv.Atoi(stored)
		if convErr != nil || got != schemaVersion {
			return model.NewStaleIndex("Open", fmt.Errorf("schema version %q incompatible with %d", stored, schemaVersion))
		}
	default:
		return fmt.Errorf("storage: read schema version: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// BeginTxn acquires the write lock for the lifetime of the returned Txn;
// Commit or Rollback must be called to release it.
func (s *SQLiteStore) BeginTxn(ctx context.Context) (Txn, error) {
	s.mu.Lock()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.mu.Unlock()
		return nil, model.NewStoreError("BeginTxn", err)
	}
	return &sqliteTxn{ctx: ctx, tx: tx, store: s}, nil
}

type sqliteTxn struct {
	ctx             context.Context
	tx              *sql.Tx
	store           *SQLiteStore
	done            bool
	vectorRemovals  []string
}

func (t *sqliteTxn) finish() {
	if !t.done {
		t.done = true
		t.store.mu.Unlock()
	}
}

func (t *sqliteTxn) Commit() error {
	defer t.finish()
	if err := t.tx.Commit(); err != nil {
		return model.NewStoreError("Commit", err)
	}
	for _, id := range t.vectorRemovals {
		t.store.vec.Remove(id)
	}
	return nil
}

func (t *sqliteTxn) Rollback() error {
	defer t.finish()
	if err := t.tx.Rollback(); err != nil {
		return model.NewStoreError("Rollback", err)
	}
	return nil
}

// DeleteFile cascades through the foreign keys declared in schema.go; FTS5
// rows are not covered by a foreign key (virtual tables don't support
// them), so those are removed explicitly first. symbol_references.target_file
// likewise carries no foreign key (a target can legitimately outlive its
// source across files), so a reference in another file that targets a
// symbol owned by path is unresolved in place rather than left dangling.
func (t *sqliteTxn) DeleteFile(ctx context.Context, path string) error {
	rows, err := t.tx.QueryContext(ctx, `SELECT id FROM symbols WHERE file_path = ?`, path)
	if err != nil {
		return model.NewStoreError("DeleteFile", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return model.NewStoreError("DeleteFile", err)
		}
		ids = append(ids, id)
	}
	rows.Close()

	for _, id := range ids {
		if _, err := t.tx.ExecContext(ctx, `DELETE FROM symbols_fts WHERE symbol_id = ?`, id); err != nil {
			return model.NewStoreError("DeleteFile", err)
		}
	}

	if _, err := t.tx.ExecContext(ctx, `
		UPDATE symbol_references SET target_file = NULL, target_symbol_id = NULL, target_kind = NULL
		WHERE target_file = ?
	`, path); err != nil {
		return model.NewStoreError("DeleteFile", err)
	}

	if _, err := t.tx.ExecContext(ctx, `DELETE FROM files WHERE path = ?`, path); err != nil {
		return model.NewStoreError("DeleteFile", err)
	}
	t.vectorRemovals = append(t.vectorRemovals, ids...)
	return nil
}

// DeleteAllReferences purges every symbol_references row ahead of a full
// Resolve rewrite; see the Txn interface doc for why a bare upsert can't
// retire stale edges on its own.
func (t *sqliteTxn) DeleteAllReferences(ctx context.Context) error {
	if _, err := t.tx.ExecContext(ctx, `DELETE FROM symbol_references`); err != nil {
		return model.NewStoreError("DeleteAllReferences", err)
	}
	return nil
}

func (t *sqliteTxn) UpsertFile(ctx context.Context, f model.File) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO files (path, language, content_hash, size_bytes, mtime, indexed_at_rev)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			language = excluded.language,
			content_hash = excluded.content_hash,
			size_bytes = excluded.size_bytes,
			mtime = excluded.mtime,
			indexed_at_rev = excluded.indexed_at_rev
	`, f.Path, string(f.Language), f.ContentHash, f.SizeBytes, f.MTime, nullIfEmpty(f.IndexedAtRevs))
	if err != nil {
		return model.NewStoreError("UpsertFile", err)
	}
	return nil
}

// WriteSymbolsBatch enforces I1 via the symbols table's UNIQUE constraint;
// a conflict means the exact (file, name, kind, range) already exists, so
// the insert is silently skipped and the pre-existing deterministic ID is
// still returned.
func (t *sqliteTxn) WriteSymbolsBatch(ctx context.Context, symbols []model.Symbol) ([]string, error) {
	if len(symbols) > 1000 {
		return nil, model.NewCapacityExceeded("WriteSymbolsBatch", fmt.Errorf("%d rows exceeds 1000-row batch limit", len(symbols)))
	}
	ids := make([]string, 0, len(symbols))
	for _, sym := range symbols {
		if sym.ID == "" {
			sym.ID = model.GenerateSymbolID(sym.FilePath, sym.ShortName, sym.Kind, sym.StartLine, sym.EndLine, sym.StartCol, sym.EndCol)
		}
		res, err := t.tx.ExecContext(ctx, `
			INSERT INTO symbols (id, qualified_name, short_name, kind, file_path, start_line, end_line, start_col, end_col, signature, parent_id, docstring, language)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(file_path, short_name, kind, start_line, end_line) DO NOTHING
		`, sym.ID, sym.QualifiedName, sym.ShortName, string(sym.Kind), sym.FilePath, sym.StartLine, sym.EndLine, sym.StartCol, sym.EndCol,
			nullIfEmpty(sym.Signature), nullIfEmpty(sym.ParentID), nullIfEmpty(sym.Docstring), string(sym.Language))
		if err != nil {
			return nil, model.NewStoreError("WriteSymbolsBatch", err)
		}
		if affected, _ := res.RowsAffected(); affected > 0 {
			if _, err := t.tx.ExecContext(ctx, `
				INSERT INTO symbols_fts (symbol_id, short_name, qualified_name, signature, docstring)
				VALUES (?, ?, ?, ?, ?)
			`, sym.ID, sym.ShortName, sym.QualifiedName, sym.Signature, sym.Docstring); err != nil {
				return nil, model.NewStoreError("WriteSymbolsBatch", err)
			}
		}
		ids = append(ids, sym.ID)
	}
	return ids, nil
}

func (t *sqliteTxn) WriteImportsBatch(ctx context.Context, imports []model.Import) error {
	if len(imports) > 1000 {
		return model.NewCapacityExceeded("WriteImportsBatch", fmt.Errorf("%d rows exceeds 1000-row batch limit", len(imports)))
	}
	for _, imp := range imports {
		id := model.GenerateImportID(imp.FilePath, imp.ModulePath, imp.Alias)
		_, err := t.tx.ExecContext(ctx, `
			INSERT INTO imports (id, file_path, module_path, imported_names, alias, target_file, target_symbol)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO NOTHING
		`, id, imp.FilePath, imp.ModulePath, strings.Join(imp.ImportedNames, ","), nullIfEmpty(imp.Alias), nullIfEmpty(imp.TargetFile), nullIfEmpty(imp.TargetSymbol))
		if err != nil {
			return model.NewStoreError("WriteImportsBatch", err)
		}
	}
	return nil
}

func (t *sqliteTxn) WriteCallsBatch(ctx context.Context, calls []model.MethodCall) error {
	if len(calls) > 1000 {
		return model.NewCapacityExceeded("WriteCallsBatch", fmt.Errorf("%d rows exceeds 1000-row batch limit", len(calls)))
	}
	for _, c := range calls {
		id := model.GenerateCallID(c.CallerFile, c.CallerLine, c.MethodName, c.ReceiverExpr)
		_, err := t.tx.ExecContext(ctx, `
			INSERT INTO method_calls (id, caller_file, caller_symbol_id, caller_line, receiver_expr, method_name, receiver_type, callee_symbol_id)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET callee_symbol_id = excluded.callee_symbol_id, receiver_type = excluded.receiver_type
		`, id, c.CallerFile, nullIfEmpty(c.CallerSymbolID), c.CallerLine, nullIfEmpty(c.ReceiverExpr), c.MethodName, nullIfEmpty(c.ReceiverType), nullIfEmpty(c.CalleeSymbolID))
		if err != nil {
			return model.NewStoreError("WriteCallsBatch", err)
		}
	}
	return nil
}

// WriteReferencesBatch enforces I4 (confidence monotonicity): when a
// reference with the same identity already exists, the row is kept only
// if the new confidence is higher.
func (t *sqliteTxn) WriteReferencesBatch(ctx context.Context, refs []model.SymbolReference) error {
	if len(refs) > 1000 {
		return model.NewCapacityExceeded("WriteReferencesBatch", fmt.Errorf("%d rows exceeds 1000-row batch limit", len(refs)))
	}
	for _, r := range refs {
		id := model.GenerateReferenceID(r.SourceFile, r.SourceLine, r.Kind, r.TargetSymbolID)
		_, err := t.tx.ExecContext(ctx, `
			INSERT INTO symbol_references (id, source_file, source_line, source_symbol_id, kind, target_file, target_symbol_id, target_kind, confidence, resolution_method)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				confidence = excluded.confidence,
				resolution_method = excluded.resolution_method
			WHERE excluded.confidence > symbol_references.confidence
		`, id, r.SourceFile, r.SourceLine, r.SourceSymbolID, string(r.Kind), nullIfEmpty(r.TargetFile), nullIfEmpty(r.TargetSymbolID), nullIfEmpty(string(r.TargetKind)), r.Confidence, string(r.Method))
		if err != nil {
			return model.NewStoreError("WriteReferencesBatch", err)
		}
	}
	return nil
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// --- read-side operations (Store, not Txn) ---

func (s *SQLiteStore) QuerySymbols(ctx context.Context, filter SymbolFilter) (SymbolCursor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT id, qualified_name, short_name, kind, file_path, start_line, end_line, start_col, end_col, signature, parent_id, docstring, language FROM symbols WHERE 1=1`
	var args []interface{}
	if filter.NamePrefix != "" {
		query += ` AND short_name LIKE ?`
		args = append(args, filter.NamePrefix+"%")
	}
	if filter.FilePath != "" {
		query += ` AND file_path = ?`
		args = append(args, filter.FilePath)
	}
	if filter.Kind != "" {
		query += ` AND kind = ?`
		args = append(args, string(filter.Kind))
	}
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, model.NewStoreError("QuerySymbols", err)
	}
	return &sqliteSymbolCursor{rows: rows}, nil
}

type sqliteSymbolCursor struct {
	rows *sql.Rows
}

func (c *sqliteSymbolCursor) Next(ctx context.Context) (model.Symbol, bool, error) {
	select {
	case <-ctx.Done():
		return model.Symbol{}, false, ctx.Err()
	default:
	}
	if !c.rows.Next() {
		return model.Symbol{}, false, c.rows.Err()
	}
	sym, err := scanSymbol(c.rows)
	if err != nil {
		return model.Symbol{}, false, model.NewStoreError("QuerySymbols", err)
	}
	return sym, true, nil
}

func (c *sqliteSymbolCursor) Close() error { return c.rows.Close() }

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSymbol(r rowScanner) (model.Symbol, error) {
	var sym model.Symbol
	var kind, lang string
	var signature, parentID, docstring sql.NullString
	err := r.Scan(&sym.ID, &sym.QualifiedName, &sym.ShortName, &kind, &sym.FilePath,
		&sym.StartLine, &sym.EndLine, &sym.StartCol, &sym.EndCol,
		&signature, &parentID, &docstring, &lang)
	if err != nil {
		return model.Symbol{}, err
	}
	sym.Kind = model.SymbolKind(kind)
	sym.Language = model.Language(lang)
	sym.Signature = signature.String
	sym.ParentID = parentID.String
	sym.Docstring = docstring.String
	return sym, nil
}

func (s *SQLiteStore) GetSymbol(ctx context.Context, symbolID string) (model.Symbol, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row := s.db.QueryRowContext(ctx, `
		SELECT id, qualified_name, short_name, kind, file_path, start_line, end_line, start_col, end_col, signature, parent_id, docstring, language
		FROM symbols WHERE id = ?`, symbolID)
	sym, err := scanSymbol(row)
	if err == sql.ErrNoRows {
		return model.Symbol{}, model.NewNotFound("GetSymbol", symbolID)
	}
	if err != nil {
		return model.Symbol{}, model.NewStoreError("GetSymbol", err)
	}
	return sym, nil
}

func (s *SQLiteStore) SymbolsForFile(ctx context.Context, path string) ([]model.Symbol, error) {
	cur, err := s.QuerySymbols(ctx, SymbolFilter{FilePath: path})
	if err != nil {
		return nil, err
	}
	defer cur.Close()
	var out []model.Symbol
	for {
		sym, ok, err := cur.Next(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		out = append(out, sym)
	}
	return out, nil
}

func (s *SQLiteStore) ImportsForFile(ctx context.Context, path string) ([]model.Import, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.db.QueryContext(ctx, `SELECT file_path, module_path, imported_names, alias, target_file, target_symbol FROM imports WHERE file_path = ?`, path)
	if err != nil {
		return nil, model.NewStoreError("ImportsForFile", err)
	}
	defer rows.Close()
	var out []model.Import
	for rows.Next() {
		var imp model.Import
		var names sql.NullString
		var alias, targetFile, targetSymbol sql.NullString
		if err := rows.Scan(&imp.FilePath, &imp.ModulePath, &names, &alias, &targetFile, &targetSymbol); err != nil {
			return nil, model.NewStoreError("ImportsForFile", err)
		}
		if names.String != "" {
			imp.ImportedNames = strings.Split(names.String, ",")
		}
		imp.Alias = alias.String
		imp.TargetFile = targetFile.String
		imp.TargetSymbol = targetSymbol.String
		out = append(out, imp)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) CallsFrom(ctx context.Context, path string) ([]model.MethodCall, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.db.QueryContext(ctx, `
		SELECT caller_file, caller_symbol_id, caller_line, receiver_expr, method_name, receiver_type, callee_symbol_id
		FROM method_calls WHERE caller_file = ?`, path)
	if err != nil {
		return nil, model.NewStoreError("CallsFrom", err)
	}
	defer rows.Close()
	var out []model.MethodCall
	for rows.Next() {
		var c model.MethodCall
		var callerSym, receiverExpr, receiverType, calleeSym sql.NullString
		if err := rows.Scan(&c.CallerFile, &callerSym, &c.CallerLine, &receiverExpr, &c.MethodName, &receiverType, &calleeSym); err != nil {
			return nil, model.NewStoreError("CallsFrom", err)
		}
		c.CallerSymbolID = callerSym.String
		c.ReceiverExpr = receiverExpr.String
		c.ReceiverType = receiverType.String
		c.CalleeSymbolID = calleeSym.String
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) ReferencesTo(ctx context.Context, symbolID string) ([]model.SymbolReference, error) {
	return s.queryReferences(ctx, `target_symbol_id = ?`, symbolID)
}

func (s *SQLiteStore) ReferencesFrom(ctx context.Context, symbolID string) ([]model.SymbolReference, error) {
	return s.queryReferences(ctx, `source_symbol_id = ?`, symbolID)
}

func (s *SQLiteStore) queryReferences(ctx context.Context, where string, arg string) ([]model.SymbolReference, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.db.QueryContext(ctx, `
		SELECT source_file, source_line, source_symbol_id, kind, target_file, target_symbol_id, target_kind, confidence, resolution_method
		FROM symbol_references WHERE `+where, arg)
	if err != nil {
		return nil, model.NewStoreError("queryReferences", err)
	}
	defer rows.Close()
	var out []model.SymbolReference
	for rows.Next() {
		var r model.SymbolReference
		var kind, method string
		var targetFile, targetSymbol, targetKind sql.NullString
		if err := rows.Scan(&r.SourceFile, &r.SourceLine, &r.SourceSymbolID, &kind, &targetFile, &targetSymbol, &targetKind, &r.Confidence, &method); err != nil {
			return nil, model.NewStoreError("queryReferences", err)
		}
		r.Kind = model.ReferenceKind(kind)
		r.Method = model.ResolutionMethod(method)
		r.TargetFile = targetFile.String
		r.TargetSymbolID = targetSymbol.String
		r.TargetKind = model.SymbolKind(targetKind.String)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) FileMeta(ctx context.Context, path string) (model.File, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row := s.db.QueryRowContext(ctx, `SELECT path, language, content_hash, size_bytes, mtime, indexed_at_rev FROM files WHERE path = ?`, path)
	var f model.File
	var lang string
	var rev sql.NullString
	err := row.Scan(&f.Path, &lang, &f.ContentHash, &f.SizeBytes, &f.MTime, &rev)
	if err == sql.ErrNoRows {
		return model.File{}, false, nil
	}
	if err != nil {
		return model.File{}, false, model.NewStoreError("FileMeta", err)
	}
	f.Language = model.Language(lang)
	f.IndexedAtRevs = rev.String
	return f, true, nil
}

func (s *SQLiteStore) KnownFiles(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.db.QueryContext(ctx, `SELECT path FROM files`)
	if err != nil {
		return nil, model.NewStoreError("KnownFiles", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, model.NewStoreError("KnownFiles", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) SchemaVersion(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row := s.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = 'schema_version'`)
	var v string
	if err := row.Scan(&v); err != nil {
		return 0, model.NewStoreError("SchemaVersion", err)
	}
	return strconv.Atoi(v)
}

// FTSSearch ranks by SQLite's bm25() auxiliary function, which returns
// smaller values for better matches; Score is the negated value so that,
// consistent with the rest of the retrieval pipeline, higher means more
// relevant.
func (s *SQLiteStore) FTSSearch(ctx context.Context, query string, k int) ([]ScoredSymbol, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT symbol_id, bm25(symbols_fts) AS rank
		FROM symbols_fts WHERE symbols_fts MATCH ?
		ORDER BY rank LIMIT ?`, query, k)
	if err != nil {
		return nil, model.NewStoreError("FTSSearch", err)
	}
	defer rows.Close()
	var out []ScoredSymbol
	for rows.Next() {
		var id string
		var rank float64
		if err := rows.Scan(&id, &rank); err != nil {
			return nil, model.NewStoreError("FTSSearch", err)
		}
		out = append(out, ScoredSymbol{SymbolID: id, Score: -rank})
	}
	return out, rows.Err()
}

func (s *SQLiteStore) VectorSearch(ctx context.Context, vec []float32, k int) ([]string, []float32, error) {
	ids, dists, err := s.vec.Search(ctx, vec, k)
	if err != nil {
		return nil, nil, model.NewStoreError("VectorSearch", err)
	}
	if len(ids) == 0 {
		return nil, nil, model.NewVectorUnavailable("VectorSearch", fmt.Errorf("no embeddings indexed"))
	}
	return ids, dists, nil
}

func (s *SQLiteStore) WriteEmbedding(ctx context.Context, e model.Embedding) error {
	s.mu.Lock()
	blob := encodeVector(e.Vector)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO embeddings_map (symbol_id, vector, input_hash, dimensions)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(symbol_id) DO UPDATE SET vector = excluded.vector, input_hash = excluded.input_hash, dimensions = excluded.dimensions
	`, e.SymbolID, blob, e.InputHash, e.Dimensions)
	s.mu.Unlock()
	if err != nil {
		return model.NewStoreError("WriteEmbedding", err)
	}
	s.vec.Add(e.SymbolID, e.Vector)
	return nil
}

// LoadAllEmbeddings implements vectorindex.Loader.
func (s *SQLiteStore) LoadAllEmbeddings(ctx context.Context) (map[string][]float32, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.db.QueryContext(ctx, `SELECT symbol_id, vector, dimensions FROM embeddings_map`)
	if err != nil {
		return nil, fmt.Errorf("load embeddings: %w", err)
	}
	defer rows.Close()
	out := make(map[string][]float32)
	for rows.Next() {
		var id string
		var blob []byte
		var dims int
		if err := rows.Scan(&id, &blob, &dims); err != nil {
			return nil, fmt.Errorf("load embeddings: %w", err)
		}
		out[id] = decodeVector(blob, dims)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) GetSnippet(ctx context.Context, symbolID string, padding int) (model.Snippet, error) {
	sym, err := s.GetSymbol(ctx, symbolID)
	if err != nil {
		return model.Snippet{}, err
	}

	fullPath := sym.FilePath
	if s.repo != "" && !filepath.IsAbs(fullPath) {
		fullPath = filepath.Join(s.repo, sym.FilePath)
	}
	content, err := os.ReadFile(fullPath)
	if err != nil {
		return model.Snippet{}, model.NewNotFound("GetSnippet", fullPath)
	}

	lines := strings.Split(string(content), "\n")
	start := sym.StartLine - padding
	if start < 1 {
		start = 1
	}
	end := sym.EndLine + padding
	if end > len(lines) {
		end = len(lines)
	}
	if start > end {
		return model.Snippet{Path: sym.FilePath, Start: start, End: end}, nil
	}
	text := strings.Join(lines[start-1:end], "\n")
	return model.Snippet{Path: sym.FilePath, Start: start, End: end, Content: text}, nil
}

func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(buf []byte, dims int) []float32 {
	v := make([]float32, dims)
	for i := 0; i < dims && (i+1)*4 <= len(buf); i++ {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return v
}
