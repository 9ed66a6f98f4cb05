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

package engine

import (
	"context"

	"github.com/cerberuslabs/cerberus/pkg/model"
	"github.com/cerberuslabs/cerberus/pkg/storage"
)

// Stats summarizes a project's current store contents, for the CLI
// collaborator's "status" command and similar health checks.
type Stats struct {
	ProjectID  string
	Files      int
	Symbols    int
	Functions  int
	Types      int
	Embeddings int
}

// Stats counts the current store's rows by walking KnownFiles and a
// filterless QuerySymbols cursor. There is no persisted aggregate counter
// (spec.md's Store keeps no running totals), so this is an O(symbols) scan
// — acceptable for an interactive status check, not for a hot path.
func (e *Engine) Stats(ctx context.Context) (Stats, error) {
	stats := Stats{ProjectID: e.cfg.ProjectID}

	files, err := e.store.KnownFiles(ctx)
	if err != nil {
		return Stats{}, model.NewStoreError("Stats", err)
	}
	stats.Files = len(files)

	cursor, err := e.store.QuerySymbols(ctx, storage.SymbolFilter{})
	if err != nil {
		return Stats{}, model.NewStoreError("Stats", err)
	}
	defer cursor.Close()

	for {
		sym, ok, err := cursor.Next(ctx)
		if err != nil {
			return Stats{}, model.NewStoreError("Stats", err)
		}
		if !ok {
			break
		}
		stats.Symbols++
		switch sym.Kind {
		case model.KindFunction, model.KindMethod:
			stats.Functions++
		case model.KindClass, model.KindInterface:
			stats.Types++
		}
	}

	return stats, nil
}
