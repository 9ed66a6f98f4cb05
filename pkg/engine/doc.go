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

// Package engine is Cerberus's single external entry point: it wires
// pkg/storage, pkg/ingestion, pkg/resolve, and pkg/retrieval together and
// exposes the narrow, language-neutral operation set external
// collaborators (CLI, RPC server, watcher) consume — Open/Close, Index/
// Update, Search/GetSymbol/Snippet/Blueprint/Skeletonize, and
// Resolve/CallGraph/Context.
//
// Engine owns the single-writer discipline on the store: Index, Update,
// and Resolve (which Index and Update also run after their own writes) are
// the only operations that open a write transaction, and they do so one
// batch at a time so readers never block behind more than one
// transaction's worth of work.
package engine
