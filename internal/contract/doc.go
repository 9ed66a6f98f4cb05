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

// Package contract provides the environment-overridable capacity
// defaults cmd/cerberus falls back to when a project's configuration
// doesn't set its own file-size or symbol-count limits.
//
// # Capacity Limits
//
//	maxSize := contract.MaxFileSizeBytes()     // CERBERUS_MAX_FILE_SIZE_BYTES
//	maxSymbols := contract.MaxSymbolsTotal()   // CERBERUS_MAX_SYMBOLS_TOTAL
//
// Both fall back to a built-in default when the environment variable is
// unset or invalid.
package contract
