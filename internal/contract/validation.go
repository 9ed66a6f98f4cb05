// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package contract

import (
	"os"
	"strconv"
)

const (
	// DefaultMaxFileSizeBytes is the baseline per-file size cap the
	// scanner applies before parsing; larger files are skipped rather
	// than read into memory.
	DefaultMaxFileSizeBytes = 1 << 20 // 1 MiB

	// DefaultMaxSymbolsTotal is the baseline cumulative symbol cap one
	// Index/Update run may write before ending early with a
	// CapacityExceeded report. 0 would mean unbounded; Cerberus ships a
	// nonzero default so a runaway repository can't exhaust the store.
	DefaultMaxSymbolsTotal = 500_000
)

// MaxFileSizeBytes returns the effective per-file size cap, overridable
// via CERBERUS_MAX_FILE_SIZE_BYTES for environments indexing unusually
// large generated files.
func MaxFileSizeBytes() int64 {
	if v := os.Getenv("CERBERUS_MAX_FILE_SIZE_BYTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			return n
		}
	}
	return DefaultMaxFileSizeBytes
}

// MaxSymbolsTotal returns the effective cumulative symbol cap, overridable
// via CERBERUS_MAX_SYMBOLS_TOTAL.
func MaxSymbolsTotal() int {
	if v := os.Getenv("CERBERUS_MAX_SYMBOLS_TOTAL"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return DefaultMaxSymbolsTotal
}
