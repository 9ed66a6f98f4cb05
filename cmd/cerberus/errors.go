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

package main

import (
	"errors"

	cerberrors "github.com/cerberuslabs/cerberus/internal/errors"
	"github.com/cerberuslabs/cerberus/pkg/model"
)

// wrapEngineErr maps any error coming out of pkg/engine to a
// *cerberrors.UserError carrying the right exit code, so every
// subcommand's RunE can just `return wrapEngineErr("index", err)` instead
// of re-deriving the mapping itself.
func wrapEngineErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var ee *model.EngineError
	if errors.As(err, &ee) {
		return cerberrors.FromEngineError(ee.Op, string(ee.Kind), ee.Error(), ee.Err)
	}
	return cerberrors.NewInternalError(op+" failed", err.Error(), "this is a bug, please report it", err)
}
