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

// Package bootstrap resolves a Cerberus project's on-disk layout and opens
// the engine.Engine backing it.
//
// # Initialization workflow
//
//	eng, info, err := bootstrap.InitProject(bootstrap.ProjectConfig{
//	    ProjectID: "myproject",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer eng.Close()
//	fmt.Printf("project initialized at: %s\n", info.DataDir)
//
//	// later, open the project for queries
//	eng, err := bootstrap.OpenProject(bootstrap.ProjectConfig{ProjectID: "myproject"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer eng.Close()
//
// # Idempotency
//
// InitProject is idempotent: calling it multiple times against the same
// DataDir is safe, since engine.Open only creates the store's schema when
// it does not already exist.
//
// # Configuration
//
// ProjectConfig controls initialization:
//
//   - ProjectID: optional. Defaults to the repo root's base name.
//   - DataDir: optional. Where the store's SQLite database and revision
//     file live. Defaults to ~/.cerberus/data/<project_id>.
//   - RepoRoot: optional. Defaults to the current working directory.
//
// # Project discovery
//
//	projects, err := bootstrap.ListProjects()
//	for _, id := range projects {
//	    fmt.Println(id)
//	}
package bootstrap
