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
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/cerberuslabs/cerberus/internal/contract"
	"github.com/cerberuslabs/cerberus/pkg/ingestion"
)

// IndexingConfig is the subset of engine.Config's indexing settings a
// project's .cerberus/project.yaml exposes for editing.
type IndexingConfig struct {
	ParserMode  string   `yaml:"parser_mode" mapstructure:"parser_mode"`
	Exclude     []string `yaml:"exclude" mapstructure:"exclude"`
	MaxFileSize int64    `yaml:"max_file_size" mapstructure:"max_file_size"`
	BatchTarget int      `yaml:"batch_target" mapstructure:"batch_target"`
}

// EmbeddingConfig selects and configures the embedding provider.
type EmbeddingConfig struct {
	Provider string `yaml:"provider" mapstructure:"provider"`
	BaseURL  string `yaml:"base_url" mapstructure:"base_url"`
	Model    string `yaml:"model" mapstructure:"model"`
	APIKey   string `yaml:"api_key" mapstructure:"api_key"`
}

// Config is the project configuration persisted at .cerberus/project.yaml.
type Config struct {
	ProjectID string          `yaml:"project_id" mapstructure:"project_id"`
	Indexing  IndexingConfig  `yaml:"indexing" mapstructure:"indexing"`
	Embedding EmbeddingConfig `yaml:"embedding" mapstructure:"embedding"`
}

// ConfigDir returns the .cerberus directory under repoRoot.
func ConfigDir(repoRoot string) string {
	return filepath.Join(repoRoot, ".cerberus")
}

// ConfigPath returns the project.yaml path under repoRoot's .cerberus dir.
func ConfigPath(repoRoot string) string {
	return filepath.Join(ConfigDir(repoRoot), "project.yaml")
}

// DefaultConfig returns a Config with spec-aligned defaults: the scanner's
// own DefaultExcludeGlobs, tree-sitter parsing, and a mock embedder (the
// only provider that needs no external service to try the CLI end to end).
func DefaultConfig(projectID string) *Config {
	return &Config{
		ProjectID: projectID,
		Indexing: IndexingConfig{
			ParserMode:  string(ingestion.ParserModeAuto),
			Exclude:     nil,
			MaxFileSize: contract.MaxFileSizeBytes(),
			BatchTarget: ingestion.DefaultFilesPerBatch,
		},
		Embedding: EmbeddingConfig{
			Provider: "mock",
		},
	}
}

// LoadConfig reads project.yaml from configPath, or from ConfigPath(cwd)
// when configPath is empty. viper layers CERBERUS_-prefixed environment
// variables over the file, matching spec.md §11.3's viper-over-yaml
// precedence.
func LoadConfig(configPath string) (*Config, error) {
	if configPath == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("get working dir: %w", err)
		}
		configPath = ConfigPath(cwd)
	}

	if _, err := os.Stat(configPath); err != nil {
		return nil, fmt.Errorf("project not configured: %s (run 'cerberus init' first)", configPath)
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("CERBERUS")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultConfig("")
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// SaveConfig writes cfg to path as YAML.
func SaveConfig(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
