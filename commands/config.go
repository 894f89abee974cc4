package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// FileConfig holds defaults read from the YAML config file. Flags set on the
// command line take precedence over every value here.
type FileConfig struct {
	User     string `yaml:"user"`
	Store    string `yaml:"store"`
	DataDir  string `yaml:"data_dir"`
	Timezone string `yaml:"timezone"`
	Output   string `yaml:"output"`
	Range    string `yaml:"range"`
	Listen   string `yaml:"listen"`
}

// loadFileConfig reads path. A missing file yields an empty config.
func loadFileConfig(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &FileConfig{}, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var config FileConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &config, nil
}

// apply copies config values onto the flags of cmd that were not set explicitly.
// Flags the command does not define are ignored.
func (c *FileConfig) apply(cmd *cobra.Command) error {
	values := []struct {
		flag  string
		value string
	}{
		{"user", c.User},
		{"store", c.Store},
		{"dir", c.DataDir},
		{"timezone", c.Timezone},
		{"output", c.Output},
		{"range", c.Range},
		{"listen", c.Listen},
	}

	flags := cmd.Flags()
	for _, v := range values {
		if v.value == "" {
			continue
		}
		f := flags.Lookup(v.flag)
		if f == nil || f.Changed {
			continue
		}
		if err := f.Value.Set(v.value); err != nil {
			return fmt.Errorf("config %s: %w", v.flag, err)
		}
	}
	return nil
}
