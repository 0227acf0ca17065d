package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/petski/rector-src/internal/config"
	"github.com/petski/rector-src/pkg/rules/registry"
)

// ErrConfigExists is returned when the target config file already exists.
var ErrConfigExists = errors.New("config file already exists")

// defaultConfigFile is where init writes the starter configuration.
const defaultConfigFile = ".rector.yaml"

// configFileMode is the permission mode for the written config file.
const configFileMode = 0o644

// starterConfig mirrors the Config shape with yaml tags for serialization.
type starterConfig struct {
	Rules  []registry.Entry `yaml:"rules"`
	Engine struct {
		MaxPasses int `yaml:"max_passes"`
		Workers   int `yaml:"workers"`
	} `yaml:"engine"`
	Paths struct {
		Extensions   []string `yaml:"extensions"`
		SkipVendored bool     `yaml:"skip_vendored"`
	} `yaml:"paths"`
}

// NewInitCommand creates the init command.
func NewInitCommand() *cobra.Command {
	var force bool

	cobraCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter configuration file",
		RunE: func(_ *cobra.Command, _ []string) error {
			return writeStarterConfig(defaultConfigFile, force)
		},
	}

	cobraCmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing config file")

	return cobraCmd
}

func writeStarterConfig(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%w: %s", ErrConfigExists, path)
		}
	}

	starter := starterConfig{
		Rules: []registry.Entry{
			{
				Rule: "pseudo_namespace_to_namespace",
				With: map[string]any{
					"mappings": []map[string]any{
						{"prefix": "Some_"},
					},
				},
			},
			{Rule: "array_merge_to_spread"},
		},
	}
	starter.Engine.MaxPasses = config.DefaultMaxPasses
	starter.Engine.Workers = config.DefaultWorkers
	starter.Paths.Extensions = config.DefaultExtensions
	starter.Paths.SkipVendored = config.DefaultSkipVendored

	encoded, err := yaml.Marshal(starter)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	if err := os.WriteFile(path, encoded, configFileMode); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	fmt.Fprintf(os.Stdout, "Wrote %s\n", path)

	return nil
}
