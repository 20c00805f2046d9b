package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"stars-end/tribune/pkg/costs"
)

// pricingFile is the YAML shape of a standalone pricing table file.
type pricingFile struct {
	Models  map[string]costs.Pricing `yaml:"models"`
	Default costs.Pricing            `yaml:"default"`
}

// LoadPricingFile reads a pricing table file: a `models` map of model
// identifiers (or prefixes) to rates plus an optional `default` fallback.
func LoadPricingFile(path string) (map[string]costs.Pricing, costs.Pricing, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, costs.Pricing{}, fmt.Errorf("failed to read pricing file %q: %w", path, err)
	}

	var pf pricingFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, costs.Pricing{}, fmt.Errorf("failed to parse pricing file %q: %w", path, err)
	}

	return pf.Models, pf.Default, nil
}

// BuildPricingTable constructs the model-default pricing table from the
// configuration: inline models first, replaced wholesale by the pricing
// file's contents when one is configured.
func BuildPricingTable(cfg *PricingConfig) (*costs.Table, error) {
	models := cfg.Models
	fallback := cfg.Default

	if cfg.File != "" {
		fileModels, fileDefault, err := LoadPricingFile(cfg.File)
		if err != nil {
			return nil, err
		}
		models = fileModels
		fallback = fileDefault
	}

	return costs.NewTable(models, fallback), nil
}
