package marketplace

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed regions.yaml
var regionsYAML []byte

// Region describes one Product Advertising API locale.
type Region struct {
	Code        string `yaml:"code"`
	Host        string `yaml:"host"`
	AWSRegion   string `yaml:"aws_region"`
	Marketplace string `yaml:"marketplace"`
	Currency    string `yaml:"currency"`
}

type regionFile struct {
	Regions []Region `yaml:"regions"`
}

var (
	loadOnce  sync.Once
	regionMap map[string]Region
	loadErr   error
)

// LoadRegions parses a YAML region table.
func LoadRegions(data []byte) ([]Region, error) {
	var f regionFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse region table: %w", err)
	}
	if len(f.Regions) == 0 {
		return nil, fmt.Errorf("region table: no regions defined")
	}
	for _, r := range f.Regions {
		if r.Code == "" || r.Host == "" || r.AWSRegion == "" || r.Marketplace == "" {
			return nil, fmt.Errorf("region table: incomplete entry %q", r.Code)
		}
	}
	return f.Regions, nil
}

func builtinRegions() (map[string]Region, error) {
	loadOnce.Do(func() {
		regions, err := LoadRegions(regionsYAML)
		if err != nil {
			loadErr = err
			return
		}
		regionMap = make(map[string]Region, len(regions))
		for _, r := range regions {
			regionMap[strings.ToUpper(r.Code)] = r
		}
	})
	return regionMap, loadErr
}

// LookupRegion returns the locale for a region code such as "US" or "uk".
func LookupRegion(code string) (Region, error) {
	regions, err := builtinRegions()
	if err != nil {
		return Region{}, err
	}
	r, ok := regions[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return Region{}, fmt.Errorf("unknown marketplace region %q", code)
	}
	return r, nil
}

// Regions returns all known locales sorted by code.
func Regions() ([]Region, error) {
	regions, err := builtinRegions()
	if err != nil {
		return nil, err
	}
	out := make([]Region, 0, len(regions))
	for _, r := range regions {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}
