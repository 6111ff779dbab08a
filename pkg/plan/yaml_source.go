package plan

import (
	"context"
	"errors"
	"os"

	"gopkg.in/yaml.v3"
)

// yamlCatalog mirrors the on-disk catalog file layout.
type yamlCatalog struct {
	Plans  []Plan  `yaml:"plans"`
	Addons []Addon `yaml:"addons"`
}

type yamlSource struct {
	path string
}

// NewYAMLSource returns a Source that reads the plan and add-on catalog from
// a YAML file. The file is re-read on every Load call so catalog edits take
// effect on the next engine restart without a rebuild.
func NewYAMLSource(path string) Source {
	return &yamlSource{path: path}
}

func (s *yamlSource) Plans(ctx context.Context) (map[Type]Plan, error) {
	catalog, err := s.read()
	if err != nil {
		return nil, err
	}

	plans := make(map[Type]Plan, len(catalog.Plans))
	for _, p := range catalog.Plans {
		plans[p.Type] = p
	}
	return plans, nil
}

func (s *yamlSource) Addons(ctx context.Context) (map[string]Addon, error) {
	catalog, err := s.read()
	if err != nil {
		return nil, err
	}

	addons := make(map[string]Addon, len(catalog.Addons))
	for _, a := range catalog.Addons {
		addons[a.ID] = a
	}
	return addons, nil
}

func (s *yamlSource) read() (*yamlCatalog, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, errors.Join(ErrFailedToLoadCatalog, err)
	}

	var catalog yamlCatalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, errors.Join(ErrFailedToLoadCatalog, err)
	}
	return &catalog, nil
}
