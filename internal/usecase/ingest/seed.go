package ingest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/vecrec/internal/domain"
	domcat "github.com/kailas-cloud/vecrec/internal/domain/catalog"
)

// catalogFile is the on-disk seed format.
type catalogFile struct {
	Items []domcat.Item `yaml:"items"`
}

// LoadCatalogFile reads and validates a YAML seed catalog.
func LoadCatalogFile(path string) ([]domcat.Item, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from operator config
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	return LoadCatalog(bytes.NewReader(data))
}

// LoadCatalog decodes a seed catalog. Unknown keys and duplicate IDs are rejected.
func LoadCatalog(r io.Reader) ([]domcat.Item, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f catalogFile
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	seen := make(map[string]struct{}, len(f.Items))
	for i := range f.Items {
		if err := f.Items[i].Validate(); err != nil {
			return nil, fmt.Errorf("item #%d: %w", i, err)
		}
		if _, dup := seen[f.Items[i].ID]; dup {
			return nil, fmt.Errorf("%w: duplicate id %s", domain.ErrInvalidItem, f.Items[i].ID)
		}
		seen[f.Items[i].ID] = struct{}{}
	}
	return f.Items, nil
}
