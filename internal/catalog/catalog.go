// Package catalog reads product catalog files for bulk import
package catalog

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/candlecraft/storefront/internal/domain"
)

// File is the on-disk catalog layout
type File struct {
	Products []Entry `yaml:"products"`
}

// Entry is one product in a catalog file. Products are in stock unless the
// entry says otherwise.
type Entry struct {
	domain.Product `yaml:",inline"`
	InStock        *bool `yaml:"in_stock"`
}

// Decode parses a YAML catalog
func Decode(r io.Reader) ([]*domain.Product, error) {
	var f File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	products := make([]*domain.Product, 0, len(f.Products))
	for i, e := range f.Products {
		p := e.Product
		p.InStock = e.InStock == nil || *e.InStock
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("product %d (%q): %w", i+1, p.Name, err)
		}
		products = append(products, &p)
	}
	return products, nil
}

// Load reads the catalog at path
func Load(path string) ([]*domain.Product, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(f)
}
