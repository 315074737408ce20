// Package knowledge holds the static FAQ knowledge base: the FAQ Store, the
// Keyword Index and the catalog data asset both are built from.
package knowledge

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"faq-assistant/internal/domain"
)

//go:embed data/digiskills.yaml
var defaultCatalog []byte

// Base bundles the FAQ Store and Keyword Index built from one catalog.
type Base struct {
	Name            string
	About           string
	FallbackMessage string
	Store           *Store
	Keywords        *KeywordIndex
}

// DefaultCatalog parses the catalog compiled into the binary.
func DefaultCatalog() (domain.Catalog, error) {
	return ParseCatalog(bytes.NewReader(defaultCatalog))
}

// ParseCatalog decodes a YAML catalog. Unknown fields are rejected.
func ParseCatalog(r io.Reader) (domain.Catalog, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var c domain.Catalog
	if err := dec.Decode(&c); err != nil {
		return domain.Catalog{}, fmt.Errorf("knowledge: decode catalog: %w", err)
	}
	return c, nil
}

// New validates a catalog and builds the read-only Base. A keyword rule that
// points at a question missing from the entries is a configuration defect and
// fails here rather than at match time.
func New(c domain.Catalog) (*Base, error) {
	fallback := strings.TrimSpace(c.FallbackMessage)
	if fallback == "" {
		return nil, errors.New("knowledge: fallback message must not be empty")
	}
	store, err := NewStore(c.Entries)
	if err != nil {
		return nil, err
	}
	index, err := NewKeywordIndex(c.Keywords, store)
	if err != nil {
		return nil, err
	}
	return &Base{
		Name:            strings.TrimSpace(c.Name),
		About:           strings.TrimSpace(c.About),
		FallbackMessage: fallback,
		Store:           store,
		Keywords:        index,
	}, nil
}

// LoadDefault is DefaultCatalog followed by New.
func LoadDefault() (*Base, error) {
	c, err := DefaultCatalog()
	if err != nil {
		return nil, err
	}
	return New(c)
}
