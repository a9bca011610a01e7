package ingest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/stylesearch/internal/domain"
	"github.com/kailas-cloud/stylesearch/internal/domain/catalog"
)

// Format is a catalog file encoding.
type Format string

// Supported formats.
const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatFromPath picks the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", domain.NewValidationError("file", fmt.Sprintf("unsupported extension %q (want .yaml, .yml or .json)", filepath.Ext(path)))
	}
}

// document is the wrapped file shape: {items: [...]}.
type document struct {
	Items []catalog.Item `json:"items" yaml:"items"`
}

// Decode reads items from r. The file holds either a top-level list of items
// or an object with an "items" list.
func Decode(r io.Reader, format Format) ([]catalog.Item, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	switch format {
	case FormatJSON:
		return decodeJSON(data)
	case FormatYAML:
		return decodeYAML(data)
	default:
		return nil, domain.NewValidationError("format", fmt.Sprintf("unsupported format %q", format))
	}
}

func decodeJSON(data []byte) ([]catalog.Item, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return []catalog.Item{}, nil
	}
	if trimmed[0] == '[' {
		var items []catalog.Item
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("%w: decode json: %w", domain.ErrValidation, err)
		}
		return items, nil
	}
	var doc document
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return nil, fmt.Errorf("%w: decode json: %w", domain.ErrValidation, err)
	}
	return nonNilItems(doc.Items), nil
}

func decodeYAML(data []byte) ([]catalog.Item, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("%w: decode yaml: %w", domain.ErrValidation, err)
	}
	if len(root.Content) == 0 {
		return []catalog.Item{}, nil
	}
	node := root.Content[0]
	if node.Kind == yaml.SequenceNode {
		var items []catalog.Item
		if err := node.Decode(&items); err != nil {
			return nil, fmt.Errorf("%w: decode yaml: %w", domain.ErrValidation, err)
		}
		return items, nil
	}
	var doc document
	if err := node.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: decode yaml: %w", domain.ErrValidation, err)
	}
	return nonNilItems(doc.Items), nil
}

func nonNilItems(items []catalog.Item) []catalog.Item {
	if items == nil {
		return []catalog.Item{}
	}
	return items
}
