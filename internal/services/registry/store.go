package registry

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fgeck/gowake/internal/mac"
	"github.com/fgeck/gowake/internal/models"
	"gopkg.in/yaml.v3"
)

const machinesKey = "machines"

// Store loads and saves registry entries.
type Store interface {
	Load() ([]models.Machine, error)
	Save(machines []models.Machine) error
	Path() string
}

// FileStore keeps the registry in a YAML file:
//
//	machines:
//	  office: "01:23:45:67:89:ab"
//
// Entries are kept in file order.
type FileStore struct {
	path string
}

// NewFileStore creates a store backed by the file at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the file location.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the registry file. A missing file yields an empty registry.
func (s *FileStore) Load() ([]models.Machine, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrConfigCorrupt, s.path, err)
	}

	machines, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrConfigCorrupt, s.path, err)
	}
	return machines, nil
}

// Save atomically replaces the registry file, creating its directory if needed.
func (s *FileStore) Save(machines []models.Machine) error {
	data, err := encode(machines)
	if err != nil {
		return fmt.Errorf("encoding registry: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("creating registry directory: %w", err)
	}

	if err := writeFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("writing registry file: %w", err)
	}
	return nil
}

func decode(data []byte) ([]models.Machine, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, nil
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: expected a mapping", root.Line)
	}

	var entries *yaml.Node
	for i := 0; i+1 < len(root.Content); i += 2 {
		if root.Content[i].Value == machinesKey {
			entries = root.Content[i+1]
			break
		}
	}
	if entries == nil || entries.Tag == "!!null" {
		return nil, nil
	}
	if entries.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: %s must be a mapping of name to MAC address", entries.Line, machinesKey)
	}

	machines := make([]models.Machine, 0, len(entries.Content)/2)
	seen := make(map[string]bool, len(entries.Content)/2)
	for i := 0; i+1 < len(entries.Content); i += 2 {
		key, value := entries.Content[i], entries.Content[i+1]

		if key.Kind != yaml.ScalarNode || strings.TrimSpace(key.Value) == "" {
			return nil, fmt.Errorf("line %d: invalid machine name", key.Line)
		}
		if seen[key.Value] {
			return nil, fmt.Errorf("line %d: duplicate machine %q", key.Line, key.Value)
		}
		if value.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("line %d: MAC address of %q must be a string", value.Line, key.Value)
		}

		addr, err := mac.ParseString(value.Value)
		if err != nil {
			return nil, fmt.Errorf("line %d: machine %q: %w", value.Line, key.Value, err)
		}

		seen[key.Value] = true
		machines = append(machines, models.Machine{Name: key.Value, MAC: addr})
	}

	return machines, nil
}

func encode(machines []models.Machine) ([]byte, error) {
	entries := &yaml.Node{Kind: yaml.MappingNode}
	for _, m := range machines {
		entries.Content = append(entries.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: m.Name},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: m.MAC.String(), Style: yaml.DoubleQuotedStyle},
		)
	}

	doc := &yaml.Node{
		Kind: yaml.DocumentNode,
		Content: []*yaml.Node{{
			Kind: yaml.MappingNode,
			Content: []*yaml.Node{
				{Kind: yaml.ScalarNode, Tag: "!!str", Value: machinesKey},
				entries,
			},
		}},
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
