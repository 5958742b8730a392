package file

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/docrag/internal/core/domain"
)

// entityFile is the mapping form of an entities file.
type entityFile struct {
	Label    string   `yaml:"label"`
	Entities []string `yaml:"entities"`
}

// LoadEntities reads a YAML entity list and merges it into base.
//
// The file is either a plain sequence of names or a mapping with "label"
// and "entities". Names replace base.Names; a non-empty label replaces
// base.Label. Blank and repeated names are dropped.
func LoadEntities(path string, base domain.EntitySettings) (domain.EntitySettings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return base, fmt.Errorf("entities file %s: %w", path, domain.ErrConfigNotFound)
		}
		return base, fmt.Errorf("reading entities file: %w", err)
	}
	return ParseEntities(data, base)
}

// ParseEntities decodes entity YAML. See LoadEntities.
func ParseEntities(data []byte, base domain.EntitySettings) (domain.EntitySettings, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return base, fmt.Errorf("%w: entities: %v", domain.ErrInvalidInput, err)
	}
	if len(node.Content) == 0 {
		return base, fmt.Errorf("%w: entities file is empty", domain.ErrInvalidInput)
	}

	var parsed entityFile
	doc := node.Content[0]
	switch doc.Kind {
	case yaml.SequenceNode:
		if err := doc.Decode(&parsed.Entities); err != nil {
			return base, fmt.Errorf("%w: entities: %v", domain.ErrInvalidInput, err)
		}
	case yaml.MappingNode:
		if err := doc.Decode(&parsed); err != nil {
			return base, fmt.Errorf("%w: entities: %v", domain.ErrInvalidInput, err)
		}
	default:
		return base, fmt.Errorf("%w: entities must be a list or a mapping", domain.ErrInvalidInput)
	}

	names := dedupe(parsed.Entities)
	if len(names) == 0 {
		return base, fmt.Errorf("%w: entities file lists no names", domain.ErrInvalidInput)
	}

	out := base
	out.Names = names
	if label := strings.TrimSpace(parsed.Label); label != "" {
		out.Label = label
	}
	return out, nil
}

func dedupe(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
