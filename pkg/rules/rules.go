package rules

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/jwebster45206/world-forge/pkg/entity"
)

// CommonCategory is the shared attribute bucket merged into every
// category's view of the library.
const CommonCategory = "common"

// AttributeMeta describes one known attribute in the library. Reference
// text calibrates the model's value ranges, e.g. "10=basic, 25=good".
type AttributeMeta struct {
	Type        entity.AttributeType `yaml:"type" json:"type"`
	Description string               `yaml:"description" json:"description"`
	Reference   string               `yaml:"reference,omitempty" json:"reference,omitempty"`
	Values      []string             `yaml:"values,omitempty" json:"values,omitempty"` // enum values
}

// AttributeLibrary maps category -> attribute name -> metadata.
type AttributeLibrary map[string]map[string]AttributeMeta

// ForCategory returns the combined attribute view for a category: the
// category's own entries merged with the common bucket. Category entries
// win on a name clash.
func (l AttributeLibrary) ForCategory(category string) map[string]AttributeMeta {
	combined := make(map[string]AttributeMeta)
	for name, meta := range l[CommonCategory] {
		combined[name] = meta
	}
	if category != CommonCategory {
		for name, meta := range l[category] {
			combined[name] = meta
		}
	}
	return combined
}

// Categories returns the non-common category names, sorted for stable
// prompt output.
func (l AttributeLibrary) Categories() []string {
	names := make([]string, 0, len(l))
	for name := range l {
		if name == CommonCategory {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// WorldRules carries the world-flavoring inputs consumed by every
// generation stage: tone, era, art direction, and the per-category
// attribute library.
type WorldRules struct {
	Genre         string           `yaml:"genre" json:"genre"`
	ArtStyle      string           `yaml:"art_style" json:"art_style"`
	Period        string           `yaml:"period,omitempty" json:"period,omitempty"` // historical/period label
	ContentRating string           `yaml:"content_rating,omitempty" json:"content_rating,omitempty"`
	Categories    AttributeLibrary `yaml:"categories" json:"categories"`
}

func (r *WorldRules) Validate() error {
	if r.Genre == "" {
		return fmt.Errorf("rules genre cannot be empty")
	}
	if r.ArtStyle == "" {
		return fmt.Errorf("rules art_style cannot be empty")
	}
	for category, attrs := range r.Categories {
		for name, meta := range attrs {
			if meta.Type == "" {
				return fmt.Errorf("attribute %s.%s has no type", category, name)
			}
			if meta.Type == entity.AttributeEnum && len(meta.Values) == 0 {
				return fmt.Errorf("enum attribute %s.%s has no values", category, name)
			}
		}
	}
	return nil
}

// Load reads world rules from a YAML file.
func Load(path string) (*WorldRules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}

	var r WorldRules
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to parse rules file: %w", err)
	}
	if r.Categories == nil {
		r.Categories = make(AttributeLibrary)
	}
	if err := r.Validate(); err != nil {
		return nil, fmt.Errorf("invalid rules file %s: %w", path, err)
	}
	return &r, nil
}

// Default returns a minimal fantasy ruleset used when no rules file is
// configured.
func Default() *WorldRules {
	return &WorldRules{
		Genre:    "high fantasy",
		ArtStyle: "painterly fantasy illustration",
		Categories: AttributeLibrary{
			CommonCategory: {
				"value": {
					Type:        entity.AttributeInteger,
					Description: "Trade value in gold pieces.",
					Reference:   "1=trinket, 50=valuable, 500=priceless",
				},
			},
			"weapon": {
				"damage": {
					Type:        entity.AttributeInteger,
					Description: "Damage dealt on a solid hit.",
					Reference:   "10=basic, 25=good, 50=exceptional",
				},
			},
		},
	}
}
