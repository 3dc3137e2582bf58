package world

import "strings"

// Region is one named area of the world map.
type Region struct {
	Name        string `json:"name" yaml:"name"`
	Biome       string `json:"biome,omitempty" yaml:"biome,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Context is a snapshot of ambient world state handed to the generation
// pipeline. It is an optional enhancement: an empty context is valid and
// skips the context-synthesis stage entirely.
type Context struct {
	CurrentRegion Region   `json:"current_region,omitempty" yaml:"current_region,omitempty"`
	Setting       string   `json:"setting,omitempty" yaml:"setting,omitempty"`
	RecentEvents  []string `json:"recent_events,omitempty" yaml:"recent_events,omitempty"`
}

// IsEmpty reports whether the snapshot carries nothing worth summarizing.
func (c Context) IsEmpty() bool {
	return c.CurrentRegion.Name == "" &&
		strings.TrimSpace(c.Setting) == "" &&
		len(c.RecentEvents) == 0
}
