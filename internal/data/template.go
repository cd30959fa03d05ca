package data

import (
	"fmt"
	"os"
	"sort"

	"github.com/flockgo/flockd/internal/boid"
	colorful "github.com/lucasb-eyer/go-colorful"
	"gopkg.in/yaml.v3"
)

// BoidTemplate is the static description a boid is instantiated from.
type BoidTemplate struct {
	ID          string  `yaml:"id"`
	Name        string  `yaml:"name"`
	SpeedScale  float64 `yaml:"speed_scale"`  // multiplies flock.velocity; 0 means 1
	SightScale  float64 `yaml:"sight_scale"`  // multiplies flock.neighbor_dist; 0 means 1
	Color       string  `yaml:"color"`        // hex, e.g. "#3fa9f5"
	Description string  `yaml:"description,omitempty"`

	color colorful.Color
}

// Tint is the parsed template color.
func (t *BoidTemplate) Tint() colorful.Color { return t.color }

// Apply returns p adjusted by the template's scale factors.
func (t *BoidTemplate) Apply(p boid.Params) boid.Params {
	if t.SpeedScale > 0 {
		p.Velocity *= t.SpeedScale
	}
	if t.SightScale > 0 {
		p.NeighborDist *= t.SightScale
	}
	return p
}

type templateListFile struct {
	Templates []BoidTemplate `yaml:"templates"`
}

// TemplateTable holds boid templates indexed by ID.
type TemplateTable struct {
	templates map[string]*BoidTemplate
}

// LoadTemplateTable loads boid templates from a YAML file.
func LoadTemplateTable(path string) (*TemplateTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read boid templates: %w", err)
	}
	return ParseTemplateTable(raw)
}

// ParseTemplateTable builds a table from YAML bytes.
func ParseTemplateTable(raw []byte) (*TemplateTable, error) {
	var f templateListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse boid templates: %w", err)
	}
	t := &TemplateTable{templates: make(map[string]*BoidTemplate, len(f.Templates))}
	for i := range f.Templates {
		tmpl := &f.Templates[i]
		if tmpl.ID == "" {
			return nil, fmt.Errorf("boid template #%d has no id", i)
		}
		if _, dup := t.templates[tmpl.ID]; dup {
			return nil, fmt.Errorf("duplicate boid template %q", tmpl.ID)
		}
		if tmpl.SpeedScale < 0 || tmpl.SightScale < 0 {
			return nil, fmt.Errorf("boid template %q: scale factors must not be negative", tmpl.ID)
		}
		if tmpl.Color == "" {
			tmpl.color = colorful.Color{R: 1, G: 1, B: 1}
		} else {
			c, err := colorful.Hex(tmpl.Color)
			if err != nil {
				return nil, fmt.Errorf("boid template %q: color: %w", tmpl.ID, err)
			}
			tmpl.color = c
		}
		if tmpl.Name == "" {
			tmpl.Name = tmpl.ID
		}
		t.templates[tmpl.ID] = tmpl
	}
	return t, nil
}

// Get returns a template by ID, or nil if not found.
func (t *TemplateTable) Get(id string) *BoidTemplate {
	return t.templates[id]
}

// Count returns the number of loaded templates.
func (t *TemplateTable) Count() int {
	return len(t.templates)
}

// IDs returns template IDs in sorted order.
func (t *TemplateTable) IDs() []string {
	ids := make([]string, 0, len(t.templates))
	for id := range t.templates {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
