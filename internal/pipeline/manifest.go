package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/Jiang-Li/ACS-Internet/internal/config"
	"github.com/Jiang-Li/ACS-Internet/internal/utils"
)

// ManifestName is the manifest file written into every output directory.
const ManifestName = "run.yaml"

// Manifest records what one run read, derived and wrote, so outputs stay
// traceable to their inputs.
type Manifest struct {
	ID         string    `yaml:"id"`
	CreatedAt  time.Time `yaml:"created_at"`
	UpdatedAt  time.Time `yaml:"updated_at"`
	Year       int       `yaml:"year"`
	Input      string    `yaml:"input"`
	Codebook   string    `yaml:"codebook,omitempty"`
	Rows       int       `yaml:"rows"`
	Columns    []string  `yaml:"columns"`
	Derived    []string  `yaml:"derived,omitempty"`
	Dimensions []string  `yaml:"dimensions"`
	Income     string    `yaml:"income_bucketing,omitempty"`
	Outputs    []string  `yaml:"outputs,omitempty"`
	Warnings   []string  `yaml:"warnings,omitempty"`
}

// NewManifest describes a freshly built schema.
func NewManifest(cfg *config.Global, s *Schema) *Manifest {
	m := &Manifest{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
		Year:      cfg.Year,
		Input:     cfg.FactFile,
		Codebook:  cfg.CodebookFile,
		Rows:      s.Table.Len(),
		Columns:   s.Table.Columns(),
		Derived:   s.Table.Derived(),
		Income:    s.Income.String(),
		Warnings:  s.Warnings,
	}
	for _, d := range s.Dimensions {
		m.Dimensions = append(m.Dimensions, d.Variable)
	}
	return m
}

// AddOutput records an output file name once.
func (m *Manifest) AddOutput(name string) {
	for _, o := range m.Outputs {
		if o == name {
			return
		}
	}
	m.Outputs = append(m.Outputs, name)
}

// Save writes the manifest into dir as run.yaml.
func (m *Manifest) Save(dir string) error {
	m.UpdatedAt = time.Now().UTC()
	b, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	if err := utils.SafeWriteFile(filepath.Join(dir, ManifestName), b); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

// LoadManifest reads dir's run.yaml.
func LoadManifest(dir string) (*Manifest, error) {
	b, err := os.ReadFile(filepath.Join(dir, ManifestName))
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	return &m, nil
}
