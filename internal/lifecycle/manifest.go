package lifecycle

import (
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"

	"github.com/ShayCichocki/triage/pkg/models"
)

// DefaultManifestFile is the manifest name looked up in the working directory.
const DefaultManifestFile = "models.yaml"

// Role names accepted in a manifest.
const (
	RoleDecision    = "decision"
	RoleTaskBreaker = "task_breaker"
	RoleWorker      = "worker"
)

// ModelDefinition declares one model built from a Modelfile.
type ModelDefinition struct {
	Name      string `yaml:"name"`
	Modelfile string `yaml:"modelfile"`
	// Role optionally binds the model to a router role.
	Role string `yaml:"role,omitempty"`
}

// Manifest lists the models a project needs.
type Manifest struct {
	Models []ModelDefinition `yaml:"models"`
}

// LoadManifest reads and validates a manifest, resolving Modelfile paths
// relative to the manifest's directory.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("invalid manifest %s: %w", path, err)
	}

	m.Resolve(filepath.Dir(path))
	return &m, nil
}

// Validate checks names are present and unique and roles are known and unshared.
func (m *Manifest) Validate() error {
	names := make(map[string]bool)
	roles := make(map[string]string)
	for i, def := range m.Models {
		if def.Name == "" {
			return fmt.Errorf("model %d has no name", i)
		}
		if def.Modelfile == "" {
			return fmt.Errorf("model %s has no modelfile", def.Name)
		}
		if names[def.Name] {
			return fmt.Errorf("model %s defined twice", def.Name)
		}
		names[def.Name] = true

		switch def.Role {
		case "":
		case RoleDecision, RoleTaskBreaker, RoleWorker:
			if other, ok := roles[def.Role]; ok {
				return fmt.Errorf("role %s assigned to both %s and %s", def.Role, other, def.Name)
			}
			roles[def.Role] = def.Name
		default:
			return fmt.Errorf("model %s has unknown role %q", def.Name, def.Role)
		}
	}
	return nil
}

// Resolve makes relative Modelfile paths absolute against baseDir.
func (m *Manifest) Resolve(baseDir string) {
	for i := range m.Models {
		if !filepath.IsAbs(m.Models[i].Modelfile) {
			m.Models[i].Modelfile = filepath.Join(baseDir, m.Models[i].Modelfile)
		}
	}
}

// RoleModels returns the identities bound to roles. Unbound roles are empty.
func (m *Manifest) RoleModels() models.Roles {
	var roles models.Roles
	for _, def := range m.Models {
		switch def.Role {
		case RoleDecision:
			roles.Decision = models.ModelIdentity(def.Name)
		case RoleTaskBreaker:
			roles.TaskBreaker = models.ModelIdentity(def.Name)
		case RoleWorker:
			roles.Worker = models.ModelIdentity(def.Name)
		}
	}
	return roles
}

// Lookup returns the definition whose Modelfile is path.
func (m *Manifest) Lookup(modelfile string) (ModelDefinition, bool) {
	clean := filepath.Clean(modelfile)
	for _, def := range m.Models {
		if filepath.Clean(def.Modelfile) == clean {
			return def, true
		}
	}
	return ModelDefinition{}, false
}
