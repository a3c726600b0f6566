// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"mergington-activities/internal/activities"
	"mergington-activities/internal/common/validation"
	"mergington-activities/internal/models"

	"gopkg.in/yaml.v3"
)

var ErrInvalidCatalog = errors.New("INVALID_CATALOG")

// LoadRegistry reads a catalog file. JSON and YAML are both accepted. The
// document is checked against CatalogSchema before it is decoded.
func LoadRegistry(path string) (*ActivityRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseRegistry(data)
}

// ParseRegistry decodes and validates catalog bytes.
func ParseRegistry(data []byte) (*ActivityRegistry, error) {
	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: empty document", ErrInvalidCatalog)
	}

	result, err := validation.ValidateJSON(doc, CatalogSchema)
	if err != nil {
		return nil, err
	}
	if !result.Valid {
		return nil, fmt.Errorf("%w: %s", ErrInvalidCatalog, strings.Join(result.GetErrorMessages(), "; "))
	}

	var reg ActivityRegistry
	if err := yaml.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}
	return &reg, nil
}

// SaveRegistry writes reg to path, as YAML for .yaml/.yml files and indented
// JSON otherwise.
func SaveRegistry(reg *ActivityRegistry, path string) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(reg)
	default:
		data, err = json.MarshalIndent(reg, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to marshal registry: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write registry file: %w", err)
	}
	return nil
}

// New returns an empty catalog stamped with the current time.
func New(version string) *ActivityRegistry {
	return &ActivityRegistry{
		Version:     version,
		LastUpdated: time.Now().UTC().Format(time.RFC3339),
		Activities:  []Activity{},
	}
}

// FromSeed builds a catalog from a seed, ordered by activity name.
func FromSeed(seed activities.Seed, version string) *ActivityRegistry {
	reg := New(version)
	names := make([]string, 0, len(seed))
	for name := range seed {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		a := seed[name].Clone()
		reg.Activities = append(reg.Activities, Activity{
			Name:            name,
			Description:     a.Description,
			Schedule:        a.Schedule,
			MaxParticipants: a.MaxParticipants,
			Participants:    a.Participants,
		})
	}
	return reg
}

// ToSeed converts the catalog to a registry seed and checks the roster
// invariants.
func (r *ActivityRegistry) ToSeed() (activities.Seed, error) {
	seed := make(activities.Seed, len(r.Activities))
	for _, a := range r.Activities {
		if _, dup := seed[a.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate activity %q", ErrInvalidCatalog, a.Name)
		}
		participants := a.Participants
		if participants == nil {
			participants = []string{}
		}
		seed[a.Name] = models.Activity{
			Description:     a.Description,
			Schedule:        a.Schedule,
			MaxParticipants: a.MaxParticipants,
			Participants:    participants,
		}.Clone()
	}
	if err := seed.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}
	return seed, nil
}

// Find returns the index of the named activity, or -1.
func (r *ActivityRegistry) Find(name string) int {
	for i := range r.Activities {
		if r.Activities[i].Name == name {
			return i
		}
	}
	return -1
}

// Add appends activity. Names must be unique.
func (r *ActivityRegistry) Add(activity Activity) error {
	if r.Find(activity.Name) >= 0 {
		return fmt.Errorf("activity %s already exists", activity.Name)
	}
	r.Activities = append(r.Activities, activity)
	r.touch()
	return nil
}

// Update sets one field of the named activity from its string form.
func (r *ActivityRegistry) Update(name, field, value string) error {
	i := r.Find(name)
	if i < 0 {
		return fmt.Errorf("activity %s not found", name)
	}

	a := &r.Activities[i]
	switch field {
	case "description":
		a.Description = value
	case "schedule":
		a.Schedule = value
	case "maxParticipants":
		var n int
		if _, err := fmt.Sscanf(value, "%d", &n); err != nil || n < 1 {
			return fmt.Errorf("invalid maxParticipants value: %q", value)
		}
		if n < len(a.Participants) {
			return fmt.Errorf("maxParticipants %d is below the %d current participants", n, len(a.Participants))
		}
		a.MaxParticipants = n
	default:
		return fmt.Errorf("unknown field: %s", field)
	}
	r.touch()
	return nil
}

// Validate runs the same checks LoadRegistry and ToSeed apply.
func (r *ActivityRegistry) Validate() error {
	result, err := validation.ValidateJSON(r, CatalogSchema)
	if err != nil {
		return err
	}
	if !result.Valid {
		return fmt.Errorf("%w: %s", ErrInvalidCatalog, strings.Join(result.GetErrorMessages(), "; "))
	}
	if len(r.Activities) == 0 {
		return fmt.Errorf("%w: registry contains no activities", ErrInvalidCatalog)
	}
	_, err = r.ToSeed()
	return err
}

func (r *ActivityRegistry) touch() {
	r.LastUpdated = time.Now().UTC().Format(time.RFC3339)
}
