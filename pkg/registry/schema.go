// pkg/registry/schema.go
package registry

// ActivityRegistry is the on-disk activity catalog a server can be seeded from.
type ActivityRegistry struct {
	Version     string     `json:"version" yaml:"version"`
	LastUpdated string     `json:"lastUpdated" yaml:"lastUpdated"`
	Activities  []Activity `json:"activities" yaml:"activities"`
}

type Activity struct {
	Name            string   `json:"name" yaml:"name"`
	Description     string   `json:"description" yaml:"description"`
	Schedule        string   `json:"schedule" yaml:"schedule"`
	MaxParticipants int      `json:"maxParticipants" yaml:"maxParticipants"`
	Participants    []string `json:"participants,omitempty" yaml:"participants,omitempty"`
}

// CatalogSchema is the JSON schema every catalog file must satisfy.
const CatalogSchema = `{
  "type": "object",
  "properties": {
    "version": {"type": "string"},
    "lastUpdated": {"type": "string"},
    "activities": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "name": {"type": "string", "minLength": 1},
          "description": {"type": "string"},
          "schedule": {"type": "string"},
          "maxParticipants": {"type": "integer", "minimum": 1},
          "participants": {
            "type": "array",
            "items": {"type": "string", "minLength": 1},
            "uniqueItems": true
          }
        },
        "required": ["name", "maxParticipants"]
      }
    }
  },
  "required": ["activities"]
}`
