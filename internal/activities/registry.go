// Package activities holds the in-memory activity registry and enforces the
// signup and withdrawal rules on its rosters.
package activities

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"

	"mergington-activities/internal/models"
)

var (
	ErrActivityNotFound = errors.New("ACTIVITY_NOT_FOUND")
	ErrAlreadySignedUp  = errors.New("ALREADY_SIGNED_UP")
	ErrActivityFull     = errors.New("ACTIVITY_FULL")
	ErrNotRegistered    = errors.New("NOT_REGISTERED")
	ErrInvalidSeed      = errors.New("INVALID_SEED")
)

// record guards one activity. Signup and Unregister on different activities
// never contend.
type record struct {
	mu       sync.Mutex
	activity models.Activity
}

// Registry maps activity names to their records. The set of names is fixed at
// construction; only participant lists change afterwards.
type Registry struct {
	records map[string]*record
	names   []string
}

// ActivityStats is a point-in-time roster size for one activity.
type ActivityStats struct {
	Name         string
	Participants int
	Capacity     int
}

// New builds a registry owning a deep copy of seed.
func New(seed Seed) (*Registry, error) {
	if err := seed.Validate(); err != nil {
		return nil, err
	}

	r := &Registry{
		records: make(map[string]*record, len(seed)),
		names:   make([]string, 0, len(seed)),
	}
	for name, activity := range seed {
		r.records[name] = &record{activity: activity.Clone()}
		r.names = append(r.names, name)
	}
	sort.Strings(r.names)

	return r, nil
}

// NewDefault builds a registry from DefaultSeed.
func NewDefault() *Registry {
	r, err := New(DefaultSeed())
	if err != nil {
		panic(fmt.Sprintf("activities: default seed is invalid: %v", err))
	}
	return r
}

// List returns a copy of every activity keyed by name.
func (r *Registry) List() map[string]models.Activity {
	out := make(map[string]models.Activity, len(r.records))
	for name, rec := range r.records {
		rec.mu.Lock()
		out[name] = rec.activity.Clone()
		rec.mu.Unlock()
	}
	return out
}

// Get returns a copy of a single activity.
func (r *Registry) Get(name string) (models.Activity, bool) {
	rec, ok := r.records[name]
	if !ok {
		return models.Activity{}, false
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return rec.activity.Clone(), true
}

// Names returns the activity names in sorted order.
func (r *Registry) Names() []string {
	return slices.Clone(r.names)
}

// Stats reports roster sizes in name order.
func (r *Registry) Stats() []ActivityStats {
	stats := make([]ActivityStats, 0, len(r.names))
	for _, name := range r.names {
		rec := r.records[name]
		rec.mu.Lock()
		stats = append(stats, ActivityStats{
			Name:         name,
			Participants: len(rec.activity.Participants),
			Capacity:     rec.activity.MaxParticipants,
		})
		rec.mu.Unlock()
	}
	return stats
}

// Signup adds email to the roster of the named activity.
//
// Checks run in a fixed order: the activity must exist, the email must not
// already be on the roster, and the roster must have a free spot. A duplicate
// email sent to a full activity is therefore reported as ErrAlreadySignedUp.
func (r *Registry) Signup(name, email string) (string, error) {
	rec, ok := r.records[name]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrActivityNotFound, name)
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	if slices.Contains(rec.activity.Participants, email) {
		return "", fmt.Errorf("%w: %s is already on the %q roster", ErrAlreadySignedUp, email, name)
	}
	if len(rec.activity.Participants) >= rec.activity.MaxParticipants {
		return "", fmt.Errorf("%w: %q has %d/%d participants", ErrActivityFull, name,
			len(rec.activity.Participants), rec.activity.MaxParticipants)
	}

	rec.activity.Participants = append(rec.activity.Participants, email)

	return fmt.Sprintf("Signed up %s for %s", email, name), nil
}

// Unregister removes email from the roster of the named activity.
func (r *Registry) Unregister(name, email string) (string, error) {
	rec, ok := r.records[name]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrActivityNotFound, name)
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	idx := slices.Index(rec.activity.Participants, email)
	if idx < 0 {
		return "", fmt.Errorf("%w: %s is not on the %q roster", ErrNotRegistered, email, name)
	}
	rec.activity.Participants = slices.Delete(rec.activity.Participants, idx, idx+1)

	return fmt.Sprintf("Unregistered %s from %s", email, name), nil
}
