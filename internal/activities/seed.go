package activities

import (
	"fmt"

	"mergington-activities/internal/models"
)

// Seed is an initial registry snapshot keyed by activity name.
type Seed map[string]models.Activity

// Clone returns a deep copy of s.
func (s Seed) Clone() Seed {
	out := make(Seed, len(s))
	for name, activity := range s {
		out[name] = activity.Clone()
	}
	return out
}

// Validate checks the roster invariants every registry must start from.
func (s Seed) Validate() error {
	for name, activity := range s {
		if name == "" {
			return fmt.Errorf("%w: activity with empty name", ErrInvalidSeed)
		}
		if activity.MaxParticipants <= 0 {
			return fmt.Errorf("%w: %q has non-positive max_participants %d", ErrInvalidSeed, name, activity.MaxParticipants)
		}
		if len(activity.Participants) > activity.MaxParticipants {
			return fmt.Errorf("%w: %q has %d participants but max_participants is %d",
				ErrInvalidSeed, name, len(activity.Participants), activity.MaxParticipants)
		}
		seen := make(map[string]struct{}, len(activity.Participants))
		for _, email := range activity.Participants {
			if email == "" {
				return fmt.Errorf("%w: %q has an empty participant email", ErrInvalidSeed, name)
			}
			if _, dup := seen[email]; dup {
				return fmt.Errorf("%w: %q lists %s more than once", ErrInvalidSeed, name, email)
			}
			seen[email] = struct{}{}
		}
	}
	return nil
}

// DefaultSeed returns a fresh copy of the built-in Mergington High School
// activities. Callers may mutate the result freely.
func DefaultSeed() Seed {
	return Seed{
		"Chess Club": {
			Description:     "Learn strategies and compete in chess tournaments",
			Schedule:        "Fridays, 3:30 PM - 5:00 PM",
			MaxParticipants: 12,
			Participants:    []string{"michael@mergington.edu", "daniel@mergington.edu"},
		},
		"Programming Class": {
			Description:     "Learn programming fundamentals and build software projects",
			Schedule:        "Tuesdays and Thursdays, 3:30 PM - 4:30 PM",
			MaxParticipants: 20,
			Participants:    []string{"emma@mergington.edu", "sophia@mergington.edu"},
		},
		"Gym Class": {
			Description:     "Physical education and sports activities",
			Schedule:        "Mondays, Wednesdays, Fridays, 2:00 PM - 3:00 PM",
			MaxParticipants: 30,
			Participants:    []string{"john@mergington.edu", "olivia@mergington.edu"},
		},
		"Basketball Team": {
			Description:     "Practice drills and compete in the regional school league",
			Schedule:        "Mondays and Wednesdays, 4:00 PM - 5:30 PM",
			MaxParticipants: 15,
			Participants:    []string{"james@mergington.edu"},
		},
		"Tennis Club": {
			Description:     "Improve your serve and play friendly matches",
			Schedule:        "Tuesdays and Thursdays, 4:00 PM - 5:00 PM",
			MaxParticipants: 10,
			Participants:    []string{"ava@mergington.edu"},
		},
		"Art Club": {
			Description:     "Explore painting, drawing and sculpture",
			Schedule:        "Wednesdays, 3:30 PM - 5:00 PM",
			MaxParticipants: 15,
			Participants:    []string{"mia@mergington.edu"},
		},
		"Drama Club": {
			Description:     "Act, direct and stage the school plays",
			Schedule:        "Thursdays, 3:30 PM - 5:30 PM",
			MaxParticipants: 20,
			Participants:    []string{"liam@mergington.edu", "isabella@mergington.edu"},
		},
		"Math Club": {
			Description:     "Solve challenging problems and prepare for math competitions",
			Schedule:        "Tuesdays, 3:30 PM - 4:30 PM",
			MaxParticipants: 10,
			Participants:    []string{"noah@mergington.edu"},
		},
		"Debate Team": {
			Description:     "Build public speaking skills and argue current topics",
			Schedule:        "Fridays, 4:00 PM - 5:30 PM",
			MaxParticipants: 12,
			Participants:    []string{"charlotte@mergington.edu"},
		},
	}
}
