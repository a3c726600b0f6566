// internal/handlers/activities/list-activities/models.go
package listactivities

import "mergington-activities/internal/models"

// Output maps activity name to its current state.
type Output map[string]models.Activity
