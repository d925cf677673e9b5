// Package gamification creates the default objective set for newly activated
// accounts. Objective progress tracking lives elsewhere; only the bootstrap
// belongs to the auth flow.
package gamification

import "time"

// Objective is one gamification goal attached to an account.
type Objective struct {
	ID        string
	UserID    string
	Type      ObjectiveType
	Level     int
	Target    int
	Progress  int
	Completed bool
	CreatedAt time.Time
}

type ObjectiveType string

const (
	TypeTrainingCount   ObjectiveType = "training_count"
	TypeConsecutiveDays ObjectiveType = "consecutive_days"
	TypeTrainingMinutes ObjectiveType = "training_minutes"
)

// defaultTargets defines the tiered objective ladder every account starts with.
var defaultTargets = map[ObjectiveType][]int{
	TypeTrainingCount:   {10, 50, 100},
	TypeConsecutiveDays: {3, 7, 30},
	TypeTrainingMinutes: {60, 300, 1000},
}
