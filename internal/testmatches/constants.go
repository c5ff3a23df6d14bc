package testmatches

// Generation defaults.
const (
	defaultEventsPerMatch = 3000
	defaultFirstMatchID   = 3788741
	defaultCoverage       = 0.8
	defaultShotRate       = 0.08
	defaultGoalRate       = 0.11
)

// Pitch and possession shape.
const (
	pitchLength      = 120.0
	pitchWidth       = 80.0
	minPossession    = 2
	maxPossession    = 9
	minFramePlayers  = 6
	maxFramePlayers  = 18
	visibleAreaSides = 5
	matchMinutes     = 95
	squadSize        = 11
)
